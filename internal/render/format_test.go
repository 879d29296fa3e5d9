package render

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/CaptShanks/tfreview/internal/parser"
)

func attrChange(name string, oldV, newV *string) parser.AttributeChange {
	return parser.AttributeChange{Name: name, Old: oldV, New: newV}
}

func resourceWith(attrs ...parser.AttributeChange) parser.ResourceChange {
	return parser.ResourceChange{
		Address:    parser.ParseAddress("aws_instance.web"),
		Change:     parser.ChangeUpdate,
		Attributes: attrs,
	}
}

func str(s string) *string { return &s }

func TestResourceLinesScalars(t *testing.T) {
	r := resourceWith(
		attrChange("ami", str("ami-old"), str("ami-new")),
		attrChange("instance_type", nil, str("t2.micro")),
		attrChange("bucket", str("my-bucket"), nil),
		parser.AttributeChange{Name: "arn", Computed: true},
		parser.AttributeChange{Name: "password", Sensitive: true},
	)

	lines := ResourceLines(r)
	texts := make([]string, len(lines))
	for i, l := range lines {
		texts[i] = l.String()
	}

	assert.Equal(t, `    ~ ami           = "ami-old" -> "ami-new"`, texts[0])
	assert.Equal(t, `    + instance_type = "t2.micro"`, texts[1])
	assert.Equal(t, `    - bucket        = "my-bucket"`, texts[2])
	assert.Equal(t, "    + arn           = (known after apply)", texts[3])
	assert.Equal(t, "    ~ password      = (sensitive value)", texts[4])
}

func TestResourceLinesNestedBlock(t *testing.T) {
	r := resourceWith(parser.AttributeChange{
		Name: "tags",
		Children: []parser.AttributeChange{
			attrChange("Name", nil, str("example")),
		},
	})

	lines := ResourceLines(r)

	assert.Equal(t, "    + tags {", lines[0].String())
	assert.Equal(t, `        + Name = "example"`, lines[1].String())
	assert.Equal(t, "      }", lines[2].String())
}

func TestResourceLinesForcesReplacement(t *testing.T) {
	a := attrChange("ami", str("a"), str("b"))
	a.ForcesReplacement = true

	lines := ResourceLines(resourceWith(a))
	assert.Equal(t, `    ~ ami = "a" -> "b" # forces replacement`, lines[0].String())
}

func TestResourceLinesHiddenNotes(t *testing.T) {
	r := resourceWith(attrChange("ami", str("a"), str("b")))
	r.HiddenAttributes = 7

	lines := ResourceLines(r)
	assert.Equal(t, "      # (7 unchanged attributes hidden)", lines[len(lines)-1].String())
}

func TestResourceLinesUnchangedContext(t *testing.T) {
	lines := ResourceLines(resourceWith(attrChange("id", str("i-123"), str("i-123"))))
	assert.Equal(t, `      id = "i-123"`, lines[0].String())
	assert.Empty(t, lines[0].Marker)
}

func TestQuoteValue(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"hello", `"hello"`},
		{"true", "true"},
		{"null", "null"},
		{"42", "42"},
		{"-3.5", "-3.5"},
		{"10.0.0.5", `"10.0.0.5"`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, quoteValue(tt.in), "quoteValue(%q)", tt.in)
	}
}
