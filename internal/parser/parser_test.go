package parser

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestParseBasicPlan(t *testing.T) {
	input := `
Terraform will perform the following actions:

  # aws_instance.example will be created
  + resource "aws_instance" "example" {
      + ami                          = "ami-12345678"
      + arn                          = (known after apply)
      + availability_zone            = (known after apply)
      + instance_type                = "t2.micro"
      + tags                         = {
          + "Name" = "example"
        }
    }

  # aws_security_group.web will be updated in-place
  ~ resource "aws_security_group" "web" {
        id                     = "sg-12345678"
        name                   = "web"
      ~ description            = "Old description" -> "New description"
    }

  # aws_s3_bucket.data will be destroyed
  - resource "aws_s3_bucket" "data" {
      - bucket = "my-data-bucket" -> null
    }

Plan: 1 to add, 1 to change, 1 to destroy.
`

	plan, err := Parse(input)
	if err != nil {
		t.Fatalf("Failed to parse plan: %v", err)
	}

	if len(plan.Resources) != 3 {
		t.Fatalf("Expected 3 resources, got %d", len(plan.Resources))
	}
	if len(plan.Warnings) != 0 {
		t.Errorf("Expected no warnings, got %v", plan.Warnings)
	}

	// Source order is a contract.
	wantOrder := []struct {
		addr   string
		change ChangeType
	}{
		{"aws_instance.example", ChangeCreate},
		{"aws_security_group.web", ChangeUpdate},
		{"aws_s3_bucket.data", ChangeDelete},
	}
	for i, want := range wantOrder {
		got := plan.Resources[i]
		if got.Address.String() != want.addr {
			t.Errorf("Resource %d: expected address %q, got %q", i, want.addr, got.Address.String())
		}
		if got.Change != want.change {
			t.Errorf("Resource %d: expected change %s, got %s", i, want.change, got.Change)
		}
	}

	if plan.Counts == nil {
		t.Fatal("Expected summary counts to be present")
	}
	if *plan.Counts != (Counts{Add: 1, Change: 1, Destroy: 1}) {
		t.Errorf("Unexpected counts: %+v", plan.Counts)
	}

	// Create attributes: ami literal, arn computed, nested tags block.
	attrs := plan.Resources[0].Attributes
	if len(attrs) != 5 {
		t.Fatalf("Expected 5 attributes on create, got %d", len(attrs))
	}
	if attrs[0].Name != "ami" || attrs[0].New == nil || *attrs[0].New != "ami-12345678" || attrs[0].Old != nil {
		t.Errorf("Unexpected ami attribute: %+v", attrs[0])
	}
	if attrs[1].Name != "arn" || !attrs[1].Computed || attrs[1].New != nil {
		t.Errorf("Expected arn to be computed with absent value, got %+v", attrs[1])
	}
	tags := attrs[4]
	if tags.Name != "tags" || len(tags.Children) != 1 {
		t.Fatalf("Expected tags container with one child, got %+v", tags)
	}
	if tags.Children[0].Name != "Name" || *tags.Children[0].New != "example" {
		t.Errorf("Unexpected tags child: %+v", tags.Children[0])
	}

	// Update captures both sides of the arrow.
	upd := plan.Resources[1].Attributes
	if len(upd) != 1 {
		t.Fatalf("Expected 1 attribute on update, got %d", len(upd))
	}
	if upd[0].Name != "description" ||
		upd[0].Old == nil || *upd[0].Old != "Old description" ||
		upd[0].New == nil || *upd[0].New != "New description" {
		t.Errorf("Unexpected description attribute: %+v", upd[0])
	}
	if upd[0].Computed || upd[0].Sensitive || upd[0].ForcesReplacement {
		t.Errorf("Expected no annotations on description, got %+v", upd[0])
	}

	// "-> null" is redundant with the - marker and discarded.
	del := plan.Resources[2].Attributes
	if len(del) != 1 || del[0].Old == nil || *del[0].Old != "my-data-bucket" || del[0].New != nil {
		t.Errorf("Unexpected destroy attribute: %+v", del)
	}
}

func TestParseDeterministic(t *testing.T) {
	input := `
  # aws_instance.a will be created
  + resource "aws_instance" "a" {
      + ami = "ami-1"
    }

  # aws_instance.b will be destroyed
  - resource "aws_instance" "b" {
      - ami = "ami-2" -> null
    }

Plan: 1 to add, 0 to change, 1 to destroy.
`
	first, err := Parse(input)
	if err != nil {
		t.Fatalf("Failed to parse plan: %v", err)
	}
	second, err := Parse(input)
	if err != nil {
		t.Fatalf("Failed to parse plan: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("Parsing the same input twice produced different models")
	}
}

func TestParseReplace(t *testing.T) {
	input := `
  # aws_instance.replaced must be replaced
  -/+ resource "aws_instance" "replaced" {
      ~ ami           = "ami-old" -> "ami-new" # forces replacement
      + instance_type = "t2.micro"
    }

Plan: 1 to add, 0 to change, 1 to destroy.
`

	plan, err := Parse(input)
	if err != nil {
		t.Fatalf("Failed to parse plan: %v", err)
	}

	if len(plan.Resources) != 1 {
		t.Fatalf("Expected 1 resource, got %d", len(plan.Resources))
	}
	r := plan.Resources[0]
	if r.Change != ChangeReplace {
		t.Errorf("Expected change to be replace, got %s", r.Change)
	}

	var forcing []AttributeChange
	for _, a := range r.Attributes {
		if a.ForcesReplacement {
			forcing = append(forcing, a)
		}
	}
	if len(forcing) != 1 {
		t.Fatalf("Expected exactly 1 forces-replacement attribute, got %d", len(forcing))
	}
	if forcing[0].Name != "ami" || *forcing[0].Old != "ami-old" || *forcing[0].New != "ami-new" {
		t.Errorf("Unexpected forcing attribute: %+v", forcing[0])
	}

	// A replace counts toward both derived add and destroy.
	derived := plan.DerivedCounts()
	if derived.Add != 1 || derived.Destroy != 1 || derived.Change != 0 {
		t.Errorf("Unexpected derived counts: %+v", derived)
	}
	if len(plan.Warnings) != 0 {
		t.Errorf("Expected no warnings, got %v", plan.Warnings)
	}
}

func TestParseComputedUpdate(t *testing.T) {
	input := `
  # aws_instance.web will be updated in-place
  ~ resource "aws_instance" "web" {
      ~ public_ip = "10.0.0.5" -> (known after apply)
    }
`
	plan, err := Parse(input)
	if err != nil {
		t.Fatalf("Failed to parse plan: %v", err)
	}
	a := plan.Resources[0].Attributes[0]
	if a.Old == nil || *a.Old != "10.0.0.5" {
		t.Errorf("Expected old value 10.0.0.5, got %+v", a.Old)
	}
	if a.New != nil {
		t.Errorf("Expected absent new value, got %q", *a.New)
	}
	if !a.Computed {
		t.Error("Expected computed annotation to be set")
	}
}

func TestParseSensitiveRedaction(t *testing.T) {
	input := `
  # aws_db_instance.db will be updated in-place
  ~ resource "aws_db_instance" "db" {
      ~ password = (sensitive value)
      ~ username = "admin" -> "root"
    }
`
	plan, err := Parse(input)
	if err != nil {
		t.Fatalf("Failed to parse plan: %v", err)
	}
	attrs := plan.Resources[0].Attributes
	if !attrs[0].Sensitive {
		t.Error("Expected sensitive annotation on password")
	}
	if attrs[0].Old != nil || attrs[0].New != nil {
		t.Errorf("Sensitive values must never be extracted, got %+v", attrs[0])
	}
	if attrs[1].Sensitive {
		t.Error("Did not expect sensitive annotation on username")
	}
}

func TestParseNestedModuleAddress(t *testing.T) {
	input := `
  # module.networking.module.security.aws_security_group.app[0] will be created
  + resource "aws_security_group" "app" {
      + name = "app"
    }
`
	plan, err := Parse(input)
	if err != nil {
		t.Fatalf("Failed to parse plan: %v", err)
	}
	addr := plan.Resources[0].Address
	if !reflect.DeepEqual(addr.Modules, []string{"networking", "security"}) {
		t.Errorf("Unexpected module path: %v", addr.Modules)
	}
	if addr.Type != "aws_security_group" || addr.Name != "app" {
		t.Errorf("Unexpected type/name: %s.%s", addr.Type, addr.Name)
	}
	if addr.Index == nil || *addr.Index != 0 {
		t.Errorf("Expected index 0, got %v", addr.Index)
	}
	if addr.String() != "module.networking.module.security.aws_security_group.app[0]" {
		t.Errorf("Round-tripped address mismatch: %s", addr.String())
	}
}

func TestParseOutputs(t *testing.T) {
	input := `
  # aws_instance.example will be created
  + resource "aws_instance" "example" {
      + ami = "ami-12345678"
    }

Plan: 1 to add, 0 to change, 0 to destroy.

Changes to Outputs:
  + instance_ip  = (known after apply)
  ~ api_version  = "v1" -> "v2"
  - old_endpoint = "http://legacy" -> null
  ~ api_token    = (sensitive value)
`
	plan, err := Parse(input)
	if err != nil {
		t.Fatalf("Failed to parse plan: %v", err)
	}
	if len(plan.Outputs) != 4 {
		t.Fatalf("Expected 4 output changes, got %d", len(plan.Outputs))
	}

	tests := []struct {
		name   string
		change ChangeType
	}{
		{"instance_ip", ChangeCreate},
		{"api_version", ChangeUpdate},
		{"old_endpoint", ChangeDelete},
		{"api_token", ChangeUpdate},
	}
	for i, want := range tests {
		got := plan.Outputs[i]
		if got.Name != want.name || got.Change != want.change {
			t.Errorf("Output %d: expected %s/%s, got %s/%s", i, want.name, want.change, got.Name, got.Change)
		}
	}

	if !plan.Outputs[0].Computed || plan.Outputs[0].New != nil {
		t.Errorf("Expected computed output with absent value, got %+v", plan.Outputs[0])
	}
	if *plan.Outputs[1].Old != "v1" || *plan.Outputs[1].New != "v2" {
		t.Errorf("Unexpected api_version values: %+v", plan.Outputs[1])
	}
	if !plan.Outputs[3].Sensitive || plan.Outputs[3].Old != nil || plan.Outputs[3].New != nil {
		t.Errorf("Expected redacted sensitive output, got %+v", plan.Outputs[3])
	}
}

func TestParseHeredocUpdate(t *testing.T) {
	input := `
  # aws_iam_policy.doc will be updated in-place
  ~ resource "aws_iam_policy" "doc" {
      ~ policy = <<-EOT
            {
              "version": 1
            }
        EOT -> <<-EOT
            {
              "version": 2
            }
        EOT
    }
`
	plan, err := Parse(input)
	if err != nil {
		t.Fatalf("Failed to parse plan: %v", err)
	}
	a := plan.Resources[0].Attributes[0]
	if a.Name != "policy" {
		t.Fatalf("Expected policy attribute, got %q", a.Name)
	}
	wantOld := "{\n  \"version\": 1\n}"
	wantNew := "{\n  \"version\": 2\n}"
	if a.Old == nil || *a.Old != wantOld {
		t.Errorf("Unexpected old heredoc value: %q", deref(a.Old))
	}
	if a.New == nil || *a.New != wantNew {
		t.Errorf("Unexpected new heredoc value: %q", deref(a.New))
	}
	if len(plan.Warnings) != 0 {
		t.Errorf("Expected no warnings, got %v", plan.Warnings)
	}
}

func TestParseHeredocTerminatorInContent(t *testing.T) {
	input := `
  # aws_instance.web will be created
  + resource "aws_instance" "web" {
      + user_data = <<-EOT
            #!/bin/bash
            echo EOT
            EOT is not a terminator here
        EOT
      + ami       = "ami-1"
    }
`
	plan, err := Parse(input)
	if err != nil {
		t.Fatalf("Failed to parse plan: %v", err)
	}
	attrs := plan.Resources[0].Attributes
	if len(attrs) != 2 {
		t.Fatalf("Expected 2 attributes, got %d", len(attrs))
	}
	want := "#!/bin/bash\necho EOT\nEOT is not a terminator here"
	if attrs[0].New == nil || *attrs[0].New != want {
		t.Errorf("Heredoc content mangled: %q", deref(attrs[0].New))
	}
}

func TestParseHeredocUnterminated(t *testing.T) {
	input := `  # aws_instance.web will be created
  + resource "aws_instance" "web" {
      + user_data = <<-EOT
            line one
            line two`

	plan, err := Parse(input)
	if err != nil {
		t.Fatalf("Unterminated heredoc must not be fatal: %v", err)
	}
	a := plan.Resources[0].Attributes[0]
	if a.New == nil || *a.New != "line one\nline two" {
		t.Errorf("Expected truncated value with all captured lines, got %q", deref(a.New))
	}
	if len(plan.Warnings) != 1 || plan.Warnings[0].Kind != WarnUnterminatedValue {
		t.Fatalf("Expected one unterminated-value warning, got %v", plan.Warnings)
	}
	if !strings.Contains(plan.Warnings[0].Subject, "user_data") {
		t.Errorf("Warning should name the attribute, got %q", plan.Warnings[0].Subject)
	}
}

func TestParseUnknownHeaderVerb(t *testing.T) {
	input := `
  # aws_instance.web will be reconfigured sideways
  ~ resource "aws_instance" "web" {
      ~ ami = "a" -> "b"
    }
`
	plan, err := Parse(input)
	if err != nil {
		t.Fatalf("Unknown verb must not abort the parse: %v", err)
	}
	if plan.Resources[0].Change != ChangeUpdate {
		t.Errorf("Expected fallback to update, got %s", plan.Resources[0].Change)
	}
	if len(plan.Warnings) != 1 || plan.Warnings[0].Kind != WarnUnknownHeaderVerb {
		t.Fatalf("Expected unknown-header-verb warning, got %v", plan.Warnings)
	}
}

func TestParseSummaryMismatch(t *testing.T) {
	input := `
  # aws_instance.web will be created
  + resource "aws_instance" "web" {
      + ami = "ami-1"
    }

Plan: 2 to add, 0 to change, 0 to destroy.
`
	plan, err := Parse(input)
	if err != nil {
		t.Fatalf("Failed to parse plan: %v", err)
	}
	// The producer's line stays authoritative; the disagreement is a warning.
	if plan.Counts == nil || plan.Counts.Add != 2 {
		t.Fatalf("Expected summary counts to be kept, got %+v", plan.Counts)
	}
	if len(plan.Warnings) != 1 || plan.Warnings[0].Kind != WarnSummaryMismatch {
		t.Fatalf("Expected summary-mismatch warning, got %v", plan.Warnings)
	}
}

func TestParseNoChanges(t *testing.T) {
	input := `
No changes. Infrastructure is up-to-date.
`
	plan, err := Parse(input)
	if err != nil {
		t.Fatalf("Failed to parse plan: %v", err)
	}
	if len(plan.Resources) != 0 {
		t.Errorf("Expected 0 resources, got %d", len(plan.Resources))
	}
	if plan.Counts == nil || *plan.Counts != (Counts{}) {
		t.Errorf("Expected zero counts, got %+v", plan.Counts)
	}
	if plan.HasChanges() {
		t.Error("Expected HasChanges to be false")
	}
}

func TestParseMovedResource(t *testing.T) {
	input := `
  # aws_instance.old has moved to aws_instance.renamed
    resource "aws_instance" "renamed" {
        ami = "ami-1"
    }

Plan: 0 to add, 0 to change, 0 to destroy.
`
	plan, err := Parse(input)
	if err != nil {
		t.Fatalf("Failed to parse plan: %v", err)
	}
	if len(plan.Resources) != 1 {
		t.Fatalf("Expected 1 resource, got %d", len(plan.Resources))
	}
	r := plan.Resources[0]
	if r.Change != ChangeNoOp {
		t.Errorf("Moved resources are no-ops, got %s", r.Change)
	}
	if r.Address.String() != "aws_instance.renamed" {
		t.Errorf("Expected the new address, got %s", r.Address.String())
	}
	if !strings.Contains(r.Reason, "moved from aws_instance.old") {
		t.Errorf("Expected moved-from reason, got %q", r.Reason)
	}
}

func TestParseCollapsedAttributeNotes(t *testing.T) {
	input := `
  # aws_security_group.web will be updated in-place
  ~ resource "aws_security_group" "web" {
      ~ description = "a" -> "b"
        # (12 unchanged attributes hidden)
        # (3 unchanged blocks hidden)
    }
`
	plan, err := Parse(input)
	if err != nil {
		t.Fatalf("Failed to parse plan: %v", err)
	}
	r := plan.Resources[0]
	if r.HiddenAttributes != 12 || r.HiddenBlocks != 3 {
		t.Errorf("Expected hidden counts 12/3, got %d/%d", r.HiddenAttributes, r.HiddenBlocks)
	}
	if len(r.Attributes) != 1 {
		t.Errorf("Collapsed notes must not become synthetic children, got %d attributes", len(r.Attributes))
	}
}

func TestParseDataSourceRead(t *testing.T) {
	input := `
  # data.aws_ami.ubuntu will be read during apply
  # (config refers to values not yet known)
 <= data "aws_ami" "ubuntu" {
      + architecture = (known after apply)
    }
`
	plan, err := Parse(input)
	if err != nil {
		t.Fatalf("Failed to parse plan: %v", err)
	}
	r := plan.Resources[0]
	if r.Change != ChangeRead {
		t.Errorf("Expected read change, got %s", r.Change)
	}
	if !r.Address.Data || r.Address.Type != "aws_ami" {
		t.Errorf("Unexpected address: %+v", r.Address)
	}
	if !strings.Contains(r.Reason, "config refers to values not yet known") {
		t.Errorf("Expected read reason, got %q", r.Reason)
	}
}

func TestParseListAttribute(t *testing.T) {
	input := `
  # aws_instance.web will be updated in-place
  ~ resource "aws_instance" "web" {
      ~ security_groups = [
          - "sg-aaa",
          + "sg-bbb",
        ]
    }
`
	plan, err := Parse(input)
	if err != nil {
		t.Fatalf("Failed to parse plan: %v", err)
	}
	sg := plan.Resources[0].Attributes[0]
	if sg.Name != "security_groups" || len(sg.Children) != 2 {
		t.Fatalf("Expected security_groups container with 2 elements, got %+v", sg)
	}
	if sg.Children[0].Old == nil || *sg.Children[0].Old != "sg-aaa" {
		t.Errorf("Unexpected removed element: %+v", sg.Children[0])
	}
	if sg.Children[1].New == nil || *sg.Children[1].New != "sg-bbb" {
		t.Errorf("Unexpected added element: %+v", sg.Children[1])
	}
}

func TestParseIndentationDriftRecovers(t *testing.T) {
	// A close without a matching open, and content at an indentation no open
	// block corresponds to, must not crash the parse.
	input := `
  # aws_instance.web will be created
  + resource "aws_instance" "web" {
      + ami = "ami-1"
        }
      }
`
	plan, err := Parse(input)
	if err != nil {
		t.Fatalf("Malformed nesting must be recovered, not fatal: %v", err)
	}
	if len(plan.Resources) != 1 {
		t.Fatalf("Expected 1 resource, got %d", len(plan.Resources))
	}
}

func TestParseLimits(t *testing.T) {
	t.Run("line guard", func(t *testing.T) {
		input := strings.Repeat("x\n", 100)
		_, err := ParseWithLimits(input, Limits{MaxLines: 10, MaxDepth: 8})
		if !errors.Is(err, ErrTooManyLines) {
			t.Fatalf("Expected ErrTooManyLines, got %v", err)
		}
	})

	t.Run("depth guard", func(t *testing.T) {
		var b strings.Builder
		b.WriteString("  # aws_instance.web will be created\n")
		b.WriteString("  + resource \"aws_instance\" \"web\" {\n")
		for i := 0; i < 30; i++ {
			b.WriteString(strings.Repeat(" ", 6+4*i) + "+ nested {\n")
		}
		_, err := ParseWithLimits(b.String(), Limits{MaxLines: 0, MaxDepth: 8})
		if !errors.Is(err, ErrNestingTooDeep) {
			t.Fatalf("Expected ErrNestingTooDeep, got %v", err)
		}
	})

	t.Run("invalid text", func(t *testing.T) {
		_, err := Parse("plan\xff\xfe")
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("Expected ErrInvalidInput, got %v", err)
		}
	})
}

func deref(s *string) string {
	if s == nil {
		return "<absent>"
	}
	return *s
}
