package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeDiff(t *testing.T) {
	oldLines := []string{"a", "b", "c", "d"}
	newLines := []string{"a", "x", "c", "d", "e"}

	diff := ComputeDiff(oldLines, newLines)

	want := []DiffLine{
		{Op: DiffEqual, Text: "a"},
		{Op: DiffDelete, Text: "b"},
		{Op: DiffInsert, Text: "x"},
		{Op: DiffEqual, Text: "c"},
		{Op: DiffEqual, Text: "d"},
		{Op: DiffInsert, Text: "e"},
	}
	assert.Equal(t, want, diff)
}

func TestComputeDiffLargeInputFallsBackToCore(t *testing.T) {
	var oldLines, newLines []string
	for i := 0; i < 600; i++ {
		oldLines = append(oldLines, "common")
		newLines = append(newLines, "common")
	}
	oldLines = append(oldLines, "old tail")
	newLines = append(newLines, "new tail")

	diff := ComputeDiff(oldLines, newLines)

	var inserts, deletes int
	for _, d := range diff {
		switch d.Op {
		case DiffInsert:
			inserts++
			assert.Equal(t, "new tail", d.Text)
		case DiffDelete:
			deletes++
			assert.Equal(t, "old tail", d.Text)
		}
	}
	assert.Equal(t, 1, inserts)
	assert.Equal(t, 1, deletes)
}

func TestContextDiff(t *testing.T) {
	var diff []DiffLine
	for i := 0; i < 20; i++ {
		diff = append(diff, DiffLine{Op: DiffEqual, Text: "same"})
	}
	diff[10] = DiffLine{Op: DiffDelete, Text: "removed"}

	collapsed := ContextDiff(diff, 2)

	var separators int
	for _, d := range collapsed {
		if d.Op == DiffSeparator {
			separators++
		}
	}
	assert.Equal(t, 1, separators, "the leading equal run should collapse to a separator")
	assert.Equal(t, 6, len(collapsed), "2 context lines each side, the change, and the separator")
}

func TestContextDiffAllEqual(t *testing.T) {
	diff := []DiffLine{
		{Op: DiffEqual, Text: "a"},
		{Op: DiffEqual, Text: "b"},
	}
	assert.Nil(t, ContextDiff(diff, 3))
}

func TestResourceLinesMultilineValueDiff(t *testing.T) {
	oldText := "line 1\nline 2\nline 3"
	newText := "line 1\nline two\nline 3"
	attr := attrChange("policy", &oldText, &newText)

	lines := ResourceLines(resourceWith(attr))

	joined := make([]string, len(lines))
	for i, l := range lines {
		joined[i] = l.String()
	}
	text := strings.Join(joined, "\n")
	assert.Contains(t, text, "- line 2")
	assert.Contains(t, text, "+ line two")
	assert.Contains(t, text, "line 1")
}
