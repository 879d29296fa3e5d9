package render

import (
	"fmt"
	"strings"

	"github.com/CaptShanks/tfreview/internal/parser"
)

// Line is one formatted line of a resource body. Marker is "+", "-", "~" or
// "" for context lines; Text is the content after the marker.
type Line struct {
	Indent int
	Marker string
	Text   string
}

// String reconstructs the plain-text form of the line.
func (l Line) String() string {
	pad := strings.Repeat(" ", l.Indent)
	if l.Marker == "" {
		return pad + "  " + l.Text
	}
	return pad + l.Marker + " " + l.Text
}

// ResourceLines formats a resource's attribute tree back into diff-style body
// lines. Multi-line value changes are shown as a granular line diff rather
// than as two opaque blobs.
func ResourceLines(r parser.ResourceChange) []Line {
	var out []Line
	out = appendAttrLines(out, r.Attributes, 4)
	out = appendHiddenNotes(out, r.HiddenAttributes, r.HiddenBlocks, 4)
	return out
}

func appendAttrLines(out []Line, attrs []parser.AttributeChange, indent int) []Line {
	width := nameWidth(attrs)
	for _, a := range attrs {
		if a.IsContainer() {
			out = appendContainerLines(out, a, indent)
			continue
		}
		out = appendLeafLines(out, a, indent, width)
	}
	return out
}

func appendContainerLines(out []Line, a parser.AttributeChange, indent int) []Line {
	marker := containerMarker(a)
	open := "{"
	if a.Name != "" {
		open = a.Name + " {"
	}
	if a.ForcesReplacement {
		open += " # forces replacement"
	}
	out = append(out, Line{Indent: indent, Marker: marker, Text: open})
	out = appendAttrLines(out, a.Children, indent+4)
	out = appendHiddenNotes(out, a.HiddenAttributes, a.HiddenBlocks, indent+4)
	out = append(out, Line{Indent: indent, Text: "}"})
	return out
}

func appendLeafLines(out []Line, a parser.AttributeChange, indent, width int) []Line {
	marker := leafMarker(a)
	name := a.Name
	if name != "" && width > len(name) {
		name += strings.Repeat(" ", width-len(name))
	}

	lhs := ""
	if name != "" {
		lhs = name + " = "
	}

	value, multi := formatValue(a)
	if !multi {
		text := lhs + value
		if a.ForcesReplacement {
			text += " # forces replacement"
		}
		return append(out, Line{Indent: indent, Marker: marker, Text: text})
	}

	// Multi-line value: header line, then the value body as a diff.
	out = append(out, Line{Indent: indent, Marker: marker, Text: strings.TrimRight(lhs, " ")})
	return appendMultilineValue(out, a, indent+4)
}

// appendMultilineValue renders a multi-line value change as per-line diff
// output, collapsing unchanged runs when both sides are present.
func appendMultilineValue(out []Line, a parser.AttributeChange, indent int) []Line {
	oldLines := splitValueLines(a.Old)
	newLines := splitValueLines(a.New)

	switch {
	case oldLines != nil && newLines != nil:
		diff := ContextDiff(ComputeDiff(oldLines, newLines), 3)
		if diff == nil {
			for _, l := range oldLines {
				out = append(out, Line{Indent: indent, Text: l})
			}
			return out
		}
		for _, d := range diff {
			switch d.Op {
			case DiffDelete:
				out = append(out, Line{Indent: indent, Marker: "-", Text: d.Text})
			case DiffInsert:
				out = append(out, Line{Indent: indent, Marker: "+", Text: d.Text})
			case DiffSeparator:
				out = append(out, Line{Indent: indent, Text: "@@ ··· @@"})
			default:
				out = append(out, Line{Indent: indent, Text: d.Text})
			}
		}
		return out
	case newLines != nil:
		for _, l := range newLines {
			out = append(out, Line{Indent: indent, Marker: "+", Text: l})
		}
		return out
	default:
		for _, l := range oldLines {
			out = append(out, Line{Indent: indent, Marker: "-", Text: l})
		}
		return out
	}
}

func appendHiddenNotes(out []Line, hiddenAttrs, hiddenBlocks, indent int) []Line {
	if hiddenAttrs > 0 {
		out = append(out, Line{Indent: indent, Text: fmt.Sprintf("# (%d unchanged attributes hidden)", hiddenAttrs)})
	}
	if hiddenBlocks > 0 {
		out = append(out, Line{Indent: indent, Text: fmt.Sprintf("# (%d unchanged blocks hidden)", hiddenBlocks)})
	}
	return out
}

// formatValue renders a leaf's value expression. The second return is true
// when the value spans multiple lines and needs block layout.
func formatValue(a parser.AttributeChange) (string, bool) {
	if a.Sensitive {
		return "(sensitive value)", false
	}
	if isMultiline(a.Old) || isMultiline(a.New) {
		return "", true
	}

	switch {
	case a.Old != nil && a.New != nil:
		if *a.Old == *a.New {
			return quoteValue(*a.Old), false
		}
		return quoteValue(*a.Old) + " -> " + quoteValue(*a.New), false
	case a.Old != nil && a.Computed:
		return quoteValue(*a.Old) + " -> (known after apply)", false
	case a.Old != nil:
		return quoteValue(*a.Old), false
	case a.New != nil:
		return quoteValue(*a.New), false
	case a.Computed:
		return "(known after apply)", false
	default:
		return "null", false
	}
}

// leafMarker derives the display marker from which sides of the diff carry
// values. Unchanged context lines get no marker.
func leafMarker(a parser.AttributeChange) string {
	switch {
	case a.Sensitive:
		return "~"
	case a.Old != nil && a.New != nil && *a.Old == *a.New:
		return ""
	case a.Old != nil && (a.New != nil || a.Computed):
		return "~"
	case a.Old != nil:
		return "-"
	default:
		return "+"
	}
}

func containerMarker(a parser.AttributeChange) string {
	hasOld, hasNew := false, false
	var walk func([]parser.AttributeChange)
	walk = func(attrs []parser.AttributeChange) {
		for _, c := range attrs {
			if c.Old != nil {
				hasOld = true
			}
			if c.New != nil || c.Computed {
				hasNew = true
			}
			walk(c.Children)
		}
	}
	walk(a.Children)

	switch {
	case hasOld && hasNew:
		return "~"
	case hasOld:
		return "-"
	case hasNew:
		return "+"
	default:
		return "~"
	}
}

// quoteValue re-quotes a scalar unless it reads as a bare literal (number,
// bool, null, or a structural placeholder).
func quoteValue(s string) string {
	if s == "null" || s == "true" || s == "false" {
		return s
	}
	if isNumeric(s) {
		return s
	}
	return fmt.Sprintf("%q", s)
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	dot := false
	for i, r := range s {
		switch {
		case r == '-' && i == 0:
		case r == '.' && !dot:
			dot = true
		case r < '0' || r > '9':
			return false
		}
	}
	return true
}

func isMultiline(s *string) bool {
	return s != nil && strings.Contains(*s, "\n")
}

func splitValueLines(s *string) []string {
	if s == nil {
		return nil
	}
	return strings.Split(*s, "\n")
}

func nameWidth(attrs []parser.AttributeChange) int {
	w := 0
	for _, a := range attrs {
		if !a.IsContainer() && len(a.Name) > w {
			w = len(a.Name)
		}
	}
	return w
}
