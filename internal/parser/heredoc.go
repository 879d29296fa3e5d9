package parser

import "strings"

// heredocValue is a collected multi-line scalar value.
type heredocValue struct {
	text      string
	truncated bool // terminator never appeared before end-of-input
}

// collectHeredoc accumulates the lines of a multi-line value. i indexes the
// first line after the opener, openIndent is the opener line's indentation,
// and term is the terminator word extracted from the opener.
//
// The terminator only counts when it appears alone (optionally followed by
// an "-> ..." continuation for updates) at an indentation no deeper than the
// opener's value column; terminator-like text inside the literal content sits
// at the content indentation and is collected verbatim.
//
// Returns the value, the index of the first line after the terminator, and
// any continuation text following "TERM -> " on the closing line (a second
// heredoc opener, or a placeholder like "(known after apply)").
func collectHeredoc(lines []string, i, openIndent int, term string) (heredocValue, int, string) {
	var collected []string
	for ; i < len(lines); i++ {
		raw := strings.TrimRight(lines[i], "\r")
		trimmed := strings.TrimLeft(raw, " ")
		indent := len(raw) - len(trimmed)

		if indent <= openIndent+2 && trimmed != "" {
			if trimmed == term {
				return heredocValue{text: dedent(collected)}, i + 1, ""
			}
			if rest, ok := strings.CutPrefix(trimmed, term+" -> "); ok {
				return heredocValue{text: dedent(collected)}, i + 1, rest
			}
		}
		collected = append(collected, raw)
	}
	return heredocValue{text: dedent(collected), truncated: true}, i, ""
}

// dedent strips the common leading-space prefix so the value keeps its
// original indentation relative to the marker, not to the plan output.
// Content is otherwise verbatim: no reflowing, no escaping changes.
func dedent(lines []string) string {
	min := -1
	for _, l := range lines {
		trimmed := strings.TrimLeft(l, " ")
		if trimmed == "" {
			continue
		}
		indent := len(l) - len(trimmed)
		if min < 0 || indent < min {
			min = indent
		}
	}
	if min <= 0 {
		return strings.Join(lines, "\n")
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		if len(l) >= min {
			out[i] = l[min:]
		} else {
			out[i] = strings.TrimLeft(l, " ")
		}
	}
	return strings.Join(out, "\n")
}
