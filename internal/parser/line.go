package parser

import (
	"regexp"
	"strings"
)

// lineKind is the structural role of a single input line. Classification is
// purely lexical: leading token and indentation, never surrounding context.
type lineKind int

const (
	kindBlank lineKind = iota
	kindComment
	kindChangeMarker
	kindBlockOpen
	kindBlockClose
	kindHeredocOpen
	kindSummary
	kindOutputsHeader
	kindDiagnosticOpen
	kindUnrecognized
)

// markers is the closed set of change markers, longest first so that the
// compound forms win over their single-character prefixes.
var markers = []string{"-/+", "+/-", "<=", "+", "-", "~"}

var (
	summaryRe  = regexp.MustCompile(`^Plan: (\d+) to add, (\d+) to change, (\d+) to destroy\.?$`)
	heredocRe  = regexp.MustCompile(`<<-?([A-Za-z][A-Za-z0-9_]*)$`)
	noChangeRe = regexp.MustCompile(`^No changes\.`)
)

// line is one classified input line.
type line struct {
	raw    string
	indent int    // leading spaces before the marker or content
	kind   lineKind
	marker string // one of markers, or "" when the line carries none
	body   string // content after indent and marker
}

// classify assigns a structural role to a single raw line.
func classify(raw string) line {
	raw = strings.TrimRight(raw, "\r")
	trimmed := strings.TrimLeft(raw, " ")
	ln := line{raw: raw, indent: len(raw) - len(trimmed), body: trimmed}

	if trimmed == "" {
		ln.kind = kindBlank
		return ln
	}

	if strings.HasPrefix(trimmed, "#") {
		ln.kind = kindComment
		return ln
	}

	if trimmed == "Changes to Outputs:" {
		ln.kind = kindOutputsHeader
		return ln
	}
	if trimmed == "╷" {
		ln.kind = kindDiagnosticOpen
		return ln
	}
	if summaryRe.MatchString(trimmed) || noChangeRe.MatchString(trimmed) {
		ln.kind = kindSummary
		return ln
	}

	for _, m := range markers {
		if strings.HasPrefix(trimmed, m+" ") {
			ln.marker = m
			ln.body = strings.TrimLeft(trimmed[len(m):], " ")
			break
		}
	}

	// The forces-replacement note can trail a block opener; it plays no part
	// in structure.
	structural := ln.body
	if s, ok := strings.CutSuffix(structural, forcesReplacementNote); ok {
		structural = strings.TrimRight(s, " ")
	}

	switch {
	case isBlockClose(structural):
		ln.kind = kindBlockClose
	case heredocRe.MatchString(structural):
		ln.kind = kindHeredocOpen
	case strings.HasSuffix(structural, "{") || strings.HasSuffix(structural, "["):
		ln.kind = kindBlockOpen
	case ln.marker != "":
		ln.kind = kindChangeMarker
	default:
		ln.kind = kindUnrecognized
	}
	return ln
}

// isBlockClose reports whether body is solely a closing delimiter, with or
// without the trailing comma terraform prints inside collections.
func isBlockClose(body string) bool {
	switch body {
	case "}", "},", "]", "],", "} -> null", "] -> null":
		return true
	}
	return false
}

// heredocMarker extracts the heredoc terminator word from a HeredocOpen body,
// e.g. `user_data = <<-EOT` yields "EOT".
func heredocMarker(body string) string {
	m := heredocRe.FindStringSubmatch(body)
	if m == nil {
		return ""
	}
	return m[1]
}
