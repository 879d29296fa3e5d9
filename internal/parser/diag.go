package parser

import (
	"strconv"
	"strings"
)

// collectDiagnostic gathers the body of a "╷ ... ╵" diagnostic frame,
// starting at the first line after the opener. It returns the parsed
// diagnostic and the index of the first line past the closing delimiter.
// Like heredoc collection, the frame's interior never reaches the line
// classifier; source snippets quoted inside it would otherwise look like
// block openers.
func collectDiagnostic(lines []string, start int) (Diagnostic, int) {
	d := Diagnostic{Severity: "error", Summary: "Terraform Error"}
	headlined := false
	var body []string

	i := start
	for ; i < len(lines); i++ {
		t := strings.TrimSpace(strings.TrimRight(lines[i], "\r"))
		if t == "╵" {
			i++
			break
		}
		cleaned := strings.TrimSpace(strings.TrimLeft(t, "│ "))
		if cleaned == "" {
			continue
		}
		if !headlined {
			if rest, ok := strings.CutPrefix(cleaned, "Error:"); ok {
				d.Severity = "error"
				d.Summary = strings.TrimSpace(rest)
				headlined = true
				continue
			}
			if rest, ok := strings.CutPrefix(cleaned, "Warning:"); ok {
				d.Severity = "warning"
				d.Summary = strings.TrimSpace(rest)
				headlined = true
				continue
			}
		}
		if d.File == "" {
			if file, num, ok := parseSourceLocation(cleaned); ok {
				d.File, d.Line = file, num
				continue
			}
		}
		body = append(body, cleaned)
	}

	d.Detail = strings.Join(body, "\n")
	return d, i
}

// parseSourceLocation recognizes the location line terraform prints inside a
// diagnostic, e.g. `on main.tf line 12, in resource "aws_foo" "bar":`.
func parseSourceLocation(s string) (string, int, bool) {
	if !strings.Contains(s, "on ") || !strings.Contains(s, " line ") {
		return "", 0, false
	}
	parts := strings.Fields(s)
	var file string
	var num int
	for i, p := range parts {
		switch p {
		case "on":
			if i+1 < len(parts) {
				file = strings.TrimSuffix(parts[i+1], ",")
			}
		case "line":
			if i+1 < len(parts) {
				raw := strings.TrimRight(parts[i+1], ",:")
				if n, err := strconv.Atoi(raw); err == nil {
					num = n
				}
			}
		}
	}
	if file == "" || num == 0 {
		return "", 0, false
	}
	return file, num, true
}
