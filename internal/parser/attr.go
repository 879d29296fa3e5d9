package parser

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	computedPlaceholder    = "(known after apply)"
	sensitivePlaceholder   = "(sensitive value)"
	forcesReplacementNote  = "# forces replacement"
	sensitiveValuesVariant = "(sensitive)"
)

var attrNameRe = regexp.MustCompile(`^(?:"((?:[^"\\]|\\.)*)"|([^=\s]+))\s*=\s*(.*)$`)

// parseAttrLeaf interprets a single marked leaf line as an attribute change.
// The marker determines which side(s) of the diff the value lands on.
func parseAttrLeaf(n *rawNode) AttributeChange {
	body := n.line.body
	var attr AttributeChange

	if strings.HasSuffix(body, forcesReplacementNote) {
		attr.ForcesReplacement = true
		body = strings.TrimSpace(strings.TrimSuffix(body, forcesReplacementNote))
	}

	var value string
	if m := attrNameRe.FindStringSubmatch(body); m != nil {
		if m[1] != "" {
			attr.Name = m[1]
		} else {
			attr.Name = m[2]
		}
		value = m[3]
	} else {
		// Collection element: no name, the whole body is the value.
		value = strings.TrimSuffix(body, ",")
	}

	// Sensitive values are redacted at parse time: the annotation is set and
	// the literal is never extracted, even when visible in the input.
	if strings.Contains(value, sensitivePlaceholder) || strings.Contains(value, sensitiveValuesVariant) {
		attr.Sensitive = true
		return attr
	}

	if n.line.kind == kindHeredocOpen {
		applyHeredoc(&attr, n)
		return attr
	}

	switch n.line.marker {
	case "+", "<=":
		attr.New, attr.Computed = parseScalar(value)
	case "-":
		if left, right, ok := splitArrow(value); ok && strings.TrimSpace(right) == "null" {
			// "-> null" restates what the marker already says.
			value = left
		}
		attr.Old, _ = parseScalar(value)
	case "~", "-/+", "+/-":
		if left, right, ok := splitArrow(value); ok {
			attr.Old, _ = parseScalar(left)
			attr.New, attr.Computed = parseScalar(right)
		} else {
			attr.New, attr.Computed = parseScalar(value)
		}
	default:
		// Unmarked context line inside a changed block: value is unchanged.
		v, computed := parseScalar(value)
		attr.Old, attr.New, attr.Computed = v, v, computed
	}
	return attr
}

// applyHeredoc moves collected multi-line values onto the attribute per the
// leaf's marker.
func applyHeredoc(attr *AttributeChange, n *rawNode) {
	var oldText, newText *string
	if n.heredocOld != nil {
		s := n.heredocOld.text
		oldText = &s
	}
	if n.heredocNew != nil {
		s := n.heredocNew.text
		newText = &s
	}

	switch n.line.marker {
	case "-":
		attr.Old = oldText
	case "~", "-/+", "+/-":
		attr.Old = oldText
		if newText != nil {
			attr.New = newText
		} else if n.heredocTail != "" {
			attr.New, attr.Computed = parseScalar(n.heredocTail)
		}
	default: // "+", "<=", unmarked
		attr.New = oldText
	}
}

// blockName extracts the attribute name from a block-open body:
// `ingress {`, `tags = {`, `security_groups = [`, `"literal.key" = {`.
// Anonymous collection elements (`+ {`) yield "".
func blockName(body string) string {
	body = strings.TrimSpace(body)
	body = strings.TrimSuffix(body, forcesReplacementNote)
	body = strings.TrimSpace(body)
	body = strings.TrimRight(body, "{[")
	body = strings.TrimSpace(body)
	body = strings.TrimSuffix(body, "=")
	body = strings.TrimSpace(body)
	if unq, err := strconv.Unquote(body); err == nil {
		return unq
	}
	return body
}

// parseScalar normalizes one side of a value expression. Quoted scalars are
// unquoted; the computed placeholder yields an absent value with the
// computed flag; everything else is kept verbatim. Absent is nil, never "".
func parseScalar(s string) (*string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	if s == computedPlaceholder {
		return nil, true
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		if unq, err := strconv.Unquote(s); err == nil {
			return &unq, false
		}
		trimmed := s[1 : len(s)-1]
		return &trimmed, false
	}
	return &s, false
}

// splitArrow splits "old -> new" at the first arrow outside double quotes.
func splitArrow(s string) (left, right string, ok bool) {
	inQuote := false
	for i := 0; i+4 <= len(s); i++ {
		switch {
		case s[i] == '\\' && inQuote:
			i++
		case s[i] == '"':
			inQuote = !inQuote
		case !inQuote && s[i:i+4] == " -> ":
			return s[:i], s[i+4:], true
		}
	}
	return s, "", false
}
