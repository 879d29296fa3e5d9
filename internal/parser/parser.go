package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Limits bounds resource usage for hostile or runaway input. Exceeding a
// limit is one of the only two ways a parse can fail (the other is non-UTF-8
// input); everything else is recovered.
type Limits struct {
	MaxLines int
	MaxDepth int
}

// DefaultLimits comfortably covers real plans; a plan approaching half a
// million lines is not something a human is reviewing anyway.
var DefaultLimits = Limits{MaxLines: 500_000, MaxDepth: 64}

var (
	ErrInvalidInput   = errors.New("plan input is not valid UTF-8 text")
	ErrTooManyLines   = errors.New("plan input exceeds the line limit")
	ErrNestingTooDeep = errors.New("plan input exceeds the nesting limit")
)

var resourceBlockRe = regexp.MustCompile(`^(resource|data)\s+"([^"]+)"\s+"([^"]+)"`)

// Parse parses plan output text with DefaultLimits.
func Parse(input string) (*Plan, error) {
	return ParseWithLimits(input, DefaultLimits)
}

// ParseWithLimits parses plan output text into a Plan. The caller always
// gets either a complete model, possibly annotated with warnings, or an
// error from a guard condition, never a partial model without a signal.
func ParseWithLimits(input string, limits Limits) (*Plan, error) {
	if !utf8.ValidString(input) {
		return nil, ErrInvalidInput
	}

	lines := strings.Split(input, "\n")
	if limits.MaxLines > 0 && len(lines) > limits.MaxLines {
		return nil, fmt.Errorf("%w: %d lines", ErrTooManyLines, len(lines))
	}
	if limits.MaxDepth <= 0 {
		limits.MaxDepth = DefaultLimits.MaxDepth
	}

	t := newTracker(limits.MaxDepth)
	var diags []Diagnostic
	for i := 0; i < len(lines); i++ {
		ln := classify(lines[i])
		if ln.kind == kindDiagnosticOpen {
			d, next := collectDiagnostic(lines, i+1)
			diags = append(diags, d)
			i = next - 1
			continue
		}
		node, err := t.add(ln)
		if err != nil {
			return nil, err
		}
		if ln.kind != kindHeredocOpen {
			continue
		}

		// The collector intercepts the value's continuation lines before
		// they ever reach classification.
		val, next, rest := collectHeredoc(lines, i+1, ln.indent, heredocMarker(ln.body))
		node.heredocOld = &val
		if m := heredocRe.FindStringSubmatch(rest); m != nil {
			second, after, _ := collectHeredoc(lines, next, ln.indent, m[1])
			node.heredocNew = &second
			next = after
		} else if rest != "" {
			node.heredocTail = rest
		}
		i = next - 1
	}

	plan := assemble(t.root)
	plan.Errors = diags

	if plan.Counts != nil {
		if derived := plan.DerivedCounts(); derived != *plan.Counts {
			plan.Warnings = append(plan.Warnings, Warning{
				Kind: WarnSummaryMismatch,
				Detail: fmt.Sprintf("summary line says %d/%d/%d, parsed changes derive %d/%d/%d",
					plan.Counts.Add, plan.Counts.Change, plan.Counts.Destroy,
					derived.Add, derived.Change, derived.Destroy),
			})
		}
	}

	return plan, nil
}

// assemble walks the raw block tree exactly once, dispatching resource
// subtrees, output lines, and the summary line, and merges the results in
// source order.
func assemble(root *rawNode) *Plan {
	p := &Plan{}

	var pending *header
	var pendingReasons []string
	inOutputs := false

	flushPending := func() {
		if pending == nil {
			return
		}
		// A header with no following block still names a change (seen for
		// moved resources and fully collapsed bodies).
		p.Resources = append(p.Resources, resourceFromHeader(p, *pending, pendingReasons, nil))
		pending, pendingReasons = nil, nil
	}

	for _, n := range root.children {
		switch n.line.kind {
		case kindComment:
			if h, ok := parseHeader(n.line.body); ok {
				flushPending()
				pending = &h
				inOutputs = false
				continue
			}
			if text, _, _, ok := parseAnnotation(n.line.body); ok && text != "" && pending != nil {
				pendingReasons = append(pendingReasons, text)
			}

		case kindBlockOpen:
			if inOutputs {
				p.Outputs = append(p.Outputs, parseOutputLeaf(n))
				continue
			}
			h, ok := headerOrDefault(pending, n)
			if !ok {
				continue
			}
			p.Resources = append(p.Resources, resourceFromHeader(p, h, pendingReasons, n))
			pending, pendingReasons = nil, nil

		case kindOutputsHeader:
			flushPending()
			inOutputs = true

		case kindSummary:
			flushPending()
			inOutputs = false
			if c := parseSummaryLine(n.line.body); c != nil {
				p.Counts = c
			}

		case kindChangeMarker, kindHeredocOpen:
			if inOutputs {
				p.Outputs = append(p.Outputs, parseOutputLeaf(n))
			}
		}
	}
	flushPending()

	return p
}

// headerOrDefault returns the pending header for a resource block, or a
// synthetic no-op header derived from the block line itself when the plan
// showed the resource without a header comment. A root-level block opener
// that neither follows a header nor names a resource or data source is not
// a change at all, and ok is false.
func headerOrDefault(pending *header, n *rawNode) (header, bool) {
	if pending != nil {
		return *pending, true
	}
	m := resourceBlockRe.FindStringSubmatch(n.line.body)
	if m == nil {
		return header{}, false
	}
	addr := m[2] + "." + m[3]
	if m[1] == "data" {
		addr = "data." + addr
	}
	return header{change: ChangeNoOp, known: true, address: addr}, true
}

func resourceFromHeader(p *Plan, h header, reasons []string, body *rawNode) ResourceChange {
	rc := ResourceChange{
		Address: ParseAddress(h.address),
		Change:  h.change,
	}

	var parts []string
	if h.movedFrom != "" {
		parts = append(parts, "moved from "+h.movedFrom)
	}
	if h.reason != "" && h.known {
		parts = append(parts, h.reason)
	}
	parts = append(parts, reasons...)
	rc.Reason = strings.Join(parts, "; ")

	if !h.known {
		p.Warnings = append(p.Warnings, Warning{
			Kind:    WarnUnknownHeaderVerb,
			Subject: rc.Address.String(),
			Detail:  fmt.Sprintf("unrecognized header verb %q, classified as update", h.reason),
		})
	}

	if body != nil {
		// The structural marker on the block line is authoritative when it
		// disagrees with (or refines) the header verb.
		switch body.line.marker {
		case "-/+", "+/-":
			rc.Change = ChangeReplace
		case "<=":
			rc.Change = ChangeRead
		}
		rc.Attributes, rc.HiddenAttributes, rc.HiddenBlocks = buildAttrs(p, body, rc.Address.String())
	}
	return rc
}

// buildAttrs converts a block node's children into attribute changes,
// recursing into nested blocks and collections.
func buildAttrs(p *Plan, n *rawNode, subject string) (attrs []AttributeChange, hiddenAttrs, hiddenBlocks int) {
	for _, c := range n.children {
		switch c.line.kind {
		case kindComment:
			if _, ha, hb, ok := parseAnnotation(c.line.body); ok {
				hiddenAttrs += ha
				hiddenBlocks += hb
			}

		case kindBlockOpen:
			child := AttributeChange{
				Name:              blockName(c.line.body),
				ForcesReplacement: strings.HasSuffix(strings.TrimSpace(c.line.body), forcesReplacementNote),
			}
			child.Children, child.HiddenAttributes, child.HiddenBlocks = buildAttrs(p, c, subject)
			attrs = append(attrs, child)

		case kindChangeMarker:
			attrs = append(attrs, parseAttrLeaf(c))

		case kindHeredocOpen:
			attr := parseAttrLeaf(c)
			if (c.heredocOld != nil && c.heredocOld.truncated) ||
				(c.heredocNew != nil && c.heredocNew.truncated) {
				p.Warnings = append(p.Warnings, Warning{
					Kind:    WarnUnterminatedValue,
					Subject: subject + "." + attr.Name,
					Detail:  "multi-line value missing its terminator; collected text is truncated at end-of-input",
				})
			}
			attrs = append(attrs, attr)
		}
	}
	return attrs, hiddenAttrs, hiddenBlocks
}
