package parser

import "strconv"

// parseSummaryLine extracts the action counts from a SummaryLine body.
// The zero-change variants ("No changes. ...") yield all-zero counts.
func parseSummaryLine(body string) *Counts {
	if noChangeRe.MatchString(body) {
		return &Counts{}
	}
	m := summaryRe.FindStringSubmatch(body)
	if m == nil {
		return nil
	}
	add, _ := strconv.ParseUint(m[1], 10, 32)
	change, _ := strconv.ParseUint(m[2], 10, 32)
	destroy, _ := strconv.ParseUint(m[3], 10, 32)
	return &Counts{Add: uint(add), Change: uint(change), Destroy: uint(destroy)}
}

// outputChangeType maps a change marker onto the restricted output change
// set {create, update, delete, no-op}.
func outputChangeType(marker string) ChangeType {
	switch marker {
	case "+":
		return ChangeCreate
	case "-":
		return ChangeDelete
	case "~", "-/+", "+/-":
		return ChangeUpdate
	default:
		return ChangeNoOp
	}
}

// parseOutputLeaf interprets one marked line under "Changes to Outputs:".
// Only flat values are extracted; block-shaped outputs keep their name and
// change kind with absent values.
func parseOutputLeaf(n *rawNode) OutputChange {
	attr := parseAttrLeaf(n)
	name := attr.Name
	if n.line.kind == kindBlockOpen {
		name = blockName(n.line.body)
	}
	return OutputChange{
		Name:      name,
		Change:    outputChangeType(n.line.marker),
		Old:       attr.Old,
		New:       attr.New,
		Computed:  attr.Computed,
		Sensitive: attr.Sensitive,
	}
}
