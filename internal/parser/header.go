package parser

import "strings"

// header is the parsed form of a resource header comment, e.g.
// "# aws_instance.example will be created".
type header struct {
	address string
	change  ChangeType
	// reason carries the remainder of the verb phrase beyond the change
	// itself, e.g. "(deposed object 1st)" or a read-during-apply cause.
	reason    string
	movedFrom string
	// known is false when the verb phrase fell outside the lexicon and the
	// change was defaulted to update.
	known bool
}

// parseHeader interprets a comment body (without the leading "#") as a
// resource header. ok is false for comments that are not headers, such as
// collapsed-attribute notes.
func parseHeader(body string) (h header, ok bool) {
	body = strings.TrimSpace(strings.TrimPrefix(body, "#"))

	if addr, rest, found := strings.Cut(body, " has moved to "); found {
		return header{
			address:   strings.TrimSpace(rest),
			change:    ChangeNoOp,
			movedFrom: strings.TrimSpace(addr),
			known:     true,
		}, true
	}
	if addr, rest, found := strings.Cut(body, " is tainted, so "); found {
		_ = rest
		return header{address: strings.TrimSpace(addr), change: ChangeReplace, known: true}, true
	}

	var addr, verb string
	if a, v, found := strings.Cut(body, " will be "); found {
		addr, verb = a, v
	} else if a, v, found := strings.Cut(body, " must be "); found {
		addr, verb = a, v
	} else {
		return header{}, false
	}

	h = header{address: strings.TrimSpace(addr), known: true}
	h.change, h.reason, h.known = verbChange(strings.TrimSpace(verb))
	return h, true
}

// verbChange maps a header verb phrase onto a change type. The lexicon is
// deliberately closed: anything unrecognized becomes an update with
// known=false, since the structural markers on the following lines remain
// authoritative for rendering.
func verbChange(verb string) (ChangeType, string, bool) {
	switch {
	case verb == "created":
		return ChangeCreate, "", true
	case strings.HasPrefix(verb, "updated in-place"), verb == "updated":
		return ChangeUpdate, "", true
	case verb == "destroyed":
		return ChangeDelete, "", true
	case strings.HasPrefix(verb, "destroyed"):
		// "destroyed and then created", deposed-object variants
		return ChangeReplace, "", true
	case strings.HasPrefix(verb, "replaced"):
		return ChangeReplace, strings.TrimSpace(strings.TrimPrefix(verb, "replaced")), true
	case strings.HasPrefix(verb, "created and then destroyed"):
		return ChangeReplace, "", true
	case strings.HasPrefix(verb, "read during apply"):
		return ChangeRead, strings.TrimSpace(strings.TrimPrefix(verb, "read during apply")), true
	default:
		return ChangeUpdate, verb, false
	}
}

// parseAnnotation recognizes the parenthesized annotation comments that
// follow a header or sit inside a block: reasons ("# (because ...)",
// "# (moved from ...)", "# (depends on a resource ...)") and collapsed
// counts ("# (3 unchanged attributes hidden)").
func parseAnnotation(body string) (text string, hiddenAttrs, hiddenBlocks int, ok bool) {
	body = strings.TrimSpace(strings.TrimPrefix(body, "#"))
	if !strings.HasPrefix(body, "(") || !strings.HasSuffix(body, ")") {
		return "", 0, 0, false
	}
	inner := body[1 : len(body)-1]

	if n, what, found := cutHidden(inner); found {
		switch what {
		case "attributes":
			return "", n, 0, true
		case "blocks", "elements":
			return "", 0, n, true
		}
	}
	return inner, 0, 0, true
}

// cutHidden parses "<N> unchanged <what> hidden".
func cutHidden(s string) (n int, what string, ok bool) {
	fields := strings.Fields(s)
	if len(fields) != 4 || fields[1] != "unchanged" || fields[3] != "hidden" {
		return 0, "", false
	}
	for _, c := range fields[0] {
		if c < '0' || c > '9' {
			return 0, "", false
		}
		n = n*10 + int(c-'0')
	}
	return n, fields[2], true
}
