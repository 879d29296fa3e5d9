package parser

import "fmt"

// rawNode is one node of the raw block tree produced by the first pass.
// BlockOpen lines own children; every other kind is a leaf. Heredoc leaves
// additionally carry the collected multi-line values.
type rawNode struct {
	line     line
	children []*rawNode

	// heredocOld/heredocNew hold collected multi-line values. For + and -
	// markers only heredocOld is set (it is the sole value); for ~ both
	// sides may be present.
	heredocOld *heredocValue
	heredocNew *heredocValue
	// heredocTail is scalar text following "TERM -> " on a closing line when
	// it is not a second heredoc, e.g. "(known after apply)".
	heredocTail string
}

// tracker maintains the indentation-keyed stack of open blocks. It never
// fails on malformed nesting: a close without a matching open, or a line at
// an indentation no open block corresponds to, closes everything nested more
// deeply and continues as a sibling.
type tracker struct {
	root     *rawNode
	stack    []*rawNode
	maxDepth int
}

func newTracker(maxDepth int) *tracker {
	root := &rawNode{line: line{indent: -1}}
	return &tracker{root: root, stack: []*rawNode{root}, maxDepth: maxDepth}
}

func (t *tracker) top() *rawNode { return t.stack[len(t.stack)-1] }

// add places a classified line into the tree. Only the depth guard can fail.
func (t *tracker) add(ln line) (*rawNode, error) {
	switch ln.kind {
	case kindBlank:
		// Blank lines separate sections but say nothing about nesting.
		return nil, nil

	case kindBlockClose:
		// Close every block indented at or beyond the delimiter, then the
		// block the delimiter belongs to.
		for len(t.stack) > 1 && t.top().line.indent >= ln.indent {
			t.stack = t.stack[:len(t.stack)-1]
		}
		if len(t.stack) > 1 {
			t.stack = t.stack[:len(t.stack)-1]
		}
		return nil, nil

	case kindBlockOpen:
		t.resync(ln.indent)
		node := &rawNode{line: ln}
		parent := t.top()
		parent.children = append(parent.children, node)
		t.stack = append(t.stack, node)
		if len(t.stack)-1 > t.maxDepth {
			return nil, fmt.Errorf("%w: %d blocks open", ErrNestingTooDeep, len(t.stack)-1)
		}
		return node, nil

	default:
		t.resync(ln.indent)
		node := &rawNode{line: ln}
		parent := t.top()
		parent.children = append(parent.children, node)
		return node, nil
	}
}

// resync closes blocks opened at an indentation at or beyond the new line's,
// recovering from indentation drift without failing.
func (t *tracker) resync(indent int) {
	for len(t.stack) > 1 && t.top().line.indent >= indent {
		t.stack = t.stack[:len(t.stack)-1]
	}
}
