// Package tree renders a run's pipeline-stage completion state as an
// ASCII tree: one node per stage or per-file artifact, its status
// rolled up from its children when it has none of its own. Box-drawing
// ported from the teacher's tree/tree.go (itself adapted from
// github.com/Tufin/asciitree); the node shape and status rollup below
// replace the teacher's generic string-keyed map, since the "status"
// subcommand always walks a fixed stage/sentinel hierarchy rather than
// arbitrary caller-supplied trees.
package tree

import (
	"fmt"
	"io"
)

// Status is a stage or per-file artifact's completion state.
type Status int

const (
	Pending Status = iota
	Done
	Errored
)

func (s Status) String() string {
	switch s {
	case Done:
		return "[done]"
	case Errored:
		return "[error]"
	default:
		return "[pending]"
	}
}

// Node is one stage/artifact in the run's completion tree. A leaf's
// status is set directly by Add; a branch's status is never set
// directly and instead rolls up from its children: Errored if any
// child errored, Done only if every child is done, Pending otherwise.
type Node struct {
	label    string
	status   Status
	explicit bool
	children map[string]*Node
	order    []string
}

// New returns an empty root node.
func New() *Node {
	return &Node{children: map[string]*Node{}}
}

// Add inserts path into the tree rooted at n, marking the final
// segment's node with status. Intermediate segments are created as
// needed with no explicit status of their own, so their Fprint label
// rolls up from whatever leaves get added under them.
func (n *Node) Add(path []string, status Status) {
	if len(path) == 0 {
		n.status = status
		n.explicit = true
		return
	}
	child, ok := n.children[path[0]]
	if !ok {
		child = &Node{label: path[0], children: map[string]*Node{}}
		n.children[path[0]] = child
		n.order = append(n.order, path[0])
	}
	child.Add(path[1:], status)
}

// EffectiveStatus reports n's own status if it was set directly by
// Add, otherwise the rollup of its children.
func (n *Node) EffectiveStatus() Status {
	if n.explicit || len(n.children) == 0 {
		return n.status
	}
	allDone := true
	anyErrored := false
	for _, name := range n.order {
		switch n.children[name].EffectiveStatus() {
		case Errored:
			anyErrored = true
		case Pending:
			allDone = false
		}
	}
	switch {
	case anyErrored:
		return Errored
	case allDone:
		return Done
	default:
		return Pending
	}
}

// Fprint renders n's children to w using box-drawing characters, each
// line labeled with its effective status.
func (n *Node) Fprint(w io.Writer, root bool, padding string) {
	if n == nil {
		return
	}
	length := len(n.order)
	for i, name := range n.order {
		child := n.children[name]
		fmt.Fprintf(w, "%s%s%s  %s\n", padding+getPadding(root, getBoxType(i, length)), name, labelSuffix(child), child.EffectiveStatus())
		child.Fprint(w, false, padding+getPadding(root, getBoxTypeExternal(i, length)))
	}
}

func labelSuffix(n *Node) string {
	if len(n.children) == 0 {
		return ""
	}
	return "/"
}

type boxType int

const (
	regular boxType = iota
	last
	afterLast
	between
)

func (b boxType) String() string {
	switch b {
	case regular:
		return "├" // ├
	case last:
		return "└" // └
	case afterLast:
		return " "
	case between:
		return "│" // │
	default:
		panic("invalid box type")
	}
}

func getBoxType(index, length int) boxType {
	if index+1 == length {
		return last
	} else if index+1 > length {
		return afterLast
	}
	return regular
}

func getBoxTypeExternal(index, length int) boxType {
	if index+1 == length {
		return afterLast
	}
	return between
}

func getPadding(root bool, b boxType) string {
	if root {
		return ""
	}
	return b.String() + " "
}
