package graph

// DynamicCell is the low-level escape hatch combinators outside this
// package need to build fan-in nodes over a dynamically changing set of
// inputs — map_map/filter_list/group_by/sequence_map in package ops all
// construct and tear down per-key child reactives as keys come and go
// (spec §4.3.4's "ensure children exist" hazard, generalized). Flatten
// (and Bind, through it) in this package re-links its own node and
// raises its height in the same way, without going through DynamicCell.
type DynamicCell[T any] struct {
	n *node[T]
}

// NewDynamicCell builds a node with an explicit height and step
// function that manages its own dependency links at runtime.
func NewDynamicCell[T any](g *Graph, height int, init T, stepFn func() T) DynamicCell[T] {
	return DynamicCell[T]{n: &node[T]{height: height, seq: g.nextSeqNum(), value: init, stepFn: stepFn}}
}

// Cell exposes the dynamic node as an ordinary Cell for downstream
// wiring.
func (d DynamicCell[T]) Cell() Cell[T] { return Cell[T]{n: d.n} }

// RaiseHeight grows the node's height if h exceeds it. Per spec §4.2.1
// a dynamically constructed child must receive a height greater than
// its new input's before that input is linked to it; this is the
// operation that keeps the invariant intact as children rotate.
func (d DynamicCell[T]) RaiseHeight(h int) {
	if h > d.n.height {
		d.n.height = h
	}
}

// Height returns the node's current height.
func (d DynamicCell[T]) Height() int { return d.n.height }

// AsNode exposes c as a Node so it can be linked/unlinked as a
// dependent of another cell whose concrete type isn't known to the
// linking site (e.g. per-key child reactives of differing instantiation
// in map_map).
func AsNode[T any](c Cell[T]) Node { return c.n }

// LinkAny registers dependent as a dependent of parent.
func LinkAny[T any](parent Cell[T], dependent Node) { parent.n.addDependent(dependent) }

// UnlinkAny removes dependent from parent's dependent list.
func UnlinkAny[T any](parent Cell[T], dependent Node) { parent.n.removeDependent(dependent) }
