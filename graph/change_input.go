package graph

import "github.com/nmxmxh/ivm/container"

// ChangeInput is a source node owning pending/current command buffers
// (spec §4.4). External callers Push onto pending; at Step, pending
// becomes current and pending resets to the algebra's identity. A
// change-input re-arms itself dirty for the next cycle whenever its
// pending buffer was non-empty, so that the cycle after a real change
// always shows dependents a fresh identity batch (spec §4.2.2).
type ChangeInput[C any] struct {
	g         *Graph
	n         *node[C]
	pending   C
	mergeFn   func(a, b C) C
	emptyFn   func() C
	isEmptyFn func(c C) bool
}

// NewChangeInput builds a change-input at height 0 for the command type
// of ops. S is inferred from ops and only used to pin the command
// algebra to a particular container's state type.
func NewChangeInput[S, C any](g *Graph, ops container.Ops[S, C]) *ChangeInput[C] {
	ci := &ChangeInput[C]{
		g:         g,
		pending:   ops.Empty(),
		mergeFn:   ops.Merge,
		emptyFn:   ops.Empty,
		isEmptyFn: ops.IsEmpty,
	}
	ci.n = &node[C]{height: 0, seq: g.nextSeqNum(), value: ops.Empty()}
	ci.n.stepFn = ci.step
	return ci
}

func (ci *ChangeInput[C]) step() C {
	wasNonEmpty := !ci.isEmptyFn(ci.pending)
	current := ci.pending
	ci.pending = ci.emptyFn()
	if wasNonEmpty {
		ci.g.MarkDirtyNextStep(ci.n)
	}
	return current
}

// Push appends cmd to the pending buffer and schedules the node dirty
// for the next Step.
func (ci *ChangeInput[C]) Push(cmd C) {
	ci.pending = ci.mergeFn(ci.pending, cmd)
	ci.g.MarkDirtyNextStep(ci.n)
}

// PushAll appends a sequence of commands as one merged batch (spec
// §4.4, "push_all(iter) appends a bulk batch").
func (ci *ChangeInput[C]) PushAll(cmds ...C) {
	if len(cmds) == 0 {
		return
	}
	for _, c := range cmds {
		ci.pending = ci.mergeFn(ci.pending, c)
	}
	ci.g.MarkDirtyNextStep(ci.n)
}

// Changes exposes the command batch published this step as a Cell, for
// wiring into Reactive.New or any combinator.
func (ci *ChangeInput[C]) Changes() Cell[C] { return Cell[C]{n: ci.n} }
