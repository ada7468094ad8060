// Package reactive defines Reactive[T], the wrapper every incremental
// operator in package ops consumes and produces (spec §4.3.1). It has
// no notion of any particular container kind — that comes from the
// container.Ops witness supplied at construction.
package reactive

import (
	"github.com/nmxmxh/ivm/container"
	"github.com/nmxmxh/ivm/graph"
)

// Reactive pairs a container's materialized snapshot with its
// just-this-step change batch and the algebra that relates them (spec
// §4.3.1). Materialized, PreviousMaterialized and Changes are graph
// cells; Ops is the value witness, not itself scheduled.
type Reactive[S any, C any] struct {
	Ops                  container.Ops[S, C]
	Changes              graph.Cell[C]
	Materialized         graph.Cell[S]
	PreviousMaterialized graph.Cell[S]
}

// New builds a Reactive from a change-batch cell: materialized =
// changes.accumulate(initial, ops.apply), and previous_materialized =
// materialized.delay(initial). Both equalities are load-bearing (spec
// §4.3.1) and hold by construction here, not by convention.
func New[S, C any](g *graph.Graph, ops container.Ops[S, C], changes graph.Cell[C], initial S) Reactive[S, C] {
	materialized := graph.Accumulate(g, changes, initial, ops.Apply)
	previous := graph.Delay(g, materialized, initial)
	return Reactive[S, C]{
		Ops:                  ops,
		Changes:              changes,
		Materialized:         materialized,
		PreviousMaterialized: previous,
	}
}

// FromChangeInput is the common case: build a Reactive directly from a
// graph.ChangeInput of the same command type.
func FromChangeInput[S, C any](g *graph.Graph, ops container.Ops[S, C], ci *graph.ChangeInput[C], initial S) Reactive[S, C] {
	return New(g, ops, ci.Changes(), initial)
}

// Height is the height of the materialized cell, used by operators
// that must place dependent nodes above it (spec §4.2.1).
func (r Reactive[S, C]) Height() int { return r.Materialized.Height() }
