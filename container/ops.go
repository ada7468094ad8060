// Package container defines the command algebra (spec §3, §4.1): for
// every container kind a state type S and a command type C related by
// Apply, Merge, Empty and Replace such that
//
//	Apply(s, Merge(c1, c2)) == Apply(Apply(s, c1), c2)
//	Apply(s, Empty())       == s
//
// Apply must never mutate its input state in place —
// Reactive.PreviousMaterialized (package reactive) depends on prior snapshots staying observable
// after a later step folds a new command into the stream.
package container

// Ops is the command-algebra witness for a container: the "operations
// object" every reactive collection carries alongside its value and
// command stream (spec §9, "operations-witness proxies").
//
// Replace takes both the current and target state. The sequence and
// mapping algebras ignore current and emit a clear-then-rebuild of
// target; the primitive algebra ignores current and replaces with
// target. The log algebra appends only the entries target has beyond
// current, and the tuple algebras delegate to each slot's own Replace
// with that slot's current and target. For containers whose commands
// compose by union
// (Z-set, Z-map) Replace must express target as a delta from current,
// since union alone cannot express replacement from an arbitrary start.
// IsEmpty identifies a distinguished "no change" batch. Spec §9's open
// question ("two competing signatures ... with empty/is_empty, one
// without") is resolved by carrying both: Empty() constructs the
// identity value, IsEmpty recognizes it (and anything else that would
// act as the identity) without requiring C to be comparable.
type Ops[S any, C any] struct {
	Apply   func(state S, cmd C) S
	Merge   func(a, b C) C
	Empty   func() C
	IsEmpty func(cmd C) bool
	Replace func(current, target S) C
}

// MergeAll folds a sequence of commands into one via Merge, starting
// from Empty.
func (o Ops[S, C]) MergeAll(cmds ...C) C {
	c := o.Empty()
	for _, x := range cmds {
		c = o.Merge(c, x)
	}
	return c
}
