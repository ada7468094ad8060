package ops

import (
	"fmt"

	"github.com/nmxmxh/ivm/container"
	"github.com/nmxmxh/ivm/graph"
	"github.com/nmxmxh/ivm/internal/support"
	"github.com/nmxmxh/ivm/reactive"
)

// ProjectTuple2A and ProjectTuple2B translate a 2-tuple's per-slot
// commands 1:1, dropping batches that only touch the other slot (spec
// §4.6).
func ProjectTuple2A[A, B, CA, CB any](
	g *graph.Graph,
	elemOpsA container.Ops[A, CA],
	source reactive.Reactive[container.Tuple2[A, B], container.Tuple2Cmd[CA, CB]],
) reactive.Reactive[A, CA] {
	changes := graph.Map(g, source.Changes, func(c container.Tuple2Cmd[CA, CB]) CA {
		if c.HasA {
			return c.A
		}
		return elemOpsA.Empty()
	})
	return reactive.New(g, elemOpsA, changes, source.Materialized.Value().A)
}

func ProjectTuple2B[A, B, CA, CB any](
	g *graph.Graph,
	elemOpsB container.Ops[B, CB],
	source reactive.Reactive[container.Tuple2[A, B], container.Tuple2Cmd[CA, CB]],
) reactive.Reactive[B, CB] {
	changes := graph.Map(g, source.Changes, func(c container.Tuple2Cmd[CA, CB]) CB {
		if c.HasB {
			return c.B
		}
		return elemOpsB.Empty()
	})
	return reactive.New(g, elemOpsB, changes, source.Materialized.Value().B)
}

// ProjectTuple3A, ProjectTuple3B and ProjectTuple3C are ProjectTuple2's
// 3-tuple counterparts (spec §3.5, §4.6).
func ProjectTuple3A[A, B, C, CA, CB, CC any](
	g *graph.Graph,
	elemOpsA container.Ops[A, CA],
	source reactive.Reactive[container.Tuple3[A, B, C], container.Tuple3Cmd[CA, CB, CC]],
) reactive.Reactive[A, CA] {
	changes := graph.Map(g, source.Changes, func(c container.Tuple3Cmd[CA, CB, CC]) CA {
		if c.HasA {
			return c.A
		}
		return elemOpsA.Empty()
	})
	return reactive.New(g, elemOpsA, changes, source.Materialized.Value().A)
}

func ProjectTuple3B[A, B, C, CA, CB, CC any](
	g *graph.Graph,
	elemOpsB container.Ops[B, CB],
	source reactive.Reactive[container.Tuple3[A, B, C], container.Tuple3Cmd[CA, CB, CC]],
) reactive.Reactive[B, CB] {
	changes := graph.Map(g, source.Changes, func(c container.Tuple3Cmd[CA, CB, CC]) CB {
		if c.HasB {
			return c.B
		}
		return elemOpsB.Empty()
	})
	return reactive.New(g, elemOpsB, changes, source.Materialized.Value().B)
}

func ProjectTuple3C[A, B, C, CA, CB, CC any](
	g *graph.Graph,
	elemOpsC container.Ops[C, CC],
	source reactive.Reactive[container.Tuple3[A, B, C], container.Tuple3Cmd[CA, CB, CC]],
) reactive.Reactive[C, CC] {
	changes := graph.Map(g, source.Changes, func(c container.Tuple3Cmd[CA, CB, CC]) CC {
		if c.HasC {
			return c.C
		}
		return elemOpsC.Empty()
	})
	return reactive.New(g, elemOpsC, changes, source.Materialized.Value().C)
}

// ProjectTuple4A, ProjectTuple4B, ProjectTuple4C and ProjectTuple4D are
// ProjectTuple2's 4-tuple counterparts (spec §3.5, §4.6).
func ProjectTuple4A[A, B, C, D, CA, CB, CC, CD any](
	g *graph.Graph,
	elemOpsA container.Ops[A, CA],
	source reactive.Reactive[container.Tuple4[A, B, C, D], container.Tuple4Cmd[CA, CB, CC, CD]],
) reactive.Reactive[A, CA] {
	changes := graph.Map(g, source.Changes, func(c container.Tuple4Cmd[CA, CB, CC, CD]) CA {
		if c.HasA {
			return c.A
		}
		return elemOpsA.Empty()
	})
	return reactive.New(g, elemOpsA, changes, source.Materialized.Value().A)
}

func ProjectTuple4B[A, B, C, D, CA, CB, CC, CD any](
	g *graph.Graph,
	elemOpsB container.Ops[B, CB],
	source reactive.Reactive[container.Tuple4[A, B, C, D], container.Tuple4Cmd[CA, CB, CC, CD]],
) reactive.Reactive[B, CB] {
	changes := graph.Map(g, source.Changes, func(c container.Tuple4Cmd[CA, CB, CC, CD]) CB {
		if c.HasB {
			return c.B
		}
		return elemOpsB.Empty()
	})
	return reactive.New(g, elemOpsB, changes, source.Materialized.Value().B)
}

func ProjectTuple4C[A, B, C, D, CA, CB, CC, CD any](
	g *graph.Graph,
	elemOpsC container.Ops[C, CC],
	source reactive.Reactive[container.Tuple4[A, B, C, D], container.Tuple4Cmd[CA, CB, CC, CD]],
) reactive.Reactive[C, CC] {
	changes := graph.Map(g, source.Changes, func(c container.Tuple4Cmd[CA, CB, CC, CD]) CC {
		if c.HasC {
			return c.C
		}
		return elemOpsC.Empty()
	})
	return reactive.New(g, elemOpsC, changes, source.Materialized.Value().C)
}

func ProjectTuple4D[A, B, C, D, CA, CB, CC, CD any](
	g *graph.Graph,
	elemOpsD container.Ops[D, CD],
	source reactive.Reactive[container.Tuple4[A, B, C, D], container.Tuple4Cmd[CA, CB, CC, CD]],
) reactive.Reactive[D, CD] {
	changes := graph.Map(g, source.Changes, func(c container.Tuple4Cmd[CA, CB, CC, CD]) CD {
		if c.HasD {
			return c.D
		}
		return elemOpsD.Empty()
	})
	return reactive.New(g, elemOpsD, changes, source.Materialized.Value().D)
}

// ProjectTupleN is ProjectTuple2's variable-arity counterpart, for
// slot i of a fixed-length TupleN (spec §4.6).
func ProjectTupleN[T, C any](
	g *graph.Graph,
	elemOps container.Ops[T, C],
	source reactive.Reactive[container.TupleN[T], container.TupleNCmd[C]],
	i int,
) reactive.Reactive[T, C] {
	changes := graph.Map(g, source.Changes, func(c container.TupleNCmd[C]) C {
		if i < len(c.Slots) && c.Slots[i].Present {
			return c.Slots[i].Cmd
		}
		return elemOps.Empty()
	})
	return reactive.New(g, elemOps, changes, source.Materialized.Value()[i])
}

// FoldLog is Accumulate specialized to an append-only log: the entries
// already in source's snapshot at construction are folded into init
// first, then each newly appended batch element is folded left to right
// into the running accumulator (spec §4.6). The result is a plain
// derived Cell, not a Reactive — a fold has no command algebra of its
// own to expose.
func FoldLog[T, S any](g *graph.Graph, source reactive.Reactive[[]T, container.LogBatch[T]], init S, f func(S, T) S) graph.Cell[S] {
	apply := func(s S, b container.LogBatch[T]) S {
		for _, v := range b.Appended {
			s = f(s, v)
		}
		return s
	}
	acc := init
	for _, v := range source.Materialized.Value() {
		acc = f(acc, v)
	}
	return graph.Accumulate(g, source.Changes, acc, apply)
}

// LengthLog is FoldLog specialized to counting (spec §4.6).
func LengthLog[T any](g *graph.Graph, source reactive.Reactive[[]T, container.LogBatch[T]]) graph.Cell[int] {
	return FoldLog(g, source, 0, func(n int, _ T) int { return n + 1 })
}

// MapLog applies f to each newly appended entry, per batch (spec §4.6).
// A log never mutates or removes an existing entry, so unlike
// map_list/map_map this needs no per-element identity tracking and no
// child reactive: f runs fresh on every append.
func MapLog[A, B any](g *graph.Graph, source reactive.Reactive[[]A, container.LogBatch[A]], f func(A) B) reactive.Reactive[[]B, container.LogBatch[B]] {
	outOps := container.LogOps[B]()
	changes := graph.Map(g, source.Changes, func(b container.LogBatch[A]) container.LogBatch[B] {
		if len(b.Appended) == 0 {
			return container.LogBatch[B]{}
		}
		out := make([]B, len(b.Appended))
		for i, v := range b.Appended {
			out[i] = f(v)
		}
		return container.LogBatch[B]{Appended: out}
	})
	initSrc := source.Materialized.Value()
	initOut := make([]B, len(initSrc))
	for i, v := range initSrc {
		initOut[i] = f(v)
	}
	return reactive.New(g, outOps, changes, initOut)
}

// Option is the nullable wrapper get_key_map's output state needs: the
// map's command algebra has no native "absent" value for an opaque V.
type Option[V any] struct {
	Present bool
	Value   V
}

// GetKeyMap projects one key out of a reactive mapping, tracking its
// presence and value as a nullable primitive (spec §4.6). The output
// only ever carries whole-value replace commands — it is a readout, not
// a channel for k's own element-level incremental commands.
func GetKeyMap[K comparable, V, ICV any](
	g *graph.Graph,
	source reactive.Reactive[map[K]V, container.MapBatch[K, V, ICV]],
	key K,
) reactive.Reactive[Option[V], container.PrimitiveCmd[Option[V]]] {
	outOps := container.PrimitiveOps[Option[V]]()
	initV, present := source.Materialized.Value()[key]
	initOpt := Option[V]{Present: present, Value: initV}

	changes := graph.Zip(g, source.Changes, source.Materialized,
		func(batch container.MapBatch[K, V, ICV], snapshot map[K]V) container.PrimitiveCmd[Option[V]] {
			touched := false
			for _, cmd := range batch {
				if cmd.Op == container.MapClear || cmd.Key == key {
					touched = true
					break
				}
			}
			if !touched {
				return container.PrimitiveCmd[Option[V]]{}
			}
			v, ok := snapshot[key]
			return container.Replace(Option[V]{Present: ok, Value: v})
		})

	return reactive.New(g, outOps, changes, initOpt)
}

// GetSingleMapValue unwraps a reactive mapping known to hold exactly
// one entry (spec §4.6). A map with any other size is a precondition
// violation, checked on every step the same way tree.Insert checks its
// own preconditions — by panicking with a support.PreconditionError.
func GetSingleMapValue[K comparable, V, ICV any](
	g *graph.Graph,
	source reactive.Reactive[map[K]V, container.MapBatch[K, V, ICV]],
) reactive.Reactive[V, container.PrimitiveCmd[V]] {
	outOps := container.PrimitiveOps[V]()
	single := func(m map[K]V) V {
		if len(m) != 1 {
			panic(support.NewPrecondition("ops.GetSingleMapValue", fmt.Sprintf("expected exactly one entry, got %d", len(m))))
		}
		for _, v := range m {
			return v
		}
		panic("unreachable")
	}
	initVal := single(source.Materialized.Value())

	changes := graph.Zip(g, source.Changes, source.Materialized,
		func(batch container.MapBatch[K, V, ICV], snapshot map[K]V) container.PrimitiveCmd[V] {
			if len(batch) == 0 {
				return container.PrimitiveCmd[V]{}
			}
			return container.Replace(single(snapshot))
		})

	return reactive.New(g, outOps, changes, initVal)
}

// SequenceList is sequence_map's sequence analogue (spec §4.3.8, §4.6):
// flattens Reactive<seq<Reactive<T>>> by reusing decompose_list and
// compose_list around sequence_map rather than a parallel tree-spine
// implementation. Each sequence slot is treated as an opaque primitive
// (whole-reactive replace) for the purposes of decomposition.
func SequenceList[T, ICT any](
	g *graph.Graph,
	elemOpsT container.Ops[T, ICT],
	source reactive.Reactive[[]reactive.Reactive[T, ICT], container.SeqBatch[reactive.Reactive[T, ICT], container.PrimitiveCmd[reactive.Reactive[T, ICT]]]],
) reactive.Reactive[[]T, container.SeqBatch[T, ICT]] {
	elemOpsInner := container.PrimitiveOps[reactive.Reactive[T, ICT]]()
	ids, idMapOfReactives := DecomposeList(g, elemOpsInner, source)
	flat := SequenceMap(g, elemOpsT, idMapOfReactives)
	return ComposeList(g, elemOpsT, ids, flat)
}
