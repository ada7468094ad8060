// Package ops builds the named incremental operators of spec §6 on top
// of package container's algebras, package graph's scheduler and
// package reactive's wrapper.
package ops

import (
	"github.com/nmxmxh/ivm/container"
	"github.com/nmxmxh/ivm/graph"
	"github.com/nmxmxh/ivm/ident"
	"github.com/nmxmxh/ivm/internal/support"
	"github.com/nmxmxh/ivm/reactive"
)

// collisionGuardExpectedIDs and collisionGuardFPRate size DecomposeList's
// per-call weak cache of minted IDs — generous enough that the false
// positive rate stays near the configured bound for any one sequence's
// lifetime of inserts.
const (
	collisionGuardExpectedIDs = 4096
	collisionGuardFPRate      = 0.0001
)

func insertIDAt(s []ident.ID, i int, id ident.ID) []ident.ID {
	s = append(s, id)
	copy(s[i+1:], s[i:])
	s[i] = id
	return s
}

func removeIDAt(s []ident.ID, i int) []ident.ID {
	return append(s[:i], s[i+1:]...)
}

func moveIDAt(s []ident.ID, from, to int) []ident.ID {
	id := s[from]
	s = removeIDAt(s, from)
	return insertIDAt(s, to, id)
}

func indexOfID(s []ident.ID, id ident.ID) int {
	for i, x := range s {
		if x == id {
			return i
		}
	}
	return -1
}

// seqMapPair is the combined per-step output of DecomposeList: both
// halves are produced by one translation of the source batch so the
// running id-list is mutated exactly once per step (spec §4.3.3).
type seqMapPair[T, IC any] struct {
	Seq container.SeqBatch[ident.ID, container.PrimitiveCmd[ident.ID]]
	Map container.MapBatch[ident.ID, T, IC]
}

// DecomposeList splits a Reactive sequence into a Reactive sequence of
// stable IDs and a Reactive id->value mapping (spec §4.3.3). Each
// element's ID is minted once, at the moment it first appears — in the
// initial snapshot, or on a later insert — and is preserved across
// updates and moves.
func DecomposeList[T, IC any](
	g *graph.Graph,
	elemOps container.Ops[T, IC],
	source reactive.Reactive[[]T, container.SeqBatch[T, IC]],
) (reactive.Reactive[[]ident.ID, container.SeqBatch[ident.ID, container.PrimitiveCmd[ident.ID]]], reactive.Reactive[map[ident.ID]T, container.MapBatch[ident.ID, T, IC]]) {
	idOps := container.SequenceOps[ident.ID, container.PrimitiveCmd[ident.ID]](container.PrimitiveOps[ident.ID]())
	mapOps := container.MappingOps[ident.ID, T, IC](elemOps)
	guard := ident.NewCollisionGuard(collisionGuardExpectedIDs, collisionGuardFPRate)
	log := g.Logger().Component("ops.decompose_list")

	mint := func() ident.ID {
		id := ident.New()
		if guard.Mark(id) {
			log.Warn("possible id collision in decomposed sequence", support.Uint64("id", uint64(id)))
		}
		return id
	}

	initVals := source.Materialized.Value()
	ids := make([]ident.ID, len(initVals))
	initMap := make(map[ident.ID]T, len(initVals))
	for i, v := range initVals {
		id := mint()
		ids[i] = id
		initMap[id] = v
	}
	initIDs := append([]ident.ID(nil), ids...)

	pair := graph.Map(g, source.Changes, func(batch container.SeqBatch[T, IC]) seqMapPair[T, IC] {
		var out seqMapPair[T, IC]
		for _, cmd := range batch {
			switch cmd.Op {
			case container.SeqInsert:
				id := mint()
				ids = insertIDAt(ids, cmd.Index, id)
				out.Seq = append(out.Seq, container.Ins[ident.ID, container.PrimitiveCmd[ident.ID]](cmd.Index, id))
				out.Map = append(out.Map, container.Add[ident.ID, T, IC](id, cmd.Value))
			case container.SeqUpdate:
				id := ids[cmd.Index]
				out.Map = append(out.Map, container.UpdKey[ident.ID, T, IC](id, cmd.Inner))
			case container.SeqRemove:
				id := ids[cmd.Index]
				ids = removeIDAt(ids, cmd.Index)
				out.Seq = append(out.Seq, container.Rem[ident.ID, container.PrimitiveCmd[ident.ID]](cmd.Index))
				out.Map = append(out.Map, container.Del[ident.ID, T, IC](id))
			case container.SeqMove:
				ids = moveIDAt(ids, cmd.Index, cmd.To)
				out.Seq = append(out.Seq, container.Mv[ident.ID, container.PrimitiveCmd[ident.ID]](cmd.Index, cmd.To))
			case container.SeqClear:
				ids = nil
				out.Seq = append(out.Seq, container.SeqClr[ident.ID, container.PrimitiveCmd[ident.ID]]())
				out.Map = append(out.Map, container.MapClr[ident.ID, T, IC]())
			}
		}
		return out
	})

	seqChanges := graph.Map(g, pair, func(p seqMapPair[T, IC]) container.SeqBatch[ident.ID, container.PrimitiveCmd[ident.ID]] {
		return p.Seq
	})
	mapChanges := graph.Map(g, pair, func(p seqMapPair[T, IC]) container.MapBatch[ident.ID, T, IC] {
		return p.Map
	})

	idsReactive := reactive.New(g, idOps, seqChanges, initIDs)
	mapReactive := reactive.New(g, mapOps, mapChanges, initMap)
	return idsReactive, mapReactive
}

// ComposeList is the inverse of DecomposeList (spec §4.3.3). Structural
// commands on the id sequence drive the output 1:1; a map update whose
// key was inserted in the very same batch is dropped, since the insert
// already carries the post-batch value for that ID and re-applying the
// update would double-apply it.
func ComposeList[T, IC any](
	g *graph.Graph,
	elemOps container.Ops[T, IC],
	ids reactive.Reactive[[]ident.ID, container.SeqBatch[ident.ID, container.PrimitiveCmd[ident.ID]]],
	idMap reactive.Reactive[map[ident.ID]T, container.MapBatch[ident.ID, T, IC]],
) reactive.Reactive[[]T, container.SeqBatch[T, IC]] {
	seqOps := container.SequenceOps[T, IC](elemOps)

	initIDs := ids.Materialized.Value()
	initValues := idMap.Materialized.Value()
	initSeq := make([]T, len(initIDs))
	for i, id := range initIDs {
		initSeq[i] = initValues[id]
	}

	changes := graph.Zip4(g, ids.Changes, idMap.Changes, idMap.Materialized, ids.PreviousMaterialized,
		func(
			idBatch container.SeqBatch[ident.ID, container.PrimitiveCmd[ident.ID]],
			mapBatch container.MapBatch[ident.ID, T, IC],
			mapSnapshot map[ident.ID]T,
			prevIDs []ident.ID,
		) container.SeqBatch[T, IC] {
			var out container.SeqBatch[T, IC]
			insertedThisStep := make(map[ident.ID]bool)
			running := append([]ident.ID(nil), prevIDs...)

			for _, cmd := range idBatch {
				switch cmd.Op {
				case container.SeqInsert:
					id := cmd.Value
					insertedThisStep[id] = true
					running = insertIDAt(running, cmd.Index, id)
					out = append(out, container.Ins[T, IC](cmd.Index, mapSnapshot[id]))
				case container.SeqRemove:
					running = removeIDAt(running, cmd.Index)
					out = append(out, container.Rem[T, IC](cmd.Index))
				case container.SeqMove:
					running = moveIDAt(running, cmd.Index, cmd.To)
					out = append(out, container.Mv[T, IC](cmd.Index, cmd.To))
				case container.SeqClear:
					running = nil
					out = append(out, container.SeqClr[T, IC]())
				}
			}

			for _, mcmd := range mapBatch {
				if mcmd.Op != container.MapUpdate || insertedThisStep[mcmd.Key] {
					continue
				}
				if idx := indexOfID(running, mcmd.Key); idx >= 0 {
					out = append(out, container.Upd[T, IC](idx, mcmd.Inner))
				}
			}
			return out
		})

	return reactive.New(g, seqOps, changes, initSeq)
}
