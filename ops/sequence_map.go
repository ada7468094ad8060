package ops

import (
	"github.com/nmxmxh/ivm/container"
	"github.com/nmxmxh/ivm/graph"
	"github.com/nmxmxh/ivm/reactive"
	"github.com/nmxmxh/ivm/tree"
)

// unsafeMergeMap unions a and b under the precondition (owned by the
// caller) that their keysets are disjoint — the summary monoid for the
// sequence_map merge spine (spec §4.3.8).
func unsafeMergeMap[K comparable, V any](a, b map[K]V) map[K]V {
	out := make(map[K]V, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

func mergeMonoid[K comparable, V any]() tree.Monoid[map[K]V] {
	return tree.Monoid[map[K]V]{
		Zero:    map[K]V{},
		Combine: unsafeMergeMap[K, V],
	}
}

func identitySummary[K comparable, V any](v map[K]V) map[K]V { return v }

func alwaysAppend[S any](S) bool { return false }

type seqMapLeaf[K comparable, V, ICV any] struct {
	key    K
	child  reactive.Reactive[V, ICV]
	treeID uint64
}

// sequenceMapAssembler implements spec §4.3.8: the summarized tree
// stores one (key, singleton-map-of-current-value) leaf per live child
// reactive, combined by unsafe_merge_map, so the tree's own whole-tree
// summary always equals the flattened map. Tree order is irrelevant to
// a mapping's output; leaves are always appended, keyed by a monotonic
// id standing in for "hash of key" since Go generics offer no built-in
// hash over an arbitrary comparable K without reflection.
type sequenceMapAssembler[K comparable, V, ICV any] struct {
	g          *graph.Graph
	elemOpsV   container.Ops[V, ICV]
	source     reactive.Reactive[map[K]reactive.Reactive[V, ICV], container.MapBatch[K, reactive.Reactive[V, ICV], container.PrimitiveCmd[reactive.Reactive[V, ICV]]]]
	tr         *tree.Tree[map[K]V, map[K]V]
	leaves     map[K]*seqMapLeaf[K, V, ICV]
	nextTreeID uint64
	dyn        graph.DynamicCell[container.MapBatch[K, V, ICV]]
}

func (a *sequenceMapAssembler[K, V, ICV]) insertLeaf(key K, child reactive.Reactive[V, ICV]) *seqMapLeaf[K, V, ICV] {
	id := a.nextTreeID
	a.nextTreeID++
	a.tr.Insert(id, map[K]V{key: child.Materialized.Value()}, alwaysAppend[map[K]V])
	return &seqMapLeaf[K, V, ICV]{key: key, child: child, treeID: id}
}

func (a *sequenceMapAssembler[K, V, ICV]) step() container.MapBatch[K, V, ICV] {
	var out container.MapBatch[K, V, ICV]
	self := graph.AsNode(a.dyn.Cell())
	batch := a.source.Changes.Value()
	touchedThisStep := make(map[K]bool)

	for _, cmd := range batch {
		switch cmd.Op {
		case container.MapAdd:
			leaf := a.insertLeaf(cmd.Key, cmd.Value)
			a.leaves[cmd.Key] = leaf
			touchedThisStep[cmd.Key] = true
			graph.LinkAny(leaf.child.Changes, self)
			a.dyn.RaiseHeight(leaf.child.Changes.Height() + 1)
			out = append(out, container.Add[K, V, ICV](cmd.Key, leaf.child.Materialized.Value()))
		case container.MapDelete:
			if leaf, ok := a.leaves[cmd.Key]; ok {
				graph.UnlinkAny(leaf.child.Changes, self)
				a.tr.Remove(leaf.treeID)
				delete(a.leaves, cmd.Key)
			}
			touchedThisStep[cmd.Key] = true
			out = append(out, container.Del[K, V, ICV](cmd.Key))
		case container.MapUpdate:
			old, ok := a.leaves[cmd.Key]
			if !ok || !cmd.Inner.HasValue {
				continue
			}
			touchedThisStep[cmd.Key] = true
			curVal := old.child.Materialized.Value()
			newChild := cmd.Inner.Value
			targetVal := newChild.Materialized.Value()
			graph.UnlinkAny(old.child.Changes, self)
			a.tr.Remove(old.treeID)
			leaf := a.insertLeaf(cmd.Key, newChild)
			a.leaves[cmd.Key] = leaf
			graph.LinkAny(leaf.child.Changes, self)
			a.dyn.RaiseHeight(leaf.child.Changes.Height() + 1)
			out = append(out, container.UpdKey[K, V, ICV](cmd.Key, a.elemOpsV.Replace(curVal, targetVal)))
		case container.MapClear:
			for k, leaf := range a.leaves {
				graph.UnlinkAny(leaf.child.Changes, self)
				delete(a.leaves, k)
			}
			a.tr = tree.New[map[K]V, map[K]V](mergeMonoid[K, V](), identitySummary[K, V])
			out = append(out, container.MapClr[K, V, ICV]())
		}
	}

	for k, leaf := range a.leaves {
		if touchedThisStep[k] {
			continue
		}
		delta := leaf.child.Changes.Value()
		if a.elemOpsV.IsEmpty(delta) {
			continue
		}
		out = append(out, container.UpdKey[K, V, ICV](k, delta))
		a.tr.UpdateValue(leaf.treeID, map[K]V{k: leaf.child.Materialized.Value()})
	}
	return out
}

// SequenceMap flattens a mapping of per-key reactives into a single
// reactive mapping (spec §4.3.8). key_fn has already run by the time a
// value reaches this operator — each map entry already carries the
// child reactive itself, not an element awaiting a key function.
func SequenceMap[K comparable, V, ICV any](
	g *graph.Graph,
	elemOpsV container.Ops[V, ICV],
	source reactive.Reactive[map[K]reactive.Reactive[V, ICV], container.MapBatch[K, reactive.Reactive[V, ICV], container.PrimitiveCmd[reactive.Reactive[V, ICV]]]],
) reactive.Reactive[map[K]V, container.MapBatch[K, V, ICV]] {
	outOps := container.MappingOps[K, V, ICV](elemOpsV)

	a := &sequenceMapAssembler[K, V, ICV]{
		g: g, elemOpsV: elemOpsV, source: source,
		tr:     tree.New[map[K]V, map[K]V](mergeMonoid[K, V](), identitySummary[K, V]),
		leaves: make(map[K]*seqMapLeaf[K, V, ICV]),
	}

	height := source.Changes.Height() + 1
	initOut := make(map[K]V)
	for k, child := range source.Materialized.Value() {
		leaf := a.insertLeaf(k, child)
		a.leaves[k] = leaf
		if h := child.Changes.Height() + 1; h > height {
			height = h
		}
		initOut[k] = child.Materialized.Value()
	}

	a.dyn = graph.NewDynamicCell[container.MapBatch[K, V, ICV]](g, height, nil, a.step)
	self := graph.AsNode(a.dyn.Cell())
	graph.LinkAny(source.Changes, self)
	for _, leaf := range a.leaves {
		graph.LinkAny(leaf.child.Changes, self)
	}

	return reactive.New(g, outOps, a.dyn.Cell(), initOut)
}

// FlattenMap is an alias for SequenceMap (spec §4.6): the library's
// external surface names both, one mnemonic for "collapse a layer of
// nesting" and the other for "this is the map analogue of flattening a
// reactive-of-reactives."
func FlattenMap[K comparable, V, ICV any](
	g *graph.Graph,
	elemOpsV container.Ops[V, ICV],
	source reactive.Reactive[map[K]reactive.Reactive[V, ICV], container.MapBatch[K, reactive.Reactive[V, ICV], container.PrimitiveCmd[reactive.Reactive[V, ICV]]]],
) reactive.Reactive[map[K]V, container.MapBatch[K, V, ICV]] {
	return SequenceMap(g, elemOpsV, source)
}
