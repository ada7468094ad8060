package ops

import (
	"github.com/nmxmxh/ivm/container"
	"github.com/nmxmxh/ivm/graph"
	"github.com/nmxmxh/ivm/ident"
	"github.com/nmxmxh/ivm/reactive"
	"github.com/nmxmxh/ivm/tree"
)

// filterSummary is the (total, selected) monoid of spec §4.3.5: total
// counts leaves, selected counts leaves currently passing the
// predicate.
type filterSummary struct {
	total    int
	selected int
}

func filterMonoid() tree.Monoid[filterSummary] {
	return tree.Monoid[filterSummary]{
		Zero: filterSummary{},
		Combine: func(a, b filterSummary) filterSummary {
			return filterSummary{total: a.total + b.total, selected: a.selected + b.selected}
		},
	}
}

func summarizeSelected(v bool) filterSummary {
	if v {
		return filterSummary{total: 1, selected: 1}
	}
	return filterSummary{total: 1, selected: 0}
}

// byStructuralIndex is the insertion threshold that lands a new leaf at
// source-sequence position i: the first candidate prefix whose total
// leaf count exceeds i is the position immediately after the i-th
// existing leaf.
func byStructuralIndex(i int) func(filterSummary) bool {
	return func(s filterSummary) bool { return s.total > i }
}

type filterChild struct {
	r      reactive.Reactive[bool, container.PrimitiveCmd[bool]]
	height int
}

// filterAssembler holds the decomposed id/value streams, the per-id
// predicate substreams, and the summarized tree tracking selection
// order (spec §4.3.5).
type filterAssembler[X, ICX any] struct {
	g         *graph.Graph
	elemOpsX  container.Ops[X, ICX]
	ids       reactive.Reactive[[]ident.ID, container.SeqBatch[ident.ID, container.PrimitiveCmd[ident.ID]]]
	idMapX    reactive.Reactive[map[ident.ID]X, container.MapBatch[ident.ID, X, ICX]]
	predicate func(*graph.Graph, reactive.Reactive[X, ICX]) reactive.Reactive[bool, container.PrimitiveCmd[bool]]
	tr        *tree.Tree[bool, filterSummary]
	children  map[ident.ID]*filterChild
	dyn       graph.DynamicCell[container.SeqBatch[X, ICX]]
}

func (a *filterAssembler[X, ICX]) buildChild(id ident.ID, initVal X, index int) *filterChild {
	r := buildPerKeyChild(a.g, a.elemOpsX, a.idMapX.Changes, id, initVal, a.predicate)
	a.tr.Insert(uint64(id), r.Materialized.Value(), byStructuralIndex(index))
	return &filterChild{r: r, height: r.Changes.Height()}
}

func (a *filterAssembler[X, ICX]) step() container.SeqBatch[X, ICX] {
	var out container.SeqBatch[X, ICX]
	self := graph.AsNode(a.dyn.Cell())

	idBatch := a.ids.Changes.Value()
	mapSnapshot := a.idMapX.Materialized.Value()
	updatesThisStep := make(map[ident.ID]ICX)
	for _, cmd := range a.idMapX.Changes.Value() {
		if cmd.Op == container.MapUpdate {
			updatesThisStep[cmd.Key] = cmd.Inner
		}
	}

	running := append([]ident.ID(nil), a.ids.PreviousMaterialized.Value()...)
	insertedThisStep := make(map[ident.ID]bool)

	for _, cmd := range idBatch {
		switch cmd.Op {
		case container.SeqInsert:
			id := cmd.Value
			insertedThisStep[id] = true
			c := a.buildChild(id, mapSnapshot[id], cmd.Index)
			a.children[id] = c
			graph.LinkAny(c.r.Changes, self)
			a.dyn.RaiseHeight(c.height + 1)
			running = insertIDAt(running, cmd.Index, id)
			if c.r.Materialized.Value() {
				dest := a.tr.PrefixSummaryByID(uint64(id)).selected
				out = append(out, container.Ins[X, ICX](dest, mapSnapshot[id]))
			}
		case container.SeqRemove:
			id := running[cmd.Index]
			wasSelected := false
			if v, ok := a.tr.Get(uint64(id)); ok {
				wasSelected = v
			}
			dest := a.tr.PrefixSummaryByID(uint64(id)).selected
			a.tr.Remove(uint64(id))
			if c, ok := a.children[id]; ok {
				graph.UnlinkAny(c.r.Changes, self)
				delete(a.children, id)
			}
			running = removeIDAt(running, cmd.Index)
			if wasSelected {
				out = append(out, container.Rem[X, ICX](dest))
			}
		case container.SeqMove:
			id := running[cmd.Index]
			selected, _ := a.tr.Get(uint64(id))
			oldDest := a.tr.PrefixSummaryByID(uint64(id)).selected
			a.tr.Remove(uint64(id))
			running = moveIDAt(running, cmd.Index, cmd.To)
			newIndexInRunning := indexOfID(running, id)
			a.tr.Insert(uint64(id), selected, byStructuralIndex(newIndexInRunning))
			newDest := a.tr.PrefixSummaryByID(uint64(id)).selected
			if selected && oldDest != newDest {
				out = append(out, container.Mv[X, ICX](oldDest, newDest))
			}
		case container.SeqClear:
			for id, c := range a.children {
				graph.UnlinkAny(c.r.Changes, self)
				delete(a.children, id)
			}
			a.tr = tree.New[bool, filterSummary](filterMonoid(), summarizeSelected)
			running = nil
			out = append(out, container.SeqClr[X, ICX]())
		}
	}

	for id, c := range a.children {
		if insertedThisStep[id] {
			continue
		}
		predCmd := c.r.Changes.Value()
		oldSelected, _ := a.tr.Get(uint64(id))
		if predCmd.HasValue && predCmd.Value != oldSelected {
			if oldSelected && !predCmd.Value {
				oldDest := a.tr.PrefixSummaryByID(uint64(id)).selected
				a.tr.UpdateValue(uint64(id), false)
				out = append(out, container.Rem[X, ICX](oldDest))
			} else {
				a.tr.UpdateValue(uint64(id), true)
				newDest := a.tr.PrefixSummaryByID(uint64(id)).selected
				out = append(out, container.Ins[X, ICX](newDest, mapSnapshot[id]))
			}
			continue
		}
		if oldSelected {
			if inner, ok := updatesThisStep[id]; ok {
				dest := a.tr.PrefixSummaryByID(uint64(id)).selected
				out = append(out, container.Upd[X, ICX](dest, inner))
			}
		}
	}
	return out
}

// FilterList keeps only the elements of source currently satisfying
// predicate, preserving source order (spec §4.3.5). predicate is
// invoked exactly once per element-identity, as in map_list/map_map.
func FilterList[X, ICX any](
	g *graph.Graph,
	elemOpsX container.Ops[X, ICX],
	source reactive.Reactive[[]X, container.SeqBatch[X, ICX]],
	predicate func(*graph.Graph, reactive.Reactive[X, ICX]) reactive.Reactive[bool, container.PrimitiveCmd[bool]],
) reactive.Reactive[[]X, container.SeqBatch[X, ICX]] {
	ids, idMapX := DecomposeList(g, elemOpsX, source)

	a := &filterAssembler[X, ICX]{
		g:         g,
		elemOpsX:  elemOpsX,
		ids:       ids,
		idMapX:    idMapX,
		predicate: predicate,
		tr:        tree.New[bool, filterSummary](filterMonoid(), summarizeSelected),
		children:  make(map[ident.ID]*filterChild),
	}

	initIDs := ids.Materialized.Value()
	initVals := idMapX.Materialized.Value()
	height := ids.Changes.Height() + 1
	if h := idMapX.Changes.Height() + 1; h > height {
		height = h
	}
	if h := idMapX.Materialized.Height() + 1; h > height {
		height = h
	}
	if h := ids.PreviousMaterialized.Height() + 1; h > height {
		height = h
	}

	var initOut []X
	for i, id := range initIDs {
		c := a.buildChild(id, initVals[id], i)
		a.children[id] = c
		if h := c.height + 1; h > height {
			height = h
		}
		if c.r.Materialized.Value() {
			initOut = append(initOut, initVals[id])
		}
	}

	a.dyn = graph.NewDynamicCell[container.SeqBatch[X, ICX]](g, height, nil, a.step)
	self := graph.AsNode(a.dyn.Cell())
	graph.LinkAny(ids.Changes, self)
	graph.LinkAny(idMapX.Changes, self)
	graph.LinkAny(idMapX.Materialized, self)
	graph.LinkAny(ids.PreviousMaterialized, self)
	for _, c := range a.children {
		graph.LinkAny(c.r.Changes, self)
	}

	outOps := container.SequenceOps[X, ICX](elemOpsX)
	return reactive.New(g, outOps, a.dyn.Cell(), initOut)
}
