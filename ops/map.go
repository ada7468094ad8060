package ops

import (
	"github.com/nmxmxh/ivm/container"
	"github.com/nmxmxh/ivm/graph"
	"github.com/nmxmxh/ivm/reactive"
)

// mapMapChild is one live per-key substream: the key's own Reactive[Y]
// plus enough of its identity for the assembler to (un)link it as its
// own dependency rotates (spec §4.3.4).
type mapMapChild[Y, ICY any] struct {
	r      reactive.Reactive[Y, ICY]
	height int
}

// mapMapAssembler owns the dynamic fan-in: it reads the outer batch,
// creates/destroys per-key substreams, and folds each live child's own
// this-step changes into the outer output batch. Each new child's
// input stream is itself a graph.Map over the shared outer
// source.Changes cell — not a graph.ChangeInput — so it is linked and
// stepped through the ordinary height-propagation path from the moment
// it is constructed, with no separate push/rearm cycle.
type mapMapAssembler[K comparable, X, ICX, Y, ICY any] struct {
	g        *graph.Graph
	elemOpsX container.Ops[X, ICX]
	source   reactive.Reactive[map[K]X, container.MapBatch[K, X, ICX]]
	f        func(*graph.Graph, reactive.Reactive[X, ICX]) reactive.Reactive[Y, ICY]
	children map[K]*mapMapChild[Y, ICY]
	dyn      graph.DynamicCell[container.MapBatch[K, Y, ICY]]
}

func (a *mapMapAssembler[K, X, ICX, Y, ICY]) buildChild(key K, initX X) *mapMapChild[Y, ICY] {
	childY := buildPerKeyChild(a.g, a.elemOpsX, a.source.Changes, key, initX, a.f)
	return &mapMapChild[Y, ICY]{r: childY, height: childY.Changes.Height()}
}

func (a *mapMapAssembler[K, X, ICX, Y, ICY]) step() container.MapBatch[K, Y, ICY] {
	var out container.MapBatch[K, Y, ICY]
	batch := a.source.Changes.Value()
	addedThisStep := make(map[K]bool)
	self := graph.AsNode(a.dyn.Cell())

	for _, cmd := range batch {
		switch cmd.Op {
		case container.MapAdd:
			c := a.buildChild(cmd.Key, cmd.Value)
			a.children[cmd.Key] = c
			addedThisStep[cmd.Key] = true
			graph.LinkAny(c.r.Changes, self)
			a.dyn.RaiseHeight(c.height + 1)
			out = append(out, container.Add[K, Y, ICY](cmd.Key, c.r.Materialized.Value()))
		case container.MapDelete:
			if old, ok := a.children[cmd.Key]; ok {
				graph.UnlinkAny(old.r.Changes, self)
				delete(a.children, cmd.Key)
			}
			out = append(out, container.Del[K, Y, ICY](cmd.Key))
		case container.MapClear:
			for k, old := range a.children {
				graph.UnlinkAny(old.r.Changes, self)
				delete(a.children, k)
			}
			out = append(out, container.MapClr[K, Y, ICY]())
		}
	}

	for k, c := range a.children {
		if addedThisStep[k] {
			continue
		}
		if inner := c.r.Changes.Value(); !c.r.Ops.IsEmpty(inner) {
			out = append(out, container.UpdKey[K, Y, ICY](k, inner))
		}
	}
	return out
}

// MapMap applies f exactly once per key, at the moment the key first
// appears, and threads each key's own update commands into that key's
// own substream (spec §4.3.4). f is never invoked again for the same
// key on a later update — only the key's substream advances.
func MapMap[K comparable, X, ICX, Y, ICY any](
	g *graph.Graph,
	elemOpsX container.Ops[X, ICX],
	elemOpsY container.Ops[Y, ICY],
	source reactive.Reactive[map[K]X, container.MapBatch[K, X, ICX]],
	f func(*graph.Graph, reactive.Reactive[X, ICX]) reactive.Reactive[Y, ICY],
) reactive.Reactive[map[K]Y, container.MapBatch[K, Y, ICY]] {
	outOps := container.MappingOps[K, Y, ICY](elemOpsY)

	a := &mapMapAssembler[K, X, ICX, Y, ICY]{
		g:        g,
		elemOpsX: elemOpsX,
		source:   source,
		f:        f,
		children: make(map[K]*mapMapChild[Y, ICY]),
	}

	initY := make(map[K]Y, len(source.Materialized.Value()))
	height := source.Changes.Height() + 1
	for k, v := range source.Materialized.Value() {
		c := a.buildChild(k, v)
		a.children[k] = c
		initY[k] = c.r.Materialized.Value()
		if c.height+1 > height {
			height = c.height + 1
		}
	}

	a.dyn = graph.NewDynamicCell[container.MapBatch[K, Y, ICY]](g, height, nil, a.step)
	self := graph.AsNode(a.dyn.Cell())
	graph.LinkAny(source.Changes, self)
	for _, c := range a.children {
		graph.LinkAny(c.r.Changes, self)
	}

	return reactive.New(g, outOps, a.dyn.Cell(), initY)
}

// MapList is MapMap's sequence counterpart, built in terms of MapMap
// (spec §4.6's own philosophy of reusing primitives rather than a
// parallel implementation, applied here to the sibling operator
// map_list/map_map share a description for in §4.3.4): decompose into
// stable IDs plus an id-keyed map, run MapMap over the map, and
// recompose with the unchanged ID sequence.
func MapList[X, ICX, Y, ICY any](
	g *graph.Graph,
	elemOpsX container.Ops[X, ICX],
	elemOpsY container.Ops[Y, ICY],
	source reactive.Reactive[[]X, container.SeqBatch[X, ICX]],
	f func(*graph.Graph, reactive.Reactive[X, ICX]) reactive.Reactive[Y, ICY],
) reactive.Reactive[[]Y, container.SeqBatch[Y, ICY]] {
	ids, idMapX := DecomposeList(g, elemOpsX, source)
	idMapY := MapMap(g, elemOpsX, elemOpsY, idMapX, f)
	return ComposeList(g, elemOpsY, ids, idMapY)
}
