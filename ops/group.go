package ops

import (
	"github.com/nmxmxh/ivm/container"
	"github.com/nmxmxh/ivm/graph"
	"github.com/nmxmxh/ivm/ident"
	"github.com/nmxmxh/ivm/reactive"
)

// groupKeyChild is the per-element key substream shared by GroupByList
// and GroupByMap: key_fn is invoked exactly once per element-identity
// (spec §4.3.6, citing §4.3.4's same convention).
type groupKeyChild[K comparable] struct {
	keyR   reactive.Reactive[K, container.PrimitiveCmd[K]]
	height int
}

// countMembersBefore returns how many of order[:upTo] carry key k in
// idKey, i.e. the destination index a new or moved member of group k
// would occupy at global structural position upTo.
func countMembersBefore[K comparable](order []ident.ID, idKey map[ident.ID]K, upTo int, k K) int {
	n := 0
	for i := 0; i < upTo; i++ {
		if idKey[order[i]] == k {
			n++
		}
	}
	return n
}

// groupByListAssembler partitions a decomposed sequence into per-key
// ordered subsets, tracking each group's membership order directly
// (rather than via the tree used by FilterList): a member's destination
// index within its group is the count of same-group members preceding
// it in the shared structural order, recomputed by countMembersBefore
// on every insert, move, or key change (spec §4.3.6).
type groupByListAssembler[X, ICX any, K comparable] struct {
	g        *graph.Graph
	elemOpsX container.Ops[X, ICX]
	ids      reactive.Reactive[[]ident.ID, container.SeqBatch[ident.ID, container.PrimitiveCmd[ident.ID]]]
	idMapX   reactive.Reactive[map[ident.ID]X, container.MapBatch[ident.ID, X, ICX]]
	keyFn    func(*graph.Graph, reactive.Reactive[X, ICX]) reactive.Reactive[K, container.PrimitiveCmd[K]]
	children map[ident.ID]*groupKeyChild[K]
	idKey    map[ident.ID]K
	groups   map[K][]ident.ID
	running  []ident.ID
	dyn      graph.DynamicCell[container.MapBatch[K, []X, container.SeqBatch[X, ICX]]]
}

func (a *groupByListAssembler[X, ICX, K]) buildChild(id ident.ID, initX X) *groupKeyChild[K] {
	keyR := buildPerKeyChild(a.g, a.elemOpsX, a.idMapX.Changes, id, initX, a.keyFn)
	return &groupKeyChild[K]{keyR: keyR, height: keyR.Changes.Height()}
}

func (a *groupByListAssembler[X, ICX, K]) addToGroup(out *container.MapBatch[K, []X, container.SeqBatch[X, ICX]], key K, id ident.ID, x X, globalIdx int) {
	localPos := countMembersBefore(a.running, a.idKey, globalIdx, key)
	slice, exists := a.groups[key]
	isNewGroup := !exists || len(slice) == 0
	a.groups[key] = insertIDAt(append([]ident.ID(nil), slice...), localPos, id)
	a.idKey[id] = key
	if isNewGroup {
		*out = append(*out, container.Add[K, []X, container.SeqBatch[X, ICX]](key, []X{x}))
	} else {
		*out = append(*out, container.UpdKey[K, []X, container.SeqBatch[X, ICX]](key,
			container.SeqBatch[X, ICX]{container.Ins[X, ICX](localPos, x)}))
	}
}

func (a *groupByListAssembler[X, ICX, K]) removeFromGroup(out *container.MapBatch[K, []X, container.SeqBatch[X, ICX]], key K, id ident.ID) {
	slice, ok := a.groups[key]
	if !ok {
		return
	}
	localPos := indexOfID(slice, id)
	if localPos < 0 {
		return
	}
	slice = removeIDAt(append([]ident.ID(nil), slice...), localPos)
	delete(a.idKey, id)
	if len(slice) == 0 {
		delete(a.groups, key)
		*out = append(*out, container.Del[K, []X, container.SeqBatch[X, ICX]](key))
	} else {
		a.groups[key] = slice
		*out = append(*out, container.UpdKey[K, []X, container.SeqBatch[X, ICX]](key,
			container.SeqBatch[X, ICX]{container.Rem[X, ICX](localPos)}))
	}
}

func (a *groupByListAssembler[X, ICX, K]) step() container.MapBatch[K, []X, container.SeqBatch[X, ICX]] {
	var out container.MapBatch[K, []X, container.SeqBatch[X, ICX]]
	self := graph.AsNode(a.dyn.Cell())
	idBatch := a.ids.Changes.Value()
	valueSnapshot := a.idMapX.Materialized.Value()
	updatesThisStep := make(map[ident.ID]ICX)
	for _, cmd := range a.idMapX.Changes.Value() {
		if cmd.Op == container.MapUpdate {
			updatesThisStep[cmd.Key] = cmd.Inner
		}
	}
	insertedThisStep := make(map[ident.ID]bool)

	for _, cmd := range idBatch {
		switch cmd.Op {
		case container.SeqInsert:
			id := cmd.Value
			insertedThisStep[id] = true
			c := a.buildChild(id, valueSnapshot[id])
			a.children[id] = c
			graph.LinkAny(c.keyR.Changes, self)
			a.dyn.RaiseHeight(c.height + 1)
			a.running = insertIDAt(a.running, cmd.Index, id)
			a.addToGroup(&out, c.keyR.Materialized.Value(), id, valueSnapshot[id], cmd.Index)
		case container.SeqRemove:
			id := a.running[cmd.Index]
			if key, ok := a.idKey[id]; ok {
				a.removeFromGroup(&out, key, id)
			}
			if c, ok := a.children[id]; ok {
				graph.UnlinkAny(c.keyR.Changes, self)
				delete(a.children, id)
			}
			a.running = removeIDAt(a.running, cmd.Index)
		case container.SeqMove:
			id := a.running[cmd.Index]
			key := a.idKey[id]
			oldLocal := indexOfID(a.groups[key], id)
			a.running = moveIDAt(a.running, cmd.Index, cmd.To)
			newGlobal := indexOfID(a.running, id)
			a.groups[key] = removeIDAt(append([]ident.ID(nil), a.groups[key]...), oldLocal)
			newLocal := countMembersBefore(a.running, a.idKey, newGlobal, key)
			a.groups[key] = insertIDAt(a.groups[key], newLocal, id)
			if oldLocal != newLocal {
				out = append(out, container.UpdKey[K, []X, container.SeqBatch[X, ICX]](key,
					container.SeqBatch[X, ICX]{container.Mv[X, ICX](oldLocal, newLocal)}))
			}
		case container.SeqClear:
			for id, c := range a.children {
				graph.UnlinkAny(c.keyR.Changes, self)
				delete(a.children, id)
			}
			a.groups = make(map[K][]ident.ID)
			a.idKey = make(map[ident.ID]K)
			a.running = nil
			out = append(out, container.MapClr[K, []X, container.SeqBatch[X, ICX]]())
		}
	}

	for id, c := range a.children {
		if insertedThisStep[id] {
			continue
		}
		keyCmd := c.keyR.Changes.Value()
		oldKey, hasOld := a.idKey[id]
		globalIdx := indexOfID(a.running, id)
		if keyCmd.HasValue && (!hasOld || keyCmd.Value != oldKey) {
			if hasOld {
				a.removeFromGroup(&out, oldKey, id)
			}
			a.addToGroup(&out, keyCmd.Value, id, valueSnapshot[id], globalIdx)
			continue
		}
		if inner, ok := updatesThisStep[id]; ok && hasOld {
			localPos := indexOfID(a.groups[oldKey], id)
			out = append(out, container.UpdKey[K, []X, container.SeqBatch[X, ICX]](oldKey,
				container.SeqBatch[X, ICX]{container.Upd[X, ICX](localPos, inner)}))
		}
	}
	return out
}

// GroupByList partitions source into per-key ordered subsets, each
// preserving source order (spec §4.3.6). key must resolve to an opaque
// primitive.
func GroupByList[X, ICX any, K comparable](
	g *graph.Graph,
	elemOpsX container.Ops[X, ICX],
	source reactive.Reactive[[]X, container.SeqBatch[X, ICX]],
	keyFn func(*graph.Graph, reactive.Reactive[X, ICX]) reactive.Reactive[K, container.PrimitiveCmd[K]],
) reactive.Reactive[map[K][]X, container.MapBatch[K, []X, container.SeqBatch[X, ICX]]] {
	ids, idMapX := DecomposeList(g, elemOpsX, source)

	a := &groupByListAssembler[X, ICX, K]{
		g: g, elemOpsX: elemOpsX, ids: ids, idMapX: idMapX, keyFn: keyFn,
		children: make(map[ident.ID]*groupKeyChild[K]),
		idKey:    make(map[ident.ID]K),
		groups:   make(map[K][]ident.ID),
	}

	initIDs := ids.Materialized.Value()
	initVals := idMapX.Materialized.Value()
	height := ids.Changes.Height() + 1
	if h := idMapX.Changes.Height() + 1; h > height {
		height = h
	}

	initOut := make(map[K][]X)
	for i, id := range initIDs {
		x := initVals[id]
		c := a.buildChild(id, x)
		a.children[id] = c
		if h := c.height + 1; h > height {
			height = h
		}
		a.running = append(a.running, id)
		key := c.keyR.Materialized.Value()
		localPos := countMembersBefore(a.running, a.idKey, i, key)
		a.groups[key] = insertIDAt(a.groups[key], localPos, id)
		a.idKey[id] = key
		initOut[key] = insertAtX(initOut[key], localPos, x)
	}

	a.dyn = graph.NewDynamicCell[container.MapBatch[K, []X, container.SeqBatch[X, ICX]]](g, height, nil, a.step)
	self := graph.AsNode(a.dyn.Cell())
	graph.LinkAny(ids.Changes, self)
	graph.LinkAny(idMapX.Changes, self)
	for _, c := range a.children {
		graph.LinkAny(c.keyR.Changes, self)
	}

	seqOps := container.SequenceOps[X, ICX](elemOpsX)
	outOps := container.MappingOps[K, []X, container.SeqBatch[X, ICX]](seqOps)
	return reactive.New(g, outOps, a.dyn.Cell(), initOut)
}

func insertAtX[X any](s []X, i int, v X) []X {
	s = append(s, v)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

// groupByMapChild is GroupByMap's per-element key substream.
type groupByMapChild[K comparable] struct {
	keyR   reactive.Reactive[K, container.PrimitiveCmd[K]]
	height int
}

type groupByMapAssembler[ID comparable, X, ICX any, K comparable] struct {
	g        *graph.Graph
	elemOpsX container.Ops[X, ICX]
	source   reactive.Reactive[map[ID]X, container.MapBatch[ID, X, ICX]]
	keyFn    func(*graph.Graph, reactive.Reactive[X, ICX]) reactive.Reactive[K, container.PrimitiveCmd[K]]
	children map[ID]*groupByMapChild[K]
	idKey    map[ID]K
	groups   map[K]map[ID]struct{}
	dyn      graph.DynamicCell[container.MapBatch[K, map[ID]X, container.MapBatch[ID, X, ICX]]]
}

func (a *groupByMapAssembler[ID, X, ICX, K]) buildChild(id ID, initX X) *groupByMapChild[K] {
	keyR := buildPerKeyChild(a.g, a.elemOpsX, a.source.Changes, id, initX, a.keyFn)
	return &groupByMapChild[K]{keyR: keyR, height: keyR.Changes.Height()}
}

func (a *groupByMapAssembler[ID, X, ICX, K]) addToGroup(out *container.MapBatch[K, map[ID]X, container.MapBatch[ID, X, ICX]], key K, id ID, x X) {
	set, ok := a.groups[key]
	if !ok {
		set = make(map[ID]struct{})
		a.groups[key] = set
	}
	isNewGroup := len(set) == 0
	set[id] = struct{}{}
	a.idKey[id] = key
	if isNewGroup {
		*out = append(*out, container.Add[K, map[ID]X, container.MapBatch[ID, X, ICX]](key, map[ID]X{id: x}))
	} else {
		*out = append(*out, container.UpdKey[K, map[ID]X, container.MapBatch[ID, X, ICX]](key,
			container.MapBatch[ID, X, ICX]{container.Add[ID, X, ICX](id, x)}))
	}
}

func (a *groupByMapAssembler[ID, X, ICX, K]) removeFromGroup(out *container.MapBatch[K, map[ID]X, container.MapBatch[ID, X, ICX]], key K, id ID) {
	set, ok := a.groups[key]
	if !ok {
		return
	}
	delete(set, id)
	delete(a.idKey, id)
	if len(set) == 0 {
		delete(a.groups, key)
		*out = append(*out, container.Del[K, map[ID]X, container.MapBatch[ID, X, ICX]](key))
	} else {
		*out = append(*out, container.UpdKey[K, map[ID]X, container.MapBatch[ID, X, ICX]](key,
			container.MapBatch[ID, X, ICX]{container.Del[ID, X, ICX](id)}))
	}
}

func (a *groupByMapAssembler[ID, X, ICX, K]) step() container.MapBatch[K, map[ID]X, container.MapBatch[ID, X, ICX]] {
	var out container.MapBatch[K, map[ID]X, container.MapBatch[ID, X, ICX]]
	self := graph.AsNode(a.dyn.Cell())
	batch := a.source.Changes.Value()
	snapshot := a.source.Materialized.Value()
	addedThisStep := make(map[ID]bool)
	updatesThisStep := make(map[ID]ICX)
	for _, cmd := range batch {
		if cmd.Op == container.MapUpdate {
			updatesThisStep[cmd.Key] = cmd.Inner
		}
	}

	for _, cmd := range batch {
		switch cmd.Op {
		case container.MapAdd:
			id, x := cmd.Key, cmd.Value
			addedThisStep[id] = true
			c := a.buildChild(id, x)
			a.children[id] = c
			graph.LinkAny(c.keyR.Changes, self)
			a.dyn.RaiseHeight(c.height + 1)
			a.addToGroup(&out, c.keyR.Materialized.Value(), id, x)
		case container.MapDelete:
			id := cmd.Key
			if c, ok := a.children[id]; ok {
				graph.UnlinkAny(c.keyR.Changes, self)
				delete(a.children, id)
			}
			if key, ok := a.idKey[id]; ok {
				a.removeFromGroup(&out, key, id)
			}
		case container.MapClear:
			for id, c := range a.children {
				graph.UnlinkAny(c.keyR.Changes, self)
				delete(a.children, id)
			}
			a.groups = make(map[K]map[ID]struct{})
			a.idKey = make(map[ID]K)
			out = append(out, container.MapClr[K, map[ID]X, container.MapBatch[ID, X, ICX]]())
		}
	}

	for id, c := range a.children {
		if addedThisStep[id] {
			continue
		}
		keyCmd := c.keyR.Changes.Value()
		oldKey, hasOld := a.idKey[id]
		if keyCmd.HasValue && (!hasOld || keyCmd.Value != oldKey) {
			if hasOld {
				a.removeFromGroup(&out, oldKey, id)
			}
			a.addToGroup(&out, keyCmd.Value, id, snapshot[id])
			continue
		}
		if inner, ok := updatesThisStep[id]; ok && hasOld {
			out = append(out, container.UpdKey[K, map[ID]X, container.MapBatch[ID, X, ICX]](oldKey,
				container.MapBatch[ID, X, ICX]{container.UpdKey[ID, X, ICX](id, inner)}))
		}
	}
	return out
}

// GroupByMap partitions source into a mapping from group-key to the
// id-keyed subset sharing that key (spec §4.3.6).
func GroupByMap[ID comparable, X, ICX any, K comparable](
	g *graph.Graph,
	elemOpsX container.Ops[X, ICX],
	source reactive.Reactive[map[ID]X, container.MapBatch[ID, X, ICX]],
	keyFn func(*graph.Graph, reactive.Reactive[X, ICX]) reactive.Reactive[K, container.PrimitiveCmd[K]],
) reactive.Reactive[map[K]map[ID]X, container.MapBatch[K, map[ID]X, container.MapBatch[ID, X, ICX]]] {
	innerOps := container.MappingOps[ID, X, ICX](elemOpsX)
	outOps := container.MappingOps[K, map[ID]X, container.MapBatch[ID, X, ICX]](innerOps)

	a := &groupByMapAssembler[ID, X, ICX, K]{
		g: g, elemOpsX: elemOpsX, source: source, keyFn: keyFn,
		children: make(map[ID]*groupByMapChild[K]),
		idKey:    make(map[ID]K),
		groups:   make(map[K]map[ID]struct{}),
	}

	height := source.Changes.Height() + 1
	initOut := make(map[K]map[ID]X)
	for id, x := range source.Materialized.Value() {
		c := a.buildChild(id, x)
		a.children[id] = c
		if h := c.height + 1; h > height {
			height = h
		}
		key := c.keyR.Materialized.Value()
		grp, ok := initOut[key]
		if !ok {
			grp = make(map[ID]X)
			initOut[key] = grp
		}
		grp[id] = x
		set, ok := a.groups[key]
		if !ok {
			set = make(map[ID]struct{})
			a.groups[key] = set
		}
		set[id] = struct{}{}
		a.idKey[id] = key
	}

	a.dyn = graph.NewDynamicCell[container.MapBatch[K, map[ID]X, container.MapBatch[ID, X, ICX]]](g, height, nil, a.step)
	self := graph.AsNode(a.dyn.Cell())
	graph.LinkAny(source.Changes, self)
	for _, c := range a.children {
		graph.LinkAny(c.keyR.Changes, self)
	}

	return reactive.New(g, outOps, a.dyn.Cell(), initOut)
}
