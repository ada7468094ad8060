package ops_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nmxmxh/ivm/container"
	"github.com/nmxmxh/ivm/graph"
	"github.com/nmxmxh/ivm/ops"
	"github.com/nmxmxh/ivm/reactive"
)

func TestProjectTuple2AAndB(t *testing.T) {
	g := graph.New(graph.Config{})
	tupOps := container.Tuple2Ops[int, string, container.PrimitiveCmd[int], container.PrimitiveCmd[string]](intOps(), container.PrimitiveOps[string]())
	ci := graph.NewChangeInput(g, tupOps)
	source := reactive.FromChangeInput(g, tupOps, ci, container.Tuple2[int, string]{A: 1, B: "x"})

	a := ops.ProjectTuple2A(g, intOps(), source)
	b := ops.ProjectTuple2B(g, container.PrimitiveOps[string](), source)
	assert.Equal(t, 1, a.Materialized.Value())
	assert.Equal(t, "x", b.Materialized.Value())

	ci.Push(container.Tuple2Cmd[container.PrimitiveCmd[int], container.PrimitiveCmd[string]]{HasA: true, A: container.Replace(7)})
	g.Step()
	assert.Equal(t, 7, a.Materialized.Value())
	assert.Equal(t, "x", b.Materialized.Value())
}

func TestProjectTuple3AndTuple4(t *testing.T) {
	g := graph.New(graph.Config{})
	boolOps := container.PrimitiveOps[bool]()

	t3Ops := container.Tuple3Ops[int, string, bool,
		container.PrimitiveCmd[int], container.PrimitiveCmd[string], container.PrimitiveCmd[bool]](
		intOps(), container.PrimitiveOps[string](), boolOps)
	ci3 := graph.NewChangeInput(g, t3Ops)
	src3 := reactive.FromChangeInput(g, t3Ops, ci3, container.Tuple3[int, string, bool]{A: 1, B: "x", C: true})

	a3 := ops.ProjectTuple3A(g, intOps(), src3)
	b3 := ops.ProjectTuple3B(g, container.PrimitiveOps[string](), src3)
	c3 := ops.ProjectTuple3C(g, boolOps, src3)
	assert.Equal(t, 1, a3.Materialized.Value())
	assert.Equal(t, "x", b3.Materialized.Value())
	assert.Equal(t, true, c3.Materialized.Value())

	ci3.Push(container.Tuple3Cmd[container.PrimitiveCmd[int], container.PrimitiveCmd[string], container.PrimitiveCmd[bool]]{
		HasC: true, C: container.Replace(false),
	})
	g.Step()
	assert.Equal(t, 1, a3.Materialized.Value())
	assert.Equal(t, false, c3.Materialized.Value())

	t4Ops := container.Tuple4Ops[int, string, bool, int,
		container.PrimitiveCmd[int], container.PrimitiveCmd[string], container.PrimitiveCmd[bool], container.PrimitiveCmd[int]](
		intOps(), container.PrimitiveOps[string](), boolOps, intOps())
	ci4 := graph.NewChangeInput(g, t4Ops)
	src4 := reactive.FromChangeInput(g, t4Ops, ci4, container.Tuple4[int, string, bool, int]{A: 1, B: "x", C: true, D: 9})

	d4 := ops.ProjectTuple4D(g, intOps(), src4)
	assert.Equal(t, 9, d4.Materialized.Value())

	ci4.Push(container.Tuple4Cmd[container.PrimitiveCmd[int], container.PrimitiveCmd[string], container.PrimitiveCmd[bool], container.PrimitiveCmd[int]]{
		HasD: true, D: container.Replace(42),
	})
	g.Step()
	assert.Equal(t, 42, d4.Materialized.Value())
}

func TestProjectTupleN(t *testing.T) {
	g := graph.New(graph.Config{})
	tnOps := container.TupleNOps[int, container.PrimitiveCmd[int]](intOps())
	ci := graph.NewChangeInput(g, tnOps)
	source := reactive.FromChangeInput(g, tnOps, ci, container.TupleN[int]{10, 20, 30})

	slot1 := ops.ProjectTupleN(g, intOps(), source, 1)
	assert.Equal(t, 20, slot1.Materialized.Value())

	ci.Push(container.TupleNCmd[container.PrimitiveCmd[int]]{Slots: []container.OptionalCmd[container.PrimitiveCmd[int]]{
		{}, {Present: true, Cmd: container.Replace(99)}, {},
	}})
	g.Step()
	assert.Equal(t, 99, slot1.Materialized.Value())
}

func newIntLogSource(g *graph.Graph, initial []int) (*graph.ChangeInput[container.LogBatch[int]], reactive.Reactive[[]int, container.LogBatch[int]]) {
	logOps := container.LogOps[int]()
	ci := graph.NewChangeInput(g, logOps)
	r := reactive.FromChangeInput(g, logOps, ci, initial)
	return ci, r
}

func TestFoldLogAndLengthLog(t *testing.T) {
	g := graph.New(graph.Config{})
	ci, source := newIntLogSource(g, []int{1, 2})

	sum := ops.FoldLog(g, source, 0, func(s int, v int) int { return s + v })
	length := ops.LengthLog(g, source)
	assert.Equal(t, 3, sum.Value())
	assert.Equal(t, 2, length.Value())

	ci.Push(container.LogBatch[int]{Appended: []int{10, 20}})
	g.Step()
	assert.Equal(t, 33, sum.Value())
	assert.Equal(t, 4, length.Value())
}

func TestMapLog(t *testing.T) {
	g := graph.New(graph.Config{})
	ci, source := newIntLogSource(g, []int{1, 2, 3})

	doubled := ops.MapLog(g, source, func(v int) int { return v * 2 })
	assert.Equal(t, []int{2, 4, 6}, doubled.Materialized.Value())

	ci.Push(container.LogBatch[int]{Appended: []int{4}})
	g.Step()
	assert.Equal(t, []int{2, 4, 6, 8}, doubled.Materialized.Value())
}

func TestGetKeyMap(t *testing.T) {
	g := graph.New(graph.Config{})
	mapOps := container.MappingOps[string, int, container.PrimitiveCmd[int]](intOps())
	ci := graph.NewChangeInput(g, mapOps)
	source := reactive.FromChangeInput(g, mapOps, ci, map[string]int{"a": 1})

	got := ops.GetKeyMap(g, source, "a")
	assert.Equal(t, ops.Option[int]{Present: true, Value: 1}, got.Materialized.Value())

	missing := ops.GetKeyMap(g, source, "z")
	assert.Equal(t, ops.Option[int]{Present: false}, missing.Materialized.Value())

	ci.Push(container.MapBatch[string, int, container.PrimitiveCmd[int]]{container.Del[string, int, container.PrimitiveCmd[int]]("a")})
	g.Step()
	assert.Equal(t, ops.Option[int]{Present: false}, got.Materialized.Value())
}

func TestGetSingleMapValue(t *testing.T) {
	g := graph.New(graph.Config{})
	mapOps := container.MappingOps[string, int, container.PrimitiveCmd[int]](intOps())
	ci := graph.NewChangeInput(g, mapOps)
	source := reactive.FromChangeInput(g, mapOps, ci, map[string]int{"only": 42})

	single := ops.GetSingleMapValue(g, source)
	assert.Equal(t, 42, single.Materialized.Value())

	ci.Push(container.MapBatch[string, int, container.PrimitiveCmd[int]]{container.UpdKey[string, int, container.PrimitiveCmd[int]]("only", container.Replace(43))})
	g.Step()
	assert.Equal(t, 43, single.Materialized.Value())
}

func TestGetSingleMapValuePanicsOnWrongCardinality(t *testing.T) {
	g := graph.New(graph.Config{})
	mapOps := container.MappingOps[string, int, container.PrimitiveCmd[int]](intOps())
	ci := graph.NewChangeInput(g, mapOps)
	source := reactive.FromChangeInput(g, mapOps, ci, map[string]int{"a": 1, "b": 2})

	assert.Panics(t, func() {
		ops.GetSingleMapValue(g, source)
	})
}

func TestSequenceList(t *testing.T) {
	g := graph.New(graph.Config{})

	ci1 := graph.NewChangeInput(g, intOps())
	rx1 := reactive.FromChangeInput(g, intOps(), ci1, 1)
	ci2 := graph.NewChangeInput(g, intOps())
	rx2 := reactive.FromChangeInput(g, intOps(), ci2, 2)

	childOps := container.PrimitiveOps[reactive.Reactive[int, container.PrimitiveCmd[int]]]()
	seqOps := container.SequenceOps[reactive.Reactive[int, container.PrimitiveCmd[int]], container.PrimitiveCmd[reactive.Reactive[int, container.PrimitiveCmd[int]]]](childOps)
	sourceCI := graph.NewChangeInput(g, seqOps)
	source := reactive.FromChangeInput(g, seqOps, sourceCI, []reactive.Reactive[int, container.PrimitiveCmd[int]]{rx1, rx2})

	flat := ops.SequenceList(g, intOps(), source)
	assert.Equal(t, []int{1, 2}, flat.Materialized.Value())

	ci1.Push(container.Replace(11))
	g.Step()
	assert.Equal(t, []int{11, 2}, flat.Materialized.Value())
}
