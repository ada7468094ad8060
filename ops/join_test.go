package ops_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nmxmxh/ivm/container"
	"github.com/nmxmxh/ivm/graph"
	"github.com/nmxmxh/ivm/ops"
	"github.com/nmxmxh/ivm/reactive"
)

// TestJoinMapIncrementalProductUnderSimultaneousEdits is spec §8
// scenario 3: a same-step add on both sides must produce the full
// Cartesian product delta, not just the cross terms against the old
// snapshot.
func TestJoinMapIncrementalProductUnderSimultaneousEdits(t *testing.T) {
	g := graph.New(graph.Config{})

	leftInnerOps := container.MappingOps[string, int, container.PrimitiveCmd[int]](intOps())
	leftOuterOps := container.MappingOps[string, map[string]int, container.MapBatch[string, int, container.PrimitiveCmd[int]]](leftInnerOps)
	leftCI := graph.NewChangeInput(g, leftOuterOps)
	left := reactive.FromChangeInput(g, leftOuterOps, leftCI, map[string]map[string]int{
		"x": {"a": 1, "b": 2},
	})

	strOps := container.PrimitiveOps[string]()
	rightInnerOps := container.MappingOps[string, string, container.PrimitiveCmd[string]](strOps)
	rightOuterOps := container.MappingOps[string, map[string]string, container.MapBatch[string, string, container.PrimitiveCmd[string]]](rightInnerOps)
	rightCI := graph.NewChangeInput(g, rightOuterOps)
	right := reactive.FromChangeInput(g, rightOuterOps, rightCI, map[string]map[string]string{
		"x": {"p": "h", "q": "w"},
	})

	joined := ops.JoinMap(g, intOps(), strOps, left, right)

	initial := joined.Materialized.Value()["x"]
	assert.Len(t, initial, 4)

	leftCI.Push(container.MapBatch[string, map[string]int, container.MapBatch[string, int, container.PrimitiveCmd[int]]]{
		container.UpdKey[string, map[string]int, container.MapBatch[string, int, container.PrimitiveCmd[int]]](
			"x", container.MapBatch[string, int, container.PrimitiveCmd[int]]{container.Add[string, int, container.PrimitiveCmd[int]]("c", 3)}),
	})
	rightCI.Push(container.MapBatch[string, map[string]string, container.MapBatch[string, string, container.PrimitiveCmd[string]]]{
		container.UpdKey[string, map[string]string, container.MapBatch[string, string, container.PrimitiveCmd[string]]](
			"x", container.MapBatch[string, string, container.PrimitiveCmd[string]]{container.Add[string, string, container.PrimitiveCmd[string]]("r", "!")}),
	})
	g.Step()

	after := joined.Materialized.Value()["x"]
	assert.Len(t, after, 9)

	want := map[container.Tuple2[string, string]]container.Tuple2[int, string]{
		{A: "a", B: "p"}: {A: 1, B: "h"},
		{A: "a", B: "q"}: {A: 1, B: "w"},
		{A: "b", B: "p"}: {A: 2, B: "h"},
		{A: "b", B: "q"}: {A: 2, B: "w"},
		{A: "a", B: "r"}: {A: 1, B: "!"},
		{A: "b", B: "r"}: {A: 2, B: "!"},
		{A: "c", B: "p"}: {A: 3, B: "h"},
		{A: "c", B: "q"}: {A: 3, B: "w"},
		{A: "c", B: "r"}: {A: 3, B: "!"},
	}
	assert.Equal(t, want, after)
}

func TestJoinMapOnlyMatchedOuterKeysAppear(t *testing.T) {
	g := graph.New(graph.Config{})

	leftInnerOps := container.MappingOps[string, int, container.PrimitiveCmd[int]](intOps())
	leftOuterOps := container.MappingOps[string, map[string]int, container.MapBatch[string, int, container.PrimitiveCmd[int]]](leftInnerOps)
	leftCI := graph.NewChangeInput(g, leftOuterOps)
	left := reactive.FromChangeInput(g, leftOuterOps, leftCI, map[string]map[string]int{
		"x": {"a": 1},
		"y": {"b": 2},
	})

	strOps := container.PrimitiveOps[string]()
	rightInnerOps := container.MappingOps[string, string, container.PrimitiveCmd[string]](strOps)
	rightOuterOps := container.MappingOps[string, map[string]string, container.MapBatch[string, string, container.PrimitiveCmd[string]]](rightInnerOps)
	rightCI := graph.NewChangeInput(g, rightOuterOps)
	right := reactive.FromChangeInput(g, rightOuterOps, rightCI, map[string]map[string]string{
		"x": {"p": "h"},
	})

	joined := ops.JoinMap(g, intOps(), strOps, left, right)
	out := joined.Materialized.Value()
	_, hasY := out["y"]
	assert.False(t, hasY, "unmatched outer key must not appear in the join output")
	assert.Contains(t, out, "x")

	rightCI.Push(container.MapBatch[string, map[string]string, container.MapBatch[string, string, container.PrimitiveCmd[string]]]{
		container.Add[string, map[string]string, container.MapBatch[string, string, container.PrimitiveCmd[string]]]("y", map[string]string{"z": "!"}),
	})
	g.Step()

	out = joined.Materialized.Value()
	assert.Contains(t, out, "y")
	assert.Equal(t, map[container.Tuple2[string, string]]container.Tuple2[int, string]{
		{A: "b", B: "z"}: {A: 2, B: "!"},
	}, out["y"])
}
