package ops_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nmxmxh/ivm/container"
	"github.com/nmxmxh/ivm/graph"
	"github.com/nmxmxh/ivm/ops"
	"github.com/nmxmxh/ivm/reactive"
)

func intOps() container.Ops[int, container.PrimitiveCmd[int]] {
	return container.PrimitiveOps[int]()
}

func newIntListSource(g *graph.Graph, initial []int) (*graph.ChangeInput[container.SeqBatch[int, container.PrimitiveCmd[int]]], reactive.Reactive[[]int, container.SeqBatch[int, container.PrimitiveCmd[int]]]) {
	seqOps := container.SequenceOps[int, container.PrimitiveCmd[int]](intOps())
	ci := graph.NewChangeInput(g, seqOps)
	r := reactive.FromChangeInput(g, seqOps, ci, initial)
	return ci, r
}

func gt5Predicate(g *graph.Graph, x reactive.Reactive[int, container.PrimitiveCmd[int]]) reactive.Reactive[bool, container.PrimitiveCmd[bool]] {
	boolOps := container.PrimitiveOps[bool]()
	changes := graph.Map(g, x.Changes, func(c container.PrimitiveCmd[int]) container.PrimitiveCmd[bool] {
		if !c.HasValue {
			return container.PrimitiveCmd[bool]{}
		}
		return container.Replace(c.Value > 5)
	})
	return reactive.New(g, boolOps, changes, x.Materialized.Value() > 5)
}

// TestFilterListDynamicInsertCrossingThreshold is spec §8 scenario 1.
func TestFilterListDynamicInsertCrossingThreshold(t *testing.T) {
	g := graph.New(graph.Config{})
	ci, source := newIntListSource(g, nil)
	filtered := ops.FilterList(g, intOps(), source, gt5Predicate)

	assert.Empty(t, filtered.Materialized.Value())

	ci.Push(container.SeqBatch[int, container.PrimitiveCmd[int]]{container.Ins[int, container.PrimitiveCmd[int]](0, 3)})
	g.Step()
	assert.Empty(t, filtered.Materialized.Value())

	ci.Push(container.SeqBatch[int, container.PrimitiveCmd[int]]{container.Ins[int, container.PrimitiveCmd[int]](0, 3)})
	g.Step()
	assert.Empty(t, filtered.Materialized.Value())

	ci.Push(container.SeqBatch[int, container.PrimitiveCmd[int]]{container.Upd[int, container.PrimitiveCmd[int]](0, container.Replace(10))})
	g.Step()
	assert.Equal(t, []int{10}, filtered.Materialized.Value())
}

func TestFilterListPreservesOrderAndRemoves(t *testing.T) {
	g := graph.New(graph.Config{})
	ci, source := newIntListSource(g, []int{1, 8, 2, 9, 3})
	filtered := ops.FilterList(g, intOps(), source, gt5Predicate)

	assert.Equal(t, []int{8, 9}, filtered.Materialized.Value())

	ci.Push(container.SeqBatch[int, container.PrimitiveCmd[int]]{container.Rem[int, container.PrimitiveCmd[int]](1)})
	g.Step()
	assert.Equal(t, []int{9}, filtered.Materialized.Value())

	ci.Push(container.SeqBatch[int, container.PrimitiveCmd[int]]{container.Ins[int, container.PrimitiveCmd[int]](0, 100)})
	g.Step()
	assert.Equal(t, []int{100, 9}, filtered.Materialized.Value())
}
