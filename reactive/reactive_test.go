package reactive_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nmxmxh/ivm/container"
	"github.com/nmxmxh/ivm/graph"
	"github.com/nmxmxh/ivm/reactive"
)

// TestMaterializedEqualsAccumulateAndPreviousEqualsDelay checks the two
// load-bearing equalities from spec §4.3.1 directly against graph
// primitives built independently of package reactive.
func TestMaterializedEqualsAccumulateAndPreviousEqualsDelay(t *testing.T) {
	g := graph.New(graph.Config{})
	ops := container.SequenceOps[int, container.PrimitiveCmd[int]](container.PrimitiveOps[int]())
	ci := graph.NewChangeInput(g, ops)

	r := reactive.FromChangeInput(g, ops, ci, []int(nil))

	wantMaterialized := graph.Accumulate(g, ci.Changes(), []int(nil), ops.Apply)
	wantPrevious := graph.Delay(g, wantMaterialized, []int(nil))

	batches := []container.SeqBatch[int, container.PrimitiveCmd[int]]{
		{container.Ins[int, container.PrimitiveCmd[int]](0, 1)},
		{container.Ins[int, container.PrimitiveCmd[int]](1, 2)},
		nil,
		{container.Rem[int, container.PrimitiveCmd[int]](0)},
	}
	for _, b := range batches {
		if b != nil {
			ci.Push(b)
		}
		g.Step()
		assert.Equal(t, wantMaterialized.Value(), r.Materialized.Value())
		assert.Equal(t, wantPrevious.Value(), r.PreviousMaterialized.Value())
	}
}

func TestChangesReflectsThisStepsBatchOrIdentity(t *testing.T) {
	g := graph.New(graph.Config{})
	ops := container.PrimitiveOps[int]()
	ci := graph.NewChangeInput(g, ops)
	r := reactive.FromChangeInput(g, ops, ci, 0)

	ci.Push(container.Replace(7))
	g.Step()
	assert.Equal(t, container.Replace(7), r.Changes.Value())
	assert.Equal(t, 7, r.Materialized.Value())

	g.Step()
	assert.True(t, r.Ops.IsEmpty(r.Changes.Value()), "changes must read as empty on a step with no push")
	assert.Equal(t, 7, r.Materialized.Value(), "materialized must be unchanged by an identity command")
}
