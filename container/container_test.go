package container_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nmxmxh/ivm/container"
)

func intPrimOps() container.Ops[int, container.PrimitiveCmd[int]] {
	return container.PrimitiveOps[int]()
}

func TestSequenceOpsMonoidLaws(t *testing.T) {
	ops := container.SequenceOps[int, container.PrimitiveCmd[int]](intPrimOps())

	s0 := []int{1, 2, 3}
	c1 := container.SeqBatch[int, container.PrimitiveCmd[int]]{container.Ins[int, container.PrimitiveCmd[int]](1, 99)}
	c2 := container.SeqBatch[int, container.PrimitiveCmd[int]]{container.Rem[int, container.PrimitiveCmd[int]](0)}

	merged := ops.Merge(c1, c2)
	viaMerge := ops.Apply(s0, merged)
	viaSequential := ops.Apply(ops.Apply(s0, c1), c2)
	assert.Equal(t, viaSequential, viaMerge)

	assert.Equal(t, s0, ops.Apply(s0, ops.Empty()))
}

func TestSequenceApplyDoesNotMutateInput(t *testing.T) {
	ops := container.SequenceOps[int, container.PrimitiveCmd[int]](intPrimOps())
	s0 := []int{1, 2, 3}
	snapshot := append([]int(nil), s0...)

	_ = ops.Apply(s0, container.SeqBatch[int, container.PrimitiveCmd[int]]{
		container.Ins[int, container.PrimitiveCmd[int]](0, 42),
	})
	assert.Equal(t, snapshot, s0, "apply must not mutate its input state")
}

func TestSequenceMoveMatchesScenario2Shape(t *testing.T) {
	ops := container.SequenceOps[int, container.PrimitiveCmd[int]](intPrimOps())
	s0 := []int{1, 3, 5, 2, 4}
	out := ops.Apply(s0, container.SeqBatch[int, container.PrimitiveCmd[int]]{
		container.Mv[int, container.PrimitiveCmd[int]](2, 0),
	})
	assert.Equal(t, []int{5, 1, 3, 2, 4}, out)
}

func TestMappingOpsNetsDeleteThenAddToReplacement(t *testing.T) {
	ops := container.MappingOps[string, int, container.PrimitiveCmd[int]](intPrimOps())
	s0 := map[string]int{"a": 1}
	out := ops.Apply(s0, container.MapBatch[string, int, container.PrimitiveCmd[int]]{
		container.Del[string, int, container.PrimitiveCmd[int]]("a"),
		container.Add[string, int, container.PrimitiveCmd[int]]("a", 2),
	})
	assert.Equal(t, map[string]int{"a": 2}, out)
}

func TestZSetWeightNormalization(t *testing.T) {
	ops := container.ZSetOps[string]()
	s0 := container.ZSet[string]{"a": 2}
	out := ops.Apply(s0, container.ZSetCmd[string]{"a": -2, "b": 3})
	assert.Equal(t, container.ZSet[string]{"b": 3}, out, "a must be absent once its weight reaches 0")
}

func TestZSetReplaceIsADiffThatUnionsToTarget(t *testing.T) {
	ops := container.ZSetOps[string]()
	current := container.ZSet[string]{"a": 2, "b": 1}
	target := container.ZSet[string]{"b": 4, "c": 5}
	cmd := ops.Replace(current, target)
	assert.Equal(t, target, ops.Apply(current, cmd))
}

func TestLogOpsAppendOnly(t *testing.T) {
	ops := container.LogOps[int]()
	s0 := []int{1, 2}
	out := ops.Apply(s0, container.LogBatch[int]{Appended: []int{3, 4}})
	assert.Equal(t, []int{1, 2, 3, 4}, out)
	assert.Equal(t, []int{1, 2}, s0)
}
