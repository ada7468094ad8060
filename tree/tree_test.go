package tree_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmxmxh/ivm/tree"
)

// countSelected is the (total, selected) summary used by filter_list
// (spec §4.3.2, §4.3.5): total counts leaves, selected counts leaves
// whose boolean value is true.
type countSelected struct {
	total    int
	selected int
}

func countSelectedMonoid() tree.Monoid[countSelected] {
	return tree.Monoid[countSelected]{
		Zero: countSelected{},
		Combine: func(a, b countSelected) countSelected {
			return countSelected{total: a.total + b.total, selected: a.selected + b.selected}
		},
	}
}

func summarizeBool(v bool) countSelected {
	if v {
		return countSelected{total: 1, selected: 1}
	}
	return countSelected{total: 1, selected: 0}
}

func byCount(n int) func(countSelected) bool {
	return func(s countSelected) bool { return s.total > n }
}

// Scenario 6 (spec §8): inserting [true, false, true] at the end
// produces selected prefix summaries of 0, 1, 1, 2; inserting a new
// true at source index 1 yields a destination index of 1.
func TestScenario6_ThresholdInsertionUnderMultipleMonoids(t *testing.T) {
	m := countSelectedMonoid()
	tr := tree.New[bool, countSelected](m, summarizeBool)

	tr.Insert(1, true, byCount(0))
	tr.Insert(2, false, byCount(1))
	tr.Insert(3, true, byCount(2))

	require.NoError(t, tr.CheckInvariants())

	prefixes := []int{
		tr.PrefixSummaryByID(1).selected,
		tr.PrefixSummaryByID(2).selected,
		tr.PrefixSummaryByID(3).selected,
	}
	assert.Equal(t, []int{0, 1, 1}, prefixes)
	assert.Equal(t, 2, tr.Summary().selected)

	// Insert a new selected element at structural (source) index 1,
	// i.e. threshold "total > 1" — lands between ids 1 and 2.
	tr.Insert(4, true, byCount(1))
	require.NoError(t, tr.CheckInvariants())

	var order []uint64
	tr.InOrder(func(id uint64, _ bool) bool {
		order = append(order, id)
		return true
	})
	assert.Equal(t, []uint64{1, 4, 2, 3}, order)
	assert.Equal(t, 1, tr.PrefixSummaryByID(4).selected, "destination index of the new element")
}

func TestInsertAppendsAtEndWhenThresholdNeverSatisfied(t *testing.T) {
	m := countSelectedMonoid()
	tr := tree.New[bool, countSelected](m, summarizeBool)
	never := func(countSelected) bool { return false }

	for i := uint64(1); i <= 30; i++ {
		tr.Insert(i, i%2 == 0, never)
		require.NoError(t, tr.CheckInvariants())
	}

	var order []uint64
	tr.InOrder(func(id uint64, _ bool) bool {
		order = append(order, id)
		return true
	})
	for i, id := range order {
		assert.Equal(t, uint64(i+1), id)
	}
}

func TestRemoveRebalances(t *testing.T) {
	m := countSelectedMonoid()
	tr := tree.New[bool, countSelected](m, summarizeBool)
	never := func(countSelected) bool { return false }

	ids := make([]uint64, 0, 50)
	for i := uint64(1); i <= 50; i++ {
		tr.Insert(i, i%3 == 0, never)
		ids = append(ids, i)
	}
	require.NoError(t, tr.CheckInvariants())

	// Remove every third id, forcing borrows and merges throughout.
	for i, id := range ids {
		if i%3 == 0 {
			tr.Remove(id)
		}
	}
	require.NoError(t, tr.CheckInvariants())
	assert.Equal(t, 50-len(ids)/3-1, tr.Len())

	for _, id := range ids {
		tr.Remove(id)
	}
	require.NoError(t, tr.CheckInvariants())
	assert.Equal(t, 0, tr.Len())
}

func TestFindByThreshold(t *testing.T) {
	m := countSelectedMonoid()
	tr := tree.New[bool, countSelected](m, summarizeBool)
	never := func(countSelected) bool { return false }
	values := []bool{false, false, true, false, true, true}
	for i, v := range values {
		tr.Insert(uint64(i+1), v, never)
	}

	id, v, ok := tr.FindByThreshold(func(s countSelected) bool { return s.selected > 0 })
	require.True(t, ok)
	assert.Equal(t, uint64(3), id)
	assert.True(t, v)

	_, _, ok = tr.FindByThreshold(func(s countSelected) bool { return s.selected > 10 })
	assert.False(t, ok)
}

func TestUpdateValuePropagatesSummary(t *testing.T) {
	m := countSelectedMonoid()
	tr := tree.New[bool, countSelected](m, summarizeBool)
	never := func(countSelected) bool { return false }
	for i := uint64(1); i <= 10; i++ {
		tr.Insert(i, false, never)
	}
	assert.Equal(t, 0, tr.Summary().selected)
	tr.UpdateValue(5, true)
	assert.Equal(t, 1, tr.Summary().selected)
	require.NoError(t, tr.CheckInvariants())
}
