package expiry

import "sort"

// PlannedEntry is one restock event: a planned quantity loaded at RunAtMs (epoch milliseconds)
type PlannedEntry struct {
	RunAtMs         int64
	PlannedQuantity int64
}

// PlannedIndex answers "how much was loaded strictly after t" in O(log n).
// It stores ascending timestamps with running sums; it is immutable once built.
type PlannedIndex struct {
	timestamps []int64
	prefixSums []int64
	total      int64
}

// BuildPlannedIndex builds an index over entries. Negative quantities count as zero.
func BuildPlannedIndex(entries []PlannedEntry) *PlannedIndex {
	sorted := make([]PlannedEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].RunAtMs < sorted[j].RunAtMs
	})

	idx := &PlannedIndex{
		timestamps: make([]int64, len(sorted)),
		prefixSums: make([]int64, len(sorted)),
	}
	var running int64
	for i, e := range sorted {
		running += max(e.PlannedQuantity, 0)
		idx.timestamps[i] = e.RunAtMs
		idx.prefixSums[i] = running
	}
	idx.total = running
	return idx
}

// SumPlannedAfter returns the quantity loaded at timestamps strictly greater than afterMs
func (idx *PlannedIndex) SumPlannedAfter(afterMs int64) int64 {
	if idx == nil || len(idx.timestamps) == 0 {
		return 0
	}
	i := findFirstGreater(idx.timestamps, afterMs)
	if i == 0 {
		return idx.total
	}
	return idx.total - idx.prefixSums[i-1]
}

// SumPlannedBetween returns the quantity loaded at timestamps t with afterMs < t < beforeMs
func (idx *PlannedIndex) SumPlannedBetween(afterMs, beforeMs int64) int64 {
	if beforeMs <= afterMs {
		return 0
	}
	return max(idx.SumPlannedAfter(afterMs)-idx.SumPlannedAfter(beforeMs-1), 0)
}

func findFirstGreater(ts []int64, target int64) int {
	return sort.Search(len(ts), func(i int) bool {
		return ts[i] > target
	})
}
