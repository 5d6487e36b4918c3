package diff

import (
	"sort"

	"contact-sync/core/record"
)

// ListDiff describes how to turn a source list into a target list.
// Deletes are indices into the source list sorted strictly descending, so that
// removing them in order never shifts a not-yet-removed entry. Deletes must be
// applied before Adds.
type ListDiff struct {
	Adds    []record.Item
	Deletes []int
}

// Empty reports whether the two lists held equal multisets.
func (d ListDiff) Empty() bool {
	return len(d.Adds) == 0 && len(d.Deletes) == 0
}

// ReconcileList compares two lists as multisets of structurally equal items.
// Order is irrelevant and duplicates count. For a duplicated item the earliest
// source occurrences are kept and later surplus occurrences are deleted; adds
// keep target order.
func ReconcileList(source, target record.List) ListDiff {
	targetCounts := make(map[string]int, len(target))
	for _, it := range target {
		targetCounts[record.ItemKey(it)]++
	}

	sourceCounts := make(map[string]int, len(source))
	deletes := make([]int, 0)
	for i, it := range source {
		k := record.ItemKey(it)
		sourceCounts[k]++
		if targetCounts[k] > 0 {
			targetCounts[k]--
			continue
		}
		deletes = append(deletes, i)
	}

	adds := make([]record.Item, 0)
	for _, it := range target {
		k := record.ItemKey(it)
		if sourceCounts[k] > 0 {
			sourceCounts[k]--
			continue
		}
		adds = append(adds, it)
	}

	sort.Sort(sort.Reverse(sort.IntSlice(deletes)))
	return ListDiff{Adds: adds, Deletes: deletes}
}
