package query

import (
	"sort"
	"swotdb/index"
)

// MergeLineRanges sorts the ranges and merges overlapping and adjacent ones. The result is ordered and contains no
// two ranges that overlap or touch each other. The input is not modified.
func MergeLineRanges(ranges []index.LineRange) []index.LineRange {
	if len(ranges) == 0 {
		return nil
	}

	sorted := make([]index.LineRange, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	merged := []index.LineRange{sorted[0]}
	for _, next := range sorted[1:] {
		current := &merged[len(merged)-1]
		if next.Start <= current.End {
			if next.End > current.End {
				current.End = next.End
			}
			continue
		}
		merged = append(merged, next)
	}

	return merged
}
