package query

import (
	"math/rand"
	"swotdb/index"
	"swotdb/util"
	"testing"
)

func TestMergeLineRanges_adjacentAndDisjoint(t *testing.T) {
	// Arrange
	ranges := []index.LineRange{{Start: 0, End: 500}, {Start: 500, End: 1000}, {Start: 2000, End: 2500}}

	// Act
	merged := MergeLineRanges(ranges)

	// Assert
	util.AssertEqual(t, []index.LineRange{{Start: 0, End: 1000}, {Start: 2000, End: 2500}}, merged)
}

func TestMergeLineRanges_unsortedAndOverlapping(t *testing.T) {
	// Arrange
	ranges := []index.LineRange{{Start: 900, End: 1000}, {Start: 0, End: 493}, {Start: 100, End: 200}, {Start: 493, End: 600}, {Start: 950, End: 1200}, {Start: 1201, End: 1300}}

	// Act
	merged := MergeLineRanges(ranges)

	// Assert
	util.AssertEqual(t, []index.LineRange{{Start: 0, End: 600}, {Start: 900, End: 1200}, {Start: 1201, End: 1300}}, merged)
	util.AssertEqual(t, index.LineRange{Start: 900, End: 1000}, ranges[0])
}

func TestMergeLineRanges_duplicates(t *testing.T) {
	// Tiles split at the antimeridian share their line range
	merged := MergeLineRanges([]index.LineRange{{Start: 493, End: 986}, {Start: 493, End: 986}})

	util.AssertEqual(t, []index.LineRange{{Start: 493, End: 986}}, merged)
}

func TestMergeLineRanges_empty(t *testing.T) {
	util.AssertEqual(t, 0, len(MergeLineRanges(nil)))
}

func TestMergeLineRanges_randomRangesKeepUnion(t *testing.T) {
	random := rand.New(rand.NewSource(42))

	for iteration := 0; iteration < 100; iteration++ {
		// Arrange
		var ranges []index.LineRange
		covered := map[int]bool{}
		count := random.Intn(20) + 1
		for i := 0; i < count; i++ {
			start := random.Intn(1000)
			end := start + random.Intn(100) + 1
			ranges = append(ranges, index.LineRange{Start: start, End: end})
			for line := start; line < end; line++ {
				covered[line] = true
			}
		}

		// Act
		merged := MergeLineRanges(ranges)

		// Assert
		mergedCovered := map[int]bool{}
		for i, r := range merged {
			util.AssertTrue(t, r.Start < r.End)
			if i > 0 {
				// Neither overlapping nor adjacent
				util.AssertTrue(t, merged[i-1].End < r.Start)
			}
			for line := r.Start; line < r.End; line++ {
				mergedCovered[line] = true
			}
		}
		util.AssertEqual(t, covered, mergedCovered)
	}
}
