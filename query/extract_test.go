package query

import (
	"github.com/pkg/errors"
	"swotdb/index"
	"swotdb/swath"
	"swotdb/util"
	"testing"
	"time"
)

func TestResult_extractKeepsLinesWithPixelInBound(t *testing.T) {
	// Arrange
	opener := swath.NewMemoryOpener()
	s := newLinearSwath(100, 0)
	s.Data["ssha_unfiltered"] = make([][]float64, 100)
	for line := range s.Data["ssha_unfiltered"] {
		s.Data["ssha_unfiltered"][line] = []float64{float64(line), float64(line) + 0.5}
	}
	opener.Add("/data/a.nc", s)

	// Lines 10 to 20 have latitudes within [0.1, 0.2]
	result := &Result{
		Query: NewQuery(0.095, 0.205, 0.55, 1),
		Files: []FileSlices{
			{File: "/data/a.nc", Tiles: 1, Ranges: []index.LineRange{{Start: 0, End: 50}}},
		},
	}

	// Act
	extraction := result.Extract(opener)

	// Assert
	util.AssertEqual(t, 0, len(extraction.Failed))
	util.AssertEqual(t, 1, len(extraction.Files))
	fileExtract := extraction.Files[0]
	util.AssertEqual(t, []int{10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20}, fileExtract.Lines)
	util.AssertEqual(t, 11, extraction.LineCount())
	util.AssertEqual(t, []float64{10, 10.5}, fileExtract.Variables["ssha_unfiltered"][0])
	util.AssertEqual(t, time.Date(2023, 5, 10, 0, 0, 20, 0, time.UTC), fileExtract.Time[10])
}

func TestResult_extractSkipsUnreadableFiles(t *testing.T) {
	// Arrange
	opener := swath.NewMemoryOpener()
	opener.Fail("/data/broken.nc", errors.New("checksum mismatch"))
	s := newLinearSwath(10, 0)
	opener.Add("/data/a.nc", s)

	result := &Result{
		Query: NewQuery(0, 1, 0, 1).WithVariables("ssh_karin"),
		Files: []FileSlices{
			{File: "/data/a.nc", Ranges: []index.LineRange{{Start: 0, End: 10}}},
			{File: "/data/broken.nc", Ranges: []index.LineRange{{Start: 0, End: 10}}},
		},
	}

	// Act
	extraction := result.Extract(opener)

	// Assert
	// a.nc doesn't have the requested variable
	util.AssertEqual(t, 0, len(extraction.Files))
	util.AssertEqual(t, 2, len(extraction.Failed))
	util.AssertEqual(t, "/data/broken.nc", extraction.Failed[1].Path)
}

func TestExtraction_toSwath(t *testing.T) {
	// Arrange
	t1 := time.Date(2023, 5, 10, 0, 0, 0, 0, time.UTC)
	t2 := time.Date(2023, 5, 11, 0, 0, 0, 0, time.UTC)
	extraction := &Extraction{
		Variables: []string{"ssha_unfiltered"},
		Files: []FileExtract{
			{
				File:      "/data/b.nc",
				Lines:     []int{3},
				Latitude:  [][]float64{{3, 3}},
				Longitude: [][]float64{{4, 5}},
				Time:      []time.Time{t2},
				Variables: map[string][][]float64{"ssha_unfiltered": {{0.3, 0.4}}},
			},
			{
				File:      "/data/a.nc",
				Lines:     []int{1},
				Latitude:  [][]float64{{1, 1}},
				Longitude: [][]float64{{4, 5}},
				Time:      []time.Time{t1},
				Variables: map[string][][]float64{"ssha_unfiltered": {{0.1, 0.2}}},
			},
		},
	}

	// Act
	s := extraction.ToSwath()

	// Assert
	util.AssertEqual(t, 2, s.NumLines())
	util.AssertEqual(t, 2, s.NumPixels())
	util.AssertEqual(t, []time.Time{t1, t2}, s.Time)
	util.AssertEqual(t, [][]float64{{0.1, 0.2}, {0.3, 0.4}}, s.Data["ssha_unfiltered"])
	util.AssertEqual(t, "/data/a.nc\n/data/b.nc", s.Attributes["source_files"])
}

func TestLineWithinBound(t *testing.T) {
	bounds := index.NormalizeBound(index.NewBound(0, 1, -170, -160))

	util.AssertTrue(t, lineWithinBound([]float64{0.5, 0.5}, []float64{-175, -165}, bounds))
	// Longitudes in [0, 360)
	util.AssertTrue(t, lineWithinBound([]float64{0.5}, []float64{195}, bounds))
	// Boundary
	util.AssertTrue(t, lineWithinBound([]float64{1}, []float64{-160}, bounds))
	util.AssertFalse(t, lineWithinBound([]float64{1.01}, []float64{-165}, bounds))
	util.AssertFalse(t, lineWithinBound([]float64{0.5}, []float64{-150}, bounds))
}

func TestLineWithinBound_queryInFileConvention(t *testing.T) {
	// Arrange
	bounds := index.NormalizeBound(index.NewBound(0, 1, 170, 190))

	// Act & Assert
	util.AssertTrue(t, lineWithinBound([]float64{0.5}, []float64{-175}, bounds))
	util.AssertTrue(t, lineWithinBound([]float64{0.5}, []float64{185}, bounds))
	util.AssertTrue(t, lineWithinBound([]float64{0.5}, []float64{175}, bounds))
	util.AssertTrue(t, lineWithinBound([]float64{0.5}, []float64{180}, bounds))
	util.AssertFalse(t, lineWithinBound([]float64{0.5}, []float64{195}, bounds))
}
