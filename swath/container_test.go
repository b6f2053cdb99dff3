package swath

import (
	"bytes"
	"math"
	"path/filepath"
	"swotdb/util"
	"testing"
	"time"
)

func newSmallSwath() *MemorySwath {
	start := time.Date(2023, 5, 10, 12, 0, 0, 0, time.UTC)
	s := NewMemorySwath(
		[][]float64{{1, 1.1}, {2, 2.1}, {3, math.NaN()}},
		[][]float64{{10, 10.5}, {11, 11.5}, {12, 12.5}},
		[]time.Time{start, start.Add(time.Second), start.Add(2 * time.Second)},
	)
	s.Data["ssha_unfiltered"] = [][]float64{{0.1, 0.2}, {0.3, 0.4}, {0.5, 0.6}}
	s.Attributes["mission"] = "SWOT"
	return s
}

func TestContainer_writeAndOpen(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "pass_001"+ContainerExtension)
	original := newSmallSwath()

	// Act
	err := WriteContainerFile(path, original)
	util.AssertNil(t, err)
	opened, err := ContainerOpener{}.Open(path)

	// Assert
	util.AssertNil(t, err)
	util.AssertEqual(t, 3, opened.NumLines())
	util.AssertEqual(t, 2, opened.NumPixels())
	util.AssertEqual(t, []string{VariableLatitude, VariableLongitude, "ssha_unfiltered"}, opened.Variables())

	block, err := opened.Geolocation(1, 3)
	util.AssertNil(t, err)
	util.AssertEqual(t, 1, block.Start)
	util.AssertEqual(t, []float64{11, 11.5}, block.Longitude[0])
	util.AssertGrid(t, [][]float64{{2, 2.1}, {3, math.NaN()}}, block.Latitude)
	util.AssertTrue(t, original.Time[2].Equal(block.Time[1]))

	values, err := opened.Variable("ssha_unfiltered", 2, 3)
	util.AssertNil(t, err)
	util.AssertEqual(t, [][]float64{{0.5, 0.6}}, values)

	minTime, maxTime, err := opened.TimeBounds()
	util.AssertNil(t, err)
	util.AssertTrue(t, original.Time[0].Equal(minTime))
	util.AssertTrue(t, original.Time[2].Equal(maxTime))

	util.AssertEqual(t, "SWOT", opened.(*MemorySwath).Attributes["mission"])
}

func TestReadContainer_inconsistentDimensions(t *testing.T) {
	// Arrange
	buffer := &bytes.Buffer{}
	err := util.EncodeCompressed(buffer, &container{
		Version:   containerVersion,
		NumLines:  2,
		NumPixels: 2,
		Latitude:  [][]float64{{1, 2}, {3, 4}},
		Longitude: [][]float64{{1, 2}},
	})
	util.AssertNil(t, err)

	// Act
	_, err = ReadContainer(buffer)

	// Assert
	util.AssertError(t, "Swath container declares 2 lines but has 2 latitude and 1 longitude lines", err)
}

func TestReadContainer_notAContainer(t *testing.T) {
	// Act
	_, err := ReadContainer(bytes.NewBufferString("CDF\x01 this is something else"))

	// Assert
	util.AssertNotNil(t, err)
}

func TestContainerOpener_missingFile(t *testing.T) {
	// Act
	_, err := ContainerOpener{}.Open(filepath.Join(t.TempDir(), "missing.swath"))

	// Assert
	util.AssertNotNil(t, err)
}
