package index

import (
	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"math"
	"swotdb/swath"
	"swotdb/util"
	"testing"
	"time"
)

func TestBuildTiles_partitionsLines(t *testing.T) {
	// Arrange
	sigolo.SetDefaultLogLevel(sigolo.LOG_TRACE)
	s := newTestSwath(1000, 5, 0, 10)

	// Act
	specs, err := BuildTiles(s, DefaultTileSize, TimePerTile)

	// Assert
	util.AssertNil(t, err)
	util.AssertEqual(t, 3, len(specs))
	util.AssertEqual(t, LineRange{Start: 0, End: 493}, specs[0].Lines)
	util.AssertEqual(t, LineRange{Start: 493, End: 986}, specs[1].Lines)
	util.AssertEqual(t, LineRange{Start: 986, End: 1000}, specs[2].Lines)
}

func TestBuildTiles_boundCoversAllPixels(t *testing.T) {
	// Arrange
	s := newTestSwath(10, 5, 0, 10)
	// Extreme values in the middle of the tile, not at the first or last line
	s.Latitude[4][2] = -3
	s.Longitude[5][1] = 25

	// Act
	specs, err := BuildTiles(s, 10, TimePerTile)

	// Assert
	util.AssertNil(t, err)
	util.AssertEqual(t, 1, len(specs))
	util.AssertApprox(t, -3.0, specs[0].Bound.Min.Lat(), 0.000001)
	util.AssertApprox(t, 0.09, specs[0].Bound.Max.Lat(), 0.000001)
	util.AssertApprox(t, 10.0, specs[0].Bound.Min.Lon(), 0.000001)
	util.AssertApprox(t, 25.0, specs[0].Bound.Max.Lon(), 0.000001)
}

func TestBuildTiles_antimeridianSplit(t *testing.T) {
	// Arrange
	s := newUniformSwath(20, 5, 170, 175, -175, -170)

	// Act
	specs, err := BuildTiles(s, 10, TimePerTile)

	// Assert
	util.AssertNil(t, err)
	util.AssertEqual(t, 4, len(specs))
	util.AssertEqual(t, orb.Bound{Min: orb.Point{170, 5}, Max: orb.Point{180, 5}}, specs[0].Bound)
	util.AssertEqual(t, orb.Bound{Min: orb.Point{-180, 5}, Max: orb.Point{-170, 5}}, specs[1].Bound)
	util.AssertEqual(t, specs[0].Lines, specs[1].Lines)
	util.AssertEqual(t, specs[0].Time, specs[1].Time)
	util.AssertEqual(t, LineRange{Start: 10, End: 20}, specs[2].Lines)
}

func TestBuildTiles_skipsFillValues(t *testing.T) {
	// Arrange
	s := newTestSwath(20, 3, 0, 10)
	for line := 0; line < 10; line++ {
		for pixel := 0; pixel < 3; pixel++ {
			s.Latitude[line][pixel] = math.NaN()
		}
	}
	s.Longitude[15][0] = math.Inf(1)

	// Act
	specs, err := BuildTiles(s, 10, TimePerTile)

	// Assert
	util.AssertNil(t, err)
	util.AssertEqual(t, 1, len(specs))
	util.AssertEqual(t, LineRange{Start: 10, End: 20}, specs[0].Lines)
	util.AssertApprox(t, 10.0, specs[0].Bound.Min.Lon(), 0.000001)
	util.AssertApprox(t, 10.2, specs[0].Bound.Max.Lon(), 0.000001)
}

func TestBuildTiles_timePerTile(t *testing.T) {
	// Arrange
	s := newTestSwath(20, 3, 0, 10)

	// Act
	specs, err := BuildTiles(s, 10, TimePerTile)

	// Assert
	util.AssertNil(t, err)
	util.AssertEqual(t, TimeRange{Min: testStartTime, Max: testStartTime.Add(9 * time.Second)}, specs[0].Time)
	util.AssertEqual(t, TimeRange{Min: testStartTime.Add(10 * time.Second), Max: testStartTime.Add(19 * time.Second)}, specs[1].Time)
}

func TestBuildTiles_timePerFile(t *testing.T) {
	// Arrange
	s := newTestSwath(20, 3, 0, 10)
	fileTime := TimeRange{Min: testStartTime, Max: testStartTime.Add(19 * time.Second)}

	// Act
	specs, err := BuildTiles(s, 10, TimePerFile)

	// Assert
	util.AssertNil(t, err)
	util.AssertEqual(t, fileTime, specs[0].Time)
	util.AssertEqual(t, fileTime, specs[1].Time)
}

func TestBuildTiles_linesWithoutTimeUseFileTime(t *testing.T) {
	// Arrange
	s := newTestSwath(20, 3, 0, 10)
	for line := 10; line < 20; line++ {
		s.Time[line] = time.Time{}
	}

	// Act
	specs, err := BuildTiles(s, 10, TimePerTile)

	// Assert
	util.AssertNil(t, err)
	util.AssertEqual(t, TimeRange{Min: testStartTime, Max: testStartTime.Add(9 * time.Second)}, specs[1].Time)
}

func TestBuildTiles_invalidTileSize(t *testing.T) {
	// Act
	_, err := BuildTiles(newTestSwath(20, 3, 0, 10), 0, TimePerTile)

	// Assert
	util.AssertNotNil(t, err)
}

func TestBuildTiles_swathWithoutTime(t *testing.T) {
	// Arrange
	s := swath.NewMemorySwath([][]float64{{1}}, [][]float64{{2}}, nil)

	// Act
	_, err := BuildTiles(s, 10, TimePerTile)

	// Assert
	util.AssertNotNil(t, err)
}

func TestParseTimePolicy(t *testing.T) {
	policy, err := ParseTimePolicy("file")
	util.AssertNil(t, err)
	util.AssertEqual(t, TimePerFile, policy)

	policy, err = ParseTimePolicy("")
	util.AssertNil(t, err)
	util.AssertEqual(t, TimePerTile, policy)

	_, err = ParseTimePolicy("foo")
	util.AssertError(t, "Unknown time policy 'foo', must be 'tile' or 'file'", err)
}
