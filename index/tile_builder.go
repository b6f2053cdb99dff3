package index

import (
	"github.com/hauke96/sigolo/v2"
	"github.com/pkg/errors"
	"strings"
	"swotdb/swath"
	"time"
)

const DefaultTileSize = 493

type TimePolicy int

const (
	// TimePerTile uses the time span of the lines within the tile.
	TimePerTile TimePolicy = iota
	// TimePerFile uses the time span of the whole file for every tile of that file.
	TimePerFile
)

func ParseTimePolicy(s string) (TimePolicy, error) {
	switch strings.ToLower(s) {
	case "", "tile":
		return TimePerTile, nil
	case "file":
		return TimePerFile, nil
	}
	return TimePerTile, errors.Errorf("Unknown time policy '%s', must be 'tile' or 'file'", s)
}

func (p TimePolicy) String() string {
	if p == TimePerFile {
		return "file"
	}
	return "tile"
}

// BuildTiles splits the swath into tiles of tileSize lines. The last tile might be shorter. The bounding box of a tile
// covers all valid pixels of all its lines. Tiles crossing the antimeridian result in two specs with the same line
// range. Line ranges without any valid pixel don't produce tiles.
func BuildTiles(s swath.Swath, tileSize int, policy TimePolicy) ([]TileSpec, error) {
	if tileSize <= 0 {
		return nil, errors.Errorf("Invalid tile size %d", tileSize)
	}

	fileTimeMin, fileTimeMax, err := s.TimeBounds()
	if err != nil {
		return nil, errors.Wrap(err, "Unable to determine time bounds of swath")
	}
	fileTime := TimeRange{Min: fileTimeMin, Max: fileTimeMax}

	numLines := s.NumLines()
	var specs []TileSpec

	for start := 0; start < numLines; start += tileSize {
		end := start + tileSize
		if end > numLines {
			end = numLines
		}

		block, err := s.Geolocation(start, end)
		if err != nil {
			return nil, errors.Wrapf(err, "Unable to read geolocation of lines [%d, %d)", start, end)
		}

		fp := &footprint{}
		for line := range block.Latitude {
			lats := block.Latitude[line]
			lons := block.Longitude[line]
			for pixel := range lats {
				if pixel >= len(lons) || !swath.IsValidCoordinate(lats[pixel]) || !swath.IsValidCoordinate(lons[pixel]) {
					continue
				}
				fp.extend(lats[pixel], lons[pixel])
			}
		}

		bounds := fp.bounds()
		if len(bounds) == 0 {
			sigolo.Debugf("Lines [%d, %d) contain no valid pixel, no tile created", start, end)
			continue
		}

		tileTime := fileTime
		if policy == TimePerTile {
			tileTime = lineTimeRange(block.Time, fileTime)
		}

		lines := LineRange{Start: start, End: end}
		for _, bound := range bounds {
			specs = append(specs, TileSpec{
				Lines: lines,
				Bound: bound,
				Time:  tileTime,
			})
		}

		if len(bounds) > 1 {
			sigolo.Tracef("Lines %s cross the antimeridian, split into %s and %s", lines, boundString(bounds[0]), boundString(bounds[1]))
		}
	}

	return specs, nil
}

// lineTimeRange returns the span of the given line times. When no line has a valid time, the fallback is returned.
func lineTimeRange(times []time.Time, fallback TimeRange) TimeRange {
	var result TimeRange
	for _, t := range times {
		if t.IsZero() {
			continue
		}
		if result.Min.IsZero() || t.Before(result.Min) {
			result.Min = t
		}
		if result.Max.IsZero() || t.After(result.Max) {
			result.Max = t
		}
	}

	if result.Min.IsZero() {
		return fallback
	}
	return result
}
