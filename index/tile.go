package index

import (
	"fmt"
	"github.com/paulmach/orb"
	"sort"
	"time"
)

type TileID uint64

func sortTileIDs(ids []TileID) {
	sort.Slice(ids, func(i, j int) bool {
		return ids[i] < ids[j]
	})
}

// uniqueTileIDs sorts the IDs and removes duplicates, e.g. of tiles found by both halves of a split query bound.
func uniqueTileIDs(ids []TileID) []TileID {
	sortTileIDs(ids)

	var unique []TileID
	for i, id := range ids {
		if i == 0 || id != ids[i-1] {
			unique = append(unique, id)
		}
	}
	return unique
}

// LineRange is the half-open interval [Start, End) of swath lines.
type LineRange struct {
	Start int `msgpack:"start" json:"start"`
	End   int `msgpack:"end" json:"end"`
}

func (r LineRange) Len() int {
	return r.End - r.Start
}

func (r LineRange) String() string {
	return fmt.Sprintf("[%d, %d)", r.Start, r.End)
}

// TimeRange is the inclusive interval [Min, Max].
type TimeRange struct {
	Min time.Time `msgpack:"min" json:"min"`
	Max time.Time `msgpack:"max" json:"max"`
}

// Overlaps is true when the range is not entirely before start or entirely after end. Touching ranges overlap and
// nil bounds are open.
func (r TimeRange) Overlaps(start *time.Time, end *time.Time) bool {
	if start != nil && r.Max.Before(*start) {
		return false
	}
	if end != nil && r.Min.After(*end) {
		return false
	}
	return true
}

// Tile is a range of lines of one swath file together with its bounding box and time range. Tiles only change their
// file during a remap of the base path.
type Tile struct {
	ID    TileID
	File  string
	Lines LineRange
	Bound orb.Bound
	Time  TimeRange
}

// TileSpec is a tile that has not been added to a catalog yet and therefore has no ID.
type TileSpec struct {
	Lines LineRange
	Bound orb.Bound
	Time  TimeRange
}

// TileHit is a tile matching a query.
type TileHit struct {
	ID    TileID    `json:"id"`
	File  string    `json:"file"`
	Lines LineRange `json:"lines"`
	Bound orb.Bound `json:"bound"`
	Time  TimeRange `json:"time"`
}
