package index

import (
	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
)

const (
	rtreeDimensions = 2
	rtreeMinEntries = 25
	rtreeMaxEntries = 50

	// The R-tree neither accepts degenerated rectangles nor considers touching rectangles as intersecting. All
	// rectangles are therefore enlarged by this padding and every hit is checked again using the exact bounds.
	boxPadding = 0.0001
)

type boxEntry struct {
	id    TileID
	bound orb.Bound
}

func (e *boxEntry) Bounds() rtreego.Rect {
	return toRect(e.bound)
}

func toRect(bound orb.Bound) rtreego.Rect {
	point := rtreego.Point{bound.Min.Lon() - boxPadding, bound.Min.Lat() - boxPadding}
	lengths := []float64{
		bound.Max.Lon() - bound.Min.Lon() + 2*boxPadding,
		bound.Max.Lat() - bound.Min.Lat() + 2*boxPadding,
	}

	rect, _ := rtreego.NewRect(point, lengths)
	return rect
}

// BoxIndex is a spatial index over tile bounding boxes. Boxes touching each other intersect.
type BoxIndex struct {
	rtree *rtreego.Rtree
}

func NewBoxIndex() *BoxIndex {
	return &BoxIndex{
		rtree: rtreego.NewTree(rtreeDimensions, rtreeMinEntries, rtreeMaxEntries),
	}
}

// RebuildBoxIndex creates a new bulk-loaded index of the given boxes.
func RebuildBoxIndex(boxes map[TileID]orb.Bound) *BoxIndex {
	var entries []rtreego.Spatial
	for id, bound := range boxes {
		entries = append(entries, &boxEntry{id: id, bound: bound})
	}

	return &BoxIndex{
		rtree: rtreego.NewTree(rtreeDimensions, rtreeMinEntries, rtreeMaxEntries, entries...),
	}
}

func (b *BoxIndex) Insert(id TileID, bound orb.Bound) {
	b.rtree.Insert(&boxEntry{id: id, bound: bound})
}

// Query returns the sorted IDs of all boxes intersecting the given bound.
func (b *BoxIndex) Query(bound orb.Bound) []TileID {
	candidates := b.rtree.SearchIntersect(toRect(bound))

	var ids []TileID
	for _, candidate := range candidates {
		entry := candidate.(*boxEntry)
		if entry.bound.Intersects(bound) {
			ids = append(ids, entry.id)
		}
	}

	sortTileIDs(ids)

	return ids
}

// Len returns the number of stored boxes.
func (b *BoxIndex) Len() int {
	return b.rtree.Size()
}
