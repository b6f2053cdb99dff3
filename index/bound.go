package index

import (
	"fmt"
	"github.com/paulmach/orb"
	"math"
)

// NewBound creates a bound from the usual lat/lon min/max values. Min and max values are swapped if needed.
func NewBound(latMin, latMax, lonMin, lonMax float64) orb.Bound {
	if latMin > latMax {
		latMin, latMax = latMax, latMin
	}
	if lonMin > lonMax {
		lonMin, lonMax = lonMax, lonMin
	}
	return orb.Bound{Min: orb.Point{lonMin, latMin}, Max: orb.Point{lonMax, latMax}}
}

// NormalizeLon maps the longitude into [-180, 180).
func NormalizeLon(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}

// SplitAtAntimeridian turns a bound with eastward unwrapped longitudes (so Max.Lon() may be larger than 180) into
// bounds within [-180, 180]. A bound crossing 180° is split into [lonMin, 180] and [-180, lonMax-360].
func SplitAtAntimeridian(bound orb.Bound) []orb.Bound {
	if bound.Max.Lon() <= 180 {
		return []orb.Bound{bound}
	}

	if bound.Min.Lon() >= 180 {
		return []orb.Bound{{
			Min: orb.Point{bound.Min.Lon() - 360, bound.Min.Lat()},
			Max: orb.Point{bound.Max.Lon() - 360, bound.Max.Lat()},
		}}
	}

	east := orb.Bound{
		Min: orb.Point{bound.Min.Lon(), bound.Min.Lat()},
		Max: orb.Point{180, bound.Max.Lat()},
	}
	west := orb.Bound{
		Min: orb.Point{-180, bound.Min.Lat()},
		Max: orb.Point{bound.Max.Lon() - 360, bound.Max.Lat()},
	}
	return []orb.Bound{east, west}
}

// NormalizeBound maps a query bound given in any longitude convention, e.g. [0, 360), into the convention of the
// stored tiles. The result are one or, for bounds crossing the antimeridian, two bounds within [-180, 180]. Bounds
// spanning 360° or more cover all longitudes.
func NormalizeBound(bound orb.Bound) []orb.Bound {
	span := bound.Max.Lon() - bound.Min.Lon()
	if span >= 360 {
		return []orb.Bound{{
			Min: orb.Point{-180, bound.Min.Lat()},
			Max: orb.Point{180, bound.Max.Lat()},
		}}
	}

	lonMin := NormalizeLon(bound.Min.Lon())
	bounds := SplitAtAntimeridian(orb.Bound{
		Min: orb.Point{lonMin, bound.Min.Lat()},
		Max: orb.Point{lonMin + span, bound.Max.Lat()},
	})

	// Longitude 180 is stored as -180
	if len(bounds) == 1 && bounds[0].Max.Lon() == 180 {
		bounds = append(bounds, orb.Bound{
			Min: orb.Point{-180, bound.Min.Lat()},
			Max: orb.Point{-180, bound.Max.Lat()},
		})
	}
	return bounds
}

// footprint collects the extent of a set of pixels. Longitudes are tracked twice: normalized into [-180, 180) and
// unwrapped into [0, 360). The latter is used when the normalized span exceeds 180°, which is taken as a sign that
// the pixels wrap around the antimeridian.
type footprint struct {
	valid                      bool
	latMin, latMax             float64
	lonMin, lonMax             float64
	unwrappedMin, unwrappedMax float64
}

func (f *footprint) extend(lat, lon float64) {
	lon = NormalizeLon(lon)
	unwrapped := lon
	if unwrapped < 0 {
		unwrapped += 360
	}

	if !f.valid {
		f.valid = true
		f.latMin, f.latMax = lat, lat
		f.lonMin, f.lonMax = lon, lon
		f.unwrappedMin, f.unwrappedMax = unwrapped, unwrapped
		return
	}

	f.latMin = math.Min(f.latMin, lat)
	f.latMax = math.Max(f.latMax, lat)
	f.lonMin = math.Min(f.lonMin, lon)
	f.lonMax = math.Max(f.lonMax, lon)
	f.unwrappedMin = math.Min(f.unwrappedMin, unwrapped)
	f.unwrappedMax = math.Max(f.unwrappedMax, unwrapped)
}

// bounds returns one bound or, for footprints crossing the antimeridian, two bounds.
func (f *footprint) bounds() []orb.Bound {
	if !f.valid {
		return nil
	}

	if f.lonMax-f.lonMin <= 180 {
		return []orb.Bound{{
			Min: orb.Point{f.lonMin, f.latMin},
			Max: orb.Point{f.lonMax, f.latMax},
		}}
	}

	return SplitAtAntimeridian(orb.Bound{
		Min: orb.Point{f.unwrappedMin, f.latMin},
		Max: orb.Point{f.unwrappedMax, f.latMax},
	})
}

func boundString(bound orb.Bound) string {
	return fmt.Sprintf("lon=[%.4f, %.4f] lat=[%.4f, %.4f]", bound.Min.Lon(), bound.Max.Lon(), bound.Min.Lat(), bound.Max.Lat())
}
