package swath

import (
	"math"
	"time"
)

const (
	VariableLatitude  = "latitude"
	VariableLongitude = "longitude"
	VariableTime      = "time"
)

// Swath is a read-only view on one swath file. A swath is a grid of NumLines() along-track lines with NumPixels()
// cross-track pixels each. Every pixel has a latitude and longitude, every line has a time.
type Swath interface {
	NumLines() int
	NumPixels() int

	// Geolocation returns latitude, longitude and time of the lines [start, end).
	Geolocation(start, end int) (*LineBlock, error)

	// TimeBounds returns the minimum and maximum line time of the whole file.
	TimeBounds() (time.Time, time.Time, error)

	// Variable returns the values of the given per-pixel variable for the lines [start, end).
	Variable(name string, start, end int) ([][]float64, error)

	Variables() []string

	Close() error
}

// Opener opens swath files by path. Implementations decide on the file format.
type Opener interface {
	Open(path string) (Swath, error)
}

// OpenerFunc adapts a plain function to the Opener interface.
type OpenerFunc func(path string) (Swath, error)

func (f OpenerFunc) Open(path string) (Swath, error) {
	return f(path)
}

// LineBlock contains the geolocation of consecutive lines starting at line Start. Latitude and Longitude are indexed
// [line][pixel], Time is indexed [line]. A zero time means the line has no valid time.
type LineBlock struct {
	Start     int
	Latitude  [][]float64
	Longitude [][]float64
	Time      []time.Time
}

func (b *LineBlock) Len() int {
	return len(b.Latitude)
}

// IsValidCoordinate is false for fill values, which are stored as NaN or infinity.
func IsValidCoordinate(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func checkLineRange(start, end, numLines int) bool {
	return start >= 0 && start <= end && end <= numLines
}
