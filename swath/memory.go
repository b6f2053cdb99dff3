package swath

import (
	"github.com/pkg/errors"
	"sort"
	"sync"
	"time"
)

// MemorySwath keeps the whole swath in memory. It's used for extracted query results and in tests.
type MemorySwath struct {
	Latitude   [][]float64
	Longitude  [][]float64
	Time       []time.Time
	Data       map[string][][]float64
	Attributes map[string]string
}

func NewMemorySwath(latitude [][]float64, longitude [][]float64, times []time.Time) *MemorySwath {
	return &MemorySwath{
		Latitude:   latitude,
		Longitude:  longitude,
		Time:       times,
		Data:       map[string][][]float64{},
		Attributes: map[string]string{},
	}
}

func (s *MemorySwath) NumLines() int {
	return len(s.Latitude)
}

func (s *MemorySwath) NumPixels() int {
	if len(s.Latitude) == 0 {
		return 0
	}
	return len(s.Latitude[0])
}

func (s *MemorySwath) Geolocation(start, end int) (*LineBlock, error) {
	if !checkLineRange(start, end, s.NumLines()) {
		return nil, errors.Errorf("Line range [%d, %d) out of bounds, swath has %d lines", start, end, s.NumLines())
	}
	if len(s.Longitude) != len(s.Latitude) {
		return nil, errors.Errorf("Latitude has %d lines but longitude has %d", len(s.Latitude), len(s.Longitude))
	}

	block := &LineBlock{
		Start:     start,
		Latitude:  s.Latitude[start:end],
		Longitude: s.Longitude[start:end],
		Time:      make([]time.Time, end-start),
	}
	if len(s.Time) >= end {
		copy(block.Time, s.Time[start:end])
	}

	return block, nil
}

func (s *MemorySwath) TimeBounds() (time.Time, time.Time, error) {
	var minTime, maxTime time.Time
	for _, t := range s.Time {
		if t.IsZero() {
			continue
		}
		if minTime.IsZero() || t.Before(minTime) {
			minTime = t
		}
		if maxTime.IsZero() || t.After(maxTime) {
			maxTime = t
		}
	}

	if minTime.IsZero() {
		return minTime, maxTime, errors.New("Swath has no valid time values")
	}

	return minTime, maxTime, nil
}

func (s *MemorySwath) Variable(name string, start, end int) ([][]float64, error) {
	if !checkLineRange(start, end, s.NumLines()) {
		return nil, errors.Errorf("Line range [%d, %d) out of bounds, swath has %d lines", start, end, s.NumLines())
	}

	switch name {
	case VariableLatitude:
		return s.Latitude[start:end], nil
	case VariableLongitude:
		return s.Longitude[start:end], nil
	}

	values, ok := s.Data[name]
	if !ok {
		return nil, errors.Errorf("Variable '%s' does not exist", name)
	}
	if len(values) < end {
		return nil, errors.Errorf("Variable '%s' has only %d lines", name, len(values))
	}

	return values[start:end], nil
}

func (s *MemorySwath) Variables() []string {
	names := []string{VariableLatitude, VariableLongitude}
	for name := range s.Data {
		names = append(names, name)
	}
	sort.Strings(names[2:])
	return names
}

func (s *MemorySwath) Close() error {
	return nil
}

// MemoryOpener serves MemorySwath instances by path. It's safe to use from multiple goroutines.
type MemoryOpener struct {
	mutex  sync.Mutex
	files  map[string]Swath
	failed map[string]error
	opened map[string]int
}

func NewMemoryOpener() *MemoryOpener {
	return &MemoryOpener{
		files:  map[string]Swath{},
		failed: map[string]error{},
		opened: map[string]int{},
	}
}

func (o *MemoryOpener) Add(path string, s Swath) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.files[path] = s
}

// Fail makes every Open call for the given path return the given error.
func (o *MemoryOpener) Fail(path string, err error) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.failed[path] = err
}

func (o *MemoryOpener) Open(path string) (Swath, error) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.opened[path]++

	if err, ok := o.failed[path]; ok {
		return nil, err
	}

	s, ok := o.files[path]
	if !ok {
		return nil, errors.Errorf("No swath for path %s", path)
	}

	return s, nil
}

// OpenCount returns how often the given path has been opened.
func (o *MemoryOpener) OpenCount(path string) int {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	return o.opened[path]
}
