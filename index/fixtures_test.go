package index

import (
	"os"
	"path/filepath"
	"swotdb/swath"
	"testing"
	"time"
)

var testStartTime = time.Date(2023, 5, 10, 12, 0, 0, 0, time.UTC)

// newTestSwath creates a swath whose latitude grows by 0.01° per line starting at latStart and whose longitude grows
// by 0.1° per pixel starting at lonStart. Line i has the time testStartTime + i seconds.
func newTestSwath(numLines int, numPixels int, latStart float64, lonStart float64) *swath.MemorySwath {
	latitude := make([][]float64, numLines)
	longitude := make([][]float64, numLines)
	times := make([]time.Time, numLines)
	for line := 0; line < numLines; line++ {
		latitude[line] = make([]float64, numPixels)
		longitude[line] = make([]float64, numPixels)
		for pixel := 0; pixel < numPixels; pixel++ {
			latitude[line][pixel] = latStart + float64(line)*0.01
			longitude[line][pixel] = lonStart + float64(pixel)*0.1
		}
		times[line] = testStartTime.Add(time.Duration(line) * time.Second)
	}
	return swath.NewMemorySwath(latitude, longitude, times)
}

// newUniformSwath creates a swath where every line has the same given longitudes.
func newUniformSwath(numLines int, lat float64, lons ...float64) *swath.MemorySwath {
	latitude := make([][]float64, numLines)
	longitude := make([][]float64, numLines)
	times := make([]time.Time, numLines)
	for line := 0; line < numLines; line++ {
		latitude[line] = make([]float64, len(lons))
		longitude[line] = make([]float64, len(lons))
		for pixel, lon := range lons {
			latitude[line][pixel] = lat
			longitude[line][pixel] = lon
		}
		times[line] = testStartTime.Add(time.Duration(line) * time.Second)
	}
	return swath.NewMemorySwath(latitude, longitude, times)
}

// createDataFiles creates empty files, so that they can be found in the directory. The content comes from the opener.
func createDataFiles(t *testing.T, dir string, names ...string) []string {
	var paths []string
	for _, name := range names {
		path := filepath.Join(dir, name)
		err := os.MkdirAll(filepath.Dir(path), os.ModePerm)
		if err != nil {
			t.Fatal(err)
		}
		err = os.WriteFile(path, []byte{}, 0644)
		if err != nil {
			t.Fatal(err)
		}
		paths = append(paths, path)
	}
	return paths
}
