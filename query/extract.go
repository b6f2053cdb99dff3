package query

import (
	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"sort"
	"strings"
	"swotdb/index"
	"swotdb/swath"
	"time"
)

// FileExtract contains all lines of one file with at least one pixel within the query bound.
type FileExtract struct {
	File      string
	Lines     []int
	Latitude  [][]float64
	Longitude [][]float64
	Time      []time.Time
	Variables map[string][][]float64
}

type Extraction struct {
	Files     []FileExtract
	Variables []string
	Failed    []index.FileError
}

// Extract reads the merged line ranges of the result and keeps each line that has at least one pixel within the query
// bound. Files that can't be read are logged and skipped.
func (r *Result) Extract(opener swath.Opener) *Extraction {
	extractStartTime := time.Now()

	extraction := &Extraction{
		Variables: r.Query.Variables,
	}

	for _, fileSlices := range r.Files {
		fileExtract, err := extractFile(opener, fileSlices, r.Query.Bound, r.Query.Variables)
		if err != nil {
			sigolo.Errorf("Unable to extract data from %s: %s", fileSlices.File, err.Error())
			extraction.Failed = append(extraction.Failed, index.FileError{Path: fileSlices.File, Err: err})
			continue
		}
		if len(fileExtract.Lines) == 0 {
			sigolo.Debugf("No pixel of %s within query bound", fileSlices.File)
			continue
		}
		extraction.Files = append(extraction.Files, *fileExtract)
	}

	sigolo.Infof("Extracted %d lines from %d files in %s", extraction.LineCount(), len(extraction.Files), time.Since(extractStartTime))
	return extraction
}

func extractFile(opener swath.Opener, fileSlices FileSlices, bound orb.Bound, variables []string) (*FileExtract, error) {
	bounds := index.NormalizeBound(bound)

	s, err := opener.Open(fileSlices.File)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to open %s", fileSlices.File)
	}
	defer s.Close()

	fileExtract := &FileExtract{
		File:      fileSlices.File,
		Variables: map[string][][]float64{},
	}

	for _, lineRange := range fileSlices.Ranges {
		end := lineRange.End
		if end > s.NumLines() {
			end = s.NumLines()
		}
		if lineRange.Start >= end {
			continue
		}

		block, err := s.Geolocation(lineRange.Start, end)
		if err != nil {
			return nil, errors.Wrapf(err, "Unable to read geolocation of lines %s", lineRange)
		}

		values := map[string][][]float64{}
		for _, variable := range variables {
			values[variable], err = s.Variable(variable, lineRange.Start, end)
			if err != nil {
				return nil, errors.Wrapf(err, "Unable to read variable %s of lines %s", variable, lineRange)
			}
		}

		for i := 0; i < block.Len(); i++ {
			if !lineWithinBound(block.Latitude[i], block.Longitude[i], bounds) {
				continue
			}

			fileExtract.Lines = append(fileExtract.Lines, block.Start+i)
			fileExtract.Latitude = append(fileExtract.Latitude, block.Latitude[i])
			fileExtract.Longitude = append(fileExtract.Longitude, block.Longitude[i])
			fileExtract.Time = append(fileExtract.Time, block.Time[i])
			for _, variable := range variables {
				fileExtract.Variables[variable] = append(fileExtract.Variables[variable], values[variable][i])
			}
		}
	}

	return fileExtract, nil
}

// lineWithinBound is true when at least one valid pixel lies within one of the normalized bounds. Boundaries count as
// within.
func lineWithinBound(lats []float64, lons []float64, bounds []orb.Bound) bool {
	for pixel := range lats {
		if pixel >= len(lons) || !swath.IsValidCoordinate(lats[pixel]) || !swath.IsValidCoordinate(lons[pixel]) {
			continue
		}
		point := orb.Point{index.NormalizeLon(lons[pixel]), lats[pixel]}
		for _, bound := range bounds {
			if bound.Contains(point) {
				return true
			}
		}
	}
	return false
}

func (e *Extraction) LineCount() int {
	count := 0
	for _, file := range e.Files {
		count += len(file.Lines)
	}
	return count
}

// ToSwath concatenates the lines of all files into one swath. The files are ordered by the time of their first line.
func (e *Extraction) ToSwath() *swath.MemorySwath {
	files := make([]FileExtract, len(e.Files))
	copy(files, e.Files)
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].Time[0].Before(files[j].Time[0])
	})

	result := swath.NewMemorySwath(nil, nil, nil)
	for _, variable := range e.Variables {
		result.Data[variable] = nil
	}

	var sources []string
	for _, file := range files {
		result.Latitude = append(result.Latitude, file.Latitude...)
		result.Longitude = append(result.Longitude, file.Longitude...)
		result.Time = append(result.Time, file.Time...)
		for _, variable := range e.Variables {
			result.Data[variable] = append(result.Data[variable], file.Variables[variable]...)
		}
		sources = append(sources, file.File)
	}

	result.Attributes["source_files"] = strings.Join(sources, "\n")
	return result
}
