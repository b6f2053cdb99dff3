package query

import (
	"fmt"
	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"path/filepath"
	"sort"
	"strings"
	"swotdb/index"
	"time"
)

var DefaultVariables = []string{"ssha_unfiltered"}

// TileSource provides the tiles matching a spatial and temporal range.
type TileSource interface {
	Query(bound orb.Bound, timeStart *time.Time, timeEnd *time.Time) []index.TileHit
}

type Query struct {
	Bound     orb.Bound
	TimeStart *time.Time
	TimeEnd   *time.Time
	Variables []string
}

func NewQuery(latMin, latMax, lonMin, lonMax float64) *Query {
	return &Query{
		Bound:     index.NewBound(latMin, latMax, lonMin, lonMax),
		Variables: DefaultVariables,
	}
}

// WithTimeRange sets the inclusive time range. Nil values are unbounded.
func (q *Query) WithTimeRange(start *time.Time, end *time.Time) *Query {
	q.TimeStart = start
	q.TimeEnd = end
	return q
}

func (q *Query) WithVariables(variables ...string) *Query {
	if len(variables) > 0 {
		q.Variables = variables
	}
	return q
}

func (q *Query) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("lat=[%g, %g] lon=[%g, %g]", q.Bound.Min.Lat(), q.Bound.Max.Lat(), q.Bound.Min.Lon(), q.Bound.Max.Lon()))
	if q.TimeStart != nil || q.TimeEnd != nil {
		sb.WriteString(fmt.Sprintf(" time=[%s, %s]", formatTime(q.TimeStart), formatTime(q.TimeEnd)))
	}
	if len(q.Variables) > 0 {
		sb.WriteString(fmt.Sprintf(" variables=%s", strings.Join(q.Variables, ",")))
	}
	return sb.String()
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "*"
	}
	return t.Format(time.RFC3339)
}

// FileSlices are the merged line ranges of one file that need to be read.
type FileSlices struct {
	File   string            `json:"file"`
	Tiles  int               `json:"tiles"`
	Ranges []index.LineRange `json:"ranges"`
}

type Result struct {
	Query     *Query          `json:"-"`
	TileCount int             `json:"tile_count"`
	Files     []FileSlices    `json:"files"`
	Hits      []index.TileHit `json:"-"`
}

// Execute determines the line ranges per file that possibly contain data within the query range. The ranges of each
// file are merged so that every range has to be read only once. Files are ordered by name.
func (q *Query) Execute(source TileSource) *Result {
	sigolo.Debugf("Execute query %s", q.String())
	queryStartTime := time.Now()

	hits := source.Query(q.Bound, q.TimeStart, q.TimeEnd)
	sigolo.Infof("Found %d relevant tiles", len(hits))

	rangesPerFile := map[string][]index.LineRange{}
	for _, hit := range hits {
		rangesPerFile[hit.File] = append(rangesPerFile[hit.File], hit.Lines)
	}
	sigolo.Infof("Spanning %d unique files", len(rangesPerFile))

	files := make([]string, 0, len(rangesPerFile))
	for file := range rangesPerFile {
		files = append(files, file)
	}
	sort.Strings(files)

	result := &Result{
		Query:     q,
		TileCount: len(hits),
		Files:     make([]FileSlices, 0, len(files)),
		Hits:      hits,
	}
	for _, file := range files {
		ranges := rangesPerFile[file]
		merged := MergeLineRanges(ranges)
		sigolo.Infof("  %s: %d tiles -> %d slices", filepath.Base(file), len(ranges), len(merged))

		result.Files = append(result.Files, FileSlices{
			File:   file,
			Tiles:  len(ranges),
			Ranges: merged,
		})
	}

	sigolo.Debugf("Executed query in %s", time.Since(queryStartTime))
	return result
}

// LineCount returns the number of lines within all merged ranges.
func (r *Result) LineCount() int {
	count := 0
	for _, file := range r.Files {
		for _, lineRange := range file.Ranges {
			count += lineRange.Len()
		}
	}
	return count
}
