package index

import (
	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"swotdb/swath"
	"time"
)

const (
	DefaultAutosaveInterval       = 100
	DefaultReloadAutosaveInterval = 10
	DefaultIndexFile              = "swot_index"

	AutosaveDisabled = -1
)

type Options struct {
	// TileSize is the tile size of new indices. Loaded indices keep their stored tile size, use the tile size
	// parameter of AddFile and AddDirectory to index single files differently.
	TileSize int

	// AutosaveInterval is the number of added files after which the index is saved. A negative value disables
	// autosaving and 0 uses the default.
	AutosaveInterval int

	TimePolicy TimePolicy

	// Workers is the number of files read concurrently when adding directories.
	Workers int

	// NewBasePath, when set, remaps the base path right after loading an index.
	NewBasePath string
}

// SpatialIndex ties a catalog to its snapshot file and takes care of autosaving.
type SpatialIndex struct {
	indexFile        string
	snapshotPath     string
	catalog          *Catalog
	autosaveInterval int
	filesSinceSave   int
	workers          int
}

func NewSpatialIndex(indexFile string, opener swath.Opener, options Options) *SpatialIndex {
	catalog := NewCatalog(opener, options.TileSize)
	catalog.SetTimePolicy(options.TimePolicy)

	return newSpatialIndex(indexFile, catalog, options, DefaultAutosaveInterval)
}

// LoadSpatialIndex loads the snapshot belonging to the given index file. ErrNotFound is returned when there's no
// snapshot.
func LoadSpatialIndex(indexFile string, opener swath.Opener, options Options) (*SpatialIndex, error) {
	snapshotPath := SnapshotPath(indexFile)
	sigolo.Infof("Load index from %s", snapshotPath)

	catalog, err := LoadCatalog(snapshotPath, opener)
	if err != nil {
		return nil, err
	}
	catalog.SetTimePolicy(options.TimePolicy)

	stats := catalog.Stats()
	sigolo.Infof("Loaded %d tiles from %d files", stats.TileCount, stats.FileCount)
	sigolo.Infof("Tile size: %d lines", stats.TileSize)
	sigolo.Infof("Base path: %s", stats.BasePath)

	if options.NewBasePath != "" {
		catalog.RemapBasePath(options.NewBasePath)
	}

	return newSpatialIndex(indexFile, catalog, options, DefaultReloadAutosaveInterval), nil
}

// LoadOrCreateSpatialIndex loads the index or, if it doesn't exist yet, creates a new empty one.
func LoadOrCreateSpatialIndex(indexFile string, opener swath.Opener, options Options) (*SpatialIndex, error) {
	spatialIndex, err := LoadSpatialIndex(indexFile, opener, options)
	if errors.Is(err, ErrNotFound) {
		sigolo.Infof("No existing index found at %s, creating new one", SnapshotPath(indexFile))
		return NewSpatialIndex(indexFile, opener, options), nil
	}
	return spatialIndex, err
}

func newSpatialIndex(indexFile string, catalog *Catalog, options Options, defaultAutosaveInterval int) *SpatialIndex {
	autosaveInterval := options.AutosaveInterval
	if autosaveInterval == 0 {
		autosaveInterval = defaultAutosaveInterval
	}

	workers := options.Workers
	if workers <= 0 {
		workers = 1
	}

	return &SpatialIndex{
		indexFile:        indexFile,
		snapshotPath:     SnapshotPath(indexFile),
		catalog:          catalog,
		autosaveInterval: autosaveInterval,
		workers:          workers,
	}
}

func (s *SpatialIndex) Catalog() *Catalog {
	return s.catalog
}

func (s *SpatialIndex) SnapshotPath() string {
	return s.snapshotPath
}

// AddFile adds the file to the catalog and autosaves when necessary.
func (s *SpatialIndex) AddFile(path string, tileSize int) (AddResult, error) {
	result, err := s.catalog.AddFile(path, tileSize)
	if err != nil || result.Skipped {
		return result, err
	}

	s.fileAdded()
	return result, nil
}

func (s *SpatialIndex) fileAdded() {
	s.filesSinceSave++
	if s.autosaveInterval > 0 && s.filesSinceSave >= s.autosaveInterval {
		s.autosave()
	}
}

// autosave saves the index but only logs errors. The counter is only reset on success, so the next file triggers
// another attempt.
func (s *SpatialIndex) autosave() {
	err := s.catalog.Save(s.snapshotPath)
	if err != nil {
		sigolo.Errorf("  [Auto-save failed: %s]", err.Error())
		return
	}

	s.filesSinceSave = 0
	sigolo.Infof("  [Auto-saved: %d files, %d tiles]", len(s.catalog.indexedFiles), s.catalog.Len())
}

// Save writes the snapshot and resets the autosave counter.
func (s *SpatialIndex) Save() error {
	err := s.catalog.Save(s.snapshotPath)
	if err != nil {
		return err
	}

	s.filesSinceSave = 0

	stats := s.catalog.Stats()
	sigolo.Infof("Index saved to %s", s.snapshotPath)
	sigolo.Infof("  - %d tiles", stats.TileCount)
	sigolo.Infof("  - %d files indexed", stats.FileCount)
	sigolo.Infof("  - Tile size: %d lines", stats.TileSize)
	sigolo.Infof("  - Base path: %s", stats.BasePath)
	return nil
}

func (s *SpatialIndex) Query(bound orb.Bound, timeStart *time.Time, timeEnd *time.Time) []TileHit {
	return s.catalog.Query(bound, timeStart, timeEnd)
}

func (s *SpatialIndex) RemapBasePath(newBasePath string) *RemapReport {
	return s.catalog.RemapBasePath(newBasePath)
}

func (s *SpatialIndex) Stats() Stats {
	stats := s.catalog.Stats()
	stats.AutosaveInterval = s.autosaveInterval
	return stats
}
