package index

import (
	"github.com/google/uuid"
	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"path/filepath"
	"sort"
	"swotdb/swath"
	"swotdb/util"
	"time"
)

// Catalog is the authoritative store of all tiles and indexed files. The box index is derived from the tiles and kept
// in lockstep with them. A catalog must only be modified by one goroutine at a time, concurrent queries on an
// unmodified catalog are fine.
type Catalog struct {
	id           uuid.UUID
	tiles        map[TileID]*Tile
	nextID       TileID
	indexedFiles map[string]bool
	tileSize     int
	basePath     string

	boxIndex   *BoxIndex
	opener     swath.Opener
	timePolicy TimePolicy
}

// AddResult describes the outcome of adding one file. Skipped files were already indexed before.
type AddResult struct {
	Skipped bool
	Tiles   int
}

type Stats struct {
	IndexID          string   `json:"index_id"`
	TileCount        int      `json:"tile_count"`
	FileCount        int      `json:"file_count"`
	TileSize         int      `json:"tile_size"`
	BasePath         string   `json:"base_path"`
	AutosaveInterval int      `json:"autosave_interval,omitempty"`
	Files            []string `json:"files"`
}

func NewCatalog(opener swath.Opener, tileSize int) *Catalog {
	if tileSize <= 0 {
		tileSize = DefaultTileSize
	}

	return &Catalog{
		id:           uuid.New(),
		tiles:        map[TileID]*Tile{},
		indexedFiles: map[string]bool{},
		tileSize:     tileSize,
		boxIndex:     NewBoxIndex(),
		opener:       opener,
		timePolicy:   TimePerTile,
	}
}

func (c *Catalog) SetTimePolicy(policy TimePolicy) {
	c.timePolicy = policy
}

func (c *Catalog) SetOpener(opener swath.Opener) {
	c.opener = opener
}

func (c *Catalog) TileSize() int {
	return c.tileSize
}

func (c *Catalog) BasePath() string {
	return c.basePath
}

func (c *Catalog) IsIndexed(path string) bool {
	return c.indexedFiles[absolutePath(path)]
}

// Len returns the number of tiles.
func (c *Catalog) Len() int {
	return len(c.tiles)
}

func (c *Catalog) Tile(id TileID) (*Tile, bool) {
	tile, ok := c.tiles[id]
	return tile, ok
}

// AddFile reads the given swath file and adds its tiles. Already indexed files are skipped. The catalog stays
// untouched if the file can't be read. A tile size of 0 or less uses the tile size of the catalog.
func (c *Catalog) AddFile(path string, tileSize int) (AddResult, error) {
	path = absolutePath(path)
	if c.indexedFiles[path] {
		sigolo.Debugf("File %s already indexed, skipping", path)
		return AddResult{Skipped: true}, nil
	}

	specs, err := c.ComputeTiles(path, tileSize)
	if err != nil {
		return AddResult{}, err
	}

	return c.AddTiles(path, specs), nil
}

// ComputeTiles reads the swath file and creates the tile specs without changing the catalog. It's safe to call this
// concurrently.
func (c *Catalog) ComputeTiles(path string, tileSize int) ([]TileSpec, error) {
	if tileSize <= 0 {
		tileSize = c.tileSize
	}
	if c.opener == nil {
		return nil, &SourceReadError{Path: path, Err: errors.New("No swath opener configured")}
	}

	s, err := c.opener.Open(path)
	if err != nil {
		return nil, &SourceReadError{Path: path, Err: err}
	}
	defer func() {
		closeErr := s.Close()
		if closeErr != nil {
			sigolo.Warnf("Unable to close swath file %s: %+v", path, closeErr)
		}
	}()

	specs, err := BuildTiles(s, tileSize, c.timePolicy)
	if err != nil {
		return nil, &SourceReadError{Path: path, Err: err}
	}
	if len(specs) == 0 {
		return nil, &SourceReadError{Path: path, Err: ErrNoValidPixels}
	}

	return specs, nil
}

// AddTiles commits the already computed tiles of the given file. Files that are already indexed are skipped.
func (c *Catalog) AddTiles(path string, specs []TileSpec) AddResult {
	path = absolutePath(path)
	if c.indexedFiles[path] {
		return AddResult{Skipped: true}
	}

	for _, spec := range specs {
		tile := &Tile{
			ID:    c.nextID,
			File:  path,
			Lines: spec.Lines,
			Bound: spec.Bound,
			Time:  spec.Time,
		}
		c.nextID++

		c.tiles[tile.ID] = tile
		c.boxIndex.Insert(tile.ID, tile.Bound)
	}

	c.indexedFiles[path] = true
	if c.basePath == "" {
		c.basePath = filepath.Dir(path)
		sigolo.Debugf("Set base path to %s", c.basePath)
	}

	sigolo.Debugf("Added %d tiles of file %s", len(specs), path)
	return AddResult{Tiles: len(specs)}
}

// Query returns all tiles whose bounding box intersects the given bound and whose time range overlaps the given time
// range. Nil time values are unbounded. The hits are ordered by tile ID.
func (c *Catalog) Query(bound orb.Bound, timeStart *time.Time, timeEnd *time.Time) []TileHit {
	var ids []TileID
	for _, normalizedBound := range NormalizeBound(bound) {
		ids = append(ids, c.boxIndex.Query(normalizedBound)...)
	}
	ids = uniqueTileIDs(ids)
	sigolo.Debugf("Found %d candidate tiles for %s", len(ids), boundString(bound))

	var hits []TileHit
	for _, id := range ids {
		tile, ok := c.tiles[id]
		if !ok {
			sigolo.Errorf("Tile %d is in the box index but not in the catalog", id)
			continue
		}

		if !tile.Time.Overlaps(timeStart, timeEnd) {
			continue
		}

		hits = append(hits, TileHit{
			ID:    tile.ID,
			File:  tile.File,
			Lines: tile.Lines,
			Bound: tile.Bound,
			Time:  tile.Time,
		})
	}

	return hits
}

func (c *Catalog) Stats() Stats {
	files := make([]string, 0, len(c.indexedFiles))
	for file := range c.indexedFiles {
		files = append(files, file)
	}
	sort.Strings(files)

	return Stats{
		IndexID:   c.id.String(),
		TileCount: len(c.tiles),
		FileCount: len(c.indexedFiles),
		TileSize:  c.tileSize,
		BasePath:  c.basePath,
		Files:     files,
	}
}

// verify checks that the box index and the tiles are in lockstep.
func (c *Catalog) verify() {
	if c.boxIndex.Len() != len(c.tiles) {
		util.LogFatalBug("Box index contains %d entries but catalog has %d tiles", c.boxIndex.Len(), len(c.tiles))
	}
}

func absolutePath(path string) string {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return absPath
}
