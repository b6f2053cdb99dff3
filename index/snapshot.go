package index

import (
	"github.com/google/uuid"
	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"swotdb/swath"
	"swotdb/util"
	"time"
)

const (
	snapshotVersion = 1
	snapshotSuffix  = "_metadata.snap"
)

// snapshot is the persisted form of a catalog. The box index is not part of it, it's rebuilt from the tiles.
type snapshot struct {
	Version      int                     `msgpack:"version"`
	IndexID      string                  `msgpack:"index_id,omitempty"`
	SavedAt      time.Time               `msgpack:"saved_at"`
	Tiles        map[uint64]snapshotTile `msgpack:"tiles"`
	NextID       uint64                  `msgpack:"next_id"`
	IndexedFiles []string                `msgpack:"indexed_files,omitempty"`
	TileSize     int                     `msgpack:"tile_size,omitempty"`
	BasePath     string                  `msgpack:"base_path,omitempty"`
}

type snapshotTile struct {
	File  string     `msgpack:"file"`
	Lines LineRange  `msgpack:"line_range"`
	Bound [4]float64 `msgpack:"bbox"` // lon min, lat min, lon max, lat max
	Time  TimeRange  `msgpack:"time_range"`
}

// SnapshotPath returns the path of the snapshot file belonging to the given index name. A ".pkl" or ".snap"
// extension of the index name is ignored.
func SnapshotPath(indexFile string) string {
	if strings.HasSuffix(indexFile, snapshotSuffix) {
		return indexFile
	}

	extension := filepath.Ext(indexFile)
	if extension == ".pkl" || extension == ".snap" {
		indexFile = strings.TrimSuffix(indexFile, extension)
	}

	return indexFile + snapshotSuffix
}

// Save writes the catalog atomically to the given snapshot file. Either the complete new snapshot is written or the
// previous one stays in place.
func (c *Catalog) Save(path string) error {
	c.verify()
	saveStartTime := time.Now()

	snap := &snapshot{
		Version:      snapshotVersion,
		IndexID:      c.id.String(),
		SavedAt:      time.Now().UTC(),
		Tiles:        make(map[uint64]snapshotTile, len(c.tiles)),
		NextID:       uint64(c.nextID),
		IndexedFiles: make([]string, 0, len(c.indexedFiles)),
		TileSize:     c.tileSize,
		BasePath:     c.basePath,
	}
	for id, tile := range c.tiles {
		snap.Tiles[uint64(id)] = snapshotTile{
			File:  tile.File,
			Lines: tile.Lines,
			Bound: [4]float64{tile.Bound.Min.Lon(), tile.Bound.Min.Lat(), tile.Bound.Max.Lon(), tile.Bound.Max.Lat()},
			Time:  tile.Time,
		}
	}
	snap.IndexedFiles = c.Stats().Files

	err := util.WriteFileAtomic(path, func(writer io.Writer) error {
		return util.EncodeCompressed(writer, snap)
	})
	if err != nil {
		return &PersistenceError{Path: path, Err: err}
	}

	sigolo.Debugf("Saved %d tiles of %d files to %s in %s", len(c.tiles), len(c.indexedFiles), path, time.Since(saveStartTime))
	return nil
}

// LoadCatalog reads the snapshot file and rebuilds the box index. ErrNotFound is returned when the file doesn't exist.
func LoadCatalog(path string, opener swath.Opener) (*Catalog, error) {
	loadStartTime := time.Now()

	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrapf(ErrNotFound, "No snapshot at %s", path)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to open snapshot %s", path)
	}
	defer file.Close()

	snap := &snapshot{}
	err = util.DecodeCompressed(file, snap)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to read snapshot %s", path)
	}
	if snap.Version > snapshotVersion {
		return nil, errors.Errorf("Snapshot %s has version %d, only versions up to %d are supported", path, snap.Version, snapshotVersion)
	}

	c := NewCatalog(opener, snap.TileSize)
	c.nextID = TileID(snap.NextID)
	if snap.IndexID != "" {
		c.id, err = uuid.Parse(snap.IndexID)
		if err != nil {
			return nil, errors.Wrapf(err, "Snapshot %s has invalid index ID '%s'", path, snap.IndexID)
		}
	}
	c.basePath = snap.BasePath

	boxes := make(map[TileID]orb.Bound, len(snap.Tiles))
	for rawID, t := range snap.Tiles {
		id := TileID(rawID)
		tile := &Tile{
			ID:    id,
			File:  t.File,
			Lines: t.Lines,
			Bound: orb.Bound{Min: orb.Point{t.Bound[0], t.Bound[1]}, Max: orb.Point{t.Bound[2], t.Bound[3]}},
			Time:  TimeRange{Min: t.Time.Min.UTC(), Max: t.Time.Max.UTC()},
		}
		c.tiles[id] = tile
		boxes[id] = tile.Bound

		if id >= c.nextID {
			sigolo.Warnf("Tile ID %d is not below the next ID %d, adjusting next ID", id, c.nextID)
			c.nextID = id + 1
		}
	}
	for _, file := range snap.IndexedFiles {
		c.indexedFiles[file] = true
	}

	c.boxIndex = RebuildBoxIndex(boxes)
	c.verify()

	sigolo.Debugf("Loaded %d tiles of %d files from %s in %s", len(c.tiles), len(c.indexedFiles), path, time.Since(loadStartTime))
	return c, nil
}
