package index

import (
	"github.com/hauke96/sigolo/v2"
	"path/filepath"
	"strings"
)

const ReasonNotUnderBase = "path is not under the base path"

// RemapEntry is the outcome of remapping the file of one tile. Exactly one of Remapped and Unchanged is set.
type RemapEntry struct {
	Tile      TileID
	Remapped  *Remapped
	Unchanged *Unchanged
}

type Remapped struct {
	OldPath string
	NewPath string
}

type Unchanged struct {
	Path   string
	Reason string
}

type RemapReport struct {
	BasePathUnset bool
	OldBasePath   string
	NewBasePath   string
	Entries       []RemapEntry
}

func (r *RemapReport) RemappedCount() int {
	count := 0
	for _, entry := range r.Entries {
		if entry.Remapped != nil {
			count++
		}
	}
	return count
}

func (r *RemapReport) Unremapped() []Unchanged {
	var result []Unchanged
	for _, entry := range r.Entries {
		if entry.Unchanged != nil {
			result = append(result, *entry.Unchanged)
		}
	}
	return result
}

// RemapBasePath moves all files under the current base path to the new base path, keeping their relative paths.
// Files outside the current base path stay as they are. Without a base path, nothing happens.
func (c *Catalog) RemapBasePath(newBasePath string) *RemapReport {
	report := &RemapReport{
		OldBasePath: c.basePath,
		NewBasePath: newBasePath,
	}

	if c.basePath == "" {
		sigolo.Warnf("Index has no base path, nothing to remap")
		report.BasePathUnset = true
		return report
	}

	sigolo.Infof("Remap base path %s to %s", c.basePath, newBasePath)

	ids := make([]TileID, 0, len(c.tiles))
	for id := range c.tiles {
		ids = append(ids, id)
	}
	sortTileIDs(ids)

	for _, id := range ids {
		tile := c.tiles[id]
		newPath, ok := rebase(tile.File, c.basePath, newBasePath)
		if !ok {
			sigolo.Warnf("Could not remap %s: %s", tile.File, ReasonNotUnderBase)
			report.Entries = append(report.Entries, RemapEntry{
				Tile:      id,
				Unchanged: &Unchanged{Path: tile.File, Reason: ReasonNotUnderBase},
			})
			continue
		}

		report.Entries = append(report.Entries, RemapEntry{
			Tile:     id,
			Remapped: &Remapped{OldPath: tile.File, NewPath: newPath},
		})
		tile.File = newPath
	}

	newIndexedFiles := make(map[string]bool, len(c.indexedFiles))
	for file := range c.indexedFiles {
		newPath, ok := rebase(file, c.basePath, newBasePath)
		if !ok {
			newPath = file
		}
		newIndexedFiles[newPath] = true
	}
	c.indexedFiles = newIndexedFiles

	c.basePath = newBasePath

	sigolo.Infof("Remapped %d tile paths, %d could not be remapped", report.RemappedCount(), len(report.Entries)-report.RemappedCount())
	return report
}

// rebase returns the path with the old base replaced by the new base. This fails when the path is not within the old
// base directory.
func rebase(path string, oldBase string, newBase string) (string, bool) {
	relativePath, err := filepath.Rel(oldBase, path)
	if err != nil || relativePath == ".." || strings.HasPrefix(relativePath, ".."+string(filepath.Separator)) {
		return path, false
	}
	return filepath.Join(newBase, relativePath), true
}
