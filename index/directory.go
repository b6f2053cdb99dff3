package index

import (
	"context"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/hauke96/sigolo/v2"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const DefaultFilePattern = "*.nc"

type FileError struct {
	Path string
	Err  error
}

type DirectoryReport struct {
	Found       int
	Added       int
	Skipped     int
	Tiles       int
	Failed      []FileError
	Interrupted bool
}

// FindFiles returns all files within the directory matching the pattern in lexicographic order. The pattern is
// relative to the directory and may contain "**" to match any number of subdirectories.
func FindFiles(dir string, pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, errors.Errorf("Invalid file pattern '%s'", pattern)
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to access directory %s", dir)
	}
	if !info.IsDir() {
		return nil, errors.Errorf("%s is not a directory", dir)
	}

	matches, err := doublestar.Glob(os.DirFS(dir), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to search files matching '%s' in %s", pattern, dir)
	}

	files := make([]string, len(matches))
	for i, match := range matches {
		files[i] = absolutePath(filepath.Join(dir, filepath.FromSlash(match)))
	}
	sort.Strings(files)

	return files, nil
}

type computedTiles struct {
	specs []TileSpec
	err   error
}

// AddDirectory adds all not yet indexed files in the directory that match the pattern. Files are read by several
// workers but are added in lexicographic order. Files that can't be read are reported and skipped. Cancelling the
// context stops the ingestion before the next file, the files added so far are saved.
func (s *SpatialIndex) AddDirectory(ctx context.Context, dir string, pattern string, tileSize int) (*DirectoryReport, error) {
	if pattern == "" {
		pattern = DefaultFilePattern
	}

	files, err := FindFiles(dir, pattern)
	if err != nil {
		return nil, err
	}

	report := &DirectoryReport{Found: len(files)}

	var newFiles []string
	for _, file := range files {
		if s.catalog.IsIndexed(file) {
			report.Skipped++
			continue
		}
		newFiles = append(newFiles, file)
	}

	sigolo.Infof("Found %d total files, %d new files to index", len(files), len(newFiles))
	if s.autosaveInterval > 0 {
		sigolo.Infof("Auto-save enabled: every %d files", s.autosaveInterval)
	}

	importStartTime := time.Now()

	for batchStart := 0; batchStart < len(newFiles) && !report.Interrupted; batchStart += s.workers {
		if ctx.Err() != nil {
			report.Interrupted = true
			break
		}

		batchEnd := batchStart + s.workers
		if batchEnd > len(newFiles) {
			batchEnd = len(newFiles)
		}
		batch := newFiles[batchStart:batchEnd]

		results := s.computeBatch(ctx, batch, tileSize)

		for i, file := range batch {
			if ctx.Err() != nil {
				report.Interrupted = true
				break
			}

			sigolo.Infof("[%d/%d] Indexing %s", batchStart+i+1, len(newFiles), filepath.Base(file))

			result := results[i]
			if result.err != nil {
				sigolo.Errorf("Skipping %s: %s", file, result.err.Error())
				report.Failed = append(report.Failed, FileError{Path: file, Err: result.err})
				continue
			}

			addResult := s.catalog.AddTiles(file, result.specs)
			if addResult.Skipped {
				report.Skipped++
				continue
			}

			report.Added++
			report.Tiles += addResult.Tiles
			s.fileAdded()
		}
	}

	if report.Interrupted {
		sigolo.Warnf("Indexing interrupted after %d of %d new files", report.Added+len(report.Failed), len(newFiles))
	}
	sigolo.Infof("Added %d files with %d tiles in %s, %d skipped, %d failed", report.Added, report.Tiles, time.Since(importStartTime), report.Skipped, len(report.Failed))

	if s.filesSinceSave > 0 {
		sigolo.Infof("Performing final save...")
		err = s.Save()
		if err != nil {
			return report, err
		}
	}

	return report, nil
}

// computeBatch reads all files of the batch concurrently. Errors are part of the results, so one failing file doesn't
// stop the others.
func (s *SpatialIndex) computeBatch(ctx context.Context, batch []string, tileSize int) []computedTiles {
	results := make([]computedTiles, len(batch))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.workers)
	for i, file := range batch {
		i, file := i, file
		group.Go(func() error {
			if groupCtx.Err() != nil {
				results[i].err = groupCtx.Err()
				return nil
			}
			results[i].specs, results[i].err = s.catalog.ComputeTiles(file, tileSize)
			return nil
		})
	}
	_ = group.Wait()

	return results
}
