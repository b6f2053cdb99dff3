package importing

import (
	"context"
	"github.com/hauke96/sigolo/v2"
	"github.com/pkg/errors"
	"swotdb/index"
	"swotdb/swath"
	"time"
)

type BuildOptions struct {
	DataDir      string
	IndexFile    string
	Pattern      string
	LoadExisting bool
	Index        index.Options
}

// Build indexes all swath files of the data directory. With LoadExisting, files are added to the existing index and
// already indexed files are skipped, otherwise a fresh index replaces the existing one when saved.
func Build(ctx context.Context, opener swath.Opener, options BuildOptions) (*index.SpatialIndex, *index.DirectoryReport, error) {
	if options.DataDir == "" {
		return nil, nil, errors.New("No data directory given")
	}
	if options.IndexFile == "" {
		options.IndexFile = index.DefaultIndexFile
	}

	sigolo.Debug("Start building index")
	buildStartTime := time.Now()

	var spatialIndex *index.SpatialIndex
	var err error
	if options.LoadExisting {
		spatialIndex, err = index.LoadOrCreateSpatialIndex(options.IndexFile, opener, options.Index)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "Unable to load existing index %s", options.IndexFile)
		}
	} else {
		spatialIndex = index.NewSpatialIndex(options.IndexFile, opener, options.Index)
	}

	report, err := spatialIndex.AddDirectory(ctx, options.DataDir, options.Pattern, options.Index.TileSize)
	if err != nil {
		return spatialIndex, report, errors.Wrapf(err, "Unable to index directory %s", options.DataDir)
	}

	// An empty new index is saved as well, so that later queries and info calls find it.
	if report.Added == 0 && !options.LoadExisting {
		err = spatialIndex.Save()
		if err != nil {
			return spatialIndex, report, err
		}
	}

	sigolo.Debugf("Finished building index in %s", time.Since(buildStartTime))
	return spatialIndex, report, nil
}
