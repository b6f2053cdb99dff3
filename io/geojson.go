package io

import (
	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
	"io"
	"swotdb/index"
	"swotdb/util"
	"time"
)

// WriteTileHitsAsGeoJsonFile writes the footprints of the tiles and, if given, the query box into the file.
func WriteTileHitsAsGeoJsonFile(path string, hits []index.TileHit, queryBound *orb.Bound) error {
	err := util.WriteFileAtomic(path, func(writer io.Writer) error {
		return WriteTileHitsAsGeoJson(writer, hits, queryBound)
	})
	if err != nil {
		return errors.Wrapf(err, "Unable to write GeoJSON file %s", path)
	}
	return nil
}

func WriteTileHitsAsGeoJson(writer io.Writer, hits []index.TileHit, queryBound *orb.Bound) error {
	sigolo.Info("Write tiles to GeoJSON")
	writeStartTime := time.Now()

	featureCollection := TileHitsToFeatureCollection(hits, queryBound)

	geojsonBytes, err := featureCollection.MarshalJSON()
	if err != nil {
		return err
	}

	_, err = writer.Write(geojsonBytes)
	if err != nil {
		return err
	}

	sigolo.Infof("Finished writing %d tiles in %s", len(hits), time.Since(writeStartTime))
	return nil
}

// TileHitsToFeatureCollection creates one polygon feature per tile. The query box is added as feature with the
// property "query" set to true.
func TileHitsToFeatureCollection(hits []index.TileHit, queryBound *orb.Bound) *geojson.FeatureCollection {
	featureCollection := geojson.NewFeatureCollection()

	if queryBound != nil {
		feature := geojson.NewFeature(queryBound.ToPolygon())
		feature.Properties["query"] = true
		featureCollection.Append(feature)
	}

	for _, hit := range hits {
		feature := geojson.NewFeature(hit.Bound.ToPolygon())
		feature.ID = uint64(hit.ID)
		feature.Properties["tile_id"] = uint64(hit.ID)
		feature.Properties["file"] = hit.File
		feature.Properties["line_start"] = hit.Lines.Start
		feature.Properties["line_end"] = hit.Lines.End
		feature.Properties["time_start"] = hit.Time.Min.Format(time.RFC3339)
		feature.Properties["time_end"] = hit.Time.Max.Format(time.RFC3339)
		featureCollection.Append(feature)
	}

	return featureCollection
}
