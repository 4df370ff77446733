package io

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
	"trajgrid/common"
	"trajgrid/index"
	"trajgrid/trajectory"
)

// WriteGridAsGeoJsonFile writes the occupancy of the grid into the given file. See WriteGridAsGeoJson.
func WriteGridAsGeoJsonFile(gridIndex *index.GridIndex, filename string) (err error) {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "Unable to create GeoJSON file %s", filename)
	}

	defer func() {
		closeErr := file.Close()
		if err == nil && closeErr != nil {
			err = errors.Wrapf(closeErr, "Unable to close file handle for GeoJSON file %s", filename)
		}
	}()

	return WriteGridAsGeoJson(gridIndex, file)
}

// WriteGridAsGeoJson writes one polygon feature per non-empty cell of the grid. Each feature has the cell index, the
// number of interval entries, the number of distinct trajectories and the time range covered by the entries as
// properties.
func WriteGridAsGeoJson(gridIndex *index.GridIndex, writer io.Writer) error {
	sigolo.Debug("Write grid to GeoJSON")
	writeStartTime := time.Now()

	featureCollection := geojson.NewFeatureCollection()
	gridIndex.ForEachCell(func(cell common.CellIndex, store *index.IntervalStore) {
		if store.Len() == 0 {
			return
		}

		entries := store.IterateAll()
		start, end := entries[0].Start, entries[0].End
		for _, entry := range entries {
			if entry.End.After(end) {
				end = entry.End
			}
		}

		ids := trajectory.IDSet{}
		store.IDs(ids)

		feature := geojson.NewFeature(gridIndex.CellBound(cell).ToPolygon())
		feature.Properties["cell_x"] = cell.X()
		feature.Properties["cell_y"] = cell.Y()
		feature.Properties["entries"] = len(entries)
		feature.Properties["trajectories"] = len(ids)
		feature.Properties["start"] = start.Format(time.RFC3339Nano)
		feature.Properties["end"] = end.Format(time.RFC3339Nano)

		featureCollection.Features = append(featureCollection.Features, feature)
	})

	err := writeFeatureCollection(featureCollection, writer)
	if err != nil {
		return err
	}

	sigolo.Debugf("Finished writing %d cells in %s", len(featureCollection.Features), time.Since(writeStartTime))
	return nil
}

// WriteTrajectoriesAsGeoJson writes one line string feature per trajectory. Trajectories with a single sample become
// point features. The timestamps of the samples are stored in the "times" property.
func WriteTrajectoriesAsGeoJson(trajectories []*trajectory.Trajectory, writer io.Writer) error {
	featureCollection := geojson.NewFeatureCollection()

	for _, t := range trajectories {
		if len(t.TgPairs) == 0 {
			continue
		}

		var geometry orb.Geometry
		lineString := make(orb.LineString, len(t.TgPairs))
		times := make([]string, len(t.TgPairs))
		for i, pair := range t.TgPairs {
			lineString[i] = pair.Point
			times[i] = pair.Time.Format(time.RFC3339Nano)
		}

		geometry = lineString
		if len(lineString) == 1 {
			geometry = lineString[0]
		}

		feature := geojson.NewFeature(geometry)
		feature.ID = int64(t.ID)
		feature.Properties["id"] = int64(t.ID)
		feature.Properties["times"] = times

		featureCollection.Features = append(featureCollection.Features, feature)
	}

	return writeFeatureCollection(featureCollection, writer)
}

func writeFeatureCollection(featureCollection *geojson.FeatureCollection, writer io.Writer) error {
	geojsonBytes, err := featureCollection.MarshalJSON()
	if err != nil {
		return errors.Wrap(err, "Unable to marshal GeoJSON feature collection")
	}

	_, err = writer.Write(geojsonBytes)
	if err != nil {
		return errors.Wrap(err, "Unable to write GeoJSON")
	}

	return nil
}

// IdResult is the JSON representation of a query result.
type IdResult struct {
	Ids []trajectory.ID `json:"ids"`
}

// WriteIdsAsJson writes the IDs in ascending order as JSON object of the form {"ids":[...]}.
func WriteIdsAsJson(ids trajectory.IDSet, writer io.Writer) error {
	err := json.NewEncoder(writer).Encode(IdResult{Ids: ids.Sorted()})
	if err != nil {
		return errors.Wrap(err, "Unable to write IDs as JSON")
	}
	return nil
}
