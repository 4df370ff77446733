package importing

import (
	"strings"
	"time"

	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"trajgrid/index"
	"trajgrid/trajectory"
)

// Dataset contains all trajectories of an input file together with the bounding box of all their samples.
type Dataset struct {
	Trajectories []*trajectory.Trajectory
	Bound        orb.Bound
}

func NewDataset(trajectories []*trajectory.Trajectory) *Dataset {
	dataset := &Dataset{
		Trajectories: trajectories,
	}

	boundInitialized := false
	for _, t := range trajectories {
		if len(t.TgPairs) == 0 {
			continue
		}
		if !boundInitialized {
			dataset.Bound = t.Bound()
			boundInitialized = true
		} else {
			dataset.Bound = dataset.Bound.Union(t.Bound())
		}
	}

	return dataset
}

// Import reads the trajectories of the given file. Supported are OSM files (.osm, .pbf) and tab separated files
// (.tsv, .csv, .txt, optionally gzipped).
func Import(inputFile string) (*Dataset, error) {
	sigolo.Infof("Start import of file %s", inputFile)
	importStartTime := time.Now()

	var trajectories []*trajectory.Trajectory
	var err error

	switch {
	case isOsmFile(inputFile):
		trajectories, err = ReadOsmFile(inputFile)
	case isTsvFile(inputFile):
		trajectories, err = ReadTsvFile(inputFile)
	default:
		return nil, errors.Errorf("Unsupported input file %s, expected .osm, .pbf, .tsv, .csv or .txt file (optionally with .gz suffix)", inputFile)
	}
	if err != nil {
		return nil, err
	}

	dataset := NewDataset(trajectories)
	sigolo.Infof("Finished import of %d trajectories in %s", len(dataset.Trajectories), time.Since(importStartTime))

	return dataset, nil
}

func isTsvFile(filename string) bool {
	filename = strings.TrimSuffix(filename, ".gz")
	return strings.HasSuffix(filename, ".tsv") || strings.HasSuffix(filename, ".csv") || strings.HasSuffix(filename, ".txt")
}

// BuildIndex creates a grid index and inserts all trajectories of the dataset. The grid covers the given frame or,
// when frame is nil, the bound of the dataset.
func BuildIndex(dataset *Dataset, cellWidth float64, cellHeight float64, frame *orb.Bound, options ...index.GridOption) (*index.GridIndex, error) {
	bound := dataset.Bound
	if frame != nil {
		bound = *frame
	}

	gridIndex, err := index.NewGridIndexForBound(bound, cellWidth, cellHeight, options...)
	if err != nil {
		return nil, err
	}

	sigolo.Infof("Insert %d trajectories into grid index", len(dataset.Trajectories))
	insertStartTime := time.Now()

	progressStep := max(len(dataset.Trajectories)/10, 1)
	for i, t := range dataset.Trajectories {
		err = gridIndex.Insert(t)
		if err != nil {
			return nil, errors.Wrapf(err, "Unable to insert trajectory %d into grid index", t.ID)
		}

		if (i+1)%progressStep == 0 {
			sigolo.Debugf("Processed %.0f%% (%d/%d trajectories)", float64(i+1)/float64(len(dataset.Trajectories))*100, i+1, len(dataset.Trajectories))
		}
	}

	sigolo.Infof("Inserted %d trajectories with %d interval entries in %s", gridIndex.TrajectoryCount(), gridIndex.Len(), time.Since(insertStartTime))

	return gridIndex, nil
}
