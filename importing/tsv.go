package importing

import (
	"bufio"
	"compress/gzip"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/pkg/errors"
	"trajgrid/trajectory"
)

const maxTsvLineLength = 1024 * 1024

// ReadTsvFile reads trajectories from a tab separated file. Files ending with ".gz" are decompressed. See ReadTsv for
// the format.
func ReadTsvFile(filename string) ([]*trajectory.Trajectory, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to open TSV input file %s", filename)
	}
	defer file.Close()

	var reader io.Reader = file
	if strings.HasSuffix(filename, ".gz") {
		gzipReader, err := gzip.NewReader(file)
		if err != nil {
			return nil, errors.Wrapf(err, "Unable to create gzip reader for file %s", filename)
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	trajectories, err := ReadTsv(reader)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to read trajectories from file %s", filename)
	}
	return trajectories, nil
}

// ReadTsv reads rows of the form "<id>\t<timestamp>\t<geometry>" where the timestamp is given in milliseconds since
// the Unix epoch and the geometry is a WKT point. Rows belonging to the same ID form one trajectory and are sorted by
// time. When several rows of a trajectory have the same timestamp, only the first one is used. The trajectories are
// returned in the order their IDs first appear.
func ReadTsv(reader io.Reader) ([]*trajectory.Trajectory, error) {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 64*1024), maxTsvLineLength)

	var trajectories []*trajectory.Trajectory
	trajectoryMap := map[trajectory.ID]*trajectory.Trajectory{}

	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		id, pair, err := parseTsvLine(line)
		if err != nil {
			return nil, errors.Wrapf(err, "Invalid TSV line %d", lineNumber)
		}

		t, ok := trajectoryMap[id]
		if !ok {
			t = trajectory.NewTrajectory(id)
			trajectoryMap[id] = t
			trajectories = append(trajectories, t)
		}
		t.TgPairs = append(t.TgPairs, pair)
	}

	err := scanner.Err()
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to read TSV data after line %d", lineNumber)
	}

	duplicates := 0
	for _, t := range trajectories {
		duplicates += sortAndDeduplicate(t)
	}

	sigolo.Debugf("Read %d trajectories from %d lines, dropped %d samples with duplicate timestamps", len(trajectories), lineNumber, duplicates)

	return trajectories, nil
}

func parseTsvLine(line string) (trajectory.ID, trajectory.TgPair, error) {
	columns := strings.Split(line, "\t")
	if len(columns) != 3 {
		return 0, trajectory.TgPair{}, errors.Errorf("Expected 3 tab separated columns but found %d", len(columns))
	}

	id, err := strconv.ParseInt(strings.TrimSpace(columns[0]), 10, 64)
	if err != nil {
		return 0, trajectory.TgPair{}, errors.Wrapf(err, "Unable to parse ID '%s'", columns[0])
	}

	millis, err := strconv.ParseInt(strings.TrimSpace(columns[1]), 10, 64)
	if err != nil {
		return 0, trajectory.TgPair{}, errors.Wrapf(err, "Unable to parse timestamp '%s'", columns[1])
	}

	geometry, err := wkt.Unmarshal(strings.TrimSpace(columns[2]))
	if err != nil {
		return 0, trajectory.TgPair{}, errors.Wrapf(err, "Unable to parse WKT geometry '%s'", columns[2])
	}

	point, ok := geometry.(orb.Point)
	if !ok {
		return 0, trajectory.TgPair{}, errors.Errorf("Expected WKT point but found %s", geometry.GeoJSONType())
	}

	return trajectory.ID(id), trajectory.TgPair{
		Time:  time.UnixMilli(millis).UTC(),
		Point: point,
	}, nil
}

// sortAndDeduplicate sorts the samples by time and removes all but the first sample per timestamp. It returns the
// number of removed samples.
func sortAndDeduplicate(t *trajectory.Trajectory) int {
	sort.SliceStable(t.TgPairs, func(i, j int) bool {
		return t.TgPairs[i].Time.Before(t.TgPairs[j].Time)
	})

	originalLength := len(t.TgPairs)
	deduplicated := t.TgPairs[:0]
	for i, pair := range t.TgPairs {
		if i > 0 && pair.Time.Equal(deduplicated[len(deduplicated)-1].Time) {
			continue
		}
		deduplicated = append(deduplicated, pair)
	}
	t.TgPairs = deduplicated

	return originalLength - len(deduplicated)
}
