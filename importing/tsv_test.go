package importing

import (
	"compress/gzip"
	"os"
	"path"
	"strings"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"trajgrid/trajectory"
	"trajgrid/util"
)

const tsvData = "2\t1714564810000\tPOINT (10 20)\n" +
	"1\t1714564800000\tPOINT (1.5 2.5)\n" +
	"2\t1714564800000\tPOINT (11 21)\n" +
	"\n" +
	"1\t1714564805000\tPOINT (3 4)\n" +
	"2\t1714564810000\tPOINT (99 99)\n"

func TestReadTsv(t *testing.T) {
	// Act
	trajectories, err := ReadTsv(strings.NewReader(tsvData))

	// Assert
	util.AssertNil(t, err)
	util.AssertEqual(t, 2, len(trajectories))

	// Order of first appearance
	util.AssertEqual(t, trajectory.ID(2), trajectories[0].ID)
	util.AssertEqual(t, trajectory.ID(1), trajectories[1].ID)

	// Sorted by time, duplicate timestamp keeps first row
	util.AssertEqual(t, []trajectory.TgPair{
		{Time: time.UnixMilli(1714564800000).UTC(), Point: orb.Point{11, 21}},
		{Time: time.UnixMilli(1714564810000).UTC(), Point: orb.Point{10, 20}},
	}, trajectories[0].TgPairs)
	util.AssertEqual(t, []trajectory.TgPair{
		{Time: time.UnixMilli(1714564800000).UTC(), Point: orb.Point{1.5, 2.5}},
		{Time: time.UnixMilli(1714564805000).UTC(), Point: orb.Point{3, 4}},
	}, trajectories[1].TgPairs)

	for _, trajectory := range trajectories {
		util.AssertNil(t, trajectory.Validate())
	}
}

func TestReadTsv_invalidLines(t *testing.T) {
	for _, line := range []string{
		"1\t1714564800000",
		"a\t1714564800000\tPOINT (1 2)",
		"1\tyesterday\tPOINT (1 2)",
		"1\t1714564800000\tPOINT (1 2",
		"1\t1714564800000\tLINESTRING (1 2, 3 4)",
	} {
		// Act
		trajectories, err := ReadTsv(strings.NewReader("1\t1714564700000\tPOINT (0 0)\n" + line + "\n"))

		// Assert
		util.AssertNotNil(t, err)
		util.AssertTrue(t, strings.Contains(err.Error(), "line 2"))
		util.AssertEqual(t, 0, len(trajectories))
	}
}

func TestReadTsvFile_gzip(t *testing.T) {
	// Arrange
	filename := path.Join(t.TempDir(), "trajectories.tsv.gz")
	file, err := os.Create(filename)
	util.AssertNil(t, err)
	writer := gzip.NewWriter(file)
	_, err = writer.Write([]byte(tsvData))
	util.AssertNil(t, err)
	util.AssertNil(t, writer.Close())
	util.AssertNil(t, file.Close())

	// Act
	trajectories, err := ReadTsvFile(filename)

	// Assert
	util.AssertNil(t, err)
	util.AssertEqual(t, 2, len(trajectories))
	util.AssertEqual(t, 2, len(trajectories[1].TgPairs))
}

func TestReadTsvFile_notExisting(t *testing.T) {
	_, err := ReadTsvFile(path.Join(t.TempDir(), "foo.tsv"))

	util.AssertNotNil(t, err)
}
