package index

import (
	"testing"
	"time"

	"trajgrid/trajectory"
	"trajgrid/util"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func at(seconds int) time.Time {
	return t0.Add(time.Duration(seconds) * time.Second)
}

func TestIntervalStore_addAndIterateAll(t *testing.T) {
	// Arrange
	store := NewIntervalStore()

	// Act
	store.Add(at(10), at(20), 2)
	store.Add(at(0), at(5), 1)
	store.Add(at(10), at(20), 2)

	// Assert
	util.AssertEqual(t, 3, store.Len())
	util.AssertEqual(t, []IntervalEntry{
		{Start: at(0), End: at(5), TrajectoryID: 1},
		{Start: at(10), End: at(20), TrajectoryID: 2},
		{Start: at(10), End: at(20), TrajectoryID: 2},
	}, store.IterateAll())
}

func TestIntervalStore_removeAll(t *testing.T) {
	// Arrange
	store := NewIntervalStore()
	store.Add(at(0), at(5), 1)
	store.Add(at(5), at(10), 1)
	store.Add(at(5), at(10), 1)
	store.Add(at(3), at(8), 2)

	// Act
	removed := store.RemoveAll(1)

	// Assert
	util.AssertEqual(t, 3, removed)
	util.AssertEqual(t, 1, store.Len())
	util.AssertFalse(t, store.Has(1))
	util.AssertTrue(t, store.Has(2))
	util.AssertEqual(t, []IntervalEntry{{Start: at(3), End: at(8), TrajectoryID: 2}}, store.QueryOverlap(at(0), at(100)))

	util.AssertEqual(t, 0, store.RemoveAll(1))
	util.AssertEqual(t, 0, store.RemoveAll(42))
}

func TestIntervalStore_queryOverlapIsInclusive(t *testing.T) {
	// Arrange
	store := NewIntervalStore()
	store.Add(at(10), at(20), 1)

	// Act & Assert
	util.AssertEqual(t, 1, len(store.QueryOverlap(at(20), at(30))))
	util.AssertEqual(t, 1, len(store.QueryOverlap(at(0), at(10))))
	util.AssertEqual(t, 1, len(store.QueryOverlap(at(12), at(15))))
	util.AssertEqual(t, 1, len(store.QueryOverlap(at(0), at(30))))
	util.AssertEqual(t, 1, len(store.QueryOverlap(at(20), at(20))))

	util.AssertEqual(t, 0, len(store.QueryOverlap(at(0), at(9))))
	util.AssertEqual(t, 0, len(store.QueryOverlap(at(21), at(30))))
	util.AssertEqual(t, 0, len(store.QueryOverlap(t0.Add(20*time.Second+time.Nanosecond), at(30))))
}

func TestIntervalStore_queryOverlapWithSwappedBounds(t *testing.T) {
	store := NewIntervalStore()
	store.Add(at(10), at(20), 1)

	util.AssertEqual(t, 1, len(store.QueryOverlap(at(15), at(5))))
}

func TestIntervalStore_queryOverlapManyEntries(t *testing.T) {
	// Arrange
	store := NewIntervalStore()
	for i := 0; i < 100; i++ {
		store.Add(at(i*10), at(i*10+5), trajectory.ID(i))
	}

	// Act
	entries := store.QueryOverlap(at(203), at(230))
	ids := trajectory.IDSet{}
	store.QueryOverlapIDs(at(203), at(230), ids)

	// Assert
	util.AssertEqual(t, 4, len(entries))
	util.AssertEqual(t, []trajectory.ID{20, 21, 22, 23}, ids.Sorted())
}

func TestIntervalStore_queryOverlapMatchesLinearScan(t *testing.T) {
	// Arrange
	store := NewIntervalStore()
	var all []IntervalEntry
	for i := 0; i < 200; i++ {
		start := (i * 37) % 500
		end := start + (i*13)%60
		store.Add(at(start), at(end), trajectory.ID(i%17))
		all = append(all, IntervalEntry{Start: at(start), End: at(end), TrajectoryID: trajectory.ID(i % 17)})
	}

	for q := 0; q < 500; q += 23 {
		t1, t2 := at(q), at(q+15)

		expected := trajectory.IDSet{}
		expectedCount := 0
		for _, entry := range all {
			if !entry.Start.After(t2) && !entry.End.Before(t1) {
				expected.Add(entry.TrajectoryID)
				expectedCount++
			}
		}

		// Act
		actual := trajectory.IDSet{}
		store.QueryOverlapIDs(t1, t2, actual)

		// Assert
		util.AssertEqual(t, expectedCount, len(store.QueryOverlap(t1, t2)))
		util.AssertEqual(t, expected.Sorted(), actual.Sorted())
	}
}

func TestIntervalStore_emptyStore(t *testing.T) {
	store := NewIntervalStore()

	util.AssertEqual(t, 0, store.Len())
	util.AssertEqual(t, 0, len(store.QueryOverlap(at(0), at(100))))
	util.AssertEqual(t, 0, len(store.IterateAll()))

	ids := trajectory.IDSet{}
	store.IDs(ids)
	util.AssertEqual(t, 0, len(ids))
}

func TestIntervalStore_queryOverlapBeyondSupportedTimeRange(t *testing.T) {
	// Arrange
	store := NewIntervalStore()
	store.Add(at(0), at(3600), 1)
	farPast := time.Date(1600, 1, 1, 0, 0, 0, 0, time.UTC)
	farFuture := time.Date(3000, 1, 1, 0, 0, 0, 0, time.UTC)

	// Act & Assert
	ids := trajectory.IDSet{}
	store.QueryOverlapIDs(at(-3600), farFuture, ids)
	util.AssertContains(t, ids, 1)

	ids = trajectory.IDSet{}
	store.QueryOverlapIDs(farPast, at(0), ids)
	util.AssertContains(t, ids, 1)

	util.AssertEqual(t, 1, len(store.QueryOverlap(time.Time{}, farFuture)))
	util.AssertEqual(t, 1, len(store.QueryOverlap(farFuture, farPast)))
	util.AssertEqual(t, 0, len(store.QueryOverlap(at(3601), farFuture)))
	util.AssertEqual(t, 0, len(store.QueryOverlap(farPast, at(-1))))
}
