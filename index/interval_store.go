package index

import (
	"math"
	"sort"
	"time"

	"github.com/Workiva/go-datastructures/augmentedtree"
	"trajgrid/trajectory"
)

// IntervalEntry is the time range a trajectory spent (at least partially) within a cell.
type IntervalEntry struct {
	Start        time.Time
	End          time.Time
	TrajectoryID trajectory.ID
}

// interval is the tree representation of an IntervalEntry. Times are stored as Unix nanoseconds. The id is unique
// within one store, which allows equal entries to coexist in the tree.
type interval struct {
	start        int64
	end          int64
	trajectoryId trajectory.ID
	id           uint64
}

func (i *interval) LowAtDimension(uint64) int64 {
	return i.start
}

func (i *interval) HighAtDimension(uint64) int64 {
	return i.end
}

// OverlapsAtDimension uses closed intervals, so touching intervals overlap.
func (i *interval) OverlapsAtDimension(other augmentedtree.Interval, dimension uint64) bool {
	return i.end >= other.LowAtDimension(dimension) && i.start <= other.HighAtDimension(dimension)
}

func (i *interval) ID() uint64 {
	return i.id
}

func (i *interval) toEntry() IntervalEntry {
	return IntervalEntry{
		Start:        time.Unix(0, i.start).UTC(),
		End:          time.Unix(0, i.end).UTC(),
		TrajectoryID: i.trajectoryId,
	}
}

// IntervalStore holds the interval entries of one grid cell. Overlap queries are answered by an augmented interval
// tree, the entries per trajectory are additionally kept in a map for removal. The store is not safe for concurrent
// modification.
type IntervalStore struct {
	tree           augmentedtree.Tree
	trajectoryMap  map[trajectory.ID][]*interval
	nextIntervalId uint64
}

func NewIntervalStore() *IntervalStore {
	return &IntervalStore{
		tree:          augmentedtree.New(1),
		trajectoryMap: map[trajectory.ID][]*interval{},
	}
}

// Add inserts a new entry. Adding the same entry twice results in two entries.
func (s *IntervalStore) Add(start time.Time, end time.Time, id trajectory.ID) {
	newInterval := &interval{
		start:        toUnixNano(start),
		end:          toUnixNano(end),
		trajectoryId: id,
		id:           s.nextIntervalId,
	}
	s.nextIntervalId++

	s.tree.Add(newInterval)
	s.trajectoryMap[id] = append(s.trajectoryMap[id], newInterval)
}

// RemoveAll removes all entries of the given trajectory and returns the number of removed entries.
func (s *IntervalStore) RemoveAll(id trajectory.ID) int {
	intervals, ok := s.trajectoryMap[id]
	if !ok {
		return 0
	}

	treeIntervals := make([]augmentedtree.Interval, len(intervals))
	for i, iv := range intervals {
		treeIntervals[i] = iv
	}
	s.tree.Delete(treeIntervals...)
	delete(s.trajectoryMap, id)

	return len(intervals)
}

// QueryOverlap returns all entries [s, e] with s <= t2 and e >= t1. The bounds of the query are swapped when t1 is
// after t2.
func (s *IntervalStore) QueryOverlap(t1 time.Time, t2 time.Time) []IntervalEntry {
	if s.Len() == 0 {
		return nil
	}

	treeIntervals := s.queryTree(t1, t2)
	defer treeIntervals.Dispose()

	entries := make([]IntervalEntry, 0, len(treeIntervals))
	for _, treeInterval := range treeIntervals {
		entries = append(entries, treeInterval.(*interval).toEntry())
	}
	return entries
}

// QueryOverlapIDs is like QueryOverlap but only collects the trajectory IDs into the given set.
func (s *IntervalStore) QueryOverlapIDs(t1 time.Time, t2 time.Time, result trajectory.IDSet) {
	if s.Len() == 0 {
		return
	}

	treeIntervals := s.queryTree(t1, t2)
	defer treeIntervals.Dispose()

	for _, treeInterval := range treeIntervals {
		result.Add(treeInterval.(*interval).trajectoryId)
	}
}

// queryTree returns the tree intervals overlapping [t1, t2]. Query bounds outside of the supported time range are
// clamped to it. The result must be disposed.
func (s *IntervalStore) queryTree(t1 time.Time, t2 time.Time) augmentedtree.Intervals {
	if t1.After(t2) {
		t1, t2 = t2, t1
	}
	return s.tree.Query(&interval{start: toUnixNano(t1), end: toUnixNano(t2)})
}

// toUnixNano is time.UnixNano with clamping to [trajectory.MinTime, trajectory.MaxTime], since UnixNano is
// undefined outside of this range.
func toUnixNano(t time.Time) int64 {
	if t.Before(trajectory.MinTime) {
		return math.MinInt64
	}
	if t.After(trajectory.MaxTime) {
		return math.MaxInt64
	}
	return t.UnixNano()
}

// IterateAll returns all entries of this store ordered by start time, trajectory and end time.
func (s *IntervalStore) IterateAll() []IntervalEntry {
	entries := make([]IntervalEntry, 0, s.Len())
	for _, intervals := range s.trajectoryMap {
		for _, iv := range intervals {
			entries = append(entries, iv.toEntry())
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Start.Equal(entries[j].Start) {
			return entries[i].Start.Before(entries[j].Start)
		}
		if entries[i].TrajectoryID != entries[j].TrajectoryID {
			return entries[i].TrajectoryID < entries[j].TrajectoryID
		}
		return entries[i].End.Before(entries[j].End)
	})

	return entries
}

// IDs adds the IDs of all trajectories having at least one entry in this store to the given set.
func (s *IntervalStore) IDs(result trajectory.IDSet) {
	for id := range s.trajectoryMap {
		result.Add(id)
	}
}

func (s *IntervalStore) Has(id trajectory.ID) bool {
	_, ok := s.trajectoryMap[id]
	return ok
}

func (s *IntervalStore) Len() int {
	return int(s.tree.Len())
}
