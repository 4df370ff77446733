package trajectory

import (
	"fmt"
	"math"
	"time"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

type ID int64

// MinTime and MaxTime limit the timestamps of samples to what fits into int64 Unix nanoseconds.
var (
	MinTime = time.Unix(0, math.MinInt64).UTC()
	MaxTime = time.Unix(0, math.MaxInt64).UTC()
)

// IsSupportedTime returns true when the given time is within [MinTime, MaxTime].
func IsSupportedTime(t time.Time) bool {
	return !t.Before(MinTime) && !t.After(MaxTime)
}

// TgPair is one sample of a trajectory: the location of the moving object at a certain time.
type TgPair struct {
	Time  time.Time
	Point orb.Point
}

// Trajectory is an ordered sequence of samples. The timestamps of the samples are expected to strictly increase.
type Trajectory struct {
	ID      ID
	TgPairs []TgPair
}

func NewTrajectory(id ID, tgPairs ...TgPair) *Trajectory {
	return &Trajectory{
		ID:      id,
		TgPairs: tgPairs,
	}
}

// Segment is the movement between two consecutive samples of a trajectory.
type Segment struct {
	Start time.Time
	End   time.Time
	From  orb.Point
	To    orb.Point
}

// Bound returns the combined extent of both endpoints. The actual path between the samples is unknown and therefore
// approximated by this box.
func (s Segment) Bound() orb.Bound {
	return s.From.Bound().Extend(s.To)
}

func (s Segment) String() string {
	return fmt.Sprintf("[%s %v -> %s %v]", s.Start.Format(time.RFC3339Nano), s.From, s.End.Format(time.RFC3339Nano), s.To)
}

// Segments returns the k-1 segments of a trajectory with k samples. Trajectories with less than two samples have no
// segments.
func (t *Trajectory) Segments() []Segment {
	if len(t.TgPairs) < 2 {
		return nil
	}

	segments := make([]Segment, 0, len(t.TgPairs)-1)
	for i := 0; i < len(t.TgPairs)-1; i++ {
		start, end := t.TgPairs[i], t.TgPairs[i+1]
		segments = append(segments, Segment{
			Start: start.Time,
			End:   end.Time,
			From:  start.Point,
			To:    end.Point,
		})
	}
	return segments
}

// Validate returns an error when the timestamps of the samples do not strictly increase or are outside of
// [MinTime, MaxTime].
func (t *Trajectory) Validate() error {
	for i, pair := range t.TgPairs {
		if !IsSupportedTime(pair.Time) {
			return errors.Errorf("Timestamp %s of sample %d is outside the supported range from %s to %s", pair.Time.Format(time.RFC3339Nano), i, MinTime.Format(time.RFC3339Nano), MaxTime.Format(time.RFC3339Nano))
		}
	}

	for i := 1; i < len(t.TgPairs); i++ {
		previous := t.TgPairs[i-1].Time
		current := t.TgPairs[i].Time
		if !current.After(previous) {
			return errors.Errorf("Timestamp %s of sample %d is not after timestamp %s of sample %d", current.Format(time.RFC3339Nano), i, previous.Format(time.RFC3339Nano), i-1)
		}
	}
	return nil
}

// Bound returns the bounding box of all samples. An empty trajectory has an empty bound at the origin.
func (t *Trajectory) Bound() orb.Bound {
	if len(t.TgPairs) == 0 {
		return orb.Bound{}
	}

	bound := t.TgPairs[0].Point.Bound()
	for _, pair := range t.TgPairs[1:] {
		bound = bound.Extend(pair.Point)
	}
	return bound
}

func (t *Trajectory) String() string {
	return fmt.Sprintf("Trajectory %d: %d points", t.ID, len(t.TgPairs))
}
