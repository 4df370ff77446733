package index

import (
	"math"
	"time"

	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"trajgrid/common"
	"trajgrid/trajectory"
)

// MaxCellCount limits the number of cells of one grid, since all interval stores are allocated upfront.
const MaxCellCount = 1 << 26

// Footprint determines which cells a segment is inserted into.
type Footprint int

const (
	// FootprintEndpoints inserts a segment only into the cells intersecting one of its two endpoints. Cells the
	// object passed between two samples are not covered.
	FootprintEndpoints Footprint = iota
	// FootprintExtent inserts a segment into all cells intersecting the bounding box of its two endpoints.
	FootprintExtent
)

func (f Footprint) String() string {
	switch f {
	case FootprintExtent:
		return "extent"
	case FootprintEndpoints:
		return "endpoints"
	}
	return "unknown"
}

type GridOption func(g *GridIndex)

func WithFootprint(footprint Footprint) GridOption {
	return func(g *GridIndex) {
		g.footprint = footprint
	}
}

// GridIndex partitions a fixed spatial frame into nx*ny cells of equal size. Each cell has an IntervalStore holding
// the time ranges of all trajectory segments intersecting the cell. The index only stores trajectory IDs and time
// ranges, no geometries.
//
// Cell (i,j) covers the rectangle [xmin+i*cellWidth, xmin+(i+1)*cellWidth] x [ymin+j*cellHeight, ymin+(j+1)*cellHeight].
// A geometry touching the border of a cell intersects the cell, for inserted segments as well as for query windows.
//
// The grid index is not safe for concurrent use. Queries may run concurrently with each other but not with Insert or
// Delete.
type GridIndex struct {
	bound      orb.Bound
	cellWidth  float64
	cellHeight float64
	nx         int
	ny         int
	footprint  Footprint
	cells      [][]*IntervalStore // cells[x][y]

	// Reverse index to delete trajectories without scanning all cells.
	trajectoryCells map[trajectory.ID]map[common.CellIndex]struct{}
	entryCount      int
}

// NewGridIndex creates a grid over the frame [xmin, xmax] x [ymin, ymax] with cells of size deltaX x deltaY. The
// number of cells per axis is rounded up, so the last column and row may reach beyond xmax and ymax.
func NewGridIndex(xmin, xmax, ymin, ymax, deltaX, deltaY float64, options ...GridOption) (*GridIndex, error) {
	for _, value := range []float64{xmin, xmax, ymin, ymax, deltaX, deltaY} {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return nil, newConfigurationError("all bounds and cell sizes must be finite numbers but got xmin=%f, xmax=%f, ymin=%f, ymax=%f, deltaX=%f, deltaY=%f", xmin, xmax, ymin, ymax, deltaX, deltaY)
		}
	}
	if xmax <= xmin {
		return nil, newConfigurationError("xmax=%f must be greater than xmin=%f", xmax, xmin)
	}
	if ymax <= ymin {
		return nil, newConfigurationError("ymax=%f must be greater than ymin=%f", ymax, ymin)
	}
	if deltaX <= 0 || deltaY <= 0 {
		return nil, newConfigurationError("cell sizes must be positive but got deltaX=%f and deltaY=%f", deltaX, deltaY)
	}

	nxFloat := math.Ceil((xmax - xmin) / deltaX)
	nyFloat := math.Ceil((ymax - ymin) / deltaY)
	if nxFloat*nyFloat > MaxCellCount {
		return nil, newConfigurationError("grid would have %.0f x %.0f cells, which is more than the maximum of %d cells", nxFloat, nyFloat, MaxCellCount)
	}

	g := &GridIndex{
		bound:           orb.Bound{Min: orb.Point{xmin, ymin}, Max: orb.Point{xmax, ymax}},
		cellWidth:       deltaX,
		cellHeight:      deltaY,
		nx:              int(nxFloat),
		ny:              int(nyFloat),
		footprint:       FootprintEndpoints,
		trajectoryCells: map[trajectory.ID]map[common.CellIndex]struct{}{},
	}
	for _, option := range options {
		option(g)
	}

	g.cells = make([][]*IntervalStore, g.nx)
	for x := 0; x < g.nx; x++ {
		g.cells[x] = make([]*IntervalStore, g.ny)
		for y := 0; y < g.ny; y++ {
			g.cells[x][y] = NewIntervalStore()
		}
	}

	sigolo.Debugf("Created grid index with %dx%d cells of size %fx%f over %v using footprint '%s'", g.nx, g.ny, deltaX, deltaY, g.bound, g.footprint)

	return g, nil
}

// NewGridIndexForBound is like NewGridIndex but takes the frame as bound.
func NewGridIndexForBound(bound orb.Bound, cellWidth float64, cellHeight float64, options ...GridOption) (*GridIndex, error) {
	return NewGridIndex(bound.Min.X(), bound.Max.X(), bound.Min.Y(), bound.Max.Y(), cellWidth, cellHeight, options...)
}

func (g *GridIndex) Bound() orb.Bound { return g.bound }

func (g *GridIndex) CellWidth() float64 { return g.cellWidth }

func (g *GridIndex) CellHeight() float64 { return g.cellHeight }

// Dimensions returns the number of columns and rows of the grid.
func (g *GridIndex) Dimensions() (int, int) { return g.nx, g.ny }

func (g *GridIndex) Footprint() Footprint { return g.footprint }

func (g *GridIndex) origin() orb.Point {
	return g.bound.Min
}

func (g *GridIndex) extent() common.CellExtent {
	return common.CellExtent{common.CellIndex{0, 0}, common.CellIndex{g.nx - 1, g.ny - 1}}
}

// CellBound returns the closed rectangle of the given cell.
func (g *GridIndex) CellBound(cell common.CellIndex) orb.Bound {
	return cell.ToBound(g.origin(), g.cellWidth, g.cellHeight)
}

// Store returns the interval store of the given cell or nil if the cell is not part of the grid.
func (g *GridIndex) Store(cell common.CellIndex) *IntervalStore {
	if !g.extent().Contains(cell) {
		return nil
	}
	return g.cells[cell.X()][cell.Y()]
}

// ForEachCell calls the given function for every cell of the grid, column by column.
func (g *GridIndex) ForEachCell(fn func(cell common.CellIndex, store *IntervalStore)) {
	for x := 0; x < g.nx; x++ {
		for y := 0; y < g.ny; y++ {
			fn(common.CellIndex{x, y}, g.cells[x][y])
		}
	}
}

// Len returns the number of interval entries in all cells.
func (g *GridIndex) Len() int {
	return g.entryCount
}

// TrajectoryCount returns the number of trajectories having at least one entry in the index.
func (g *GridIndex) TrajectoryCount() int {
	return len(g.trajectoryCells)
}

// CellsForBound returns all cells intersecting the given bound. Touching a cell border counts as intersection. The
// result is the same as testing the bound against every cell rectangle, but only the cells within the bound are
// visited.
func (g *GridIndex) CellsForBound(bound orb.Bound) []common.CellIndex {
	return g.cellExtentForBound(bound).GetCellIndices()
}

func (g *GridIndex) cellExtentForBound(bound orb.Bound) common.CellExtent {
	minX, maxX := cellRange(bound.Min.X(), bound.Max.X(), g.origin().X(), g.cellWidth, g.nx)
	minY, maxY := cellRange(bound.Min.Y(), bound.Max.Y(), g.origin().Y(), g.cellHeight, g.ny)
	return common.CellExtent{common.CellIndex{minX, minY}, common.CellIndex{maxX, maxY}}
}

// cellRange determines the first and last of the n closed intervals [origin+i*delta, origin+(i+1)*delta] that
// intersect [a, b]. The returned range is empty (first > last) when no interval intersects.
func cellRange(a float64, b float64, origin float64, delta float64, n int) (int, int) {
	if math.IsNaN(a) || math.IsNaN(b) || a > b {
		return 0, -1
	}

	cellMin := func(i int) float64 {
		return origin + float64(i)*delta
	}

	// Estimate the range and clamp it to avoid overflows for windows far outside the grid.
	first := int(clamp(math.Ceil((a-origin)/delta)-1, -1, float64(n)))
	last := int(clamp(math.Floor((b-origin)/delta), -1, float64(n)))

	// Correct rounding errors of the estimation, so that the result matches the cell borders exactly.
	for first > 0 && cellMin(first) >= a {
		first--
	}
	for first < n && cellMin(first+1) < a {
		first++
	}
	for last < n-1 && cellMin(last+1) <= b {
		last++
	}
	for last >= 0 && cellMin(last) > b {
		last--
	}

	return max(first, 0), min(last, n-1)
}

func clamp(value float64, lower float64, upper float64) float64 {
	return math.Max(lower, math.Min(upper, value))
}

// segmentCells resolves the cells a segment is inserted into according to the footprint of the grid.
func (g *GridIndex) segmentCells(segment trajectory.Segment) []common.CellIndex {
	switch g.footprint {
	case FootprintExtent:
		return g.CellsForBound(segment.Bound())
	default:
		fromExtent := g.cellExtentForBound(segment.From.Bound())
		toExtent := g.cellExtentForBound(segment.To.Bound())
		sharedExtent := fromExtent.Intersection(toExtent)

		cells := fromExtent.GetCellIndices()
		for _, cell := range toExtent.GetCellIndices() {
			if !sharedExtent.Contains(cell) {
				cells = append(cells, cell)
			}
		}
		return cells
	}
}

// Insert adds the segments of the given trajectory to all cells they intersect. Trajectories with less than two
// samples have no segments, so nothing is inserted for them. Trajectories with timestamps that do not strictly
// increase are rejected with an InvalidTrajectoryError before anything is inserted.
//
// Inserting a trajectory with an ID that already exists in the index adds further entries for this ID.
func (g *GridIndex) Insert(t *trajectory.Trajectory) error {
	if t == nil {
		return errors.New("Unable to insert nil trajectory")
	}

	if len(t.TgPairs) < 2 {
		sigolo.Debugf("Trajectory %d has %d samples and therefore no segments, nothing will be inserted", t.ID, len(t.TgPairs))
		return nil
	}

	err := t.Validate()
	if err != nil {
		return newInvalidTrajectoryError(t.ID, err)
	}

	cellsOfTrajectory, ok := g.trajectoryCells[t.ID]
	if !ok {
		cellsOfTrajectory = map[common.CellIndex]struct{}{}
	}

	for _, segment := range t.Segments() {
		cells := g.segmentCells(segment)
		if sigolo.ShouldLogTrace() {
			sigolo.Tracef("Insert segment %s of trajectory %d into %d cells", segment.String(), t.ID, len(cells))
		}

		for _, cell := range cells {
			g.cells[cell.X()][cell.Y()].Add(segment.Start, segment.End, t.ID)
			cellsOfTrajectory[cell] = struct{}{}
			g.entryCount++
		}
	}

	// Segments completely outside the grid do not create entries and the trajectory stays unknown to the index.
	if len(cellsOfTrajectory) > 0 {
		g.trajectoryCells[t.ID] = cellsOfTrajectory
	}

	return nil
}

// Delete removes all entries of the given trajectory from all cells and returns the number of removed entries.
// Deleting an unknown trajectory does nothing.
func (g *GridIndex) Delete(id trajectory.ID) int {
	cellsOfTrajectory, ok := g.trajectoryCells[id]
	if !ok {
		return 0
	}

	removedEntries := 0
	for cell := range cellsOfTrajectory {
		removedEntries += g.cells[cell.X()][cell.Y()].RemoveAll(id)
	}
	delete(g.trajectoryCells, id)
	g.entryCount -= removedEntries

	sigolo.Debugf("Deleted %d entries in %d cells of trajectory %d", removedEntries, len(cellsOfTrajectory), id)

	return removedEntries
}

// SpatialWindowQuery returns the IDs of all trajectories with entries in the cells intersecting the window spanned by
// the two corners (x1, y1) and (x2, y2). The time of the entries is not considered. This is a filter on cell level,
// the trajectories are not tested against the exact window.
func (g *GridIndex) SpatialWindowQuery(x1, y1, x2, y2 float64) trajectory.IDSet {
	result := trajectory.IDSet{}
	for _, cell := range g.CellsForBound(windowBound(x1, y1, x2, y2)) {
		g.cells[cell.X()][cell.Y()].IDs(result)
	}
	return result
}

// TemporalWindowQuery returns the IDs of all trajectories with an entry overlapping [t1, t2] in any cell.
func (g *GridIndex) TemporalWindowQuery(t1, t2 time.Time) trajectory.IDSet {
	result := trajectory.IDSet{}
	g.ForEachCell(func(_ common.CellIndex, store *IntervalStore) {
		store.QueryOverlapIDs(t1, t2, result)
	})
	return result
}

// SpatiotemporalWindowQuery intersects the results of the spatial and the temporal window query. Both queries are
// evaluated independently, so a trajectory matches when it was within the window at some time and was anywhere in
// the grid during [t1, t2], not necessarily within the window during [t1, t2].
func (g *GridIndex) SpatiotemporalWindowQuery(x1, y1, x2, y2 float64, t1, t2 time.Time) trajectory.IDSet {
	spatialResult := g.SpatialWindowQuery(x1, y1, x2, y2)
	if len(spatialResult) == 0 {
		return spatialResult
	}
	return spatialResult.Intersect(g.TemporalWindowQuery(t1, t2))
}

// windowBound creates the bound spanned by two corners given in any order.
func windowBound(x1, y1, x2, y2 float64) orb.Bound {
	return orb.Bound{
		Min: orb.Point{math.Min(x1, x2), math.Min(y1, y2)},
		Max: orb.Point{math.Max(x1, x2), math.Max(y1, y2)},
	}
}
