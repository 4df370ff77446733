package common

import "github.com/paulmach/orb"

// CellIndex identifies a cell of the grid by its column (x) and row (y). Cell [0,0] is the lower-left cell of the grid.
type CellIndex [2]int

func (c CellIndex) X() int { return c[0] }

func (c CellIndex) Y() int { return c[1] }

func (c CellIndex) isBelowOrLeftOf(other CellIndex) bool {
	return c.X() < other.X() || c.Y() < other.Y()
}

func (c CellIndex) isAboveOrRightOf(other CellIndex) bool {
	return c.X() > other.X() || c.Y() > other.Y()
}

// ToPoint returns the lower-left corner of the cell for a grid starting at the given origin.
func (c CellIndex) ToPoint(origin orb.Point, cellWidth float64, cellHeight float64) orb.Point {
	return orb.Point{origin.X() + float64(c[0])*cellWidth, origin.Y() + float64(c[1])*cellHeight}
}

// ToBound returns the closed rectangle covered by this cell.
func (c CellIndex) ToBound(origin orb.Point, cellWidth float64, cellHeight float64) orb.Bound {
	return CellExtent{c, c}.ToBound(origin, cellWidth, cellHeight)
}

// CellExtent is a rectangular range of cells. Both corner cells are part of the extent.
type CellExtent [2]CellIndex

func (c CellExtent) LowerLeftCell() CellIndex { return c[0] }

func (c CellExtent) UpperRightCell() CellIndex { return c[1] }

func (c CellExtent) IsEmpty() bool {
	return c.LowerLeftCell().X() > c.UpperRightCell().X() || c.LowerLeftCell().Y() > c.UpperRightCell().Y()
}

func (c CellExtent) Contains(cell CellIndex) bool {
	return !cell.isAboveOrRightOf(c.UpperRightCell()) && !cell.isBelowOrLeftOf(c.LowerLeftCell())
}

// Intersection returns the cells contained in both extents. The result might be empty, which can be checked with
// IsEmpty.
func (c CellExtent) Intersection(other CellExtent) CellExtent {
	return CellExtent{
		CellIndex{max(c.LowerLeftCell().X(), other.LowerLeftCell().X()), max(c.LowerLeftCell().Y(), other.LowerLeftCell().Y())},
		CellIndex{min(c.UpperRightCell().X(), other.UpperRightCell().X()), min(c.UpperRightCell().Y(), other.UpperRightCell().Y())},
	}
}

func (c CellExtent) GetCellIndices() []CellIndex {
	if c.IsEmpty() {
		return nil
	}

	width := c.UpperRightCell().X() - c.LowerLeftCell().X() + 1
	height := c.UpperRightCell().Y() - c.LowerLeftCell().Y() + 1
	indices := make([]CellIndex, 0, width*height)

	for x := c.LowerLeftCell().X(); x <= c.UpperRightCell().X(); x++ {
		for y := c.LowerLeftCell().Y(); y <= c.UpperRightCell().Y(); y++ {
			indices = append(indices, CellIndex{x, y})
		}
	}

	return indices
}

func (c CellExtent) ToBound(origin orb.Point, cellWidth float64, cellHeight float64) orb.Bound {
	maxCell := CellIndex{c[1].X() + 1, c[1].Y() + 1}
	return orb.Bound{
		Min: c[0].ToPoint(origin, cellWidth, cellHeight),
		Max: maxCell.ToPoint(origin, cellWidth, cellHeight),
	}
}

func (c CellExtent) ToPolygon(origin orb.Point, cellWidth float64, cellHeight float64) orb.Polygon {
	return c.ToBound(origin, cellWidth, cellHeight).ToPolygon()
}
