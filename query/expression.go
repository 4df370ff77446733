package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/hauke96/sigolo/v2"
	"trajgrid/index"
	"trajgrid/trajectory"
)

type LogicalOperator int

const (
	LogicOpAnd LogicalOperator = iota
	LogicOpOr
)

func (o LogicalOperator) String() string {
	switch o {
	case LogicOpAnd:
		return andKeyword
	case LogicOpOr:
		return orKeyword
	}
	return fmt.Sprintf("!! INVALID LOGICAL OPERATOR %d !!", o)
}

// Expression is a node of a parsed query. Evaluating it yields the IDs of all matching trajectories.
type Expression interface {
	Evaluate(gridIndex *index.GridIndex) trajectory.IDSet
	String() string
	Print(indent int)
}

type SpatialExpression struct {
	x1, y1, x2, y2 float64
}

func NewSpatialExpression(x1, y1, x2, y2 float64) *SpatialExpression {
	return &SpatialExpression{x1: x1, y1: y1, x2: x2, y2: y2}
}

func (e SpatialExpression) Evaluate(gridIndex *index.GridIndex) trajectory.IDSet {
	return gridIndex.SpatialWindowQuery(e.x1, e.y1, e.x2, e.y2)
}

func (e SpatialExpression) String() string {
	return fmt.Sprintf("%s(%g, %g, %g, %g)", spatialKeyword, e.x1, e.y1, e.x2, e.y2)
}

func (e SpatialExpression) Print(indent int) {
	sigolo.Debugf("%s%s", spacing(indent), e.String())
}

type TemporalExpression struct {
	t1, t2 time.Time
}

func NewTemporalExpression(t1, t2 time.Time) *TemporalExpression {
	return &TemporalExpression{t1: t1, t2: t2}
}

func (e TemporalExpression) Evaluate(gridIndex *index.GridIndex) trajectory.IDSet {
	return gridIndex.TemporalWindowQuery(e.t1, e.t2)
}

func (e TemporalExpression) String() string {
	return fmt.Sprintf("%s(%s, %s)", temporalKeyword, formatTime(e.t1), formatTime(e.t2))
}

func (e TemporalExpression) Print(indent int) {
	sigolo.Debugf("%s%s", spacing(indent), e.String())
}

type SpatiotemporalExpression struct {
	x1, y1, x2, y2 float64
	t1, t2         time.Time
}

func NewSpatiotemporalExpression(x1, y1, x2, y2 float64, t1, t2 time.Time) *SpatiotemporalExpression {
	return &SpatiotemporalExpression{x1: x1, y1: y1, x2: x2, y2: y2, t1: t1, t2: t2}
}

func (e SpatiotemporalExpression) Evaluate(gridIndex *index.GridIndex) trajectory.IDSet {
	return gridIndex.SpatiotemporalWindowQuery(e.x1, e.y1, e.x2, e.y2, e.t1, e.t2)
}

func (e SpatiotemporalExpression) String() string {
	return fmt.Sprintf("%s(%g, %g, %g, %g, %s, %s)", spatiotemporalKeyword, e.x1, e.y1, e.x2, e.y2, formatTime(e.t1), formatTime(e.t2))
}

func (e SpatiotemporalExpression) Print(indent int) {
	sigolo.Debugf("%s%s", spacing(indent), e.String())
}

// LogicalExpression combines the results of two expressions. AND intersects both results, OR unites them.
type LogicalExpression struct {
	expressionA Expression
	expressionB Expression
	operator    LogicalOperator
}

func NewLogicalExpression(expressionA Expression, expressionB Expression, operator LogicalOperator) *LogicalExpression {
	return &LogicalExpression{
		expressionA: expressionA,
		expressionB: expressionB,
		operator:    operator,
	}
}

func (e LogicalExpression) Evaluate(gridIndex *index.GridIndex) trajectory.IDSet {
	resultA := e.expressionA.Evaluate(gridIndex)

	if e.operator == LogicOpAnd {
		if len(resultA) == 0 {
			// Early exit, the intersection would be empty anyway
			return resultA
		}
		return resultA.Intersect(e.expressionB.Evaluate(gridIndex))
	}

	return resultA.Union(e.expressionB.Evaluate(gridIndex))
}

func (e LogicalExpression) String() string {
	return fmt.Sprintf("(%s %s %s)", e.expressionA.String(), e.operator.String(), e.expressionB.String())
}

func (e LogicalExpression) Print(indent int) {
	sigolo.Debugf("%s%s", spacing(indent), e.operator.String())
	e.expressionA.Print(indent + 2)
	e.expressionB.Print(indent + 2)
}

func formatTime(t time.Time) string {
	return fmt.Sprintf("%q", t.UTC().Format(time.RFC3339Nano))
}

func spacing(indent int) string {
	return strings.Repeat(" ", indent)
}
