package query

import (
	"time"

	"github.com/hauke96/sigolo/v2"
	"github.com/pkg/errors"
	"trajgrid/index"
	"trajgrid/trajectory"
	"trajgrid/util"
)

type Query struct {
	expression Expression
}

func NewQuery(expression Expression) *Query {
	return &Query{expression: expression}
}

// String returns the normalized form of the query with explicit parentheses around every logical expression.
func (q *Query) String() string {
	return q.expression.String()
}

// Execute evaluates the query against the given grid index. The grid index must not be modified during the
// execution.
func (q *Query) Execute(gridIndex *index.GridIndex) (trajectory.IDSet, error) {
	if gridIndex == nil {
		return nil, errors.New("Unable to execute query without grid index")
	}

	sigolo.Debug("Start query")
	queryStartTime := time.Now()
	if sigolo.ShouldLogTrace() {
		q.expression.Print(0)
	}

	result := q.expression.Evaluate(gridIndex)

	util.LogDuration(queryStartTime, "Query with %d results", len(result))

	return result, nil
}
