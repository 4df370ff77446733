package web

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"trajgrid/index"
)

const (
	routeLabel  = "route"
	methodLabel = "method"
	statusLabel = "status"
	cachedLabel = "cached"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trajgrid_http_requests_total",
		Help: "The number of handled HTTP requests.",
	}, []string{
		routeLabel,
		methodLabel,
		statusLabel,
	})

	queryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trajgrid_query_duration_seconds",
		Help:    "The time to answer a query, including parsing.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
	}, []string{
		cachedLabel,
	})

	queryResultSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "trajgrid_query_result_size",
		Help:    "The number of trajectory IDs returned by a query.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	})

	indexEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "trajgrid_index_entries",
		Help: "The number of interval entries in all cells of the grid index.",
	})

	indexTrajectories = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "trajgrid_index_trajectories",
		Help: "The number of trajectories with at least one entry in the grid index.",
	})
)

func instrumentRequest(route string, method string, status int) {
	httpRequests.With(prometheus.Labels{
		routeLabel:  route,
		methodLabel: method,
		statusLabel: strconv.Itoa(status),
	}).Inc()
}

func instrumentQuery(start time.Time, cached bool, resultSize int) {
	queryLatency.With(prometheus.Labels{
		cachedLabel: strconv.FormatBool(cached),
	}).Observe(time.Since(start).Seconds())

	queryResultSize.Observe(float64(resultSize))
}

// instrumentIndex updates the index gauges. The caller must hold at least a read lock on the index.
func instrumentIndex(gridIndex *index.GridIndex) {
	indexEntries.Set(float64(gridIndex.Len()))
	indexTrajectories.Set(float64(gridIndex.TrajectoryCount()))
}
