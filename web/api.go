package web

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"trajgrid/index"
	ownIo "trajgrid/io"
	"trajgrid/query"
	"trajgrid/trajectory"
)

const (
	maxLengthOfPrintedQuery = 10000
	maxRequestBodySize      = 32 * 1024 * 1024
	DefaultCacheSize        = 1000
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details error  `json:"details"`
}

func NewErrorResponse(message string, err error) ErrorResponse {
	return ErrorResponse{
		Error:   message,
		Details: err,
	}
}

// TrajectoryRequest is the body of a request inserting a trajectory.
type TrajectoryRequest struct {
	ID      trajectory.ID   `json:"id"`
	Samples []SampleRequest `json:"samples"`
}

type SampleRequest struct {
	Time time.Time `json:"time"`
	X    float64   `json:"x"`
	Y    float64   `json:"y"`
}

func (r TrajectoryRequest) toTrajectory() *trajectory.Trajectory {
	t := trajectory.NewTrajectory(r.ID)
	for _, sample := range r.Samples {
		t.TgPairs = append(t.TgPairs, trajectory.TgPair{
			Time:  sample.Time,
			Point: orb.Point{sample.X, sample.Y},
		})
	}
	return t
}

// Server serves the grid index via HTTP. Queries take a read lock on the index, modifications a write lock. Query
// results are cached until the next modification.
type Server struct {
	gridIndex      *index.GridIndex
	gridIndexMutex *sync.RWMutex
	cache          *lruResultCache
	router         *mux.Router
}

func NewServer(gridIndex *index.GridIndex, cacheSize int) *Server {
	s := &Server{
		gridIndex:      gridIndex,
		gridIndexMutex: &sync.RWMutex{},
		cache:          newLruResultCache(cacheSize),
	}
	s.router = s.initRouter()

	instrumentIndex(gridIndex)

	return s
}

func (s *Server) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	s.router.ServeHTTP(writer, request)
}

func StartServer(port string, server *Server) {
	sigolo.Infof("Start server without TLS support on port %s", port)
	err := http.ListenAndServe(":"+port, server)
	sigolo.FatalCheck(err)
}

func StartServerTls(port string, certFile string, keyFile string, server *Server) {
	sigolo.Infof("Start server with TLS support on port %s", port)
	err := http.ListenAndServeTLS(":"+port, certFile, keyFile, server)
	sigolo.FatalCheck(err)
}

func (s *Server) initRouter() *mux.Router {
	r := mux.NewRouter()
	r.Use(metricsMiddleware)

	r.HandleFunc("/query", s.handleQuery).Methods(http.MethodPost)
	r.HandleFunc("/trajectories", s.handlePutTrajectory).Methods(http.MethodPut)
	r.HandleFunc("/trajectories/{id}", s.handleDeleteTrajectory).Methods(http.MethodDelete)
	r.HandleFunc("/grid", s.handleGetGrid).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return r
}

func (s *Server) handleQuery(writer http.ResponseWriter, request *http.Request) {
	writer.Header().Set("Access-Control-Allow-Origin", "*")
	writer.Header().Set("Content-Type", "application/json")
	queryStartTime := time.Now()

	queryBytes, err := io.ReadAll(io.LimitReader(request.Body, maxRequestBodySize))
	if err != nil {
		sigolo.Errorf("Error reading HTTP body of request to '/query': %+v", err)
		writeErrorResponse(writer, http.StatusInternalServerError, "Error reading HTTP body.", nil)
		return
	}

	queryString := string(queryBytes)

	trimmedQueryString := queryString
	queryRunes := []rune(queryString)
	if len(queryRunes) > maxLengthOfPrintedQuery {
		trimmedQueryString = string(queryRunes[:maxLengthOfPrintedQuery]) + "... [truncated]"
	}
	sigolo.Infof("Query:\n%s", trimmedQueryString)

	queryObj, err := query.ParseQueryString(queryString)
	if err != nil {
		sigolo.Errorf("Error parsing query: %+v", err)
		writeErrorResponse(writer, http.StatusBadRequest, fmt.Sprintf("Error parsing query: %s", err.Error()), err)
		return
	}

	normalizedQueryString := queryObj.String()

	// The lock also covers the cache insertion, so that no modification can clear the cache between executing the
	// query and caching its result.
	s.gridIndexMutex.RLock()
	result, cached := s.cache.get(normalizedQueryString)
	if !cached {
		result, err = queryObj.Execute(s.gridIndex)
		if err == nil {
			s.cache.insert(normalizedQueryString, result)
		}
	}
	s.gridIndexMutex.RUnlock()

	if err != nil {
		sigolo.Errorf("Error executing query: %+v", err)
		writeErrorResponse(writer, http.StatusInternalServerError, fmt.Sprintf("Error executing query: %s", err.Error()), err)
		return
	}

	sigolo.Debugf("Found %d trajectories (cached: %t)", len(result), cached)
	instrumentQuery(queryStartTime, cached, len(result))

	err = ownIo.WriteIdsAsJson(result, writer)
	if err != nil {
		sigolo.Errorf("Error writing query result: %+v", err)
	}
}

// handlePutTrajectory inserts the trajectory of the request. An existing trajectory with the same ID is replaced.
func (s *Server) handlePutTrajectory(writer http.ResponseWriter, request *http.Request) {
	writer.Header().Set("Access-Control-Allow-Origin", "*")

	var trajectoryRequest TrajectoryRequest
	decoder := json.NewDecoder(io.LimitReader(request.Body, maxRequestBodySize))
	decoder.DisallowUnknownFields()
	err := decoder.Decode(&trajectoryRequest)
	if err != nil {
		sigolo.Errorf("Error decoding trajectory: %+v", err)
		writeErrorResponse(writer, http.StatusBadRequest, fmt.Sprintf("Error decoding trajectory: %s", err.Error()), nil)
		return
	}

	t := trajectoryRequest.toTrajectory()

	// Validate before anything is deleted, so that an invalid request leaves the index unchanged.
	err = t.Validate()
	if err != nil {
		sigolo.Errorf("Invalid trajectory %d: %+v", t.ID, err)
		writeErrorResponse(writer, http.StatusBadRequest, fmt.Sprintf("Invalid trajectory %d: %s", t.ID, err.Error()), nil)
		return
	}

	s.gridIndexMutex.Lock()
	removedEntries := s.gridIndex.Delete(t.ID)
	err = s.gridIndex.Insert(t)
	s.cache.clear()
	instrumentIndex(s.gridIndex)
	s.gridIndexMutex.Unlock()

	if err != nil {
		sigolo.Errorf("Error inserting trajectory %d: %+v", t.ID, err)
		status := http.StatusInternalServerError
		var invalidTrajectoryError *index.InvalidTrajectoryError
		if errors.As(err, &invalidTrajectoryError) {
			status = http.StatusBadRequest
		}
		writeErrorResponse(writer, status, fmt.Sprintf("Error inserting trajectory %d: %s", t.ID, err.Error()), nil)
		return
	}

	sigolo.Debugf("Inserted trajectory %d with %d samples, replaced %d entries", t.ID, len(t.TgPairs), removedEntries)
	writer.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteTrajectory(writer http.ResponseWriter, request *http.Request) {
	writer.Header().Set("Access-Control-Allow-Origin", "*")

	idString := mux.Vars(request)["id"]
	id, err := strconv.ParseInt(idString, 10, 64)
	if err != nil {
		sigolo.Errorf("Invalid trajectory ID '%s': %+v", idString, err)
		writeErrorResponse(writer, http.StatusBadRequest, fmt.Sprintf("Invalid trajectory ID '%s'", idString), nil)
		return
	}

	s.gridIndexMutex.Lock()
	removedEntries := s.gridIndex.Delete(trajectory.ID(id))
	if removedEntries > 0 {
		s.cache.clear()
		instrumentIndex(s.gridIndex)
	}
	s.gridIndexMutex.Unlock()

	sigolo.Debugf("Deleted trajectory %d with %d entries", id, removedEntries)
	writer.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetGrid(writer http.ResponseWriter, request *http.Request) {
	writer.Header().Set("Access-Control-Allow-Origin", "*")
	writer.Header().Set("Content-Type", "application/geo+json")

	s.gridIndexMutex.RLock()
	defer s.gridIndexMutex.RUnlock()

	err := ownIo.WriteGridAsGeoJson(s.gridIndex, writer)
	if err != nil {
		sigolo.Errorf("Error writing grid: %+v", err)
	}
}

func writeErrorResponse(writer http.ResponseWriter, status int, message string, err error) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)

	errorResponseBytes, err := json.Marshal(NewErrorResponse(message, err))
	if err != nil {
		sigolo.Errorf("Error creating and marshalling error response object: %+v", err)
		return
	}

	_, err = writer.Write(errorResponseBytes)
	if err != nil {
		sigolo.Errorf("Error writing error response: %+v", err)
	}
}

// statusRecorder remembers the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		recorder := &statusRecorder{ResponseWriter: writer, status: http.StatusOK}
		next.ServeHTTP(recorder, request)

		route := request.URL.Path
		if currentRoute := mux.CurrentRoute(request); currentRoute != nil {
			if template, err := currentRoute.GetPathTemplate(); err == nil {
				route = template
			}
		}
		instrumentRequest(route, request.Method, recorder.status)
	})
}
