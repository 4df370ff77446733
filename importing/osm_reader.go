package importing

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"github.com/pkg/errors"
)

type OsmDataHandler interface {
	Name() string
	Init() error
	HandleNode(node *osm.Node) error
	HandleWay(way *osm.Way) error
	Done() error
}

type OsmReader struct {
	firstWayHasBeenProcessed bool
}

func NewOsmReader() *OsmReader {
	return &OsmReader{}
}

// ReadFile reads the given .osm or .pbf file and passes all nodes and ways to the handlers. Relations are ignored.
func (r *OsmReader) ReadFile(filename string, handlers ...OsmDataHandler) error {
	if !isOsmFile(filename) {
		return errors.Errorf("Input file %s must be an .osm or .pbf file", filename)
	}

	file, err := os.Open(filename)
	if err != nil {
		return errors.Wrapf(err, "Unable to open OSM input file %s", filename)
	}
	defer file.Close()

	sigolo.Infof("Start processing OSM data file %s", filename)
	importStartTime := time.Now()

	err = r.Read(file, strings.HasSuffix(filename, ".pbf"), handlers...)
	if err != nil {
		return err
	}

	sigolo.Infof("Done processing OSM data in %s", time.Since(importStartTime))
	return nil
}

// Read reads OSM XML or, when isPbf is set, OSM PBF data from the given reader.
func (r *OsmReader) Read(reader io.Reader, isPbf bool, handlers ...OsmDataHandler) error {
	var scanner osm.Scanner
	if isPbf {
		scanner = osmpbf.New(context.Background(), reader, 1)
	} else {
		scanner = osmxml.New(context.Background(), reader)
	}

	for _, handler := range handlers {
		err := handler.Init()
		if err != nil {
			return errors.Wrapf(err, "Initializing OSM data handler '%s' failed", handler.Name())
		}
	}

	sigolo.Debug("Start processing nodes (1/2)")
	for scanner.Scan() {
		switch osmObj := scanner.Object().(type) {
		case *osm.Node:
			for _, handler := range handlers {
				err := handler.HandleNode(osmObj)
				if err != nil {
					return errors.Wrapf(err, "Handling node %d using handler '%s' failed", osmObj.ID, handler.Name())
				}
			}
		case *osm.Way:
			if !r.firstWayHasBeenProcessed {
				sigolo.Debug("Start processing ways (2/2)")
				r.firstWayHasBeenProcessed = true
			}

			for _, handler := range handlers {
				err := handler.HandleWay(osmObj)
				if err != nil {
					return errors.Wrapf(err, "Handling way %d using handler '%s' failed", osmObj.ID, handler.Name())
				}
			}
		}
	}

	err := scanner.Err()
	if err != nil {
		return errors.Wrap(err, "Unable to scan OSM data")
	}

	for _, handler := range handlers {
		err = handler.Done()
		if err != nil {
			return errors.Wrapf(err, "Calling done function on handler '%s' failed", handler.Name())
		}
	}

	err = scanner.Close()
	if err != nil {
		return errors.Wrapf(err, "Unable to close OSM scanner")
	}

	return nil
}

func isOsmFile(filename string) bool {
	return strings.HasSuffix(filename, ".osm") || strings.HasSuffix(filename, ".pbf")
}
