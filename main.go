package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"trajgrid/importing"
	"trajgrid/index"
	ownIo "trajgrid/io"
	"trajgrid/query"
	"trajgrid/trajectory"
	"trajgrid/util"
	"trajgrid/web"
)

const VERSION = "v0.1.0"

type IndexFlags struct {
	Input     string    `help:"The input file. Either .osm, .pbf or a tab separated file (.tsv, .csv, .txt, optionally .gz)." placeholder:"<input-file>" short:"i" required:"" type:"existingfile"`
	CellSize  float64   `help:"The width and height of the grid cells." default:"0.1" env:"TRAJGRID_CELL_SIZE"`
	Bounds    []float64 `help:"The frame of the grid as xmin,xmax,ymin,ymax. Defaults to the bound of the input data." placeholder:"xmin,xmax,ymin,ymax" sep:","`
	Footprint string    `help:"The cells a segment is inserted into: only the cells of its endpoints or all cells of its bounding box." enum:"endpoints,extent" default:"endpoints"`
}

var cli struct {
	Logging string      `help:"Logging verbosity." enum:"info,debug,trace" short:"l" default:"info"`
	Version VersionFlag `help:"Print version information and quit" name:"version" short:"v"`
	Query   struct {
		IndexFlags `embed:""`
		Output     string `help:"Write the matching trajectories as GeoJSON to this file instead of printing their IDs." placeholder:"<output-file>" short:"o"`
		Query      string `help:"The query string." placeholder:"<query>" arg:""`
	} `cmd:"" help:"Builds the grid index for the input file and prints the IDs of all trajectories matching the query."`
	Grid struct {
		IndexFlags `embed:""`
		Output     string `help:"The GeoJSON output file." placeholder:"<output-file>" short:"o" default:"grid.geojson"`
	} `cmd:"" help:"Builds the grid index for the input file and writes all non-empty cells as GeoJSON."`
	Server struct {
		IndexFlags `embed:""`
		Port       string `help:"The port of the HTTP API." default:"8080" env:"TRAJGRID_PORT"`
		TlsCert    string `help:"Certificate file, enables TLS together with --tls-key." type:"existingfile"`
		TlsKey     string `help:"Key file, enables TLS together with --tls-cert." type:"existingfile"`
		CacheSize  int    `help:"Number of cached query results." default:"1000"`
	} `cmd:"" help:"Builds the grid index for the input file and serves it via HTTP."`
}

type VersionFlag string

func (v VersionFlag) Decode(ctx *kong.DecodeContext) error { return nil }
func (v VersionFlag) IsBool() bool                         { return true }
func (v VersionFlag) BeforeApply(app *kong.Kong, vars kong.Vars) error {
	fmt.Println(vars["version"])
	app.Exit(0)
	return nil
}

func main() {
	ctx := kong.Parse(
		&cli,
		kong.Name("trajgrid"),
		kong.Description("A spatiotemporal grid index for trajectories."),
		kong.Vars{
			"version": VERSION,
		},
	)

	if strings.ToLower(cli.Logging) == "debug" {
		sigolo.SetDefaultLogLevel(sigolo.LOG_DEBUG)
	} else if strings.ToLower(cli.Logging) == "trace" {
		sigolo.SetDefaultLogLevel(sigolo.LOG_TRACE)
	} else if strings.ToLower(cli.Logging) == "info" {
		sigolo.SetDefaultLogLevel(sigolo.LOG_INFO)
		sigolo.SetDefaultFormatFunctionAll(sigolo.LogPlain)
	} else {
		sigolo.SetDefaultFormatFunctionAll(sigolo.LogPlain)
		sigolo.Fatalf("Unknown logging level '%s'", cli.Logging)
	}

	switch ctx.Command() {
	case "query <query>":
		// Parse first to not import the whole dataset for an invalid query
		q, err := query.ParseQueryString(cli.Query.Query)
		sigolo.FatalCheck(err)

		dataset, gridIndex, err := buildIndex(cli.Query.IndexFlags)
		sigolo.FatalCheck(err)

		result, err := q.Execute(gridIndex)
		sigolo.FatalCheck(err)

		sigolo.Infof("Found %d trajectories", len(result))

		if cli.Query.Output == "" {
			err = ownIo.WriteIdsAsJson(result, os.Stdout)
			sigolo.FatalCheck(err)
			return
		}

		matchingTrajectories := util.Filter(dataset.Trajectories, func(t *trajectory.Trajectory) bool {
			return result.Contains(t.ID)
		})

		file, err := os.Create(cli.Query.Output)
		sigolo.FatalCheck(errors.Wrapf(err, "Unable to create output file %s", cli.Query.Output))
		err = ownIo.WriteTrajectoriesAsGeoJson(matchingTrajectories, file)
		sigolo.FatalCheck(err)
		sigolo.FatalCheck(file.Close())
	case "grid":
		_, gridIndex, err := buildIndex(cli.Grid.IndexFlags)
		sigolo.FatalCheck(err)

		err = ownIo.WriteGridAsGeoJsonFile(gridIndex, cli.Grid.Output)
		sigolo.FatalCheck(err)

		sigolo.Infof("Wrote grid to %s", cli.Grid.Output)
	case "server":
		_, gridIndex, err := buildIndex(cli.Server.IndexFlags)
		sigolo.FatalCheck(err)

		server := web.NewServer(gridIndex, cli.Server.CacheSize)
		if cli.Server.TlsCert != "" && cli.Server.TlsKey != "" {
			web.StartServerTls(cli.Server.Port, cli.Server.TlsCert, cli.Server.TlsKey, server)
		} else if cli.Server.TlsCert != "" || cli.Server.TlsKey != "" {
			sigolo.Fatalf("Both --tls-cert and --tls-key are required to enable TLS")
		} else {
			web.StartServer(cli.Server.Port, server)
		}
	default:
		sigolo.Errorf("Unknown command '%s'", ctx.Command())
	}
}

func buildIndex(flags IndexFlags) (*importing.Dataset, *index.GridIndex, error) {
	footprint := index.FootprintEndpoints
	if flags.Footprint == index.FootprintExtent.String() {
		footprint = index.FootprintExtent
	}

	var frame *orb.Bound
	if len(flags.Bounds) > 0 {
		if len(flags.Bounds) != 4 {
			return nil, nil, errors.Errorf("Expected four values xmin,xmax,ymin,ymax for the bounds but got %d", len(flags.Bounds))
		}
		frame = &orb.Bound{
			Min: orb.Point{flags.Bounds[0], flags.Bounds[2]},
			Max: orb.Point{flags.Bounds[1], flags.Bounds[3]},
		}
	}

	dataset, err := importing.Import(flags.Input)
	if err != nil {
		return nil, nil, err
	}

	gridIndex, err := importing.BuildIndex(dataset, flags.CellSize, flags.CellSize, frame, index.WithFootprint(footprint))
	if err != nil {
		return nil, nil, err
	}

	return dataset, gridIndex, nil
}
