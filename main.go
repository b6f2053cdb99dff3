package main

import (
	"context"
	"fmt"
	"github.com/alecthomas/kong"
	"github.com/hauke96/sigolo/v2"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"swotdb/importing"
	"swotdb/index"
	ownIo "swotdb/io"
	"swotdb/parser"
	"swotdb/query"
	"swotdb/swath"
	"swotdb/web"
	"syscall"
)

const VERSION = "v0.1.0"

var cli struct {
	Logging string      `help:"Logging verbosity." enum:"info,debug,trace" short:"l" default:"info"`
	Version VersionFlag `help:"Print version information and quit" name:"version" short:"v"`
	Build   struct {
		DataDir      string `help:"Directory containing the swath files." placeholder:"<dir>" required:"" type:"existingdir"`
		IndexFile    string `help:"Name of the index. The snapshot is stored next to it as <name>_metadata.snap." placeholder:"<file>" default:"${index_file}"`
		TileSize     int    `help:"Number of swath lines per tile of newly added files. 0 uses the tile size of the index, which is ${tile_size} for new ones." default:"0"`
		Pattern      string `help:"Glob pattern of the files to index, relative to the data directory. '**' matches subdirectories." default:"${pattern}"`
		LoadExisting bool   `help:"Add new files to the existing index instead of creating a new one."`
		Autosave     int    `help:"Save the index after this many added files. 0 uses the default of ${autosave} for new and ${reload_autosave} for loaded indices." default:"0"`
		NoAutosave   bool   `help:"Only save the index once all files are added."`
		Workers      int    `help:"Number of files read concurrently." default:"1"`
		TimePolicy   string `help:"Whether tiles get the time range of their own lines or of the whole file." enum:"tile,file" default:"tile"`
	} `cmd:"" help:"Builds or extends the spatial index of all swath files in a directory."`
	Query struct {
		IndexFile string   `help:"Name of the index." placeholder:"<file>" default:"${index_file}"`
		LatMin    string   `help:"Minimum latitude." placeholder:"<deg>"`
		LatMax    string   `help:"Maximum latitude." placeholder:"<deg>"`
		LonMin    string   `help:"Minimum longitude." placeholder:"<deg>"`
		LonMax    string   `help:"Maximum longitude." placeholder:"<deg>"`
		TimeStart string   `help:"Start of the time range (RFC 3339 or YYYY-MM-DD)." placeholder:"<time>"`
		TimeEnd   string   `help:"End of the time range (RFC 3339 or YYYY-MM-DD)." placeholder:"<time>"`
		Variables []string `help:"Variables to extract." default:"${variables}"`
		Expr      string   `help:"Query expression like 'bbox(lonMin, latMin, lonMax, latMax).time(\"2023-05-01\", *)'. Replaces the bbox and time flags." placeholder:"<expression>"`
		Output    string   `help:"Extract the matching lines into this swath container file." placeholder:"<file>" type:"path"`
		Geojson   string   `help:"Write the footprints of the matching tiles into this GeoJSON file." placeholder:"<file>" type:"path"`
	} `cmd:"" help:"Finds the swath lines within a bounding box and time range."`
	Info struct {
		IndexFile string `help:"Name of the index." placeholder:"<file>" default:"${index_file}"`
		ListFiles bool   `help:"List all indexed files."`
	} `cmd:"" help:"Prints statistics of the index."`
	Remap struct {
		IndexFile   string `help:"Name of the index." placeholder:"<file>" default:"${index_file}"`
		NewBasePath string `help:"New directory of the swath files." placeholder:"<dir>" required:""`
	} `cmd:"" help:"Changes the base path of all indexed files, e.g. after moving the data."`
	Serve struct {
		IndexFile   string  `help:"Name of the index." placeholder:"<file>" default:"${index_file}"`
		Port        string  `help:"The port this server should listen to." default:"8080"`
		CacheSize   int     `help:"Number of swath files kept open for extractions." default:"16"`
		ExtractRate float64 `help:"Maximum number of extract requests per second. 0 disables the limit." default:"5"`
		Watch       bool    `help:"Reload the index whenever its snapshot changes, e.g. by a running build."`
	} `cmd:"" help:"Starts an HTTP server answering queries."`
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
		kong.Name("swotdb"),
		kong.Description("A spatial index for SWOT swath files to quickly find the data within a region and time range."),
		kong.Vars{
			"version":         VERSION,
			"index_file":      index.DefaultIndexFile,
			"tile_size":       strconv.Itoa(index.DefaultTileSize),
			"pattern":         index.DefaultFilePattern,
			"autosave":        strconv.Itoa(index.DefaultAutosaveInterval),
			"reload_autosave": strconv.Itoa(index.DefaultReloadAutosaveInterval),
			"variables":       strings.Join(query.DefaultVariables, ","),
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

	opener := swath.ContainerOpener{}

	switch ctx.Command() {
	case "build":
		build(opener)
	case "query":
		runQuery(opener)
	case "info":
		spatialIndex, err := index.LoadSpatialIndex(cli.Info.IndexFile, opener, index.Options{})
		sigolo.FatalCheck(err)
		printStats(spatialIndex.Stats(), cli.Info.ListFiles)
	case "remap":
		remap(opener)
	case "serve":
		serve(opener)
	default:
		sigolo.Errorf("Unknown command '%s'", ctx.Command())
	}
}

func build(opener swath.Opener) {
	timePolicy, err := index.ParseTimePolicy(cli.Build.TimePolicy)
	sigolo.FatalCheck(err)

	autosave := cli.Build.Autosave
	if cli.Build.NoAutosave || autosave < 0 {
		autosave = index.AutosaveDisabled
	}

	signalContext, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	spatialIndex, report, err := importing.Build(signalContext, opener, importing.BuildOptions{
		DataDir:      cli.Build.DataDir,
		IndexFile:    cli.Build.IndexFile,
		Pattern:      cli.Build.Pattern,
		LoadExisting: cli.Build.LoadExisting,
		Index: index.Options{
			TileSize:         cli.Build.TileSize,
			AutosaveInterval: autosave,
			TimePolicy:       timePolicy,
			Workers:          cli.Build.Workers,
		},
	})
	sigolo.FatalCheck(err)

	for _, failed := range report.Failed {
		sigolo.Warnf("Failed to index %s: %s", failed.Path, failed.Err.Error())
	}
	printStats(spatialIndex.Stats(), false)

	if report.Interrupted {
		sigolo.Warnf("Indexing was interrupted, run the build again with --load-existing to continue")
		stop()
		os.Exit(130)
	}
}

func runQuery(opener swath.Opener) {
	q, err := queryFromFlags()
	sigolo.FatalCheck(err)

	spatialIndex, err := index.LoadSpatialIndex(cli.Query.IndexFile, opener, index.Options{})
	sigolo.FatalCheck(err)

	result := q.Execute(spatialIndex)

	fmt.Printf("Query: %s\n", q.String())
	fmt.Printf("Tiles: %d\n", result.TileCount)
	fmt.Printf("Files: %d\n", len(result.Files))
	fmt.Printf("Lines: %d\n", result.LineCount())
	for _, file := range result.Files {
		ranges := make([]string, len(file.Ranges))
		for i, lineRange := range file.Ranges {
			ranges[i] = lineRange.String()
		}
		fmt.Printf("  %s: %s\n", filepath.Base(file.File), strings.Join(ranges, " "))
	}

	if cli.Query.Geojson != "" {
		err = ownIo.WriteTileHitsAsGeoJsonFile(cli.Query.Geojson, result.Hits, &q.Bound)
		sigolo.FatalCheck(err)
		sigolo.Infof("Wrote tile footprints to %s", cli.Query.Geojson)
	}

	if cli.Query.Output != "" {
		extraction := result.Extract(opener)
		for _, failed := range extraction.Failed {
			sigolo.Warnf("Unable to extract data from %s: %s", failed.Path, failed.Err.Error())
		}
		if len(extraction.Files) == 0 {
			sigolo.Warnf("No data found within the query range, %s is not written", cli.Query.Output)
			return
		}

		err = swath.WriteContainerFile(cli.Query.Output, extraction.ToSwath())
		sigolo.FatalCheck(err)
		sigolo.Infof("Wrote %d lines of %d files to %s", extraction.LineCount(), len(extraction.Files), cli.Query.Output)
	}
}

// queryFromFlags creates the query either from the expression or from the bbox and time flags.
func queryFromFlags() (*query.Query, error) {
	if cli.Query.Expr != "" {
		q, err := parser.ParseQueryString(cli.Query.Expr)
		if err != nil {
			return nil, err
		}
		if len(q.Variables) == len(query.DefaultVariables) && q.Variables[0] == query.DefaultVariables[0] {
			q.WithVariables(cli.Query.Variables...)
		}
		return q, nil
	}

	var coordinates [4]float64
	for i, flag := range []struct {
		name  string
		value string
	}{
		{"--lat-min", cli.Query.LatMin},
		{"--lat-max", cli.Query.LatMax},
		{"--lon-min", cli.Query.LonMin},
		{"--lon-max", cli.Query.LonMax},
	} {
		if flag.value == "" {
			return nil, errors.Errorf("Missing flag %s (or use --expr)", flag.name)
		}

		var err error
		coordinates[i], err = strconv.ParseFloat(flag.value, 64)
		if err != nil {
			return nil, errors.Errorf("Flag %s must be a number but was '%s'", flag.name, flag.value)
		}
	}

	timeStart, err := query.ParseTime(cli.Query.TimeStart)
	if err != nil {
		return nil, err
	}
	timeEnd, err := query.ParseTime(cli.Query.TimeEnd)
	if err != nil {
		return nil, err
	}

	return query.NewQuery(coordinates[0], coordinates[1], coordinates[2], coordinates[3]).
		WithTimeRange(timeStart, timeEnd).
		WithVariables(cli.Query.Variables...), nil
}

func remap(opener swath.Opener) {
	spatialIndex, err := index.LoadSpatialIndex(cli.Remap.IndexFile, opener, index.Options{})
	sigolo.FatalCheck(err)

	report := spatialIndex.RemapBasePath(cli.Remap.NewBasePath)
	if report.BasePathUnset {
		sigolo.Warnf("Index has no base path, nothing to remap")
		return
	}

	sigolo.Infof("Remapped %d of %d tiles from %s to %s", report.RemappedCount(), len(report.Entries), report.OldBasePath, report.NewBasePath)
	for _, unchanged := range report.Unremapped() {
		sigolo.Warnf("  Not remapped: %s (%s)", unchanged.Path, unchanged.Reason)
	}

	err = spatialIndex.Save()
	sigolo.FatalCheck(err)
}

func serve(opener swath.Opener) {
	reloadingIndex, err := index.NewReloadingIndex(cli.Serve.IndexFile, opener)
	sigolo.FatalCheck(err)

	if cli.Serve.Watch {
		err = reloadingIndex.Watch()
		sigolo.FatalCheck(err)
		defer reloadingIndex.Close()
	}

	extractLimit := rate.Inf
	if cli.Serve.ExtractRate > 0 {
		extractLimit = rate.Limit(cli.Serve.ExtractRate)
	}

	web.StartServer(cli.Serve.Port, reloadingIndex, swath.NewCachingOpener(opener, cli.Serve.CacheSize), extractLimit)
}

func printStats(stats index.Stats, listFiles bool) {
	fmt.Println("Index statistics:")
	fmt.Printf("  Index ID:  %s\n", stats.IndexID)
	fmt.Printf("  Tiles:     %d\n", stats.TileCount)
	fmt.Printf("  Files:     %d\n", stats.FileCount)
	fmt.Printf("  Tile size: %d lines\n", stats.TileSize)
	fmt.Printf("  Base path: %s\n", stats.BasePath)
	if stats.AutosaveInterval > 0 {
		fmt.Printf("  Auto-save: every %d files\n", stats.AutosaveInterval)
	}

	if listFiles {
		fmt.Println("Indexed files:")
		for _, file := range stats.Files {
			fmt.Printf("  %s\n", file)
		}
	}
}
