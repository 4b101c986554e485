// Command weatherqc-sweep runs the engine once per CSV file in a directory
// and prints each file's per-channel quantile summary side by side, so an
// operator can spot a channel drifting across a batch of exports (a sensor
// slowly drying out, a battery voltage trending down across days) without
// opening every output file individually. It is an observability adjunct
// built on internal/store's gonum/stat-backed Summarize, not a new flagging
// decision: the engine's verdict for each file is unaffected by running it
// here instead of through cmd/weatherqc.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nhg-hydromet/weatherqc/internal/config"
	"github.com/nhg-hydromet/weatherqc/internal/fsutil"
	"github.com/nhg-hydromet/weatherqc/internal/ingest"
	"github.com/nhg-hydromet/weatherqc/internal/qcengine/diagnostics"
	"github.com/nhg-hydromet/weatherqc/internal/qcengine/pipeline"
	"github.com/nhg-hydromet/weatherqc/internal/security"
	"github.com/nhg-hydromet/weatherqc/internal/store"
)

var (
	configDir = flag.String("config", "config", "Directory holding thresholds.json, groups.json, deployments.json, and station.json (rules.json/aliases.json are not read; the built-in defaults apply)")
	inputDir  = flag.String("input-dir", "", "Directory of CSV exports to sweep, one engine run per file")
	channel   = flag.String("channel", "", "Restrict output to a single channel name (optional)")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	defer configureQCLogging()()

	if err := run(); err != nil {
		log.Printf("weatherqc-sweep: %v", err)
		os.Exit(1)
	}
}

// configureQCLogging wires the engine's ops/diag/trace log streams from
// environment variables: WEATHERQC_OPS_LOG, WEATHERQC_DIAG_LOG,
// WEATHERQC_TRACE_LOG. WEATHERQC_DEBUG_LOG is a legacy fallback that routes
// all three streams to a single file when none of the per-stream variables
// are set. Returns a cleanup func that closes any opened log files; the
// streams stay disabled (nil) if no variable is set.
func configureQCLogging() func() {
	opsPath := os.Getenv("WEATHERQC_OPS_LOG")
	diagPath := os.Getenv("WEATHERQC_DIAG_LOG")
	tracePath := os.Getenv("WEATHERQC_TRACE_LOG")

	if opsPath == "" && diagPath == "" && tracePath == "" {
		legacyPath := os.Getenv("WEATHERQC_DEBUG_LOG")
		if legacyPath == "" {
			return func() {}
		}
		f, err := openQCLogFile(legacyPath)
		if err != nil {
			log.Printf("weatherqc-sweep: %v", err)
			return func() {}
		}
		pipeline.SetLegacyLogger(f)
		return func() { f.Close() }
	}

	var files []*os.File
	open := func(path string) io.Writer {
		if path == "" {
			return nil
		}
		f, err := openQCLogFile(path)
		if err != nil {
			log.Printf("weatherqc-sweep: %v", err)
			return nil
		}
		files = append(files, f)
		return f
	}
	pipeline.SetLogWriters(open(opsPath), open(diagPath), open(tracePath))
	return func() {
		for _, f := range files {
			f.Close()
		}
	}
}

func openQCLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create directory for %s: %w", path, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

func run() error {
	if *inputDir == "" {
		return fmt.Errorf("--input-dir is required")
	}
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolve working directory: %w", err)
	}
	if err := security.ValidatePathWithinAllowedDirs(*inputDir, []string{cwd, os.TempDir()}); err != nil {
		return fmt.Errorf("--input-dir rejected: %w", err)
	}

	bundle, err := config.LoadBundle(config.BundlePaths{
		Thresholds: filepath.Join(*configDir, "thresholds.json"),
		Groups:     filepath.Join(*configDir, "groups.json"),
		Deployment: filepath.Join(*configDir, "deployments.json"),
		Station:    filepath.Join(*configDir, "station.json"),
	})
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	entries, err := os.ReadDir(*inputDir)
	if err != nil {
		return fmt.Errorf("read --input-dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)
	if len(files) == 0 {
		return fmt.Errorf("no .csv files found in %s", *inputDir)
	}

	osfs := fsutil.OSFileSystem{}
	for _, name := range files {
		summaries, err := sweepOne(osfs, filepath.Join(*inputDir, name), bundle)
		if err != nil {
			log.Printf("weatherqc-sweep: %s: %v", name, err)
			continue
		}
		for _, s := range summaries {
			if *channel != "" && s.Channel != *channel {
				continue
			}
			fmt.Printf("%s\t%s\n", name, s)
		}
	}
	return nil
}

func sweepOne(fs fsutil.FileSystem, path string, bundle config.Bundle) ([]store.ChannelSummary, error) {
	rows, err := ingest.ReadCSV(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	rs, err := ingest.Build(rows)
	if err != nil {
		return nil, fmt.Errorf("build record set: %w", err)
	}

	diag := &diagnostics.Collector{}
	if _, err := pipeline.Run(rs, pipeline.Options{Config: bundle}, diag); err != nil {
		return nil, fmt.Errorf("run pipeline: %w", err)
	}

	return store.Summarize(rs), nil
}
