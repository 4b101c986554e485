// Command weatherqc is the thin batch driver described in §6: it loads the
// configuration inputs and one input CSV, invokes the engine once, and
// writes the flagged output CSV. Exit code 0 on success; non-zero on I/O or
// configuration-parse failure, per §6's explicit contract. It never retries
// and never partially writes output -- a failed run leaves the previous
// output file untouched.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/nhg-hydromet/weatherqc/internal/config"
	"github.com/nhg-hydromet/weatherqc/internal/fsutil"
	"github.com/nhg-hydromet/weatherqc/internal/ingest"
	"github.com/nhg-hydromet/weatherqc/internal/qcengine/diagnostics"
	"github.com/nhg-hydromet/weatherqc/internal/qcengine/pipeline"
	"github.com/nhg-hydromet/weatherqc/internal/qcengine/recordset"
	"github.com/nhg-hydromet/weatherqc/internal/security"
	"github.com/nhg-hydromet/weatherqc/internal/store"
	"github.com/nhg-hydromet/weatherqc/internal/timeutil"
	"github.com/nhg-hydromet/weatherqc/internal/version"
)

// clock is the source of run-history timestamps. Swapped for a
// timeutil.MockClock in tests so a run's started_at/finished_at are
// deterministic instead of racing real wall-clock time.
var clock timeutil.Clock = timeutil.RealClock{}

var (
	configDir    = flag.String("config", "config", "Directory holding thresholds.json, groups.json, deployments.json, station.json, and optional rules.json/aliases.json")
	inputPath    = flag.String("input", "", "Path to the input CSV to run through the engine")
	outputPath   = flag.String("output", "", "Path to write the flagged output CSV to")
	fieldVisits  = flag.String("field-visits", "", "Optional path to a JSON array of {\"in\":...,\"out\":...} field-visit windows (RFC3339)")
	runDBPath    = flag.String("run-db", "", "Optional path to a run-history sqlite database; omit to skip persistence")
	stationID    = flag.String("station", "", "Station identifier recorded in run history and the Station_ID metadata column")
	versionFlag  = flag.Bool("version", false, "Print version information and exit")
	versionShort = flag.Bool("v", false, "Print version information and exit (shorthand)")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	defer configureQCLogging()()

	if *versionFlag || *versionShort {
		fmt.Printf("weatherqc v%s (git SHA: %s)\n", version.Version, version.GitSHA)
		os.Exit(0)
	}

	if err := run(); err != nil {
		log.Printf("weatherqc: %v", err)
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
			log.Printf("weatherqc: %v", err)
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
			log.Printf("weatherqc: %v", err)
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
	if *inputPath == "" || *outputPath == "" {
		return fmt.Errorf("--input and --output are required")
	}

	if err := validateFlagPaths(); err != nil {
		return err
	}

	bundle, err := config.LoadBundle(config.BundlePaths{
		Thresholds: filepath.Join(*configDir, "thresholds.json"),
		Groups:     filepath.Join(*configDir, "groups.json"),
		Deployment: filepath.Join(*configDir, "deployments.json"),
		Station:    filepath.Join(*configDir, "station.json"),
		Rules:      optionalConfigPath(*configDir, "rules.json"),
		Aliases:    optionalConfigPath(*configDir, "aliases.json"),
	})
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	windows, err := loadFieldVisitWindows(*fieldVisits)
	if err != nil {
		return fmt.Errorf("load field visit windows: %w", err)
	}

	osfs := fsutil.OSFileSystem{}
	rows, err := ingest.ReadCSV(osfs, *inputPath)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	rs, err := ingest.Build(rows)
	if err != nil {
		return fmt.Errorf("build record set: %w", err)
	}
	applyStationMetadata(rs, bundle.Station, *stationID)

	startedAt := clock.Now()
	diag := &diagnostics.Collector{}
	if _, err := pipeline.Run(rs, pipeline.Options{Config: bundle, FieldVisitWindows: windows}, diag); err != nil {
		return fmt.Errorf("run pipeline: %w", err)
	}

	tmpOutput := *outputPath + ".tmp"
	if err := ingest.WriteCSV(osfs, tmpOutput, rs); err != nil {
		os.Remove(tmpOutput)
		return fmt.Errorf("write output: %w", err)
	}
	if err := os.Rename(tmpOutput, *outputPath); err != nil {
		os.Remove(tmpOutput)
		return fmt.Errorf("write output: %w", err)
	}

	counts := diag.CountBySeverity()
	log.Printf("weatherqc: %d rows, %d channels, %d info, %d warning diagnostics",
		rs.Len(), len(rs.Channels), counts[diagnostics.Info], counts[diagnostics.Warning])

	if *runDBPath != "" {
		if err := recordRunHistory(*runDBPath, *stationID, *inputPath, startedAt, rs, diag); err != nil {
			// Run-history persistence is an observability adjunct, not part
			// of the engine's contract: a failure here must not turn a
			// successful run into a non-zero exit.
			log.Printf("weatherqc: run-history persistence failed (output was still written): %v", err)
		}
	}

	return nil
}

// validateFlagPaths rejects --config/--input/--output values that escape
// the working directory or the system temp directory, per the note in
// SPEC_FULL.md 11 about guarding against a malicious config reference.
func validateFlagPaths() error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolve working directory: %w", err)
	}
	allowedDirs := []string{cwd, os.TempDir()}

	for name, p := range map[string]string{"config": *configDir, "input": *inputPath, "output": *outputPath} {
		if err := security.ValidatePathWithinAllowedDirs(p, allowedDirs); err != nil {
			return fmt.Errorf("%s path rejected: %w", name, err)
		}
	}
	return nil
}

// optionalConfigPath returns the joined path only if it exists, leaving
// config.LoadBundle to fall back to its compiled-in defaults otherwise.
func optionalConfigPath(dir, name string) string {
	p := filepath.Join(dir, name)
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}

// fieldVisitWindowJSON mirrors pipeline.FieldVisitWindow for JSON decoding;
// kept local to main rather than added to the config package, since field
// visit windows are operational metadata (§4.1), not a configuration input.
type fieldVisitWindowJSON struct {
	In  time.Time `json:"in"`
	Out time.Time `json:"out"`
}

func loadFieldVisitWindows(path string) ([]pipeline.FieldVisitWindow, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var raw []fieldVisitWindowJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	windows := make([]pipeline.FieldVisitWindow, len(raw))
	for i, w := range raw {
		windows[i] = pipeline.FieldVisitWindow{In: w.In, Out: w.Out}
	}
	return windows, nil
}

// applyStationMetadata forward-fills the UTC_Offset and Station_ID metadata
// columns every row carries (§3): both are constant for a single-station
// batch run, but modeled as per-row metadata columns so the output writer's
// column ordering rule (§6) applies uniformly.
func applyStationMetadata(rs *recordset.RecordSet, station config.StationCoords, stationIDFlag string) {
	n := rs.Len()
	offsets := make([]string, n)
	offset := fmt.Sprintf("%d", station.UTCOffsetHours)
	for i := range offsets {
		offsets[i] = offset
	}
	rs.AddMetadata("UTC_Offset", offsets)

	if stationIDFlag == "" {
		return
	}
	ids := make([]string, n)
	for i := range ids {
		ids[i] = stationIDFlag
	}
	rs.AddMetadata("Station_ID", ids)
}

func recordRunHistory(dbPath, stationID, inputPath string, startedAt time.Time, rs *recordset.RecordSet, diag *diagnostics.Collector) error {
	s, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open run-history database: %w", err)
	}
	defer s.Close()

	runID, err := s.BeginRun(stationID, inputPath, startedAt)
	if err != nil {
		return err
	}
	return s.FinishRun(runID, clock.Now(), rs, diag)
}
