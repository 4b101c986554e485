package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nhg-hydromet/weatherqc/internal/config"
	"github.com/nhg-hydromet/weatherqc/internal/qcengine/diagnostics"
	"github.com/nhg-hydromet/weatherqc/internal/qcengine/recordset"
	"github.com/nhg-hydromet/weatherqc/internal/store"
	"github.com/nhg-hydromet/weatherqc/internal/timeutil"
)

func TestConfigDirFlagDefault(t *testing.T) {
	if configDir == nil {
		t.Fatal("configDir flag not defined")
	}
	if *configDir != "config" {
		t.Errorf("default --config = %q, want %q", *configDir, "config")
	}
}

func TestOptionalConfigPathReturnsEmptyWhenMissing(t *testing.T) {
	dir := t.TempDir()
	if got := optionalConfigPath(dir, "rules.json"); got != "" {
		t.Errorf("optionalConfigPath() = %q, want empty for a missing file", got)
	}
}

func TestOptionalConfigPathReturnsJoinedPathWhenPresent(t *testing.T) {
	dir := t.TempDir()
	want := filepath.Join(dir, "rules.json")
	if err := os.WriteFile(want, []byte("[]"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := optionalConfigPath(dir, "rules.json"); got != want {
		t.Errorf("optionalConfigPath() = %q, want %q", got, want)
	}
}

func TestLoadFieldVisitWindowsEmptyPath(t *testing.T) {
	windows, err := loadFieldVisitWindows("")
	if err != nil {
		t.Fatal(err)
	}
	if windows != nil {
		t.Errorf("expected nil windows for an empty path, got %v", windows)
	}
}

func TestLoadFieldVisitWindowsParsesRFC3339Pairs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "visits.json")
	in := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	out := time.Date(2024, 6, 1, 11, 0, 0, 0, time.UTC)
	raw, err := json.Marshal([]fieldVisitWindowJSON{{In: in, Out: out}})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}

	windows, err := loadFieldVisitWindows(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(windows) != 1 {
		t.Fatalf("got %d windows, want 1", len(windows))
	}
	if !windows[0].In.Equal(in) || !windows[0].Out.Equal(out) {
		t.Errorf("window = %+v, want In=%v Out=%v", windows[0], in, out)
	}
}

func TestApplyStationMetadataForwardFillsOffsetAndStationID(t *testing.T) {
	ts := []time.Time{
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 0, 15, 0, 0, time.UTC),
	}
	rs := recordset.New(ts)
	applyStationMetadata(rs, config.StationCoords{UTCOffsetHours: -7}, "STN1")

	offsets, ok := rs.Metadata["UTC_Offset"]
	if !ok {
		t.Fatal("expected UTC_Offset metadata column")
	}
	for _, v := range offsets {
		if v != "-7" {
			t.Errorf("UTC_Offset row = %q, want %q", v, "-7")
		}
	}

	ids, ok := rs.Metadata["Station_ID"]
	if !ok {
		t.Fatal("expected Station_ID metadata column")
	}
	for _, v := range ids {
		if v != "STN1" {
			t.Errorf("Station_ID row = %q, want %q", v, "STN1")
		}
	}
}

func TestApplyStationMetadataOmitsStationIDWhenUnset(t *testing.T) {
	rs := recordset.New([]time.Time{time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)})
	applyStationMetadata(rs, config.StationCoords{UTCOffsetHours: 0}, "")

	if _, ok := rs.Metadata["Station_ID"]; ok {
		t.Error("expected no Station_ID metadata column when --station is unset")
	}
}

func TestValidateFlagPathsRejectsPathOutsideWorkingDirectoryAndTemp(t *testing.T) {
	origConfig, origInput, origOutput := *configDir, *inputPath, *outputPath
	defer func() {
		*configDir, *inputPath, *outputPath = origConfig, origInput, origOutput
	}()

	*configDir = "config"
	*inputPath = "/etc/passwd"
	*outputPath = "out.csv"

	if err := validateFlagPaths(); err == nil {
		t.Fatal("expected an error for an --input path outside the working directory and temp dir")
	}
}

func TestValidateFlagPathsAcceptsPathsWithinWorkingDirectory(t *testing.T) {
	origConfig, origInput, origOutput := *configDir, *inputPath, *outputPath
	defer func() {
		*configDir, *inputPath, *outputPath = origConfig, origInput, origOutput
	}()

	*configDir = "config"
	*inputPath = "testdata/in.csv"
	*outputPath = "testdata/out.csv"

	if err := validateFlagPaths(); err != nil {
		t.Errorf("unexpected error for paths within the working directory: %v", err)
	}
}

func TestRecordRunHistoryPersistsAStartedAndFinishedRun(t *testing.T) {
	origClock := clock
	mock := timeutil.NewMockClock(time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC))
	clock = mock
	defer func() { clock = origClock }()

	dbPath := filepath.Join(t.TempDir(), "runs.db")
	rs := recordset.New([]time.Time{time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)})

	startedAt := clock.Now()
	mock.Advance(5 * time.Minute)

	if err := recordRunHistory(dbPath, "STN1", "in.csv", startedAt, rs, &diagnostics.Collector{}); err != nil {
		t.Fatal(err)
	}

	s, err := store.Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	runs, err := s.RecentRuns("STN1", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}
	if !runs[0].StartedAt.Equal(startedAt) || !runs[0].FinishedAt.Equal(mock.Now()) {
		t.Errorf("run = %+v, want StartedAt=%v FinishedAt=%v", runs[0], startedAt, mock.Now())
	}
}
