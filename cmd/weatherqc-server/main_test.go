package main

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/nhg-hydromet/weatherqc/internal/qcengine/diagnostics"
	"github.com/nhg-hydromet/weatherqc/internal/qcengine/recordset"
	"github.com/nhg-hydromet/weatherqc/internal/store"
	"github.com/nhg-hydromet/weatherqc/internal/testutil"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRunsHandlerRequiresStation(t *testing.T) {
	s := openTestStore(t)
	req := testutil.NewTestRequest("GET", "/runs")
	rec := testutil.NewTestRecorder()
	runsHandler(s)(rec, req)
	testutil.AssertStatusCode(t, rec.Code, 400)
}

func TestRunsHandlerReturnsRecentRuns(t *testing.T) {
	s := openTestStore(t)
	runID, err := s.BeginRun("STN1", "in.csv", time.Now())
	if err != nil {
		t.Fatal(err)
	}
	rs := recordset.New([]time.Time{time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)})
	if err := s.FinishRun(runID, time.Now(), rs, &diagnostics.Collector{}); err != nil {
		t.Fatal(err)
	}

	req := testutil.NewTestRequest("GET", "/runs?station=STN1")
	rec := testutil.NewTestRecorder()
	runsHandler(s)(rec, req)
	testutil.AssertStatusCode(t, rec.Code, 200)

	var runs []store.Run
	if err := json.Unmarshal(rec.Body.Bytes(), &runs); err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].ID != runID {
		t.Errorf("got runs %+v, want one run with ID %q", runs, runID)
	}
}

func TestFlagCountsHandlerRequiresID(t *testing.T) {
	s := openTestStore(t)
	req := testutil.NewTestRequest("GET", "/runs/flags")
	rec := testutil.NewTestRecorder()
	flagCountsHandler(s)(rec, req)
	testutil.AssertStatusCode(t, rec.Code, 400)
}
