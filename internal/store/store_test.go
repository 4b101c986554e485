package store

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nhg-hydromet/weatherqc/internal/qcengine/diagnostics"
	"github.com/nhg-hydromet/weatherqc/internal/qcengine/flags"
	"github.com/nhg-hydromet/weatherqc/internal/qcengine/recordset"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "runs.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRecordSet(t *testing.T) *recordset.RecordSet {
	t.Helper()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ts := []time.Time{start, start.Add(15 * time.Minute), start.Add(30 * time.Minute)}
	rs := recordset.New(ts)
	ch := rs.AddChannel("AirT_C_Avg")
	ch.Values = []float64{5.0, 5.5, 6.0}
	ch.Present = []bool{true, true, true}
	ch.Flag[1].Add(flags.C)
	ch.Flag[2].Add(flags.R)
	return rs
}

func TestOpenCreatesSchema(t *testing.T) {
	s := openTestStore(t)
	var count int
	require.NoError(t, s.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='runs'`).Scan(&count))
	require.Equal(t, 1, count)
}

func TestBeginAndFinishRunPersistsFlagCountsAndDiagnostics(t *testing.T) {
	s := openTestStore(t)
	rs := sampleRecordSet(t)

	diag := &diagnostics.Collector{}
	diag.Warn("threshold", "no thresholds configured for %s", "SlrFD_W_Avg")

	started := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	runID, err := s.BeginRun("station-1", "/data/station-1.csv", started)
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	finished := started.Add(2 * time.Second)
	require.NoError(t, s.FinishRun(runID, finished, rs, diag))

	runs, err := s.RecentRuns("station-1", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, 3, runs[0].RowCount)
	require.WithinDuration(t, finished, runs[0].FinishedAt, time.Second)

	counts, err := s.FlagCounts(runID)
	require.NoError(t, err)
	require.Equal(t, 1, counts["AirT_C_Avg"]["C"])
	require.Equal(t, 1, counts["AirT_C_Avg"]["R"])
}

func TestRecentRunsOrdersNewestFirst(t *testing.T) {
	s := openTestStore(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	older, err := s.BeginRun("station-1", "/data/a.csv", base)
	require.NoError(t, err)
	newer, err := s.BeginRun("station-1", "/data/b.csv", base.Add(time.Hour))
	require.NoError(t, err)

	rs := sampleRecordSet(t)
	diag := &diagnostics.Collector{}
	require.NoError(t, s.FinishRun(older, base, rs, diag))
	require.NoError(t, s.FinishRun(newer, base.Add(time.Hour), rs, diag))

	runs, err := s.RecentRuns("station-1", 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, newer, runs[0].ID)
	require.Equal(t, older, runs[1].ID)
}

func TestSummarizeComputesQuantilesAndFlagCounts(t *testing.T) {
	rs := sampleRecordSet(t)
	summaries := Summarize(rs)
	require.Len(t, summaries, 1)

	s := summaries[0]
	require.Equal(t, "AirT_C_Avg", s.Channel)
	require.Equal(t, 3, s.PresentCount)
	require.Equal(t, 2, s.FlaggedCount)
	require.InDelta(t, 5.5, s.Median, 0.01)
}

func TestStatsReportsTableRowCounts(t *testing.T) {
	s := openTestStore(t)
	rs := sampleRecordSet(t)
	diag := &diagnostics.Collector{}
	runID, err := s.BeginRun("station-1", "/data/a.csv", time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, s.FinishRun(runID, time.Now().UTC(), rs, diag))

	stats, err := s.Stats()
	require.NoError(t, err)
	require.NotEmpty(t, stats.Tables)

	var runsTable *TableStats
	for i := range stats.Tables {
		if stats.Tables[i].Name == "runs" {
			runsTable = &stats.Tables[i]
		}
	}
	require.NotNil(t, runsTable)
	require.Equal(t, int64(1), runsTable.RowCount)
}

func TestAttachAdminRoutesServesDBStats(t *testing.T) {
	s := openTestStore(t)
	mux := http.NewServeMux()
	s.AttachAdminRoutes(mux)

	req := httptest.NewRequest(http.MethodGet, "/debug/db-stats", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "total_size_mb")
}
