package ingest

import (
	"strings"
	"testing"
	"time"

	"github.com/nhg-hydromet/weatherqc/internal/fsutil"
	"github.com/nhg-hydromet/weatherqc/internal/qcengine/flags"
	"github.com/nhg-hydromet/weatherqc/internal/qcengine/recordset"
)

func TestWriteCSVColumnOrder(t *testing.T) {
	ts := []time.Time{time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	rs := recordset.New(ts)
	rs.RecordText[0] = "100"
	rs.AddMetadata(utcOffsetMetadataColumn, []string{"-7"})
	rs.AddMetadata("Station_ID", []string{"STN1"})

	ch := rs.AddChannel("AirT_C_Avg")
	ch.Values[0] = 5.5
	ch.Present[0] = true
	ch.Flag[0].Add(flags.P)

	fs := fsutil.NewMemoryFileSystem()
	if err := WriteCSV(fs, "/out/station.csv", rs); err != nil {
		t.Fatal(err)
	}

	data, err := fs.ReadFile("/out/station.csv")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2 (header + one row)", len(lines))
	}

	wantHeader := "TIMESTAMP,UTC_Offset,RECORD,RECORD_Flag,AirT_C_Avg,AirT_C_Avg_Flag,Station_ID"
	if lines[0] != wantHeader {
		t.Errorf("header = %q, want %q", lines[0], wantHeader)
	}

	wantRow := "2024-01-01 00:00:00,-7,100,,5.5,P,STN1"
	if lines[1] != wantRow {
		t.Errorf("row = %q, want %q", lines[1], wantRow)
	}
}
