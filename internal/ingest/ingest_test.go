package ingest

import (
	"testing"
	"time"

	"github.com/nhg-hydromet/weatherqc/internal/fsutil"
)

func TestBuildMaterializesGaps(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := []Row{
		{Timestamp: base, Record: "1", Columns: map[string]string{"AirT_C_Avg": "5.0"}},
		// row at base+15m is missing entirely: a gap.
		{Timestamp: base.Add(30 * time.Minute), Record: "3", Columns: map[string]string{"AirT_C_Avg": "5.2"}},
	}

	rs, err := Build(rows)
	if err != nil {
		t.Fatal(err)
	}
	if rs.Len() != 3 {
		t.Fatalf("got %d rows, want 3 (gap materialized)", rs.Len())
	}

	ch, ok := rs.Channel("AirT_C_Avg")
	if !ok {
		t.Fatal("expected AirT_C_Avg channel")
	}
	if ch.RawText[0] != "5.0" {
		t.Errorf("row 0 RawText = %q, want 5.0", ch.RawText[0])
	}
	if ch.RawText[1] != "" {
		t.Errorf("row 1 (gap) RawText = %q, want empty", ch.RawText[1])
	}
	if rs.RecordText[1] != "" {
		t.Errorf("row 1 (gap) RecordText = %q, want empty", rs.RecordText[1])
	}
	if ch.RawText[2] != "5.2" {
		t.Errorf("row 2 RawText = %q, want 5.2", ch.RawText[2])
	}
}

func TestBuildRejectsEmptyInput(t *testing.T) {
	if _, err := Build(nil); err == nil {
		t.Fatal("expected an error for empty input")
	}
}

func TestBuildDedupesDuplicateTimestampsKeepingLast(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := []Row{
		{Timestamp: base, Columns: map[string]string{"AirT_C_Avg": "1.0"}},
		{Timestamp: base, Columns: map[string]string{"AirT_C_Avg": "2.0"}},
	}
	rs, err := Build(rows)
	if err != nil {
		t.Fatal(err)
	}
	if rs.Len() != 1 {
		t.Fatalf("got %d rows, want 1", rs.Len())
	}
	ch, _ := rs.Channel("AirT_C_Avg")
	if ch.RawText[0] != "2.0" {
		t.Errorf("RawText = %q, want the last-seen duplicate's value 2.0", ch.RawText[0])
	}
}

func TestReadCSVAndBuild(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	content := "TIMESTAMP,RECORD,AirT_C_Avg,BattV_Avg\n" +
		"2024-01-01 00:00:00,100,5.0,12.5\n" +
		"2024-01-01 00:30:00,101,5.2,12.6\n"
	if err := fs.WriteFile("/data/station.csv", []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	rows, err := ReadCSV(fs, "/data/station.csv")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}

	rs, err := Build(rows)
	if err != nil {
		t.Fatal(err)
	}
	if rs.Len() != 3 {
		t.Fatalf("got %d rows, want 3 (the 00:15 gap materialized)", rs.Len())
	}
	batt, ok := rs.Channel("BattV_Avg")
	if !ok {
		t.Fatal("expected BattV_Avg channel")
	}
	if batt.RawText[0] != "12.5" || batt.RawText[2] != "12.6" {
		t.Errorf("BattV_Avg RawText = %v, want [12.5 <gap> 12.6]", batt.RawText)
	}
}

func TestReadCSVAndBuildPreserveInputColumnOrder(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	// BattV_Avg precedes AirT_C_Avg in the header, the reverse of
	// alphabetical order: output column order must follow the header, not
	// a sorted key walk.
	content := "TIMESTAMP,RECORD,BattV_Avg,AirT_C_Avg\n" +
		"2024-01-01 00:00:00,100,12.5,5.0\n"
	if err := fs.WriteFile("/data/station.csv", []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	rows, err := ReadCSV(fs, "/data/station.csv")
	if err != nil {
		t.Fatal(err)
	}
	rs, err := Build(rows)
	if err != nil {
		t.Fatal(err)
	}

	if len(rs.Channels) != 2 {
		t.Fatalf("got %d channels, want 2", len(rs.Channels))
	}
	if rs.Channels[0].Name != "BattV_Avg" || rs.Channels[1].Name != "AirT_C_Avg" {
		t.Errorf("channel order = [%s %s], want [BattV_Avg AirT_C_Avg] (input order, not alphabetical)",
			rs.Channels[0].Name, rs.Channels[1].Name)
	}
}

func TestReadCSVRejectsMissingTimestampColumn(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	fs.WriteFile("/data/bad.csv", []byte("FOO,BAR\n1,2\n"), 0o644)
	if _, err := ReadCSV(fs, "/data/bad.csv"); err == nil {
		t.Fatal("expected an error for a missing TIMESTAMP column")
	}
}
