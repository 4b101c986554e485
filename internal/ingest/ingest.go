// Package ingest builds a gap-materialized RecordSet from already
// column-mapped input rows. It does not parse TOA5 headers: a caller (the
// CSV reader in this package, or the serial adapter in internal/ingest/serial)
// is responsible for turning a raw datalogger file or stream into Rows first.
package ingest

import (
	"fmt"
	"sort"
	"time"

	"github.com/nhg-hydromet/weatherqc/internal/qcengine/recordset"
)

// Row is one already column-mapped input record: every key other than the
// timestamp column is a data column name, value is its raw text. A key
// present in one Row but absent from another is treated as absent (empty
// string) wherever it doesn't appear.
type Row struct {
	Timestamp   time.Time
	Record      string // the RECORD column's raw text, if present
	Columns     map[string]string
	ColumnOrder []string // data column names in header order; see Build
}

// TimestampLayout is the naive local timestamp format datalogger exports use
// (no zone offset: the fixed UTC offset is supplied out of band via station
// configuration, per §3's "naive local time" record model).
const TimestampLayout = "2006-01-02 15:04:05"

// Build reindexes rows onto the fixed 15-minute grid spanning their
// timestamp range (inclusive), materializing any missing grid slot as an
// all-absent row -- §12's "gap materialization" supplement. rows need not be
// sorted or deduplicated; Build sorts by timestamp and keeps the last row
// seen for any duplicate timestamp. It returns an error only if rows is
// empty (there is no grid to build).
func Build(rows []Row) (*recordset.RecordSet, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("ingest: no input rows")
	}

	byTime := make(map[time.Time]Row, len(rows))
	seen := make(map[string]bool)
	var names []string
	for _, r := range rows {
		byTime[r.Timestamp.Truncate(time.Second)] = r
		for _, name := range columnNamesInOrder(r) {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}

	sorted := make([]time.Time, 0, len(byTime))
	for ts := range byTime {
		sorted = append(sorted, ts)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	start := sorted[0].Truncate(recordset.Step)
	end := sorted[len(sorted)-1].Truncate(recordset.Step)

	var grid []time.Time
	for t := start; !t.After(end); t = t.Add(recordset.Step) {
		grid = append(grid, t)
	}

	rs := recordset.New(grid)
	channels := make(map[string]*recordset.Channel, len(names))
	for _, name := range names {
		channels[name] = rs.AddChannel(name)
	}

	for i, ts := range grid {
		row, ok := byTime[ts]
		if !ok {
			continue // gap: every column stays at its zero value (absent)
		}
		rs.RecordText[i] = row.Record
		for name, ch := range channels {
			ch.RawText[i] = row.Columns[name]
		}
	}

	return rs, nil
}

// columnNamesInOrder returns r's data column names in the order channels
// should be added for r: the CSV header order captured in ColumnOrder when
// the row came from ReadCSV, or a sorted walk of Columns as a deterministic
// fallback for Rows built directly (e.g. in tests) without ColumnOrder set.
func columnNamesInOrder(r Row) []string {
	if r.ColumnOrder != nil {
		return r.ColumnOrder
	}
	names := make([]string, 0, len(r.Columns))
	for name := range r.Columns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
