package ingest

import (
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/nhg-hydromet/weatherqc/internal/fsutil"
)

// timestampColumn and recordColumn are the two well-known columns every
// already-column-mapped export carries; every other header cell is a data
// column name taken verbatim.
const (
	timestampColumn = "TIMESTAMP"
	recordColumn    = "RECORD"
)

// ReadCSV reads an already column-mapped CSV export (header row of column
// names, one row per timestamp) from fs and returns it as Rows ready for
// Build. This is not a TOA5 header reader: it expects a plain header row,
// not TOA5's four-line preamble, matching §1's explicit scope boundary.
func ReadCSV(fs fsutil.FileSystem, path string) ([]Row, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ingest: open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("ingest: read %s: %w", path, err)
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("ingest: %s: empty file", path)
	}

	header := records[0]
	tsIdx, recIdx := -1, -1
	dataIdx := make(map[string]int, len(header))
	columnOrder := make([]string, 0, len(header))
	for i, name := range header {
		switch strings.ToUpper(strings.TrimSpace(name)) {
		case timestampColumn:
			tsIdx = i
		case recordColumn:
			recIdx = i
		default:
			dataIdx[name] = i
			columnOrder = append(columnOrder, name)
		}
	}
	if tsIdx == -1 {
		return nil, fmt.Errorf("ingest: %s: missing %s column", path, timestampColumn)
	}

	rows := make([]Row, 0, len(records)-1)
	for lineNo, rec := range records[1:] {
		if tsIdx >= len(rec) {
			return nil, fmt.Errorf("ingest: %s: line %d: missing timestamp field", path, lineNo+2)
		}
		ts, err := time.Parse(TimestampLayout, strings.TrimSpace(rec[tsIdx]))
		if err != nil {
			return nil, fmt.Errorf("ingest: %s: line %d: bad timestamp %q: %w", path, lineNo+2, rec[tsIdx], err)
		}

		row := Row{Timestamp: ts, Columns: make(map[string]string, len(dataIdx)), ColumnOrder: columnOrder}
		if recIdx != -1 && recIdx < len(rec) {
			row.Record = strings.TrimSpace(rec[recIdx])
		}
		for name, idx := range dataIdx {
			if idx < len(rec) {
				row.Columns[name] = strings.TrimSpace(rec[idx])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
