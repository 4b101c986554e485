package ingest

import (
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/nhg-hydromet/weatherqc/internal/fsutil"
	"github.com/nhg-hydromet/weatherqc/internal/qcengine/recordset"
)

// utcOffsetMetadataColumn is the one metadata identifier that is placed
// immediately after TIMESTAMP rather than with the rest of the trailing
// metadata block, per §6's output column ordering rule.
const utcOffsetMetadataColumn = "UTC_Offset"

// WriteCSV serializes rs to path following §6's output column ordering:
// TIMESTAMP, the UTC-offset metadata column (if present), RECORD,
// RECORD_Flag, then each data column interleaved with its <name>_Flag
// sibling in input order, then every remaining metadata identifier column.
func WriteCSV(fs fsutil.FileSystem, path string, rs *recordset.RecordSet) error {
	f, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("ingest: create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	header := []string{"TIMESTAMP"}
	hasUTCOffset := false
	if _, ok := rs.Metadata[utcOffsetMetadataColumn]; ok {
		header = append(header, utcOffsetMetadataColumn)
		hasUTCOffset = true
	}
	header = append(header, "RECORD", "RECORD_Flag")
	for _, ch := range rs.Channels {
		header = append(header, ch.Name, ch.Name+"_Flag")
	}
	var trailingMeta []string
	for _, name := range rs.MetaOrder {
		if name == utcOffsetMetadataColumn {
			continue
		}
		trailingMeta = append(trailingMeta, name)
		header = append(header, name)
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("ingest: write header: %w", err)
	}

	for i, ts := range rs.Timestamps {
		row := []string{ts.Format(TimestampLayout)}
		if hasUTCOffset {
			row = append(row, rs.Metadata[utcOffsetMetadataColumn][i])
		}
		row = append(row, rs.RecordText[i], rs.RecordFlag[i].String())
		for _, ch := range rs.Channels {
			row = append(row, formatCell(ch, i), ch.Flag[i].String())
		}
		for _, name := range trailingMeta {
			row = append(row, rs.Metadata[name][i])
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("ingest: write row %d: %w", i, err)
		}
	}

	w.Flush()
	return w.Error()
}

// formatCell renders a channel's output value for a row: the coerced
// numeric value if present, otherwise the original raw text (preserving an
// ERR cell's unparsable content instead of silently blanking it).
func formatCell(ch *recordset.Channel, row int) string {
	if ch.Present[row] {
		return strconv.FormatFloat(ch.Values[row], 'f', -1, 64)
	}
	return ch.RawText[row]
}
