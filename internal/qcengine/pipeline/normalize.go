package pipeline

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/nhg-hydromet/weatherqc/internal/qcengine/diagnostics"
	"github.com/nhg-hydromet/weatherqc/internal/qcengine/flags"
	"github.com/nhg-hydromet/weatherqc/internal/qcengine/recordset"
)

// FieldVisitWindow is a closed interval [In, Out] during which an observer was
// physically at the station (§4.1), rounded to the 15-minute grid before
// being applied: t_in floored, t_out ceiled.
type FieldVisitWindow struct {
	In  time.Time
	Out time.Time
}

// floorToGrid rounds t down to the most recent 15-minute grid point.
func floorToGrid(t time.Time) time.Time {
	return t.Truncate(recordset.Step)
}

// ceilToGrid rounds t up to the next 15-minute grid point (t itself if already
// aligned).
func ceilToGrid(t time.Time) time.Time {
	floored := t.Truncate(recordset.Step)
	if floored.Equal(t) {
		return t
	}
	return floored.Add(recordset.Step)
}

// parseCell attempts to coerce raw into a finite float64. ok is false for
// empty input, non-numeric input, and +/-Inf (which §4.1 step 1 explicitly
// labels corrupted).
func parseCell(raw string) (value float64, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Normalize runs Stage A over every data channel plus RECORD: coerce raw
// text to numeric, flag ERR for corrupted cells, M for missing cells, then
// apply field-visit windows.
func Normalize(rs *recordset.RecordSet, windows []FieldVisitWindow, diag *diagnostics.Collector) {
	for _, ch := range rs.Channels {
		normalizeChannel(ch, diag)
	}
	normalizeRecord(rs, diag)
	applyFieldVisitWindows(rs, windows)
	diagf("normalize: processed %d channels over %d rows", len(rs.Channels), rs.Len())
}

func normalizeChannel(ch *recordset.Channel, diag *diagnostics.Collector) {
	for i, raw := range ch.RawText {
		v, ok := parseCell(raw)
		ch.RawNumber[i] = v
		ch.RawNumberOK[i] = ok

		trimmed := strings.TrimSpace(raw)
		switch {
		case trimmed != "" && !ok:
			// Non-empty but non-numeric (or +/-Inf): corrupted.
			ch.Values[i] = 0
			ch.Present[i] = false
			ch.Flag[i].Set(flags.ERR)
		case !ok:
			// Empty/missing, not corrupted.
			ch.Values[i] = 0
			ch.Present[i] = false
			if !ch.Flag[i].Has(flags.ERR) {
				ch.Flag[i].Set(flags.M)
			}
		default:
			ch.Values[i] = v
			ch.Present[i] = true
		}
	}
}

func normalizeRecord(rs *recordset.RecordSet, diag *diagnostics.Collector) {
	for i, raw := range rs.RecordText {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			rs.RecordOK[i] = false
			if !rs.RecordFlag[i].Has(flags.ERR) {
				rs.RecordFlag[i].Set(flags.M)
			}
			continue
		}
		v, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			rs.RecordOK[i] = false
			rs.RecordFlag[i].Set(flags.ERR)
			diag.Warn("normalize", "row %d: RECORD value %q is not an integer", i, raw)
			continue
		}
		rs.RecordValue[i] = v
		rs.RecordOK[i] = true
	}
}

func applyFieldVisitWindows(rs *recordset.RecordSet, windows []FieldVisitWindow) {
	if len(windows) == 0 {
		return
	}
	grid := make([]FieldVisitWindow, len(windows))
	for i, w := range windows {
		grid[i] = FieldVisitWindow{In: floorToGrid(w.In), Out: ceilToGrid(w.Out)}
	}
	for i, ts := range rs.Timestamps {
		for _, w := range grid {
			if ts.Before(w.In) || ts.After(w.Out) {
				continue
			}
			for _, ch := range rs.Channels {
				ch.Flag[i].Add(flags.V)
			}
			break
		}
	}
}
