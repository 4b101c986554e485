package pipeline

import (
	"time"

	"github.com/nhg-hydromet/weatherqc/internal/config"
	"github.com/nhg-hydromet/weatherqc/internal/qcengine/diagnostics"
	"github.com/nhg-hydromet/weatherqc/internal/qcengine/flags"
	"github.com/nhg-hydromet/weatherqc/internal/qcengine/recordset"
	"github.com/nhg-hydromet/weatherqc/internal/qcengine/solar"
)

// dayWindowPad is the padding applied around [sunrise, sunset] (§4.4 step 2).
const dayWindowPad = 15 * time.Minute

// radiationZThreshold is the epsilon used for both SlrFD_W_Avg's positive
// check and SWin_Avg/SWout_Avg's negative check (§4.4 step 3).
const radiationZThreshold = 1e-4

type dayWindow struct {
	start, end time.Time
	ok         bool
}

// ApplySolarNight runs Stage D: for each unique local calendar date, compute
// the day window and flag Z on radiation channels outside it.
func ApplySolarNight(rs *recordset.RecordSet, station config.StationCoords, diag *diagnostics.Collector) {
	windows := make(map[string]dayWindow)
	windowFor := func(t time.Time) dayWindow {
		key := t.Format("2006-01-02")
		if w, ok := windows[key]; ok {
			return w
		}
		sunrise, sunset := solar.SunriseSunset(t, station.Latitude, station.Longitude, station.UTCOffsetHours)
		w := dayWindow{ok: sunrise.OK && sunset.OK}
		if w.ok {
			w.start = sunrise.Time.Add(-dayWindowPad)
			w.end = sunset.Time.Add(dayWindowPad)
		} else {
			diag.Warn("solar", "day %s: sunrise/sunset could not be computed, skipping Z flag", key)
		}
		windows[key] = w
		return w
	}

	positive := map[string]bool{"SlrFD_W_Avg": true}
	negative := map[string]bool{"SWin_Avg": true, "SWout_Avg": true}

	for name := range positive {
		applyRadiationChannel(rs, name, windowFor, func(v float64) bool { return v > radiationZThreshold })
	}
	for name := range negative {
		applyRadiationChannel(rs, name, windowFor, func(v float64) bool { return v < -radiationZThreshold })
	}
}

func applyRadiationChannel(rs *recordset.RecordSet, name string, windowFor func(time.Time) dayWindow, anomalous func(float64) bool) {
	ch, ok := rs.Channel(name)
	if !ok {
		return
	}
	for i, v := range ch.Values {
		if !ch.Present[i] || skippable(ch.Flag[i]) {
			continue
		}
		ts := rs.Timestamps[i]
		w := windowFor(ts)
		if !w.ok {
			continue
		}
		if ts.Before(w.start) || ts.After(w.end) {
			if anomalous(v) {
				ch.Flag[i].Add(flags.Z)
			}
		}
	}
}
