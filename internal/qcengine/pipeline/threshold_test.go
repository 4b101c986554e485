package pipeline

import (
	"strings"
	"testing"

	"github.com/nhg-hydromet/weatherqc/internal/qcengine/diagnostics"
	"github.com/nhg-hydromet/weatherqc/internal/qcengine/recordset"
)

func TestApplyThresholdsReportsSoftBreachQuantiles(t *testing.T) {
	ts := newGridTimestamps(testStart, 4)
	rs := recordset.New(ts)
	newChannelValues(rs, "BattV_Avg", []float64{17, 16.5, 12, 11})

	cfg := emptyBundle()
	cfg.Thresholds["BattV_Avg"] = fixedThresholds(9.6, 19, 10, 16)

	diag := &diagnostics.Collector{}
	Normalize(rs, nil, diag)
	ApplyThresholds(rs, cfg, diag)

	var found bool
	for _, ev := range diag.Events() {
		if ev.Stage == "threshold" && strings.Contains(ev.Message, "BattV_Avg") {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a threshold diagnostic reporting BattV_Avg's soft breach quantiles")
	}
}

func TestApplyThresholdsSkipsQuantilesWithoutSoftBreach(t *testing.T) {
	ts := newGridTimestamps(testStart, 3)
	rs := recordset.New(ts)
	newChannelValues(rs, "BattV_Avg", []float64{13, 13.5, 14})

	cfg := emptyBundle()
	cfg.Thresholds["BattV_Avg"] = fixedThresholds(9.6, 19, 10, 16)

	diag := &diagnostics.Collector{}
	Normalize(rs, nil, diag)
	ApplyThresholds(rs, cfg, diag)

	if diag.Len() != 0 {
		t.Errorf("expected no diagnostics when nothing breached caution limits, got %d", diag.Len())
	}
}
