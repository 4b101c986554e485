package pipeline

import (
	"github.com/nhg-hydromet/weatherqc/internal/config"
	"github.com/nhg-hydromet/weatherqc/internal/qcengine/diagnostics"
	"github.com/nhg-hydromet/weatherqc/internal/qcengine/flags"
	"github.com/nhg-hydromet/weatherqc/internal/qcengine/recordset"
)

// summerSnowMonths is the calendar window in which a nonzero snow-depth
// reading is suspicious (§4.3 "Summer-snow").
var summerSnowMonths = map[int]bool{6: true, 7: true, 8: true, 9: true}

// skippable reports whether a cell is already in a reserved single-token
// state that Stage B-H must not overwrite (§4.2 "Skip append if row already
// flagged M or ERR").
func skippable(c flags.Cell) bool {
	return c.Has(flags.M) || c.Has(flags.ERR)
}

// ApplyLogicFlags runs Stage C: derived flags not expressible as simple
// range checks, applied in the order given in §4.3.
func ApplyLogicFlags(rs *recordset.RecordSet, cfg config.Bundle, diag *diagnostics.Collector) {
	specs := resolveEffectiveSpecs(dbtcdtColumn, rs, cfg)
	applySnowDepthCeiling(rs, specs)
	applySummerSnow(rs)
	applyNoWind(rs)
	applyNoStrike(rs)
	applyDivideByZero(rs)
}

func applySnowDepthCeiling(rs *recordset.RecordSet, specs []effectiveSpec) {
	ch, ok := rs.Channel(dbtcdtColumn)
	if !ok {
		return
	}
	for i, v := range ch.Values {
		if !ch.Present[i] || skippable(ch.Flag[i]) {
			continue
		}
		if v > specs[i].height-50 {
			ch.Flag[i].Add(flags.R)
		}
	}
}

func applySummerSnow(rs *recordset.RecordSet) {
	ch, ok := rs.Channel(dbtcdtColumn)
	if !ok {
		return
	}
	for i, v := range ch.Values {
		if !ch.Present[i] || skippable(ch.Flag[i]) {
			continue
		}
		if summerSnowMonths[int(rs.Timestamps[i].Month())] && v > 0 {
			ch.Flag[i].Add(flags.SF)
		}
	}
}

func applyNoWind(rs *recordset.RecordSet) {
	ch, ok := rs.Channel("WS_ms_Avg")
	if !ok {
		return
	}
	for i, v := range ch.Values {
		if !ch.Present[i] || skippable(ch.Flag[i]) {
			continue
		}
		if v <= 0 {
			ch.Flag[i].Add(flags.NV)
		}
	}
}

func applyNoStrike(rs *recordset.RecordSet) {
	strikes, ok := rs.Channel("Strikes_Tot")
	if !ok {
		return
	}
	dist, ok := rs.Channel("Dist_km_Avg")
	if !ok {
		return
	}
	for i, v := range strikes.Values {
		if !strikes.Present[i] || skippable(dist.Flag[i]) {
			continue
		}
		if v <= 0 {
			dist.Flag[i].Add(flags.NV)
		}
	}
}

func applyDivideByZero(rs *recordset.RecordSet) {
	swin, ok := rs.Channel("SWin_Avg")
	if !ok {
		return
	}
	albedo, ok := rs.Channel("SWalbedo_Avg")
	if !ok {
		return
	}
	for i, v := range swin.Values {
		if !swin.Present[i] || skippable(albedo.Flag[i]) {
			continue
		}
		if v < 20 {
			albedo.Flag[i].Add(flags.DZ)
		}
	}
}
