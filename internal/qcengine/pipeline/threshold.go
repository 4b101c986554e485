package pipeline

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/nhg-hydromet/weatherqc/internal/config"
	"github.com/nhg-hydromet/weatherqc/internal/qcengine/diagnostics"
	"github.com/nhg-hydromet/weatherqc/internal/qcengine/flags"
	"github.com/nhg-hydromet/weatherqc/internal/qcengine/limit"
	"github.com/nhg-hydromet/weatherqc/internal/qcengine/recordset"
)

// dbtcdtColumn is the special-cased channel whose hard-max is always
// sensor_height - 50 (§4.2).
const dbtcdtColumn = "DBTCDT_Avg"

// effectiveSpec is the per-row resolved {spec, sensorHeight} for a channel,
// after deployment-override resolution.
type effectiveSpec struct {
	spec   limit.ChannelThresholds
	height float64
	found  bool
}

// resolveEffectiveSpecs computes, for one channel and every row, which
// deployment (if any) is in effect, iterating the deployment list in sorted
// order and letting the last match win (§4.2 step 2, Design Notes open
// question 1).
func resolveEffectiveSpecs(channelName string, rs *recordset.RecordSet, cfg config.Bundle) []effectiveSpec {
	n := rs.Len()
	out := make([]effectiveSpec, n)
	globalSpec, hasGlobal := cfg.Thresholds[channelName]

	for i, ts := range rs.Timestamps {
		out[i] = effectiveSpec{spec: globalSpec, height: config.DefaultSensorHeight, found: hasGlobal}
		for _, dep := range cfg.Deployment {
			if !dep.Covers(ts) {
				continue
			}
			group, ok := cfg.Groups[dep.GroupID]
			if !ok {
				continue
			}
			override, hasOverride := group.Thresholds[channelName]
			out[i].height = group.SensorHeight
			if hasOverride {
				out[i].spec = override
				out[i].found = true
			}
			// Iteration continues: a later (higher-start) deployment in the
			// sorted list overwrites this one, matching "later deployments
			// win" even when both cover the same timestamp.
		}
	}
	return out
}

// ApplyThresholds runs Stage B over every configured channel.
func ApplyThresholds(rs *recordset.RecordSet, cfg config.Bundle, diag *diagnostics.Collector) {
	for _, ch := range rs.Channels {
		applyThresholdsToChannel(ch, rs, cfg, diag)
	}
}

func applyThresholdsToChannel(ch *recordset.Channel, rs *recordset.RecordSet, cfg config.Bundle, diag *diagnostics.Collector) {
	specs := resolveEffectiveSpecs(ch.Name, rs, cfg)

	anySpec := false
	for _, s := range specs {
		if s.found {
			anySpec = true
			break
		}
	}
	if !anySpec && ch.Name != dbtcdtColumn {
		return // "a channel with no global and no deployment spec is silently skipped"
	}

	softBreaches := 0
	for i := range ch.Values {
		if !ch.Present[i] {
			continue
		}
		if ch.Flag[i].Has(flags.M) || ch.Flag[i].Has(flags.ERR) {
			continue
		}
		s := specs[i]
		rMin, hasRMin := s.spec.RMin.Resolve(s.height, rowColumnLookup(rs, i))
		rMax, hasRMax := s.spec.RMax.Resolve(s.height, rowColumnLookup(rs, i))
		cMin, hasCMin := s.spec.CMin.Resolve(s.height, rowColumnLookup(rs, i))
		cMax, hasCMax := s.spec.CMax.Resolve(s.height, rowColumnLookup(rs, i))

		if ch.Name == dbtcdtColumn {
			hasRMax = true
			rMax = s.height - 50
		}

		v := ch.Values[i]
		hardBreach := (hasRMin && v < rMin) || (hasRMax && v > rMax)
		if hardBreach {
			ch.Flag[i].Add(flags.R)
			continue
		}
		softBreach := (hasCMin && v < cMin) || (hasCMax && v > cMax)
		if softBreach {
			ch.Flag[i].Add(flags.C)
			softBreaches++
		}
	}

	if softBreaches > 0 {
		reportSoftBreachQuantiles(ch, softBreaches, diag)
	}
}

// reportSoftBreachQuantiles surfaces the distribution of a channel's present
// values as a diagnostic whenever it took any soft (caution-limit) breaches
// this run, giving an operator context for how far outside the caution band
// the run actually ran (a channel sitting at p98 just past its caution limit
// reads very differently from one with its median past it).
func reportSoftBreachQuantiles(ch *recordset.Channel, softBreaches int, diag *diagnostics.Collector) {
	var values []float64
	for i, present := range ch.Present {
		if present {
			values = append(values, ch.Values[i])
		}
	}
	if len(values) == 0 {
		return
	}
	sort.Float64s(values)
	p10 := stat.Quantile(0.1, stat.Empirical, values, nil)
	p50 := stat.Quantile(0.5, stat.Empirical, values, nil)
	p90 := stat.Quantile(0.9, stat.Empirical, values, nil)
	diag.Info("threshold", "%s: %d soft breaches this run (p10=%.3f p50=%.3f p90=%.3f)", ch.Name, softBreaches, p10, p50, p90)
}

// rowColumnLookup returns a column-value lookup closure bound to row i, used
// to resolve ColumnRef limits (§3 Threshold Spec: "the limit is then a
// vector from that column, aligned row-wise").
func rowColumnLookup(rs *recordset.RecordSet, row int) func(string) (float64, bool) {
	return func(name string) (float64, bool) {
		return rs.ValueAt(name, row)
	}
}
