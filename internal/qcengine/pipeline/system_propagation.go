package pipeline

import (
	"github.com/nhg-hydromet/weatherqc/internal/qcengine/diagnostics"
	"github.com/nhg-hydromet/weatherqc/internal/qcengine/flags"
	"github.com/nhg-hydromet/weatherqc/internal/qcengine/recordset"
)

// systemPropagationRule is one (source_col, trigger, propagated) entry from
// §4.5.
type systemPropagationRule struct {
	source     string
	trigger    flags.Kind
	propagated flags.Kind
}

var systemPropagationRules = []systemPropagationRule{
	{source: "BattV_Avg", trigger: flags.R, propagated: flags.BV},
	{source: "PTemp_C_Avg", trigger: flags.R, propagated: flags.PT},
}

// ApplySystemPropagation runs Stage E. Unlike every other stage, BV/PT
// propagate onto M/ERR-flagged cells too (§4.5: "M/ERR-flagged cells are
// not skipped").
func ApplySystemPropagation(rs *recordset.RecordSet, diag *diagnostics.Collector) {
	for _, rule := range systemPropagationRules {
		source, ok := rs.Channel(rule.source)
		if !ok {
			diag.Warn("system-propagation", "source column %q not present, skipping", rule.source)
			continue
		}
		for i := range source.Flag {
			if !source.Flag[i].Has(rule.trigger) {
				continue
			}
			for _, ch := range rs.Channels {
				if ch.Name == rule.source {
					continue
				}
				ch.Flag[i].Add(rule.propagated)
			}
		}
	}
}
