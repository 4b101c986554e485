package pipeline

import (
	"github.com/nhg-hydromet/weatherqc/internal/config"
	"github.com/nhg-hydromet/weatherqc/internal/qcengine/diagnostics"
	"github.com/nhg-hydromet/weatherqc/internal/qcengine/flags"
	"github.com/nhg-hydromet/weatherqc/internal/qcengine/recordset"
)

// ApplyDependencyPropagation runs Stage H: the rule table is applied exactly
// once, in declared order (§4.8, §5 — "no fixed-point iteration"). Column
// names are canonicalized via the alias map before lookup; a rule whose
// target or any source is missing after canonicalization skips silently.
func ApplyDependencyPropagation(rs *recordset.RecordSet, rules config.DependencyRules, aliases config.AliasMap, diag *diagnostics.Collector) {
	for _, rule := range rules {
		target, ok := rs.Channel(aliases.Canonicalize(rule.Target))
		if !ok {
			diag.Warn("dependency", "target column %q not present, rule skipped", rule.Target)
			continue
		}

		sources := make([]*recordset.Channel, 0, len(rule.Sources))
		missing := false
		for _, s := range rule.Sources {
			ch, ok := rs.Channel(aliases.Canonicalize(s))
			if !ok {
				diag.Warn("dependency", "source column %q not present, rule for target %q skipped", s, rule.Target)
				missing = true
				break
			}
			sources = append(sources, ch)
		}
		if missing {
			continue
		}

		for i := 0; i < rs.Len(); i++ {
			if rowMatchesAnyTrigger(sources, i, rule.TriggerFlags) {
				target.Flag[i].Add(rule.SetFlag)
			}
		}
	}
}

func rowMatchesAnyTrigger(sources []*recordset.Channel, row int, triggers []flags.Kind) bool {
	for _, s := range sources {
		for _, trig := range triggers {
			if s.Flag[row].Has(trig) {
				return true
			}
		}
	}
	return false
}
