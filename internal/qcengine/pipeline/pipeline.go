// Package pipeline implements the 9-stage (A-I) QA/QC flag engine described
// in §2 and §4: a strictly ordered, single-threaded transformation over an
// in-memory RecordSet. Every exported Run call takes its Diagnostics
// collector by reference (Design Notes: "make the pipeline take a
// Diagnostics collector by reference") rather than writing to a global sink.
package pipeline

import (
	"fmt"

	"github.com/nhg-hydromet/weatherqc/internal/config"
	"github.com/nhg-hydromet/weatherqc/internal/qcengine/diagnostics"
	"github.com/nhg-hydromet/weatherqc/internal/qcengine/recordset"
)

// Options configures one pipeline run: the configuration bundle plus the
// field-visit windows (§4.1), which are operational metadata rather than a
// "configuration input" listed in §6 but are required by the Normalizer.
type Options struct {
	Config            config.Bundle
	FieldVisitWindows []FieldVisitWindow
}

// Run executes stages A through I in order over rs, mutating its flag cells
// in place, and returns the same RecordSet for convenience. Data columns are
// read-only after Normalize (Stage A); only flag cells are written by
// Stages B-I, matching §2's "Stages mutate flag columns only."
func Run(rs *recordset.RecordSet, opts Options, diag *diagnostics.Collector) (*recordset.RecordSet, error) {
	if rs == nil {
		return nil, fmt.Errorf("pipeline: nil record set")
	}
	if rs.Len() == 0 {
		return rs, nil
	}
	if diag == nil {
		diag = &diagnostics.Collector{}
	}

	opsf("pipeline: starting run over %d rows, %d channels", rs.Len(), len(rs.Channels))

	Normalize(rs, opts.FieldVisitWindows, diag)
	ApplyThresholds(rs, opts.Config, diag)
	ApplyLogicFlags(rs, opts.Config, diag)
	ApplySolarNight(rs, opts.Config.Station, diag)
	ApplySystemPropagation(rs, diag)
	ApplyErrorValueDetection(rs, diag)
	ApplyLoggerRestart(rs, diag)
	ApplyDependencyPropagation(rs, opts.Config.Rules, opts.Config.Aliases, diag)
	ApplyDedupAndPass(rs, diag)

	opsf("pipeline: run complete, %d diagnostics emitted", diag.Len())
	return rs, nil
}
