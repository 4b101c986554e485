package pipeline

import (
	"github.com/nhg-hydromet/weatherqc/internal/qcengine/diagnostics"
	"github.com/nhg-hydromet/weatherqc/internal/qcengine/flags"
	"github.com/nhg-hydromet/weatherqc/internal/qcengine/recordset"
)

// ApplyDedupAndPass runs Stage I (§4.9). Every flag cell already carries
// unique, first-seen-order tokens by construction (flags.Cell.Add enforces
// that), so the "normalization" step here is a no-op on cells built purely
// through the pipeline; it matters for cells round-tripped from a raw string
// (flags.ParseCell already performs the same drop-blank/drop-nan logic).
// Pass assignment: any present, non-missing data value whose flag cell ends
// up empty gets P.
func ApplyDedupAndPass(rs *recordset.RecordSet, diag *diagnostics.Collector) {
	passCount := 0
	for _, ch := range rs.Channels {
		for i := range ch.Flag {
			if ch.Present[i] && ch.Flag[i].Empty() {
				ch.Flag[i].Add(flags.P)
				passCount++
			}
		}
	}
	diagf("dedup: assigned P to %d cells", passCount)
}
