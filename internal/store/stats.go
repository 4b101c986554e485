package store

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/nhg-hydromet/weatherqc/internal/qcengine/recordset"
)

// ChannelSummary reports a quick health check for one channel of a
// completed run: how much of it came through clean versus flagged, and the
// spread of the values that did.
type ChannelSummary struct {
	Channel      string
	PresentCount int
	FlaggedCount int
	Median       float64
	Quantile10   float64
	Quantile90   float64
}

// Summarize computes a ChannelSummary per channel directly from a
// RecordSet, without touching the database — useful for a CLI run summary
// printed immediately after a pipeline invocation, before (or instead of)
// persisting it via FinishRun.
func Summarize(rs *recordset.RecordSet) []ChannelSummary {
	out := make([]ChannelSummary, 0, len(rs.Channels))
	for _, ch := range rs.Channels {
		var values []float64
		flagged := 0
		for i, present := range ch.Present {
			if present {
				values = append(values, ch.Values[i])
			}
			if !ch.Flag[i].Empty() {
				flagged++
			}
		}
		summary := ChannelSummary{Channel: ch.Name, PresentCount: len(values), FlaggedCount: flagged}
		if len(values) > 0 {
			sort.Float64s(values)
			summary.Median = stat.Quantile(0.5, stat.Empirical, values, nil)
			summary.Quantile10 = stat.Quantile(0.1, stat.Empirical, values, nil)
			summary.Quantile90 = stat.Quantile(0.9, stat.Empirical, values, nil)
		}
		out = append(out, summary)
	}
	return out
}

func (c ChannelSummary) String() string {
	return fmt.Sprintf("%s: %d present, %d flagged, median=%.3f [p10=%.3f p90=%.3f]",
		c.Channel, c.PresentCount, c.FlaggedCount, c.Median, c.Quantile10, c.Quantile90)
}
