package pipeline

import (
	"fmt"
	"time"

	"github.com/nhg-hydromet/weatherqc/internal/config"
	"github.com/nhg-hydromet/weatherqc/internal/qcengine/limit"
	"github.com/nhg-hydromet/weatherqc/internal/qcengine/recordset"
)

// newGridTimestamps returns n strictly-increasing timestamps starting at
// start, 15 minutes apart.
func newGridTimestamps(start time.Time, n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.Add(time.Duration(i) * recordset.Step)
	}
	return out
}

// newChannelValues adds a channel with the given present numeric values
// (all rows present) to rs.
func newChannelValues(rs *recordset.RecordSet, name string, values []float64) *recordset.Channel {
	ch := rs.AddChannel(name)
	for i, v := range values {
		ch.RawText[i] = fmt.Sprintf("%v", v)
	}
	return ch
}

func emptyBundle() config.Bundle {
	return config.Bundle{
		Thresholds: config.ThresholdMap{},
		Groups:     config.InstrumentGroups{},
		Deployment: config.Deployments{},
		Rules:      config.DependencyRules{},
		Aliases:    config.AliasMap{},
	}
}

// flagStrings renders every row's flag column for ch as a string slice,
// suitable for a cmp.Diff golden comparison against a literal []string.
func flagStrings(ch *recordset.Channel) []string {
	out := make([]string, len(ch.Flag))
	for i, f := range ch.Flag {
		out[i] = f.String()
	}
	return out
}

func fixedThresholds(rMin, rMax, cMin, cMax float64) limit.ChannelThresholds {
	return limit.ChannelThresholds{
		RMin: limit.Limit{Kind: limit.Fixed, Number: rMin},
		RMax: limit.Limit{Kind: limit.Fixed, Number: rMax},
		CMin: limit.Limit{Kind: limit.Fixed, Number: cMin},
		CMax: limit.Limit{Kind: limit.Fixed, Number: cMax},
	}
}
