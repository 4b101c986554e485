package pipeline

import (
	"github.com/nhg-hydromet/weatherqc/internal/qcengine/diagnostics"
	"github.com/nhg-hydromet/weatherqc/internal/qcengine/flags"
	"github.com/nhg-hydromet/weatherqc/internal/qcengine/recordset"
)

// sentinelValues are the sensor-encoded error values recognized on the raw
// (pre-normalization) numeric reading (§4.6).
var sentinelValues = map[float64]bool{-9999: true, -9990: true, -9998: true}

// dtAvgColumn gets an additional sentinel: 0 means "no sonic echo".
const dtAvgColumn = "DT_Avg"

// ApplyErrorValueDetection runs Stage F over every data channel.
func ApplyErrorValueDetection(rs *recordset.RecordSet, diag *diagnostics.Collector) {
	for _, ch := range rs.Channels {
		for i, ok := range ch.RawNumberOK {
			if !ok {
				continue
			}
			v := ch.RawNumber[i]
			if sentinelValues[v] || (ch.Name == dtAvgColumn && v == 0) {
				ch.Flag[i].Add(flags.E)
			}
		}
	}
}
