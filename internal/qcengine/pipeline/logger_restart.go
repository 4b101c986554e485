package pipeline

import (
	"github.com/nhg-hydromet/weatherqc/internal/qcengine/diagnostics"
	"github.com/nhg-hydromet/weatherqc/internal/qcengine/flags"
	"github.com/nhg-hydromet/weatherqc/internal/qcengine/recordset"
)

// ApplyLoggerRestart runs Stage G: detect RECORD sequence resets and cascade
// LR onto every flag column on that row (§4.7).
func ApplyLoggerRestart(rs *recordset.RecordSet, diag *diagnostics.Collector) {
	var prevOK bool
	var prevValue int64

	for i := 0; i < rs.Len(); i++ {
		restart := false
		if rs.RecordOK[i] {
			if prevOK && rs.RecordValue[i] < prevValue {
				restart = true
			} else if !prevOK && rs.RecordValue[i] == 0 {
				restart = true
			}
		}

		if restart {
			rs.RecordFlag[i].Add(flags.LR)
			for _, ch := range rs.Channels {
				ch.Flag[i].Add(flags.LR)
			}
			diagf("logger-restart: row %d flagged LR", i)
		}

		prevOK = rs.RecordOK[i]
		if prevOK {
			prevValue = rs.RecordValue[i]
		}
	}
}
