// Package recordset implements the engine's typed columnar data model
// (Design Notes: "one parallel array per column... row-wise operations
// become aligned vector operations"), replacing a dynamically-typed
// dataframe with fixed-shape Go slices.
package recordset

import (
	"fmt"
	"time"

	"github.com/nhg-hydromet/weatherqc/internal/qcengine/flags"
)

// Step is the fixed cadence of a normalized record set (§3 invariant 1).
const Step = 15 * time.Minute

// Channel is one data column: a raw pre-coercion text value per row (empty
// string means absent), the Stage-A-coerced numeric value and presence bit,
// the raw numeric parse used only by Stage F's sentinel detection, and the
// flag cell.
type Channel struct {
	Name string

	// RawText holds the input value before Stage A runs. An empty string
	// represents an absent cell, whether from the original source or from
	// gap materialization.
	RawText []string

	// Values/Present are populated by Stage A: the coerced floating point
	// value and whether it is present (false for both missing and corrupted
	// cells).
	Values  []float64
	Present []bool

	// RawNumber/RawNumberOK hold the bare numeric parse of RawText,
	// independent of what Stage A decided about missing/corrupted — this is
	// the "raw (pre-normalization) numeric value" Stage F operates on (§4.6).
	// A cell that was empty or non-numeric has RawNumberOK == false.
	RawNumber   []float64
	RawNumberOK []bool

	Flag []flags.Cell
}

// RecordSet is an ordered sequence of records indexed by TIMESTAMP, per §3.
type RecordSet struct {
	Timestamps []time.Time

	// RecordText is RECORD's raw pre-coercion text; RecordValue/RecordOK are
	// populated by Stage A the same way a data channel would be, including
	// ERR on a non-integer value (its flag cell is also used by Stage G for
	// restart detection and accumulates LR/other cascades).
	RecordText  []string
	RecordValue []int64
	RecordOK    []bool
	RecordFlag  []flags.Cell

	// Channels preserves input column order; it is both the iteration order
	// for per-column stages and the serialization order for data columns.
	Channels []*Channel
	index    map[string]int

	// Metadata holds forward/back-filled string columns (Data_ID, Station_ID,
	// Logger_ID, Logger_Script, Logger_Software, UTC offset, ...). MetaOrder
	// preserves the order metadata columns were added.
	Metadata  map[string][]string
	MetaOrder []string
}

// New allocates an empty RecordSet with n rows' worth of timestamp/RECORD
// storage; channels are added via AddChannel.
func New(timestamps []time.Time) *RecordSet {
	n := len(timestamps)
	rs := &RecordSet{
		Timestamps:  timestamps,
		RecordText:  make([]string, n),
		RecordValue: make([]int64, n),
		RecordOK:    make([]bool, n),
		RecordFlag:  make([]flags.Cell, n),
		index:       make(map[string]int),
		Metadata:    make(map[string][]string),
	}
	return rs
}

// Len returns the number of rows.
func (rs *RecordSet) Len() int { return len(rs.Timestamps) }

// AddChannel registers a new data channel in input order and returns it.
func (rs *RecordSet) AddChannel(name string) *Channel {
	n := rs.Len()
	ch := &Channel{
		Name:        name,
		RawText:     make([]string, n),
		Values:      make([]float64, n),
		Present:     make([]bool, n),
		RawNumber:   make([]float64, n),
		RawNumberOK: make([]bool, n),
		Flag:        make([]flags.Cell, n),
	}
	rs.index[name] = len(rs.Channels)
	rs.Channels = append(rs.Channels, ch)
	return ch
}

// Channel looks up a channel by name.
func (rs *RecordSet) Channel(name string) (*Channel, bool) {
	i, ok := rs.index[name]
	if !ok {
		return nil, false
	}
	return rs.Channels[i], true
}

// ValueAt returns a channel's coerced value at a row, for use as a
// column-reference limit bound (§3 Threshold Spec).
func (rs *RecordSet) ValueAt(name string, row int) (float64, bool) {
	ch, ok := rs.Channel(name)
	if !ok || row < 0 || row >= len(ch.Values) {
		return 0, false
	}
	return ch.Values[row], ch.Present[row]
}

// AddMetadata registers a new forward/back-filled metadata column.
func (rs *RecordSet) AddMetadata(name string, values []string) {
	if _, exists := rs.Metadata[name]; !exists {
		rs.MetaOrder = append(rs.MetaOrder, name)
	}
	rs.Metadata[name] = values
}

// Validate checks the structural invariants that must hold before the
// pipeline runs: strictly increasing timestamps on a constant 15-minute
// step, and matching channel slice lengths.
func (rs *RecordSet) Validate() error {
	n := rs.Len()
	for i := 1; i < n; i++ {
		got := rs.Timestamps[i].Sub(rs.Timestamps[i-1])
		if got != Step {
			return fmt.Errorf("recordset: row %d: timestamp step %s, want %s", i, got, Step)
		}
	}
	for _, ch := range rs.Channels {
		if len(ch.RawText) != n || len(ch.Values) != n || len(ch.Present) != n || len(ch.Flag) != n {
			return fmt.Errorf("recordset: channel %q has mismatched column length", ch.Name)
		}
	}
	return nil
}
