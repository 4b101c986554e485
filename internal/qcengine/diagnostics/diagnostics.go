// Package diagnostics implements the pipeline's structured side channel for
// non-fatal conditions: skipped deployments, skipped dependency rules,
// unresolvable configuration. Design Notes calls this out explicitly —
// "make the pipeline take a Diagnostics collector by reference; output is a
// list of structured events" — replacing a global mutable warning sink.
package diagnostics

import "fmt"

// Severity classifies an event for a caller deciding how loudly to surface it.
type Severity uint8

const (
	Info Severity = iota
	Warning
)

func (s Severity) String() string {
	if s == Warning {
		return "warning"
	}
	return "info"
}

// Event is one structured diagnostic emitted during a pipeline run.
type Event struct {
	Severity Severity
	Stage    string // e.g. "threshold", "dependency"
	Message  string
}

func (e Event) String() string {
	return fmt.Sprintf("[%s] %s: %s", e.Severity, e.Stage, e.Message)
}

// Collector accumulates Events across a single pipeline run. The zero value
// is ready to use. A Collector is not safe for concurrent writes from
// multiple goroutines without external synchronization; stages that
// parallelize per-column work (per §5) must route through per-column local
// collectors and merge afterward, or hold a mutex — the reference
// implementation keeps stages sequential and needs neither.
type Collector struct {
	events []Event
}

// Info records an informational event.
func (c *Collector) Info(stage, format string, args ...interface{}) {
	c.events = append(c.events, Event{Severity: Info, Stage: stage, Message: fmt.Sprintf(format, args...)})
}

// Warn records a warning-level event: something a human should see once per
// run (an unresolvable deployment, a dependency rule referencing a missing
// column).
func (c *Collector) Warn(stage, format string, args ...interface{}) {
	c.events = append(c.events, Event{Severity: Warning, Stage: stage, Message: fmt.Sprintf(format, args...)})
}

// Events returns the accumulated events in emission order. Callers must not
// mutate the returned slice.
func (c *Collector) Events() []Event { return c.events }

// Len reports how many events have been collected.
func (c *Collector) Len() int { return len(c.events) }

// CountBySeverity tallies events by severity, useful for a CLI summary line.
func (c *Collector) CountBySeverity() map[Severity]int {
	counts := make(map[Severity]int, 2)
	for _, e := range c.events {
		counts[e.Severity]++
	}
	return counts
}
