package config

import (
	"fmt"
	"sort"
	"time"
)

// Deployment is configuration input 3: {start, end, group_id}, with
// half-closed/closed semantics resolved by the threshold stage (§4.2): the
// end timestamp is expanded to the end of that minute-of-day, making the
// interval effectively closed at the minute granularity.
type Deployment struct {
	Start   time.Time
	End     time.Time
	GroupID string
}

// Deployments is an ordered-by-start deployment list.
type Deployments []Deployment

type rawDeployment struct {
	Start   string `json:"start"`
	End     string `json:"end"`
	GroupID string `json:"group_id"`
}

const deploymentTimeLayout = "2006-01-02T15:04:05"

// LoadDeployments loads and sorts the deployment list ascending by start, per
// §4.2 ("deployments are pre-sorted ascending by start; later overrides win
// in-place").
func LoadDeployments(path string) (Deployments, error) {
	var raw []rawDeployment
	if err := loadJSONFile(path, &raw); err != nil {
		return nil, err
	}
	out := make(Deployments, 0, len(raw))
	for _, r := range raw {
		start, err := time.Parse(deploymentTimeLayout, r.Start)
		if err != nil {
			// A malformed timestamp is a configuration error (§7): the
			// offending deployment is ignored, not a fatal load error.
			continue
		}
		end, err := time.Parse(deploymentTimeLayout, r.End)
		if err != nil {
			continue
		}
		out = append(out, Deployment{Start: start, End: end, GroupID: r.GroupID})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

// Validate is a structural sanity check; per §7 individual malformed
// deployments are already dropped at load time rather than rejected here.
func (d Deployments) Validate() error {
	for i, dep := range d {
		if dep.End.Before(dep.Start) {
			return fmt.Errorf("deployment %d (%s): end before start", i, dep.GroupID)
		}
	}
	return nil
}

// EndOfMinute expands a deployment's End timestamp to the end of that
// minute, implementing the "expanded to the end of that minute-of-day —
// i.e. inclusive" rule in §4.2.
func (d Deployment) EndOfMinute() time.Time {
	return d.End.Truncate(time.Minute).Add(time.Minute).Add(-time.Nanosecond)
}

// Covers reports whether t falls within [Start, EndOfMinute()].
func (d Deployment) Covers(t time.Time) bool {
	end := d.EndOfMinute()
	return !t.Before(d.Start) && !t.After(end)
}
