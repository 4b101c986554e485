package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeJSON(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDeploymentsSortsAndDropsMalformed(t *testing.T) {
	dir := t.TempDir()
	path := writeJSON(t, dir, "deployments.json", `[
		{"start": "2023-06-01T00:00:00", "end": "2023-09-01T00:00:00", "group_id": "summer"},
		{"start": "2023-01-01T00:00:00", "end": "2023-06-01T00:00:00", "group_id": "winter"},
		{"start": "not-a-time", "end": "2023-12-31T23:59:59", "group_id": "bad"}
	]`)

	deps, err := LoadDeployments(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(deps) != 2 {
		t.Fatalf("got %d deployments, want 2 (malformed entry dropped)", len(deps))
	}
	if deps[0].GroupID != "winter" || deps[1].GroupID != "summer" {
		t.Fatalf("deployments not sorted ascending by start: %+v", deps)
	}
}

func TestDeploymentEndOfMinuteInclusive(t *testing.T) {
	d := Deployment{
		Start: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2023, 1, 1, 12, 30, 0, 0, time.UTC),
	}
	if !d.Covers(d.Start) {
		t.Error("expected Start to be covered")
	}
	if !d.Covers(d.End) {
		t.Error("expected End to be covered")
	}
	if !d.Covers(d.End.Add(59 * time.Second)) {
		t.Error("expected end-of-minute boundary (End+59s) to be covered")
	}
	if d.Covers(d.End.Add(61 * time.Second)) {
		t.Error("expected one minute past End to not be covered")
	}
	if d.Covers(d.Start.Add(-time.Second)) {
		t.Error("expected one second before Start to not be covered")
	}
}

func TestDeploymentsValidateRejectsEndBeforeStart(t *testing.T) {
	deps := Deployments{{
		Start:   time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
		End:     time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		GroupID: "bad",
	}}
	if err := deps.Validate(); err == nil {
		t.Fatal("expected an error for end before start")
	}
}
