package config

import (
	"testing"

	"github.com/nhg-hydromet/weatherqc/internal/qcengine/flags"
)

func TestDefaultDependencyRulesCount(t *testing.T) {
	rules := DefaultDependencyRules()
	if len(rules) != 27 {
		t.Fatalf("got %d rules, want 27", len(rules))
	}
}

func TestDefaultDependencyRulesTiltToSolar(t *testing.T) {
	rules := DefaultDependencyRules()
	found := false
	for _, r := range rules {
		if r.Target == "SlrFD_W_Avg" && len(r.Sources) == 1 && r.Sources[0] == "TiltNS_deg_Avg" {
			found = true
			if len(r.TriggerFlags) != 1 || r.TriggerFlags[0] != flags.C || r.SetFlag != flags.T {
				t.Errorf("tilt->solar rule = %+v, want trigger C, set T", r)
			}
		}
	}
	if !found {
		t.Fatal("expected a SlrFD_W_Avg <- TiltNS_deg_Avg rule")
	}
}

func TestLoadDependencyRulesOverride(t *testing.T) {
	dir := t.TempDir()
	path := writeJSON(t, dir, "rules.json", `[
		{"target": "SWnet_Avg", "sources": ["SWin_Avg"], "trigger_flags": ["R"], "set_flag": "DF"}
	]`)
	rules, err := LoadDependencyRulesOverride(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(rules) != 1 {
		t.Fatalf("got %d rules, want 1", len(rules))
	}
	r := rules[0]
	if r.Target != "SWnet_Avg" || r.SetFlag != flags.DF || len(r.TriggerFlags) != 1 || r.TriggerFlags[0] != flags.R {
		t.Fatalf("got %+v, unexpected rule", r)
	}
}

func TestLoadDependencyRulesOverrideRejectsUnknownFlag(t *testing.T) {
	dir := t.TempDir()
	path := writeJSON(t, dir, "rules.json", `[
		{"target": "SWnet_Avg", "sources": ["SWin_Avg"], "trigger_flags": ["NOPE"], "set_flag": "DF"}
	]`)
	if _, err := LoadDependencyRulesOverride(path); err == nil {
		t.Fatal("expected an error for an unknown trigger flag")
	}
}
