package config

import "testing"

func TestLoadBundleWiresAllInputsAndDefaultsRulesAndAliases(t *testing.T) {
	dir := t.TempDir()
	thresholds := writeJSON(t, dir, "thresholds.json", `{"BattV_Avg": {"r_min": 9.6, "r_max": 19, "c_min": 10, "c_max": 16}}`)
	groups := writeJSON(t, dir, "groups.json", `{}`)
	deployments := writeJSON(t, dir, "deployments.json", `[]`)
	station := writeJSON(t, dir, "station.json", `{"latitude": 53.72, "longitude": -113, "utc_offset_hours": -7}`)

	b, err := LoadBundle(BundlePaths{
		Thresholds: thresholds,
		Groups:     groups,
		Deployment: deployments,
		Station:    station,
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := b.Thresholds["BattV_Avg"]; !ok {
		t.Error("expected BattV_Avg in loaded thresholds")
	}
	if len(b.Rules) != len(DefaultDependencyRules()) {
		t.Errorf("got %d rules, want the %d default rules (no override supplied)", len(b.Rules), len(DefaultDependencyRules()))
	}
	if len(b.Aliases) != len(DefaultAliasMap()) {
		t.Errorf("got %d aliases, want the default alias map (no override supplied)", len(b.Aliases))
	}
}

func TestLoadBundleRejectsInvalidStationCoords(t *testing.T) {
	dir := t.TempDir()
	thresholds := writeJSON(t, dir, "thresholds.json", `{}`)
	groups := writeJSON(t, dir, "groups.json", `{}`)
	deployments := writeJSON(t, dir, "deployments.json", `[]`)
	station := writeJSON(t, dir, "station.json", `{"latitude": 999, "longitude": -113, "utc_offset_hours": -7}`)

	if _, err := LoadBundle(BundlePaths{
		Thresholds: thresholds,
		Groups:     groups,
		Deployment: deployments,
		Station:    station,
	}); err == nil {
		t.Fatal("expected an error for an out-of-range latitude")
	}
}
