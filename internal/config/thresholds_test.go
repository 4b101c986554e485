package config

import (
	"testing"

	"github.com/nhg-hydromet/weatherqc/internal/qcengine/limit"
)

func TestLoadThresholdMap(t *testing.T) {
	dir := t.TempDir()
	path := writeJSON(t, dir, "thresholds.json", `{
		"BattV_Avg": {"r_min": 9.6, "r_max": 19, "c_min": 10, "c_max": 16},
		"DBTCDT_Avg": {"r_min": "H-50", "r_max": null, "c_min": null, "c_max": null}
	}`)

	tm, err := LoadThresholdMap(path)
	if err != nil {
		t.Fatal(err)
	}
	batt, ok := tm["BattV_Avg"]
	if !ok {
		t.Fatal("expected BattV_Avg spec to be present")
	}
	if batt.RMin.Kind != limit.Fixed || batt.RMin.Number != 9.6 {
		t.Errorf("BattV_Avg.RMin = %+v, want Fixed(9.6)", batt.RMin)
	}

	dbtcdt, ok := tm["DBTCDT_Avg"]
	if !ok {
		t.Fatal("expected DBTCDT_Avg spec to be present")
	}
	if dbtcdt.RMin.Kind != limit.Height || dbtcdt.RMin.Offset != -50 {
		t.Errorf("DBTCDT_Avg.RMin = %+v, want Height(-50)", dbtcdt.RMin)
	}
	if dbtcdt.RMax.Kind != limit.None {
		t.Errorf("DBTCDT_Avg.RMax = %+v, want None", dbtcdt.RMax)
	}
}

func TestLoadInstrumentGroups(t *testing.T) {
	dir := t.TempDir()
	path := writeJSON(t, dir, "groups.json", `{
		"tower-a": {
			"sensor_height": 300,
			"thresholds": {"SlrFD_W_Avg": {"r_min": 0, "r_max": 2000, "c_min": null, "c_max": null}}
		}
	}`)

	groups, err := LoadInstrumentGroups(path)
	if err != nil {
		t.Fatal(err)
	}
	g, ok := groups["tower-a"]
	if !ok {
		t.Fatal("expected tower-a group to be present")
	}
	if g.SensorHeight != 300 {
		t.Errorf("SensorHeight = %v, want 300", g.SensorHeight)
	}
	if _, ok := g.Thresholds["SlrFD_W_Avg"]; !ok {
		t.Error("expected SlrFD_W_Avg override in tower-a group")
	}
}

func TestLoadThresholdMapRejectsNonJSONExtension(t *testing.T) {
	dir := t.TempDir()
	path := writeJSON(t, dir, "thresholds.txt", `{}`)
	if _, err := LoadThresholdMap(path); err == nil {
		t.Fatal("expected an error for a non-.json file")
	}
}
