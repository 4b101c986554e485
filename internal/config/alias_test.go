package config

import "testing"

func TestAliasMapCanonicalize(t *testing.T) {
	a := DefaultAliasMap()
	if got := a.Canonicalize("MaxWS_ms"); got != "MaxWS_ms_Avg" {
		t.Errorf("Canonicalize(MaxWS_ms) = %q, want MaxWS_ms_Avg", got)
	}
	if got := a.Canonicalize("MaxWS_ms_Avg"); got != "MaxWS_ms_Avg" {
		t.Errorf("Canonicalize(MaxWS_ms_Avg) = %q, want MaxWS_ms_Avg (identity)", got)
	}
	if got := a.Canonicalize("SomeUnaliasedColumn"); got != "SomeUnaliasedColumn" {
		t.Errorf("Canonicalize(unknown) = %q, want passthrough", got)
	}
}

func TestLoadAliasMap(t *testing.T) {
	dir := t.TempDir()
	path := writeJSON(t, dir, "aliases.json", `{"RHT_Avg": "RHT_C_Avg"}`)
	m, err := LoadAliasMap(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := m.Canonicalize("RHT_Avg"); got != "RHT_C_Avg" {
		t.Errorf("Canonicalize(RHT_Avg) = %q, want RHT_C_Avg", got)
	}
}
