package config

// AliasMap is configuration input 6: raw_name -> canonical_name. Stage H
// canonicalizes both target and source column names through this table
// before matching (§4.8), e.g. MaxWS_ms <-> MaxWS_ms_Avg, RHT_Avg <->
// RHT_C_Avg.
type AliasMap map[string]string

// Canonicalize resolves name through the alias table, returning name
// unchanged if it has no alias entry.
func (a AliasMap) Canonicalize(name string) string {
	if canon, ok := a[name]; ok {
		return canon
	}
	return name
}

// LoadAliasMap loads the column-alias map.
func LoadAliasMap(path string) (AliasMap, error) {
	var m AliasMap
	if err := loadJSONFile(path, &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = AliasMap{}
	}
	return m, nil
}

// DefaultAliasMap returns the fixed alias table referenced in §4.8 as an
// example: "MaxWS_ms ↔ MaxWS_ms_Avg, RHT_Avg ↔ RHT_C_Avg". Both directions
// are registered so canonicalization is stable regardless of which form a
// rule or a data column happens to use.
func DefaultAliasMap() AliasMap {
	return AliasMap{
		"MaxWS_ms":     "MaxWS_ms_Avg",
		"MaxWS_ms_Avg": "MaxWS_ms_Avg",
		"RHT_Avg":      "RHT_C_Avg",
		"RHT_C_Avg":    "RHT_C_Avg",
		"VP_hPa_Avg":   "VP_mbar_Avg",
		"BP_hPa_Avg":   "BP_mbar_Avg",
	}
}
