package config

import (
	"fmt"

	"github.com/nhg-hydromet/weatherqc/internal/qcengine/flags"
)

// DependencyRule is configuration input 4: {target, sources, trigger_flags,
// set_flag} (§3 "Dependency Rule"). Stage H applies the table exactly once,
// in declared order (§4.8, §5): rule order matters because earlier rules can
// create tokens later rules trigger on.
type DependencyRule struct {
	Target       string
	Sources      []string
	TriggerFlags []flags.Kind
	SetFlag      flags.Kind
}

// DependencyRules is the ordered rule table.
type DependencyRules []DependencyRule

// DefaultDependencyRules returns the 27-rule table described in §4.8: tilt ->
// solar/rain dependencies, RH-probe <-> VP <-> AirT derivation chain, the
// SR50 echo chain (DT -> TCDT -> DBTCDT), AirT temperature-correction of
// TCDT, SWin/SWout -> SWnet/SWalbedo, LW pairs -> LWnet, NR aggregating all
// four radiation components, and wind-speed -> direction/gust. This table is
// a required literal input (§4.8); it is not reconstructed from a config
// file at runtime, though LoadDependencyRulesOverride (below) allows tests to
// substitute one.
func DefaultDependencyRules() DependencyRules {
	dfCause := []flags.Kind{flags.R, flags.E, flags.DF}
	dcCause := []flags.Kind{flags.C}
	tiltCause := []flags.Kind{flags.C}

	return DependencyRules{
		// --- Sensor-tilt -> solar/rain dependencies (6) ---
		{Target: "SlrFD_W_Avg", Sources: []string{"TiltNS_deg_Avg"}, TriggerFlags: tiltCause, SetFlag: flags.T},
		{Target: "SlrFD_W_Avg", Sources: []string{"TiltWE_deg_Avg"}, TriggerFlags: tiltCause, SetFlag: flags.T},
		{Target: "SWin_Avg", Sources: []string{"TiltNS_deg_Avg"}, TriggerFlags: tiltCause, SetFlag: flags.T},
		{Target: "SWin_Avg", Sources: []string{"TiltWE_deg_Avg"}, TriggerFlags: tiltCause, SetFlag: flags.T},
		{Target: "SWout_Avg", Sources: []string{"TiltNS_deg_Avg"}, TriggerFlags: tiltCause, SetFlag: flags.T},
		{Target: "SWout_Avg", Sources: []string{"TiltWE_deg_Avg"}, TriggerFlags: tiltCause, SetFlag: flags.T},

		// --- RH probe <-> VP <-> AirT derivation chain (4) ---
		{Target: "VP_mbar_Avg", Sources: []string{"RHT_C_Avg"}, TriggerFlags: dfCause, SetFlag: flags.DF},
		{Target: "VP_mbar_Avg", Sources: []string{"RH"}, TriggerFlags: dfCause, SetFlag: flags.DF},
		{Target: "RH", Sources: []string{"VP_mbar_Avg", "AirT_C_Avg"}, TriggerFlags: dfCause, SetFlag: flags.DF},
		{Target: "RH", Sources: []string{"VP_mbar_Avg", "AirT_C_Avg"}, TriggerFlags: dcCause, SetFlag: flags.DC},

		// --- SR50 echo chain: DT -> TCDT -> DBTCDT (4) ---
		{Target: "TCDT_Avg", Sources: []string{"DT_Avg"}, TriggerFlags: dfCause, SetFlag: flags.DF},
		{Target: "TCDT_Avg", Sources: []string{"DT_Avg"}, TriggerFlags: dcCause, SetFlag: flags.DC},
		{Target: "DBTCDT_Avg", Sources: []string{"TCDT_Avg"}, TriggerFlags: dfCause, SetFlag: flags.DF},
		{Target: "DBTCDT_Avg", Sources: []string{"TCDT_Avg"}, TriggerFlags: dcCause, SetFlag: flags.DC},

		// --- AirT temperature-correction of TCDT (2) ---
		{Target: "TCDT_Avg", Sources: []string{"AirT_C_Avg"}, TriggerFlags: dfCause, SetFlag: flags.DF},
		{Target: "TCDT_Avg", Sources: []string{"AirT_C_Avg"}, TriggerFlags: dcCause, SetFlag: flags.DC},

		// --- SWin/SWout -> SWnet, SWalbedo (4) ---
		{Target: "SWnet_Avg", Sources: []string{"SWin_Avg", "SWout_Avg"}, TriggerFlags: dfCause, SetFlag: flags.DF},
		{Target: "SWnet_Avg", Sources: []string{"SWin_Avg", "SWout_Avg"}, TriggerFlags: []flags.Kind{flags.Z}, SetFlag: flags.DF},
		{Target: "SWalbedo_Avg", Sources: []string{"SWin_Avg", "SWout_Avg"}, TriggerFlags: dfCause, SetFlag: flags.DF},
		{Target: "SWalbedo_Avg", Sources: []string{"SWin_Avg", "SWout_Avg"}, TriggerFlags: dcCause, SetFlag: flags.DC},

		// --- LW pairs -> LWnet (2) ---
		{Target: "LWnet_Avg", Sources: []string{"LWin_Avg", "LWout_Avg"}, TriggerFlags: dfCause, SetFlag: flags.DF},
		{Target: "LWnet_Avg", Sources: []string{"LWin_Avg", "LWout_Avg"}, TriggerFlags: dcCause, SetFlag: flags.DC},

		// --- NR aggregating all four radiation components (2) ---
		{Target: "NR_Avg", Sources: []string{"SWin_Avg", "SWout_Avg", "LWin_Avg", "LWout_Avg"}, TriggerFlags: dfCause, SetFlag: flags.DF},
		{Target: "NR_Avg", Sources: []string{"SWin_Avg", "SWout_Avg", "LWin_Avg", "LWout_Avg"}, TriggerFlags: dcCause, SetFlag: flags.DC},

		// --- Wind-speed -> direction/gust (3) ---
		{Target: "WindDir", Sources: []string{"WS_ms_Avg"}, TriggerFlags: []flags.Kind{flags.NV}, SetFlag: flags.NV},
		{Target: "MaxWS_ms", Sources: []string{"WS_ms_Avg"}, TriggerFlags: []flags.Kind{flags.NV}, SetFlag: flags.NV},
		{Target: "WindDir", Sources: []string{"WS_ms_Avg"}, TriggerFlags: dfCause, SetFlag: flags.SU},
	}
}

// LoadDependencyRulesOverride loads a JSON override of the dependency rule
// table, for tests that want to exercise Stage H's ordering semantics
// without depending on the full default table.
func LoadDependencyRulesOverride(path string) (DependencyRules, error) {
	type rawRule struct {
		Target       string   `json:"target"`
		Sources      []string `json:"sources"`
		TriggerFlags []string `json:"trigger_flags"`
		SetFlag      string   `json:"set_flag"`
	}
	var raw []rawRule
	if err := loadJSONFile(path, &raw); err != nil {
		return nil, err
	}
	out := make(DependencyRules, 0, len(raw))
	for _, r := range raw {
		setFlag, ok := flags.Lookup(r.SetFlag)
		if !ok {
			return nil, fmt.Errorf("dependency rule %q: unknown set_flag %q", r.Target, r.SetFlag)
		}
		triggers := make([]flags.Kind, 0, len(r.TriggerFlags))
		for _, t := range r.TriggerFlags {
			k, ok := flags.Lookup(t)
			if !ok {
				return nil, fmt.Errorf("dependency rule %q: unknown trigger flag %q", r.Target, t)
			}
			triggers = append(triggers, k)
		}
		out = append(out, DependencyRule{Target: r.Target, Sources: r.Sources, TriggerFlags: triggers, SetFlag: setFlag})
	}
	return out, nil
}
