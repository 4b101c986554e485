package config

import (
	"fmt"

	"github.com/nhg-hydromet/weatherqc/internal/qcengine/limit"
)

// ThresholdMap is configuration input 1: column -> {r_min, r_max, c_min, c_max}.
type ThresholdMap map[string]limit.ChannelThresholds

// rawThresholdMap is the on-disk JSON shape: each field is nil | number | string.
type rawThresholdMap map[string]limit.RawChannelThresholds

// LoadThresholdMap loads the global per-column threshold spec.
func LoadThresholdMap(path string) (ThresholdMap, error) {
	var raw rawThresholdMap
	if err := loadJSONFile(path, &raw); err != nil {
		return nil, err
	}
	return parseThresholdMap(raw)
}

func parseThresholdMap(raw rawThresholdMap) (ThresholdMap, error) {
	out := make(ThresholdMap, len(raw))
	for col, r := range raw {
		ct, err := limit.ParseChannelThresholds(r)
		if err != nil {
			return nil, fmt.Errorf("threshold spec for %q: %w", col, err)
		}
		out[col] = ct
	}
	return out, nil
}

// InstrumentGroup bundles a sensor height with threshold overrides for the
// columns it measures (§3 "Deployment": "Groups contain (a) a sensor height
// and (b) a threshold-spec map overriding the global spec for listed columns").
type InstrumentGroup struct {
	SensorHeight float64
	Thresholds   ThresholdMap
}

// InstrumentGroups is configuration input 2: group_id -> InstrumentGroup.
type InstrumentGroups map[string]InstrumentGroup

type rawInstrumentGroup struct {
	SensorHeight float64                             `json:"sensor_height"`
	Thresholds   map[string]limit.RawChannelThresholds `json:"thresholds"`
}

// LoadInstrumentGroups loads the instrument-group map.
func LoadInstrumentGroups(path string) (InstrumentGroups, error) {
	var raw map[string]rawInstrumentGroup
	if err := loadJSONFile(path, &raw); err != nil {
		return nil, err
	}
	out := make(InstrumentGroups, len(raw))
	for id, g := range raw {
		tm, err := parseThresholdMap(rawThresholdMap(g.Thresholds))
		if err != nil {
			return nil, fmt.Errorf("instrument group %q: %w", id, err)
		}
		out[id] = InstrumentGroup{SensorHeight: g.SensorHeight, Thresholds: tm}
	}
	return out, nil
}

// DefaultSensorHeight is the height assumed for the DBTCDT_Avg special case
// (§4.2) when no deployment covers a row.
const DefaultSensorHeight = 160.0
