// Package limit implements the tagged-union threshold limit representation
// called for in the Design Notes: configuration is parsed once into
// Fixed(f64) | Height(offset) | ColumnRef(ColumnId) | None, eliminating the
// stringly-typed re-parse ("H+5", "SWin_Avg") that a per-row string compare
// would otherwise require.
package limit

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Kind discriminates the Limit union.
type Kind uint8

const (
	// None means the check for this tier/side is absent: skip it.
	None Kind = iota
	// Fixed is a literal numeric bound.
	Fixed
	// Height is a sensor-height macro bound: height plus a signed offset.
	Height
	// ColumnRef is a bound drawn from a sibling column's value, row-aligned.
	ColumnRef
)

// Limit is one resolved bound (e.g. a channel's r_min). Zero value is None.
type Limit struct {
	Kind   Kind
	Number float64 // valid when Kind == Fixed
	Offset float64 // valid when Kind == Height: height + Offset
	Column string  // valid when Kind == ColumnRef
}

var heightMacro = regexp.MustCompile(`^H\s*([+-])\s*(\d+(?:\.\d+)?)$`)

// Parse interprets a raw JSON-decoded limit value: nil -> None, a number ->
// Fixed, the strings "H+<n>"/"H-<n>" -> Height, any other non-empty string ->
// ColumnRef (the named sibling column).
func Parse(raw interface{}) (Limit, error) {
	switch v := raw.(type) {
	case nil:
		return Limit{Kind: None}, nil
	case float64:
		return Limit{Kind: Fixed, Number: v}, nil
	case int:
		return Limit{Kind: Fixed, Number: float64(v)}, nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return Limit{Kind: None}, nil
		}
		if m := heightMacro.FindStringSubmatch(strings.ToUpper(s)); m != nil {
			mag, err := strconv.ParseFloat(m[2], 64)
			if err != nil {
				return Limit{}, fmt.Errorf("limit: bad height macro %q: %w", s, err)
			}
			if m[1] == "-" {
				mag = -mag
			}
			return Limit{Kind: Height, Offset: mag}, nil
		}
		return Limit{Kind: ColumnRef, Column: s}, nil
	default:
		return Limit{}, fmt.Errorf("limit: unsupported value type %T", raw)
	}
}

// Resolve computes the scalar bound for one row given the channel's
// effective sensor height (ignored unless Kind == Height) and a lookup for a
// sibling column's value at this row (ignored unless Kind == ColumnRef).
// The second return is false when there is no constraint for this row
// (Kind == None, or a ColumnRef whose sibling value is missing at this row).
func (l Limit) Resolve(sensorHeight float64, columnValue func(name string) (float64, bool)) (float64, bool) {
	switch l.Kind {
	case None:
		return 0, false
	case Fixed:
		return l.Number, true
	case Height:
		return sensorHeight + l.Offset, true
	case ColumnRef:
		if columnValue == nil {
			return 0, false
		}
		return columnValue(l.Column)
	default:
		return 0, false
	}
}

// ChannelThresholds is the resolved {r_min, r_max, c_min, c_max} spec for one
// data channel, per §3 "Threshold Spec".
type ChannelThresholds struct {
	RMin, RMax Limit
	CMin, CMax Limit
}

// RawChannelThresholds is the JSON shape threshold configuration is loaded
// from: each field is nil | number | string, matching Parse's input domain.
type RawChannelThresholds struct {
	RMin interface{} `json:"r_min"`
	RMax interface{} `json:"r_max"`
	CMin interface{} `json:"c_min"`
	CMax interface{} `json:"c_max"`
}

// ParseChannelThresholds parses all four fields of a raw threshold spec.
func ParseChannelThresholds(raw RawChannelThresholds) (ChannelThresholds, error) {
	var ct ChannelThresholds
	var err error
	if ct.RMin, err = Parse(raw.RMin); err != nil {
		return ct, fmt.Errorf("r_min: %w", err)
	}
	if ct.RMax, err = Parse(raw.RMax); err != nil {
		return ct, fmt.Errorf("r_max: %w", err)
	}
	if ct.CMin, err = Parse(raw.CMin); err != nil {
		return ct, fmt.Errorf("c_min: %w", err)
	}
	if ct.CMax, err = Parse(raw.CMax); err != nil {
		return ct, fmt.Errorf("c_max: %w", err)
	}
	return ct, nil
}
