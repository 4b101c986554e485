package config

import "fmt"

// StationCoords is configuration input 5: station location and a fixed UTC
// offset. Design Notes open question 3: the retrieved source hard-codes
// UTC-7; here the offset is always a configuration input, never a constant.
type StationCoords struct {
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	UTCOffsetHours int     `json:"utc_offset_hours"`
}

// Validate checks the coordinates are in range.
func (s StationCoords) Validate() error {
	if s.Latitude < -90 || s.Latitude > 90 {
		return fmt.Errorf("latitude %f out of range [-90, 90]", s.Latitude)
	}
	if s.Longitude < -180 || s.Longitude > 180 {
		return fmt.Errorf("longitude %f out of range [-180, 180]", s.Longitude)
	}
	if s.UTCOffsetHours < -12 || s.UTCOffsetHours > 14 {
		return fmt.Errorf("utc_offset_hours %d out of range [-12, 14]", s.UTCOffsetHours)
	}
	return nil
}

// LoadStationCoords loads the station coordinate config.
func LoadStationCoords(path string) (StationCoords, error) {
	var s StationCoords
	if err := loadJSONFile(path, &s); err != nil {
		return StationCoords{}, err
	}
	return s, nil
}
