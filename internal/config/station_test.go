package config

import "testing"

func TestStationCoordsValidate(t *testing.T) {
	valid := StationCoords{Latitude: 53.72, Longitude: -113, UTCOffsetHours: -7}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid coordinates to pass, got %v", err)
	}

	cases := []StationCoords{
		{Latitude: 91, Longitude: 0, UTCOffsetHours: 0},
		{Latitude: 0, Longitude: -181, UTCOffsetHours: 0},
		{Latitude: 0, Longitude: 0, UTCOffsetHours: 15},
	}
	for _, c := range cases {
		if err := c.Validate(); err == nil {
			t.Errorf("expected %+v to fail validation", c)
		}
	}
}

func TestLoadStationCoords(t *testing.T) {
	dir := t.TempDir()
	path := writeJSON(t, dir, "station.json", `{"latitude": 53.72, "longitude": -113, "utc_offset_hours": -7}`)
	s, err := LoadStationCoords(path)
	if err != nil {
		t.Fatal(err)
	}
	if s.Latitude != 53.72 || s.Longitude != -113 || s.UTCOffsetHours != -7 {
		t.Fatalf("got %+v, want {53.72 -113 -7}", s)
	}
}
