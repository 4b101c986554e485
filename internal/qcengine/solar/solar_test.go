package solar

import (
	"testing"
	"time"
)

func TestSunriseSunsetSolstice(t *testing.T) {
	date := time.Date(2024, 6, 21, 0, 0, 0, 0, time.UTC)
	sunrise, sunset := SunriseSunset(date, 53.72, -113, -7)

	if !sunrise.OK || !sunset.OK {
		t.Fatal("expected both sunrise and sunset to be computable at this latitude on the solstice")
	}
	if !sunset.Time.After(sunrise.Time) {
		t.Fatalf("sunset %v should be after sunrise %v", sunset.Time, sunrise.Time)
	}

	wantSunset := time.Date(2024, 6, 21, 21, 9, 0, 0, time.UTC)
	if d := sunset.Time.Sub(wantSunset); d < -10*time.Minute || d > 10*time.Minute {
		t.Errorf("sunset = %v, want close to %v", sunset.Time, wantSunset)
	}
}

func TestSunriseSunsetSameCalendarDate(t *testing.T) {
	date := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	sunrise, sunset := SunriseSunset(date, 45, -90, -6)
	if !sunrise.OK || !sunset.OK {
		t.Fatal("expected equinox sunrise/sunset to be computable")
	}
	if sunrise.Time.Year() != 2024 || sunrise.Time.Month() != 3 || sunrise.Time.Day() != 20 {
		t.Errorf("sunrise %v not attached to the requested calendar date", sunrise.Time)
	}
	if sunset.Time.Year() != 2024 || sunset.Time.Month() != 3 || sunset.Time.Day() != 20 {
		t.Errorf("sunset %v not attached to the requested calendar date", sunset.Time)
	}
}

func TestSunriseSunsetPolarDayFails(t *testing.T) {
	date := time.Date(2024, 6, 21, 0, 0, 0, 0, time.UTC)
	_, sunset := SunriseSunset(date, 78, 15, 1)
	if sunset.OK {
		t.Fatal("expected polar-day sunset to be unresolvable (cosH out of range)")
	}
}
