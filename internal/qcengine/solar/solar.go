// Package solar computes civil sunrise and sunset for a station, used by
// Stage D to flag nonzero radiation readings outside daylight. It implements
// the standard NOAA/Schoenberg sunrise-equation algorithm (zenith 90.833°,
// which accounts for atmospheric refraction and the sun's apparent radius),
// truncated to the second, entirely in terms of a station's fixed UTC
// offset — no time.Location/IANA timezone database lookup is involved,
// matching the naive-local-time record model in §3.
package solar

import (
	"math"
	"time"
)

// zenith is the standard sunrise/sunset solar zenith angle in degrees.
const zenith = 90.833

const radians = math.Pi / 180
const degrees = 180 / math.Pi

// Event is a computed sunrise or sunset, in the station's local naive time.
type Event struct {
	Time time.Time
	OK   bool // false if the event cannot be computed (polar day/night)
}

// SunriseSunset computes civil sunrise and sunset for the given local
// calendar date (year/month/day taken from localDate; time-of-day ignored)
// at the given latitude/longitude and fixed UTC offset. Results are
// truncated to the second. Either result may be !OK on polar edge cases,
// per §4.4 step 4 ("skip days for which either event cannot be computed").
func SunriseSunset(localDate time.Time, lat, lon float64, utcOffsetHours int) (sunrise, sunset Event) {
	sunrise = computeEvent(localDate, lat, lon, utcOffsetHours, true)
	sunset = computeEvent(localDate, lat, lon, utcOffsetHours, false)
	return sunrise, sunset
}

func computeEvent(localDate time.Time, lat, lon float64, utcOffsetHours int, rising bool) Event {
	y, m, d := localDate.Date()
	n := dayOfYear(y, int(m), d)

	lngHour := lon / 15

	var t float64
	if rising {
		t = float64(n) + ((6 - lngHour) / 24)
	} else {
		t = float64(n) + ((18 - lngHour) / 24)
	}

	mAnom := (0.9856 * t) - 3.289

	l := mAnom + (1.916 * math.Sin(mAnom*radians)) + (0.020 * math.Sin(2*mAnom*radians)) + 282.634
	l = normalizeDegrees(l)

	ra := degrees * math.Atan(0.91764*math.Tan(l*radians))
	ra = normalizeDegrees(ra)

	lQuadrant := math.Floor(l/90) * 90
	raQuadrant := math.Floor(ra/90) * 90
	ra = ra + (lQuadrant - raQuadrant)
	ra = ra / 15

	sinDec := 0.39782 * math.Sin(l*radians)
	cosDec := math.Cos(math.Asin(sinDec))

	cosH := (math.Cos(zenith*radians) - (sinDec * math.Sin(lat*radians))) / (cosDec * math.Cos(lat*radians))
	if cosH > 1 || cosH < -1 {
		return Event{OK: false}
	}

	var h float64
	if rising {
		h = 360 - degrees*math.Acos(cosH)
	} else {
		h = degrees * math.Acos(cosH)
	}
	h = h / 15

	tLocalMeanTime := h + ra - (0.06571 * t) - 6.622

	ut := tLocalMeanTime - lngHour
	ut = math.Mod(ut+24, 24)

	localHours := ut + float64(utcOffsetHours)

	// Fold onto [0, 24) and attach to the same local calendar date requested.
	// The underlying UT-based formula can in principle place an event just
	// across a calendar boundary for stations far from their UTC meridian
	// (§4.4 step 1 notes this is a known limitation of the simple algorithm);
	// rather than guess which adjacent day it belongs to, this always reports
	// the event on localDate's own day, which is exact for any station whose
	// longitude is reasonably close to its UTC offset's meridian.
	localHours = math.Mod(localHours, 24)
	if localHours < 0 {
		localHours += 24
	}

	base := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	seconds := int(localHours * 3600)
	result := base.Add(time.Duration(seconds) * time.Second)
	return Event{Time: result, OK: true}
}

func normalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

func dayOfYear(year, month, day int) int {
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return t.YearDay()
}
