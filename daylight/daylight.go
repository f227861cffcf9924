// Package daylight decides when the camera is worth running. Counting only
// happens between sunrise and sunset at the installation site; outside
// that window the capture loop releases the camera and sleeps.
package daylight

import (
	"time"

	"github.com/nathan-osman/go-sunrise"
)

// Gate computes the daylight window for a fixed location.
type Gate struct {
	Lat float64
	Lon float64
}

// Window returns sunrise and sunset (UTC) for the day containing t.
// Both are zero when the sun never rises or never sets on that day.
func (g Gate) Window(t time.Time) (rise, set time.Time) {
	u := t.UTC()
	return sunrise.SunriseSunset(g.Lat, g.Lon, u.Year(), u.Month(), u.Day())
}

// IsDaytime reports whether t falls inside the daylight window. On days
// without a sunrise/sunset (polar edge) it reports true so the counter
// keeps running rather than sleeping forever.
func (g Gate) IsDaytime(t time.Time) bool {
	rise, set := g.Window(t)
	if rise.IsZero() || set.IsZero() {
		return true
	}
	u := t.UTC()
	return !u.Before(rise) && u.Before(set)
}

// NextWake returns how long to sleep from t until the next sunrise.
func (g Gate) NextWake(t time.Time) time.Duration {
	u := t.UTC()
	rise, _ := g.Window(u)
	if !rise.IsZero() && u.Before(rise) {
		return rise.Sub(u)
	}
	tomorrow := u.AddDate(0, 0, 1)
	rise, _ = g.Window(tomorrow)
	if rise.IsZero() {
		return time.Hour
	}
	return rise.Sub(u)
}
