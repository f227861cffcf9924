package daylight

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// London sits close enough to UTC that local day and UTC day coincide.
var london = Gate{Lat: 51.5074, Lon: -0.1278}

func TestIsDaytime(t *testing.T) {
	noon := time.Date(2025, 6, 21, 12, 0, 0, 0, time.UTC)
	assert.True(t, london.IsDaytime(noon))

	night := time.Date(2025, 6, 21, 0, 30, 0, 0, time.UTC)
	assert.False(t, london.IsDaytime(night))
}

func TestWindowOrdering(t *testing.T) {
	day := time.Date(2025, 6, 21, 12, 0, 0, 0, time.UTC)
	rise, set := london.Window(day)
	assert.False(t, rise.IsZero())
	assert.False(t, set.IsZero())
	assert.True(t, rise.Before(set))
}

func TestNextWake(t *testing.T) {
	// Before dawn: wake at today's sunrise.
	night := time.Date(2025, 6, 21, 1, 0, 0, 0, time.UTC)
	sleep := night.Add(london.NextWake(night))
	assert.True(t, london.IsDaytime(sleep.Add(time.Minute)))

	// After dusk: wake at tomorrow's sunrise.
	evening := time.Date(2025, 6, 21, 23, 0, 0, 0, time.UTC)
	wake := evening.Add(london.NextWake(evening))
	assert.True(t, wake.After(evening))
	assert.True(t, london.IsDaytime(wake.Add(time.Minute)))
}
