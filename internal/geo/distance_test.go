package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineKm(t *testing.T) {
	// Casablanca city center to Ain Diab, roughly 7 km.
	d := HaversineKm(33.5898, -7.6116, 33.5731, -7.6830)
	assert.InDelta(t, 6.9, d, 0.5)

	// One hundredth of a degree of latitude is ~1.11 km anywhere.
	d = HaversineKm(33.58, -7.61, 33.59, -7.61)
	assert.InDelta(t, 1.11, d, 0.01)

	assert.Zero(t, HaversineKm(33.58, -7.61, 33.58, -7.61))
}

func TestValidLatLng(t *testing.T) {
	assert.True(t, ValidLatLng(33.58, -7.61))
	assert.True(t, ValidLatLng(-90, 180))
	assert.False(t, ValidLatLng(90.01, 0))
	assert.False(t, ValidLatLng(0, -180.5))
}
