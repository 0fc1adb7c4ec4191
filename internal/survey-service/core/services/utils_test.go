package services

import (
	"testing"
	"time"

	"transit-mapper/internal/survey-service/core/myerrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedSpeedModel(t *testing.T) {
	m := NewFixedSpeedModel(20)

	// 20 km at 20 km/h is one hour.
	assert.Equal(t, time.Hour, m.TravelTime(20))
	assert.InDelta(t, float64(3*time.Minute), float64(m.TravelTime(1)), float64(time.Millisecond))
	assert.Equal(t, time.Duration(0), m.TravelTime(0))
	assert.Equal(t, time.Duration(0), m.TravelTime(-1))
}

func TestFixedSpeedModel_RejectsNonPositiveSpeed(t *testing.T) {
	m := NewFixedSpeedModel(-5)

	// Falls back to the default instead of dividing by a bad speed.
	assert.InDelta(t, float64(3*time.Minute), float64(m.TravelTime(1)), float64(time.Millisecond))
}

func TestParseReplayTime(t *testing.T) {
	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	got, err := parseReplayTime("2025-06-01T10:30:00Z", base)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC), got)

	got, err = parseReplayTime("01:15:30", base)
	require.NoError(t, err)
	assert.Equal(t, base.Add(time.Hour+15*time.Minute+30*time.Second), got)

	_, err = parseReplayTime("soon", base)
	assert.ErrorIs(t, err, myerrors.ErrInvalidInput)
}

func TestValidateCoordinates(t *testing.T) {
	assert.NoError(t, validateCoordinates([]float64{-7.61, 33.58}))
	assert.ErrorIs(t, validateCoordinates(nil), myerrors.ErrInvalidInput)
	assert.ErrorIs(t, validateCoordinates([]float64{-7.61}), myerrors.ErrInvalidInput)
	assert.ErrorIs(t, validateCoordinates([]float64{-7.61, 95}), myerrors.ErrInvalidInput)
	assert.ErrorIs(t, validateCoordinates([]float64{-190, 33.58}), myerrors.ErrInvalidInput)
}

func TestAppendNote(t *testing.T) {
	assert.Equal(t, "first", appendNote("", "first"))
	assert.Equal(t, "first; second", appendNote("first", "second"))
}
