package handle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"transit-mapper/internal/mylogger"
	"transit-mapper/internal/survey-service/core/domain/dto"
	"transit-mapper/internal/survey-service/core/myerrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubTripService returns canned values so handler plumbing can be
// exercised without the real core.
type stubTripService struct {
	err      error
	lastTrip string
}

func (s *stubTripService) CreateTrip(ctx context.Context, mapperID string, req dto.CreateTripRequestDto) (dto.TripResponseDto, error) {
	return dto.TripResponseDto{TripNumber: "T20250601_001", MapperID: mapperID, RouteID: req.RouteID}, s.err
}

func (s *stubTripService) GetTrip(ctx context.Context, tripID string) (dto.TripWithStopsResponseDto, error) {
	s.lastTrip = tripID
	return dto.TripWithStopsResponseDto{Trip: dto.TripResponseDto{TripID: tripID}}, s.err
}

func (s *stubTripService) ListTrips(ctx context.Context, mapperID string) ([]dto.TripResponseDto, error) {
	return nil, s.err
}

func (s *stubTripService) StartTrip(ctx context.Context, mapperID, tripID string, req dto.StartTripRequestDto) (dto.TripResponseDto, error) {
	s.lastTrip = tripID
	return dto.TripResponseDto{TripID: tripID, Status: "in-progress"}, s.err
}

func (s *stubTripService) CompleteTrip(ctx context.Context, mapperID, tripID string, req dto.CompleteTripRequestDto) (dto.TripResponseDto, error) {
	return dto.TripResponseDto{TripID: tripID, Status: "completed"}, s.err
}

func (s *stubTripService) CancelTrip(ctx context.Context, mapperID, tripID string, req dto.CancelTripRequestDto) (dto.TripResponseDto, error) {
	return dto.TripResponseDto{TripID: tripID, Status: "cancelled"}, s.err
}

func testMux(t *testing.T, svc *stubTripService) *http.ServeMux {
	t.Helper()
	log, err := mylogger.New("ERROR")
	require.NoError(t, err)

	th := NewTripsHandler(svc, nil, log)
	mux := http.NewServeMux()
	mux.Handle("POST /trips", th.CreateTrip())
	mux.Handle("GET /trips/{trip_id}", th.GetTrip())
	mux.Handle("POST /trips/{trip_id}/start", th.StartTrip())
	mux.Handle("POST /trips/{trip_id}/complete", th.CompleteTrip())
	return mux
}

func TestCreateTripHandler(t *testing.T) {
	svc := &stubTripService{}
	mux := testMux(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/trips", strings.NewReader(`{"route_id": "route-1"}`))
	req.Header.Set("X-MapperId", "mapper-1")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var res dto.TripResponseDto
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "T20250601_001", res.TripNumber)
	assert.Equal(t, "mapper-1", res.MapperID)
	assert.Equal(t, "route-1", res.RouteID)
}

func TestCreateTripHandler_BadJSON(t *testing.T) {
	mux := testMux(t, &stubTripService{})

	req := httptest.NewRequest(http.MethodPost, "/trips", strings.NewReader(`{not json`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["error"])
	assert.EqualValues(t, http.StatusBadRequest, body["code"])
}

func TestGetTripHandler_PathValue(t *testing.T) {
	svc := &stubTripService{}
	mux := testMux(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/trips/trip-42", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "trip-42", svc.lastTrip)
}

func TestStartTripHandler_EmptyBody(t *testing.T) {
	svc := &stubTripService{}
	mux := testMux(t, svc)

	// Lifecycle endpoints accept a bare POST.
	req := httptest.NewRequest(http.MethodPost, "/trips/trip-1/start", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "trip-1", svc.lastTrip)
}

func TestHandlers_ErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{myerrors.ErrTripNotFound, http.StatusNotFound},
		{myerrors.ErrNotTripOwner, http.StatusForbidden},
		{myerrors.ErrInvalidInput, http.StatusBadRequest},
		{myerrors.ErrInvalidStateTransition, http.StatusConflict},
		{myerrors.ErrInvalidOperation, http.StatusConflict},
		{myerrors.ErrPersistence, http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.err.Error(), func(t *testing.T) {
			mux := testMux(t, &stubTripService{err: fmt.Errorf("%w: details", tc.err)})

			req := httptest.NewRequest(http.MethodPost, "/trips/trip-1/complete", strings.NewReader(`{"license_plate": "A 1 B"}`))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestStatusFromErr_UnknownError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, StatusFromErr(fmt.Errorf("boom")))
	assert.Equal(t, http.StatusNotFound, StatusFromErr(fmt.Errorf("%w: S1", myerrors.ErrStopNotFound)))
	assert.Equal(t, http.StatusNotFound, StatusFromErr(myerrors.ErrRouteNotFound))
}
