package handle

import (
	"encoding/json"
	"io"
	"net/http"

	"transit-mapper/internal/mylogger"
	"transit-mapper/internal/survey-service/core/domain/dto"
	"transit-mapper/internal/survey-service/core/ports"
)

type TripsHandler struct {
	tripService  ports.ITripService
	splitService ports.ISplitService
	log          mylogger.Logger
}

func NewTripsHandler(ts ports.ITripService, ss ports.ISplitService, log mylogger.Logger) *TripsHandler {
	return &TripsHandler{
		tripService:  ts,
		splitService: ss,
		log:          log,
	}
}

func (th *TripsHandler) CreateTrip() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := dto.CreateTripRequestDto{}

		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		res, err := th.tripService.CreateTrip(r.Context(), mapperID(r), req)
		if err != nil {
			JsonError(w, StatusFromErr(err), err)
			return
		}

		jsonResponse(w, http.StatusCreated, res)
	}
}

func (th *TripsHandler) GetTrip() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tripId := r.PathValue("trip_id")

		res, err := th.tripService.GetTrip(r.Context(), tripId)
		if err != nil {
			JsonError(w, StatusFromErr(err), err)
			return
		}

		jsonResponse(w, http.StatusOK, res)
	}
}

func (th *TripsHandler) ListTrips() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := th.tripService.ListTrips(r.Context(), mapperID(r))
		if err != nil {
			JsonError(w, StatusFromErr(err), err)
			return
		}

		jsonResponse(w, http.StatusOK, res)
	}
}

func (th *TripsHandler) StartTrip() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tripId := r.PathValue("trip_id")

		req := dto.StartTripRequestDto{}
		if err := decodeOptionalBody(r, &req); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		res, err := th.tripService.StartTrip(r.Context(), mapperID(r), tripId, req)
		if err != nil {
			JsonError(w, StatusFromErr(err), err)
			return
		}

		jsonResponse(w, http.StatusOK, res)
	}
}

func (th *TripsHandler) CompleteTrip() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tripId := r.PathValue("trip_id")

		req := dto.CompleteTripRequestDto{}
		if err := decodeOptionalBody(r, &req); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		res, err := th.tripService.CompleteTrip(r.Context(), mapperID(r), tripId, req)
		if err != nil {
			JsonError(w, StatusFromErr(err), err)
			return
		}

		jsonResponse(w, http.StatusOK, res)
	}
}

func (th *TripsHandler) CancelTrip() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tripId := r.PathValue("trip_id")

		req := dto.CancelTripRequestDto{}
		if err := decodeOptionalBody(r, &req); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		res, err := th.tripService.CancelTrip(r.Context(), mapperID(r), tripId, req)
		if err != nil {
			JsonError(w, StatusFromErr(err), err)
			return
		}

		jsonResponse(w, http.StatusOK, res)
	}
}

func (th *TripsHandler) DuplicateTrip() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tripId := r.PathValue("trip_id")

		req := dto.DuplicateTripRequestDto{}
		if err := decodeOptionalBody(r, &req); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		res, err := th.splitService.DuplicateTrip(r.Context(), mapperID(r), tripId, req)
		if err != nil {
			JsonError(w, StatusFromErr(err), err)
			return
		}

		jsonResponse(w, http.StatusCreated, res)
	}
}

func (th *TripsHandler) SplitTrip() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tripId := r.PathValue("trip_id")

		req := dto.SplitTripRequestDto{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		res, err := th.splitService.SplitTrip(r.Context(), mapperID(r), tripId, req)
		if err != nil {
			JsonError(w, StatusFromErr(err), err)
			return
		}

		jsonResponse(w, http.StatusCreated, res)
	}
}

// decodeOptionalBody tolerates an empty request body; lifecycle endpoints
// accept both a bare POST and a POST with parameters.
func decodeOptionalBody(r *http.Request, dst interface{}) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == io.EOF {
		return nil
	}
	return err
}
