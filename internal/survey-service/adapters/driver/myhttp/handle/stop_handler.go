package handle

import (
	"encoding/json"
	"net/http"

	"transit-mapper/internal/mylogger"
	"transit-mapper/internal/survey-service/core/domain/dto"
	"transit-mapper/internal/survey-service/core/ports"
)

type StopsHandler struct {
	ledgerService ports.ILedgerService
	log           mylogger.Logger
}

func NewStopsHandler(ls ports.ILedgerService, log mylogger.Logger) *StopsHandler {
	return &StopsHandler{
		ledgerService: ls,
		log:           log,
	}
}

func (sh *StopsHandler) AddStops() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tripId := r.PathValue("trip_id")

		req := dto.AddStopsRequest{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		res, err := sh.ledgerService.AddStops(r.Context(), mapperID(r), tripId, req)
		if err != nil {
			JsonError(w, StatusFromErr(err), err)
			return
		}

		jsonResponse(w, http.StatusCreated, res)
	}
}

func (sh *StopsHandler) UpdateStop() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tripId := r.PathValue("trip_id")
		stopId := r.PathValue("stop_id")

		req := dto.UpdateStopRequest{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		res, err := sh.ledgerService.UpdateStop(r.Context(), mapperID(r), tripId, stopId, req)
		if err != nil {
			JsonError(w, StatusFromErr(err), err)
			return
		}

		jsonResponse(w, http.StatusOK, res)
	}
}

func (sh *StopsHandler) DeleteStop() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tripId := r.PathValue("trip_id")
		stopId := r.PathValue("stop_id")

		res, err := sh.ledgerService.DeleteStop(r.Context(), mapperID(r), tripId, stopId)
		if err != nil {
			JsonError(w, StatusFromErr(err), err)
			return
		}

		jsonResponse(w, http.StatusOK, res)
	}
}
