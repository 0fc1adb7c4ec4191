package handle

import (
	"encoding/json"
	"errors"
	"net/http"

	"transit-mapper/internal/survey-service/core/myerrors"
)

// jsonResponse writes the given data as a JSON-encoded HTTP response with the given status code.
func jsonResponse(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

// JsonError writes an error response as JSON with the specified HTTP status code.
func JsonError(w http.ResponseWriter, code int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": err.Error(),
		"code":  code,
	})
}

// StatusFromErr maps domain sentinel errors onto HTTP status codes.
func StatusFromErr(err error) int {
	switch {
	case errors.Is(err, myerrors.ErrTripNotFound),
		errors.Is(err, myerrors.ErrStopNotFound),
		errors.Is(err, myerrors.ErrRouteNotFound):
		return http.StatusNotFound
	case errors.Is(err, myerrors.ErrNotTripOwner):
		return http.StatusForbidden
	case errors.Is(err, myerrors.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, myerrors.ErrInvalidStateTransition),
		errors.Is(err, myerrors.ErrInvalidOperation):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func mapperID(r *http.Request) string {
	return r.Header.Get("X-MapperId")
}
