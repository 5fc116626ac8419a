package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hg9336099029/survey-be/internal/services"
)

// writeJSON writes v as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeMessage writes a plain {"message": ...} JSON response.
func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// writeServiceError maps a service layer error onto an HTTP status. Unknown
// errors become a generic 500 so internals never leak to the client.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		writeMessage(w, http.StatusBadRequest, trimSentinel(err, services.ErrValidation))
	case errors.Is(err, services.ErrUnauthorized):
		writeMessage(w, http.StatusUnauthorized, trimSentinel(err, services.ErrUnauthorized))
	case errors.Is(err, services.ErrForbidden):
		writeMessage(w, http.StatusForbidden, trimSentinel(err, services.ErrForbidden))
	case errors.Is(err, services.ErrNotFound):
		writeMessage(w, http.StatusNotFound, trimSentinel(err, services.ErrNotFound))
	case errors.Is(err, services.ErrConflict):
		writeMessage(w, http.StatusConflict, trimSentinel(err, services.ErrConflict))
	default:
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
	}
}

// trimSentinel strips the sentinel prefix ("conflict: ", ...) from a wrapped
// service error, leaving the human-readable part for the response body.
func trimSentinel(err error, sentinel error) string {
	msg := err.Error()
	prefix := sentinel.Error() + ": "
	if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
		return msg[len(prefix):]
	}
	return msg
}
