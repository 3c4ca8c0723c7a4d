// Package httpserver contains the HTTP handlers and middleware of the
// producer's submission API and the consumer's job endpoint.
package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/litscan/litscan/internal/domain"
)

// errorEnvelope is the error body shape of the submission API.
type errorEnvelope struct {
	Error string `json:"Error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrStoreConnection):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, errorEnvelope{Error: err.Error()})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorEnvelope{Error: msg})
}
