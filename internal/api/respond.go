// ABOUTME: JSON envelope helpers and the error-kind to HTTP status mapping
// ABOUTME: Every response is {success, message, data}; failures carry the error kind

package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/lodgekeep/lodgekeep/internal/lease"
)

// envelope is the fixed response shape.
type envelope struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Kind    lease.Kind `json:"kind,omitempty"`
	Data    any        `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, env envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		slog.Error("encoding response failed", "error", err)
	}
}

func writeSuccess(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, envelope{Success: true, Message: message, Data: data})
}

// statusFor maps a lease error kind to its HTTP status.
func statusFor(kind lease.Kind) int {
	switch kind {
	case lease.KindNotFound:
		return http.StatusNotFound
	case lease.KindUnauthorized, lease.KindForbidden:
		return http.StatusForbidden
	case lease.KindInvalidTransition, lease.KindPreconditionFailed:
		return http.StatusConflict
	case lease.KindValidation:
		return http.StatusBadRequest
	case lease.KindUpstreamFailure:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	var le *lease.Error
	if errors.As(err, &le) {
		writeJSON(w, statusFor(le.Kind), envelope{Success: false, Message: le.Message, Kind: le.Kind})
		return
	}
	slog.Error("unclassified error", "error", err)
	writeJSON(w, http.StatusInternalServerError, envelope{Success: false, Message: "internal error"})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, envelope{Success: false, Message: message, Kind: lease.KindValidation})
}

// decodeBody parses the JSON request body into dst.
func decodeBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
