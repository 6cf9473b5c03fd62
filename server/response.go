package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"library-lending/library"
)

// Envelope is the body of every JSON response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, env Envelope, log *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		log.Error("encode response", "error", err)
	}
}

func ok(w http.ResponseWriter, data any, log *slog.Logger) {
	writeJSON(w, http.StatusOK, Envelope{Success: true, Data: data}, log)
}

func created(w http.ResponseWriter, data any, log *slog.Logger) {
	writeJSON(w, http.StatusCreated, Envelope{Success: true, Data: data}, log)
}

func fail(w http.ResponseWriter, status int, message string, log *slog.Logger) {
	writeJSON(w, status, Envelope{Message: message}, log)
}

// failResult writes a failed lending Result with the status its error maps to.
func failResult(w http.ResponseWriter, res library.Result, log *slog.Logger) {
	fail(w, statusFor(res.Err()), res.Message, log)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, library.ErrItemNotFound), errors.Is(err, library.ErrPatronNotFound):
		return http.StatusNotFound
	case errors.Is(err, library.ErrDuplicatePatron),
		errors.Is(err, library.ErrItemUnavailable),
		errors.Is(err, library.ErrNotHeld):
		return http.StatusConflict
	case errors.Is(err, library.ErrInvalidItem), errors.Is(err, library.ErrInvalidPatron):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
