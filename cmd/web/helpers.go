package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/myrjola/fitplan/internal/auth"
	"github.com/myrjola/fitplan/internal/errors"
	"github.com/myrjola/fitplan/internal/plan"
)

const maxRequestBodyBytes = 64 * 1024

type errorResponse struct {
	Error string `json:"error"`
}

func (app *application) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "marshal response"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (app *application) serverError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.LogAttrs(r.Context(), slog.LevelError, "server error", errors.SlogError(err))
	app.clientError(w, r, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}

func (app *application) clientError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	body, _ := json.Marshal(errorResponse{Error: msg})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
	if status < http.StatusInternalServerError {
		app.logger.LogAttrs(r.Context(), slog.LevelDebug, "client error", slog.Int("status", status),
			slog.String("reason", msg))
	}
}

// handleError maps service errors to status codes. Unknown errors are logged as server errors.
func (app *application) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, plan.ErrNotFound):
		app.clientError(w, r, http.StatusNotFound, "not found")
	case errors.Is(err, plan.ErrInvalidInput), errors.Is(err, auth.ErrInvalidSignup):
		app.clientError(w, r, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, plan.ErrUnauthenticated), errors.Is(err, auth.ErrNotAuthenticated):
		app.clientError(w, r, http.StatusUnauthorized, "authentication required")
	case errors.Is(err, auth.ErrInvalidCredentials):
		app.clientError(w, r, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, auth.ErrEmailTaken):
		app.clientError(w, r, http.StatusConflict, "email already registered")
	default:
		app.serverError(w, r, err)
	}
}

// decodeJSON reads the request body into dst. Unknown fields are rejected. On failure it writes a 400 response and
// returns false.
func (app *application) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		app.clientError(w, r, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// parseDate parses a YYYY-MM-DD value and falls back to today for the empty string.
func (app *application) parseDate(value string) (time.Time, error) {
	if value == "" {
		return app.now(), nil
	}
	date, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, errors.Wrap(err, "parse date", slog.String("value", value))
	}
	return date, nil
}

// parseIDParam parses the "id" path parameter. On failure it writes a 404 response and returns false.
func (app *application) parseIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		app.notFound(w, r)
		return 0, false
	}
	return id, true
}

func (app *application) notFound(w http.ResponseWriter, r *http.Request) {
	app.clientError(w, r, http.StatusNotFound, "not found")
}
