package handler

// RESPONSE HELPERS:
// Every error response has the same shape, whatever the status:
//
//	{"error": {"message": "post not found with id abc123", "status": 404}}
//
// The frontend can therefore always read error.message.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/bookfinder/internal/apperror"
)

// maxBodyBytes bounds request bodies. The largest legal body is a post with
// 50 000 characters of content.
const maxBodyBytes = 1 << 20

// ErrorBody is the inner object of the error envelope.
type ErrorBody struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// writeJSON sends data as JSON with the given status. Headers must be set
// before WriteHeader, so the order here matters.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeErrorStatus sends the envelope with an explicit status and message.
func writeErrorStatus(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorBody{Message: message, Status: status}})
}

// writeError maps a domain error to an HTTP status via errors.Is. Anything
// that is not an *apperror.AppError becomes a 500 whose details are logged
// but never sent to the client.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, apperror.ErrBadRequest):
			status = http.StatusBadRequest
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
		}

		if status != http.StatusInternalServerError {
			writeErrorStatus(w, status, appErr.Message)
			return
		}
	}

	logger.Error("request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	writeErrorStatus(w, http.StatusInternalServerError, "internal error")
}

// decodeJSON reads a JSON body into dst. Malformed or oversized bodies
// become BadRequest.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return apperror.BadRequest("request body is required")
		case errors.As(err, &maxErr):
			return apperror.BadRequest(fmt.Sprintf("request body must be %d bytes or fewer", maxErr.Limit))
		default:
			return apperror.BadRequest("invalid JSON body")
		}
	}
	return nil
}

// NotFound answers unknown routes with the error envelope.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeErrorStatus(w, http.StatusNotFound, "Not Found")
}

// MethodNotAllowed answers known routes hit with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeErrorStatus(w, http.StatusMethodNotAllowed, "Method Not Allowed")
}
