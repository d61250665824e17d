package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/duskmoth/sidestage/internal/place"
	"github.com/duskmoth/sidestage/internal/shared"
)

// Problem is the error payload for API responses, serialized as
// application/problem+json.
type Problem struct {
	Title      string `json:"title"`
	Status     int    `json:"status"`
	Detail     string `json:"detail,omitempty"`
	RetryAfter string `json:"retry_after,omitempty"`
}

// WriteProblem writes a problem payload with the given status.
func WriteProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Problem{Title: title, Status: status, Detail: detail})
}

// WriteError maps a domain error onto an HTTP problem response. Rate-limit
// rejections carry the retry deadline so clients can render a countdown
// rather than a generic failure.
func WriteError(w http.ResponseWriter, err error) {
	var rle *place.RateLimitError
	if errors.As(err, &rle) {
		w.Header().Set("Content-Type", "application/problem+json")
		w.Header().Set("Retry-After", rle.RetryAfter.UTC().Format(http.TimeFormat))
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(Problem{
			Title:      "rate limited",
			Status:     http.StatusTooManyRequests,
			RetryAfter: rle.RetryAfter.UTC().Format(time.RFC3339),
		})
		return
	}

	switch {
	case errors.Is(err, shared.ErrUnauthenticated):
		WriteProblem(w, http.StatusUnauthorized, "not authenticated", "")
	case errors.Is(err, shared.ErrForbidden):
		WriteProblem(w, http.StatusForbidden, "forbidden", "")
	case errors.Is(err, shared.ErrNotFound):
		WriteProblem(w, http.StatusNotFound, "not found", err.Error())
	case errors.Is(err, shared.ErrOutOfBounds),
		errors.Is(err, shared.ErrInvalidColor),
		errors.Is(err, shared.ErrInvalidDimensions),
		errors.Is(err, shared.ErrEmptyPalette),
		errors.Is(err, shared.ErrTooManyCells),
		errors.Is(err, shared.ErrInvalidInput):
		WriteProblem(w, http.StatusBadRequest, "invalid request", err.Error())
	default:
		// Storage and other infrastructure failures stay opaque.
		WriteProblem(w, http.StatusInternalServerError, "internal error", "")
	}
}

// WriteJSON writes data as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
