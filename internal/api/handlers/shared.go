package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/ndewijer/Stock-Rebalancer-Backend/internal/apperrors"
)

// respondJSON sends a JSON response with the given status code
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("Failed to encode JSON: %v", err)
		}
	}
}

// statusForError maps service errors to HTTP status codes. An unavailable
// quote is an upstream failure (502), a pass already in flight a conflict
// (409), validation failures 400, everything else 500.
func statusForError(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrQuoteUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, apperrors.ErrCalculationInProgress):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrInvalidSymbol),
		errors.Is(err, apperrors.ErrInvalidPercentage),
		errors.Is(err, apperrors.ErrNegativeQuantity),
		errors.Is(err, apperrors.ErrNegativeCash):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrAPIKeyNotConfigured):
		return http.StatusPreconditionFailed
	}
	return http.StatusInternalServerError
}
