package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"market/internal/market"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

// statusFor maps the domain failure taxonomy onto HTTP codes in one place.
func statusFor(err error) int {
	switch {
	case errors.Is(err, market.ErrMemberNotFound),
		errors.Is(err, market.ErrProductNotFound),
		errors.Is(err, market.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, market.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, market.ErrInvalidState),
		errors.Is(err, market.ErrUsernameTaken):
		return http.StatusConflict
	case errors.Is(err, market.ErrPriceMismatch),
		errors.Is(err, market.ErrInsufficientStock),
		errors.Is(err, market.ErrInvalidQuantity):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
