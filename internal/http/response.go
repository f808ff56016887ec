package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fjod/go_cart/cart-store/internal/service"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleServiceError converts cart store errors to HTTP status codes.
func handleServiceError(w http.ResponseWriter, err error) {
	var httpStatus int
	var code string

	switch {
	case errors.Is(err, service.ErrInvalidProduct):
		httpStatus = http.StatusBadRequest
		code = "invalid_product"
	case errors.Is(err, service.ErrProductNotFound):
		httpStatus = http.StatusNotFound
		code = "not_found"
	case errors.Is(err, service.ErrPersist):
		httpStatus = http.StatusServiceUnavailable
		code = "storage_unavailable"
	case errors.Is(err, service.ErrNoProvider):
		httpStatus = http.StatusInternalServerError
		code = "provider_missing"
	case errors.Is(err, context.DeadlineExceeded):
		httpStatus = http.StatusGatewayTimeout
		code = "timeout"
	default:
		httpStatus = http.StatusInternalServerError
		code = "internal_error"
	}

	respondError(w, httpStatus, code, err.Error())
}
