package httpx

import (
	"errors"
	"net/http"

	"github.com/diewo77/go-repairs/internal/logger"
	"github.com/diewo77/go-repairs/internal/models"
	"go.uber.org/zap"
)

// StatusFor maps a service error to its HTTP status and public error code.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrInvalidStatus):
		return http.StatusBadRequest, "invalid_status"
	case errors.Is(err, models.ErrInvalidCodeFormat):
		return http.StatusBadRequest, "invalid_code_format"
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest, "validation_failed"
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, models.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "service_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// WriteError writes err as JSON. Server-side failures are logged and replaced by a generic code.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := StatusFor(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	var details any
	var ve *models.ValidationError
	if errors.As(err, &ve) {
		details = ve.Fields
	}
	JSONError(w, status, code, details)
}
