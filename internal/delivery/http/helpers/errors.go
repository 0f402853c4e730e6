package helpers

import (
	"errors"
	"log/slog"
	"net/http"

	"referralrewards/internal/domain"
)

// WriteServiceError maps an error returned by a service to an HTTP status and
// writes it. Errors outside the domain taxonomy are logged and reported as 500
// without leaking their text. A rolled back transaction whose cause is a
// conflict or a rejected value keeps the 409 status but carries its own code,
// so callers can tell it from a request that never started a write.
func WriteServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrTransactionFailed) &&
		(errors.Is(err, domain.ErrConflict) || errors.Is(err, domain.ErrValidation)):
		WriteJSONError(w, http.StatusConflict, ErrCodeRolledBack, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		WriteJSONError(w, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.As(err, &verr):
		WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, verr.Error())
	case errors.Is(err, domain.ErrInvalidStatus):
		WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, domain.ErrDuplicateReferral),
		errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrInvalidTransition):
		WriteJSONError(w, http.StatusConflict, ErrCodeConflict, err.Error())
	default:
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		WriteJSONError(w, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
	}
}
