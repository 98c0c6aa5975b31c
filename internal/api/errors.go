package api

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/sudanchapagain/event-booking-system/internal/errors"
	"github.com/sudanchapagain/event-booking-system/internal/middleware"

	"github.com/sirupsen/logrus"
)

// statusFor maps a domain error to its HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperrors.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrAlreadyBooked),
		errors.Is(err, apperrors.ErrSoldOut),
		errors.Is(err, apperrors.ErrNoUpcomingDates):
		return http.StatusConflict
	// a gateway outage wrapped in a PaymentError is still an outage
	case errors.Is(err, apperrors.ErrPaymentUnavailable),
		errors.Is(err, apperrors.ErrPaymentNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, apperrors.ErrPaymentFailed):
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		h.log.WithError(err).WithFields(logrus.Fields{
			"request_id": middleware.GetRequestID(r.Context()),
			"path":       r.URL.Path,
		}).Error("Request failed")
		message = "internal server error"
	}
	middleware.AddSpanError(r.Context(), err)
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
