// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error      string            `json:"error"`
	Violations []model.Violation `json:"violations,omitempty"`
	Detail     any               `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// writeServiceError maps a service error onto a status code. Domain errors
// are described to the client; anything else is logged and hidden.
func writeServiceError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	var (
		validation *model.ValidationError
		checkedIn  *model.AlreadyCheckedInError
		notPending *model.NotPendingError
		capacity   *model.CapacityError
	)
	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:      model.ErrValidationFailed.Error(),
			Violations: validation.Violations,
		})
	case errors.Is(err, model.ErrNotFound), errors.Is(err, model.ErrCredentialNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &checkedIn):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: model.ErrAlreadyCheckedIn.Error(), Detail: checkedIn})
	case errors.As(err, &notPending):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: model.ErrNotPending.Error(), Detail: notPending})
	case errors.As(err, &capacity):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: model.ErrCapacityExceeded.Error(), Detail: capacity})
	case model.IsDomainError(err):
		writeError(w, http.StatusConflict, err.Error())
	default:
		log.ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
