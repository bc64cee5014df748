package handler

import (
	"log/slog"
	"net/http"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/retry"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/service"
	"github.com/go-chi/chi/v5"
)

// CheckInHandler serves the venue scanning routes.
type CheckInHandler struct {
	svc   *service.CheckInService
	log   *slog.Logger
	retry retry.Policy
}

// NewCheckInHandler constructs a CheckInHandler.
func NewCheckInHandler(svc *service.CheckInService, log *slog.Logger) *CheckInHandler {
	return &CheckInHandler{svc: svc, log: log, retry: retry.Default}
}

type checkInRequest struct {
	QRCodeHash string `json:"qr_code_hash"`
}

// CheckIn handles POST /checkins
// Storage hiccups are retried; a scan that already went through comes back
// as 409 with the original check-in.
func (h *CheckInHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req checkInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	var attendee *model.Attendee
	err := h.retry.Do(r.Context(), func() error {
		var err error
		attendee, err = h.svc.CheckIn(r.Context(), req.QRCodeHash, principalFrom(r.Context()))
		return err
	})
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, attendee)
}

// Lookup handles GET /checkins/{hash}
func (h *CheckInHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	preview, err := h.svc.Lookup(r.Context(), chi.URLParam(r, "hash"), principalFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}
