package handler

import (
	"log/slog"
	"net/http"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/service"
	"github.com/go-chi/chi/v5"
)

// Payment outcomes reported by the gateway.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
)

// BookingHandler serves booking and payment routes.
type BookingHandler struct {
	svc *service.BookingService
	log *slog.Logger
}

// NewBookingHandler constructs a BookingHandler.
func NewBookingHandler(svc *service.BookingService, log *slog.Logger) *BookingHandler {
	return &BookingHandler{svc: svc, log: log}
}

// CreateBooking handles POST /events/{id}/bookings
// Reserves capacity and returns the pending booking with its attendees.
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req model.CreateBookingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	req.EventID = chi.URLParam(r, "id")

	res, err := h.svc.CreateBooking(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// GetBooking handles GET /bookings/{id}
func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.GetBooking(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Remaining handles GET /ticket-types/{id}/remaining
func (h *BookingHandler) Remaining(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	n, err := h.svc.Remaining(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ticket_type_id": id, "remaining": n})
}

type paymentEvent struct {
	BookingID  string `json:"booking_id"`
	PaymentRef string `json:"payment_ref"`
	Outcome    string `json:"outcome"`
	Reason     string `json:"reason"`
}

// PaymentEvent handles POST /payments/events
// The gateway delivers each outcome at least once; repeats are answered
// with the booking's current state.
func (h *BookingHandler) PaymentEvent(w http.ResponseWriter, r *http.Request) {
	var ev paymentEvent
	if err := decodeJSON(w, r, &ev); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	var (
		booking *model.Booking
		err     error
	)
	switch ev.Outcome {
	case OutcomeSucceeded:
		booking, err = h.svc.ConfirmPayment(r.Context(), ev.BookingID, ev.PaymentRef)
	case OutcomeFailed:
		booking, err = h.svc.FailPayment(r.Context(), ev.BookingID, ev.Reason)
	default:
		err = &model.ValidationError{Violations: []model.Violation{{FieldID: "outcome", Reason: model.ReasonNotAnOption}}}
	}
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}
