package handler

import (
	"log/slog"
	"net/http"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/service"
	"github.com/go-chi/chi/v5"
)

// EventHandler serves event administration routes.
type EventHandler struct {
	svc *service.EventService
	log *slog.Logger
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(svc *service.EventService, log *slog.Logger) *EventHandler {
	return &EventHandler{svc: svc, log: log}
}

// CreateEvent handles POST /events
// The caller becomes the event's organizer.
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.CreateEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.svc.CreateEvent(r.Context(), principalFrom(r.Context()), req)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// GetEvent handles GET /events/{id}
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.svc.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

type statusRequest struct {
	Status model.EventStatus `json:"status"`
}

// UpdateStatus handles PATCH /events/{id}/status
func (h *EventHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.svc.UpdateStatus(r.Context(), principalFrom(r.Context()), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

type publishRequest struct {
	Published bool `json:"published"`
}

// SetPublished handles PUT /events/{id}/published
func (h *EventHandler) SetPublished(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.svc.SetPublished(r.Context(), principalFrom(r.Context()), chi.URLParam(r, "id"), req.Published)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// AddTicketType handles POST /events/{id}/ticket-types
func (h *EventHandler) AddTicketType(w http.ResponseWriter, r *http.Request) {
	var req model.CreateTicketTypeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	tt, err := h.svc.AddTicketType(r.Context(), principalFrom(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, tt)
}

// ListTicketTypes handles GET /events/{id}/ticket-types
func (h *EventHandler) ListTicketTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.svc.ListTicketTypes(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	if types == nil {
		types = []model.TicketType{}
	}
	writeJSON(w, http.StatusOK, types)
}

// DeleteTicketType handles DELETE /ticket-types/{id}
func (h *EventHandler) DeleteTicketType(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteTicketType(r.Context(), principalFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddFormField handles POST /events/{id}/form-fields
func (h *EventHandler) AddFormField(w http.ResponseWriter, r *http.Request) {
	var req model.CreateFormFieldRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	field, err := h.svc.AddFormField(r.Context(), principalFrom(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, field)
}

// ListFormFields handles GET /events/{id}/form-fields
func (h *EventHandler) ListFormFields(w http.ResponseWriter, r *http.Request) {
	fields, err := h.svc.ListFormFields(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	if fields == nil {
		fields = []model.FormField{}
	}
	writeJSON(w, http.StatusOK, fields)
}

type teamRequest struct {
	PrincipalID string         `json:"principal_id"`
	Role        model.TeamRole `json:"role"`
}

// AddTeamMember handles POST /events/{id}/team
func (h *EventHandler) AddTeamMember(w http.ResponseWriter, r *http.Request) {
	var req teamRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	m, err := h.svc.AddTeamMember(r.Context(), principalFrom(r.Context()), chi.URLParam(r, "id"), req.PrincipalID, req.Role)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// ListBookings handles GET /events/{id}/bookings
// Organizers only.
func (h *EventHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.svc.ListBookings(r.Context(), principalFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	if bookings == nil {
		bookings = []model.Booking{}
	}
	writeJSON(w, http.StatusOK, bookings)
}
