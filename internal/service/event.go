package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/retry"
	"github.com/google/uuid"
)

// EventService handles organizer administration of events, ticket types,
// form fields and teams.
type EventService struct {
	events   EventStore
	team     TeamStore
	bookings BookingStore
	ledger   Ledger
	auth     *Authorizer
	log      *slog.Logger

	provisionPolicy retry.Policy
}

// NewEventService constructs an EventService with its dependencies.
func NewEventService(
	events EventStore,
	team TeamStore,
	bookings BookingStore,
	ledger Ledger,
	auth *Authorizer,
	log *slog.Logger,
) *EventService {
	return &EventService{
		events:   events,
		team:     team,
		bookings: bookings,
		ledger:   ledger,
		auth:     auth,
		log:      log,

		provisionPolicy: retry.Default,
	}
}

// CreateEvent stores a draft event; the creator becomes its organizer.
func (s *EventService) CreateEvent(ctx context.Context, principalID string, req model.CreateEventRequest) (*model.Event, error) {
	principalID = strings.TrimSpace(principalID)
	if principalID == "" || principalID == model.SelfCheckIn {
		return nil, fmt.Errorf("%w: no principal", model.ErrForbidden)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	event := &model.Event{
		ID:                   uuid.New().String(),
		Title:                req.Title,
		Description:          strings.TrimSpace(req.Description),
		Location:             req.Location,
		BannerURL:            strings.TrimSpace(req.BannerURL),
		Slug:                 strings.TrimSpace(req.Slug),
		StartDate:            req.StartDate.UTC(),
		RegistrationDeadline: req.RegistrationDeadline.UTC(),
		Status:               model.EventDraft,
		CreatedAt:            now,
		CreatedBy:            principalID,
	}
	if req.EndDate != nil {
		end := req.EndDate.UTC()
		event.EndDate = &end
	}
	organizer := &model.TeamMember{
		ID:          uuid.New().String(),
		EventID:     event.ID,
		PrincipalID: principalID,
		Role:        model.RoleOrganizer,
		CreatedAt:   now,
	}

	if err := s.events.CreateEvent(ctx, event, organizer); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	s.log.InfoContext(ctx, "event created",
		slog.String("event_id", event.ID),
		slog.String("created_by", principalID),
	)
	return event, nil
}

// GetEvent returns a single event by ID.
func (s *EventService) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	if id == "" {
		return nil, fmt.Errorf("event id: %w", model.ErrNotFound)
	}
	event, err := s.events.GetEvent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

// UpdateStatus moves an event along its lifecycle.
func (s *EventService) UpdateStatus(ctx context.Context, principalID, eventID string, to model.EventStatus) (*model.Event, error) {
	if err := s.auth.Authorize(ctx, principalID, eventID, model.RoleOrganizer); err != nil {
		return nil, err
	}
	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	if !event.Status.CanTransition(to) {
		return nil, fmt.Errorf("%w: %s -> %s", model.ErrInvalidTransition, event.Status, to)
	}
	if err := s.events.UpdateEventStatus(ctx, eventID, event.Status, to); err != nil {
		return nil, fmt.Errorf("update event status: %w", err)
	}
	s.log.InfoContext(ctx, "event status changed",
		slog.String("event_id", eventID),
		slog.String("from", string(event.Status)),
		slog.String("to", string(to)),
	)
	event.Status = to
	return event, nil
}

// SetPublished toggles the event's publication flag.
func (s *EventService) SetPublished(ctx context.Context, principalID, eventID string, published bool) (*model.Event, error) {
	if err := s.auth.Authorize(ctx, principalID, eventID, model.RoleOrganizer); err != nil {
		return nil, err
	}
	if err := s.events.SetPublished(ctx, eventID, published); err != nil {
		return nil, fmt.Errorf("set published: %w", err)
	}
	return s.GetEvent(ctx, eventID)
}

// AddTicketType creates a ticket type and provisions its capacity.
func (s *EventService) AddTicketType(ctx context.Context, principalID, eventID string, req model.CreateTicketTypeRequest) (*model.TicketType, error) {
	if err := s.auth.Authorize(ctx, principalID, eventID, model.RoleOrganizer); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.events.GetEvent(ctx, eventID); err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}

	tt := &model.TicketType{
		ID:          uuid.New().String(),
		EventID:     eventID,
		Name:        req.Name,
		Description: strings.TrimSpace(req.Description),
		Price:       req.Price.Round(2),
		Capacity:    req.Capacity,
		GroupSize:   req.GroupSize,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.events.CreateTicketType(ctx, tt); err != nil {
		return nil, fmt.Errorf("create ticket type: %w", err)
	}
	err := s.provisionPolicy.Do(ctx, func() error {
		return s.ledger.Provision(ctx, tt.ID, tt.Capacity)
	})
	if err != nil {
		// A ticket type without a counter could never be booked.
		err = fmt.Errorf("provision capacity: %w", err)
		if delErr := s.events.DeleteTicketType(context.WithoutCancel(ctx), tt.ID); delErr != nil {
			s.log.ErrorContext(ctx, "ticket type left without capacity",
				slog.String("ticket_type_id", tt.ID),
				slog.String("error", delErr.Error()),
			)
			return nil, errors.Join(err, fmt.Errorf("roll back ticket type: %w", delErr))
		}
		return nil, err
	}
	s.log.InfoContext(ctx, "ticket type added",
		slog.String("event_id", eventID),
		slog.String("ticket_type_id", tt.ID),
		slog.Int("capacity", tt.Capacity),
	)
	return tt, nil
}

// RestoreCapacity recreates missing ledger counters from the booking store:
// each ticket type's capacity less the units its bookings still hold.
// Counters that exist are left alone. It returns how many were recreated
// and is a no-op for ledgers that live in the booking store itself.
func (s *EventService) RestoreCapacity(ctx context.Context) (int, error) {
	restorer, ok := s.ledger.(CapacityRestorer)
	if !ok {
		return 0, nil
	}
	holdings, err := s.events.ListTicketHoldings(ctx)
	if err != nil {
		return 0, fmt.Errorf("list ticket holdings: %w", err)
	}

	restored := 0
	var errs []error
	for _, h := range holdings {
		remaining := max(h.TicketType.Capacity-h.Held, 0)
		created, err := restorer.Restore(ctx, h.TicketType.ID, h.TicketType.Capacity, remaining)
		if err != nil {
			errs = append(errs, fmt.Errorf("restore %s: %w", h.TicketType.ID, err))
			continue
		}
		if created {
			restored++
			s.log.WarnContext(ctx, "capacity counter restored",
				slog.String("ticket_type_id", h.TicketType.ID),
				slog.Int("capacity", h.TicketType.Capacity),
				slog.Int("remaining", remaining),
			)
		}
	}
	return restored, errors.Join(errs...)
}

// ListTicketTypes returns an event's ticket types.
func (s *EventService) ListTicketTypes(ctx context.Context, eventID string) ([]model.TicketType, error) {
	return s.events.ListTicketTypes(ctx, eventID)
}

// DeleteTicketType removes a ticket type nobody has booked.
func (s *EventService) DeleteTicketType(ctx context.Context, principalID, ticketTypeID string) error {
	tt, err := s.events.GetTicketType(ctx, ticketTypeID)
	if err != nil {
		return fmt.Errorf("get ticket type: %w", err)
	}
	if err := s.auth.Authorize(ctx, principalID, tt.EventID, model.RoleOrganizer); err != nil {
		return err
	}
	if err := s.events.DeleteTicketType(ctx, ticketTypeID); err != nil {
		return fmt.Errorf("delete ticket type: %w", err)
	}
	return nil
}

// AddFormField declares a custom question for the event's attendees.
func (s *EventService) AddFormField(ctx context.Context, principalID, eventID string, req model.CreateFormFieldRequest) (*model.FormField, error) {
	if err := s.auth.Authorize(ctx, principalID, eventID, model.RoleOrganizer); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	field := &model.FormField{
		ID:        uuid.New().String(),
		EventID:   eventID,
		Type:      req.Type,
		Label:     req.Label,
		Required:  req.Required,
		Options:   req.Options,
		Position:  req.Position,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.events.CreateFormField(ctx, field); err != nil {
		return nil, fmt.Errorf("create form field: %w", err)
	}
	return field, nil
}

// ListFormFields returns the event's form fields in display order.
func (s *EventService) ListFormFields(ctx context.Context, eventID string) ([]model.FormField, error) {
	return s.events.ListFormFields(ctx, eventID)
}

// AddTeamMember grants a principal a role on the event.
func (s *EventService) AddTeamMember(ctx context.Context, principalID, eventID, memberID string, role model.TeamRole) (*model.TeamMember, error) {
	if err := s.auth.Authorize(ctx, principalID, eventID, model.RoleOrganizer); err != nil {
		return nil, err
	}
	memberID = strings.TrimSpace(memberID)
	if memberID == "" || memberID == model.SelfCheckIn {
		return nil, &model.ValidationError{Violations: []model.Violation{{FieldID: "principal_id", Reason: model.ReasonMissing}}}
	}
	if !role.Valid() {
		return nil, &model.ValidationError{Violations: []model.Violation{{FieldID: "role", Reason: model.ReasonNotAnOption}}}
	}
	m := &model.TeamMember{
		ID:          uuid.New().String(),
		EventID:     eventID,
		PrincipalID: memberID,
		Role:        role,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.team.AddTeamMember(ctx, m); err != nil {
		return nil, fmt.Errorf("add team member: %w", err)
	}
	return m, nil
}

// ListBookings returns every booking of the event to an organizer.
func (s *EventService) ListBookings(ctx context.Context, principalID, eventID string) ([]model.Booking, error) {
	if err := s.auth.Authorize(ctx, principalID, eventID, model.RoleOrganizer); err != nil {
		return nil, err
	}
	return s.bookings.ListBookingsByEvent(ctx, eventID)
}
