// Package service implements the ticketing business rules on top of
// injected storage and capacity ports.
package service

import (
	"context"
	"time"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
)

// Ledger is the single authority on remaining capacity.
type Ledger interface {
	Provision(ctx context.Context, ticketTypeID string, capacity int) error
	Reserve(ctx context.Context, ticketTypeID string, units int) error
	Release(ctx context.Context, ticketTypeID string, units int) error
	Remaining(ctx context.Context, ticketTypeID string) (int, error)
}

// CapacityRestorer is implemented by ledgers that keep counters apart from
// the booking store and can lose them, such as after a Redis flush.
type CapacityRestorer interface {
	// Restore creates the counter with the given remaining value unless it
	// already exists. It reports whether the counter was created.
	Restore(ctx context.Context, ticketTypeID string, capacity, remaining int) (bool, error)
}

// EventReader is the read side of event storage used while booking.
type EventReader interface {
	GetEvent(ctx context.Context, id string) (*model.Event, error)
	GetTicketType(ctx context.Context, id string) (*model.TicketType, error)
	ListFormFields(ctx context.Context, eventID string) ([]model.FormField, error)
}

// EventStore persists events and the definitions that hang off them.
type EventStore interface {
	EventReader
	// CreateEvent stores the event and its creator's organizer membership
	// atomically.
	CreateEvent(ctx context.Context, e *model.Event, organizer *model.TeamMember) error
	// UpdateEventStatus changes the status only if it is still from.
	UpdateEventStatus(ctx context.Context, id string, from, to model.EventStatus) error
	SetPublished(ctx context.Context, id string, published bool) error
	CreateTicketType(ctx context.Context, t *model.TicketType) error
	ListTicketTypes(ctx context.Context, eventID string) ([]model.TicketType, error)
	// DeleteTicketType fails with model.ErrTicketTypeInUse while bookings
	// reference it.
	DeleteTicketType(ctx context.Context, id string) error
	// ListTicketHoldings returns every ticket type with the units still
	// committed by its bookings: pending, paid, and closed bookings whose
	// release is outstanding.
	ListTicketHoldings(ctx context.Context) ([]model.TicketHolding, error)
	CreateFormField(ctx context.Context, f *model.FormField) error
}

// TeamReader resolves a principal's role on an event.
type TeamReader interface {
	// GetRole returns model.ErrNotFound when the principal is not on the team.
	GetRole(ctx context.Context, eventID, principalID string) (model.TeamRole, error)
}

// TeamStore manages event team memberships.
type TeamStore interface {
	TeamReader
	// AddTeamMember inserts the membership or replaces the member's role.
	// It fails with model.ErrLastOrganizer rather than demote the event's
	// only organizer.
	AddTeamMember(ctx context.Context, m *model.TeamMember) error
}

// BookingStore persists bookings and their attendees.
type BookingStore interface {
	// CreateBooking writes the booking, attendees and form responses in one
	// transaction.
	CreateBooking(ctx context.Context, nb *model.NewBooking) error
	GetBooking(ctx context.Context, id string) (*model.Booking, error)
	// TransitionPayment moves a pending booking to tr.To. It returns a
	// *model.NotPendingError when the booking is no longer pending.
	TransitionPayment(ctx context.Context, id string, tr model.Transition) (*model.Booking, error)
	// ListExpirable returns pending bookings created before createdBefore or
	// whose event's registration deadline is before now.
	ListExpirable(ctx context.Context, createdBefore, now time.Time, limit int) ([]string, error)
	// ClaimRelease marks a failed or expired booking's capacity as released.
	// It reports false when the mark was already set, so exactly one caller
	// hands the units back.
	ClaimRelease(ctx context.Context, id string) (bool, error)
	// UnclaimRelease clears the mark after the ledger refused the release.
	UnclaimRelease(ctx context.Context, id string) error
	// ListUnreleased returns failed or expired bookings whose units are not
	// back in the ledger yet, oldest first.
	ListUnreleased(ctx context.Context, limit int) ([]string, error)
	ListBookingsByEvent(ctx context.Context, eventID string) ([]model.Booking, error)
	ListAttendees(ctx context.Context, bookingID string) ([]*model.Attendee, error)
}

// AttendeeStore owns the check-in state of attendees.
type AttendeeStore interface {
	// GetAttendeeByCredential returns model.ErrCredentialNotFound when no
	// attendee holds the credential.
	GetAttendeeByCredential(ctx context.Context, qrCodeHash string) (*model.Attendee, error)
	// CheckIn performs the check-in as one conditional update. It fails with
	// model.ErrBookingNotPaid or *model.AlreadyCheckedInError when the
	// attendee may not be admitted.
	CheckIn(ctx context.Context, qrCodeHash, performedBy string, at time.Time) (*model.Attendee, error)
	GetBooking(ctx context.Context, id string) (*model.Booking, error)
}
