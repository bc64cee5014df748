// Package memstore is an in-memory implementation of the service storage
// ports. Every method holds one lock for its whole read-modify-write, which
// gives the same conditional-update semantics as the PostgreSQL store within
// a single process.
package memstore

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
)

// Store keeps every aggregate in maps keyed by generated IDs.
type Store struct {
	mu sync.RWMutex

	events      map[string]model.Event
	ticketTypes map[string]model.TicketType
	fields      map[string]model.FormField
	team        map[teamKey]model.TeamMember
	bookings    map[string]model.Booking
	attendees   map[string]model.Attendee
	byHash      map[string]string // qr_code_hash -> attendee ID
	responses   map[string]model.FormResponse
}

type teamKey struct{ eventID, principalID string }

// New returns an empty Store.
func New() *Store {
	return &Store{
		events:      make(map[string]model.Event),
		ticketTypes: make(map[string]model.TicketType),
		fields:      make(map[string]model.FormField),
		team:        make(map[teamKey]model.TeamMember),
		bookings:    make(map[string]model.Booking),
		attendees:   make(map[string]model.Attendee),
		byHash:      make(map[string]string),
		responses:   make(map[string]model.FormResponse),
	}
}

func (s *Store) CreateEvent(_ context.Context, e *model.Event, organizer *model.TeamMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[e.ID]; ok {
		return fmt.Errorf("event %s already exists", e.ID)
	}
	s.events[e.ID] = *e
	s.team[teamKey{organizer.EventID, organizer.PrincipalID}] = *organizer
	return nil
}

func (s *Store) GetEvent(_ context.Context, id string) (*model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[id]
	if !ok {
		return nil, fmt.Errorf("event %s: %w", id, model.ErrNotFound)
	}
	return &e, nil
}

func (s *Store) UpdateEventStatus(_ context.Context, id string, from, to model.EventStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return fmt.Errorf("event %s: %w", id, model.ErrNotFound)
	}
	if e.Status != from {
		return fmt.Errorf("%w: event %s is %s, not %s", model.ErrInvalidTransition, id, e.Status, from)
	}
	e.Status = to
	s.events[id] = e
	return nil
}

func (s *Store) SetPublished(_ context.Context, id string, published bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return fmt.Errorf("event %s: %w", id, model.ErrNotFound)
	}
	e.IsPublished = published
	s.events[id] = e
	return nil
}

func (s *Store) CreateTicketType(_ context.Context, t *model.TicketType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[t.EventID]; !ok {
		return fmt.Errorf("event %s: %w", t.EventID, model.ErrNotFound)
	}
	s.ticketTypes[t.ID] = *t
	return nil
}

func (s *Store) GetTicketType(_ context.Context, id string) (*model.TicketType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.ticketTypes[id]
	if !ok {
		return nil, fmt.Errorf("ticket type %s: %w", id, model.ErrNotFound)
	}
	return &t, nil
}

func (s *Store) ListTicketTypes(_ context.Context, eventID string) ([]model.TicketType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.TicketType
	for _, t := range s.ticketTypes {
		if t.EventID == eventID {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, func(a, b model.TicketType) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, nil
}

func (s *Store) DeleteTicketType(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ticketTypes[id]; !ok {
		return fmt.Errorf("ticket type %s: %w", id, model.ErrNotFound)
	}
	for _, b := range s.bookings {
		if b.TicketTypeID == id {
			return model.ErrTicketTypeInUse
		}
	}
	delete(s.ticketTypes, id)
	return nil
}

func (s *Store) CreateFormField(_ context.Context, f *model.FormField) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[f.EventID]; !ok {
		return fmt.Errorf("event %s: %w", f.EventID, model.ErrNotFound)
	}
	s.fields[f.ID] = *f
	return nil
}

func (s *Store) ListFormFields(_ context.Context, eventID string) ([]model.FormField, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.FormField
	for _, f := range s.fields {
		if f.EventID == eventID {
			out = append(out, f)
		}
	}
	slices.SortFunc(out, func(a, b model.FormField) int {
		return cmp.Or(cmp.Compare(a.Position, b.Position), a.CreatedAt.Compare(b.CreatedAt))
	})
	return out, nil
}

func (s *Store) GetRole(_ context.Context, eventID, principalID string) (model.TeamRole, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.team[teamKey{eventID, principalID}]
	if !ok {
		return "", model.ErrNotFound
	}
	return m.Role, nil
}

func (s *Store) AddTeamMember(_ context.Context, m *model.TeamMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[m.EventID]; !ok {
		return fmt.Errorf("event %s: %w", m.EventID, model.ErrNotFound)
	}
	key := teamKey{m.EventID, m.PrincipalID}
	if existing, ok := s.team[key]; ok {
		if existing.Role == model.RoleOrganizer && m.Role != model.RoleOrganizer && s.organizers(m.EventID) == 1 {
			return fmt.Errorf("demote %s: %w", m.PrincipalID, model.ErrLastOrganizer)
		}
		existing.Role = m.Role
		s.team[key] = existing
		*m = existing
		return nil
	}
	s.team[key] = *m
	return nil
}

func (s *Store) organizers(eventID string) int {
	n := 0
	for k, m := range s.team {
		if k.eventID == eventID && m.Role == model.RoleOrganizer {
			n++
		}
	}
	return n
}

func (s *Store) CreateBooking(_ context.Context, nb *model.NewBooking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ticketTypes[nb.Booking.TicketTypeID]; !ok {
		return fmt.Errorf("ticket type %s: %w", nb.Booking.TicketTypeID, model.ErrNotFound)
	}
	seen := make(map[string]struct{}, len(nb.Attendees))
	for _, a := range nb.Attendees {
		if _, dup := s.byHash[a.QRCodeHash]; dup {
			return fmt.Errorf("duplicate credential for attendee %s", a.ID)
		}
		if _, dup := seen[a.QRCodeHash]; dup {
			return fmt.Errorf("duplicate credential for attendee %s", a.ID)
		}
		seen[a.QRCodeHash] = struct{}{}
	}

	s.bookings[nb.Booking.ID] = *nb.Booking
	for _, a := range nb.Attendees {
		s.attendees[a.ID] = *a
		s.byHash[a.QRCodeHash] = a.ID
	}
	for _, r := range nb.Responses {
		s.responses[r.ID] = *r
	}
	return nil
}

func (s *Store) GetBooking(_ context.Context, id string) (*model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, fmt.Errorf("booking %s: %w", id, model.ErrNotFound)
	}
	return &b, nil
}

func (s *Store) TransitionPayment(_ context.Context, id string, tr model.Transition) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, fmt.Errorf("booking %s: %w", id, model.ErrNotFound)
	}
	if b.PaymentStatus != model.PaymentPending {
		return nil, &model.NotPendingError{BookingID: id, Status: b.PaymentStatus}
	}
	b.PaymentStatus = tr.To
	b.UpdatedAt = tr.At
	switch tr.To {
	case model.PaymentPaid:
		b.PaymentRef = tr.PaymentRef
		b.AmountPaid = tr.AmountPaid
	case model.PaymentFailed:
		b.FailureReason = tr.Reason
	}
	s.bookings[id] = b
	return &b, nil
}

func (s *Store) ListExpirable(_ context.Context, createdBefore, now time.Time, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var stale []model.Booking
	for _, b := range s.bookings {
		if b.PaymentStatus != model.PaymentPending {
			continue
		}
		deadlinePassed := false
		if e, ok := s.events[b.EventID]; ok {
			deadlinePassed = e.RegistrationDeadline.Before(now)
		}
		if b.CreatedAt.Before(createdBefore) || deadlinePassed {
			stale = append(stale, b)
		}
	}
	slices.SortFunc(stale, func(a, b model.Booking) int { return a.CreatedAt.Compare(b.CreatedAt) })
	if limit > 0 && len(stale) > limit {
		stale = stale[:limit]
	}
	ids := make([]string, len(stale))
	for i, b := range stale {
		ids[i] = b.ID
	}
	return ids, nil
}

func (s *Store) ClaimRelease(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return false, fmt.Errorf("booking %s: %w", id, model.ErrNotFound)
	}
	if !b.PaymentStatus.ReleasesCapacity() || b.CapacityReleased {
		return false, nil
	}
	b.CapacityReleased = true
	s.bookings[id] = b
	return true, nil
}

func (s *Store) UnclaimRelease(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return fmt.Errorf("booking %s: %w", id, model.ErrNotFound)
	}
	b.CapacityReleased = false
	s.bookings[id] = b
	return nil
}

func (s *Store) ListUnreleased(_ context.Context, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var owed []model.Booking
	for _, b := range s.bookings {
		if b.PaymentStatus.ReleasesCapacity() && !b.CapacityReleased {
			owed = append(owed, b)
		}
	}
	slices.SortFunc(owed, func(a, b model.Booking) int { return a.UpdatedAt.Compare(b.UpdatedAt) })
	if limit > 0 && len(owed) > limit {
		owed = owed[:limit]
	}
	ids := make([]string, len(owed))
	for i, b := range owed {
		ids[i] = b.ID
	}
	return ids, nil
}

func (s *Store) ListTicketHoldings(_ context.Context) ([]model.TicketHolding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	held := make(map[string]int, len(s.ticketTypes))
	for _, b := range s.bookings {
		if !b.PaymentStatus.ReleasesCapacity() || !b.CapacityReleased {
			held[b.TicketTypeID] += b.Units
		}
	}
	out := make([]model.TicketHolding, 0, len(s.ticketTypes))
	for _, t := range s.ticketTypes {
		out = append(out, model.TicketHolding{TicketType: t, Held: held[t.ID]})
	}
	slices.SortFunc(out, func(a, b model.TicketHolding) int {
		return a.TicketType.CreatedAt.Compare(b.TicketType.CreatedAt)
	})
	return out, nil
}

func (s *Store) ListBookingsByEvent(_ context.Context, eventID string) ([]model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Booking
	for _, b := range s.bookings {
		if b.EventID == eventID {
			out = append(out, b)
		}
	}
	slices.SortFunc(out, func(a, b model.Booking) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, nil
}

func (s *Store) ListAttendees(_ context.Context, bookingID string) ([]*model.Attendee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.Attendee
	for _, a := range s.attendees {
		if a.BookingID == bookingID {
			out = append(out, &a)
		}
	}
	slices.SortFunc(out, func(a, b *model.Attendee) int { return cmp.Compare(a.Position, b.Position) })
	return out, nil
}

// ListResponses returns the form responses stored for an attendee.
func (s *Store) ListResponses(_ context.Context, attendeeID string) ([]model.FormResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.FormResponse
	for _, r := range s.responses {
		if r.AttendeeID == attendeeID {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b model.FormResponse) int { return cmp.Compare(a.FormFieldID, b.FormFieldID) })
	return out, nil
}

func (s *Store) GetAttendeeByCredential(_ context.Context, qrCodeHash string) (*model.Attendee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byHash[qrCodeHash]
	if !ok {
		return nil, model.ErrCredentialNotFound
	}
	a := s.attendees[id]
	return &a, nil
}

func (s *Store) CheckIn(_ context.Context, qrCodeHash, performedBy string, at time.Time) (*model.Attendee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byHash[qrCodeHash]
	if !ok {
		return nil, model.ErrCredentialNotFound
	}
	a := s.attendees[id]
	if s.bookings[a.BookingID].PaymentStatus != model.PaymentPaid {
		return nil, fmt.Errorf("%w: booking %s is %s", model.ErrBookingNotPaid, a.BookingID, s.bookings[a.BookingID].PaymentStatus)
	}
	if a.CheckInStatus {
		return nil, &model.AlreadyCheckedInError{AttendeeID: a.ID, CheckInTime: *a.CheckInTime, CheckedInBy: a.CheckedInBy}
	}
	a.CheckInStatus = true
	a.CheckInTime = &at
	a.CheckedInBy = performedBy
	s.attendees[id] = a
	return &a, nil
}
