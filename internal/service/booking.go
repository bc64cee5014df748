package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/credential"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/forms"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/metrics"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/retry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// maxQuantity caps a single purchase.
const maxQuantity = 100

// BookingService runs the booking and payment workflow. Capacity is only
// ever taken through the ledger and handed back exactly once per booking.
type BookingService struct {
	store   BookingStore
	events  EventReader
	ledger  Ledger
	log     *slog.Logger
	monitor *metrics.Monitor

	paymentWindow time.Duration
	releasePolicy retry.Policy
	newCredential func() (string, error)
}

// NewBookingService constructs a BookingService. paymentWindow is how long a
// booking may stay pending before the sweep expires it.
func NewBookingService(
	store BookingStore,
	events EventReader,
	ledger Ledger,
	log *slog.Logger,
	monitor *metrics.Monitor,
	paymentWindow time.Duration,
) *BookingService {
	return &BookingService{
		store:         store,
		events:        events,
		ledger:        ledger,
		log:           log,
		monitor:       monitor,
		paymentWindow: paymentWindow,
		releasePolicy: retry.Default,
		newCredential: credential.Generate,
	}
}

// CreateBooking reserves capacity and records a pending booking with one
// attendee credential per admitted person.
func (s *BookingService) CreateBooking(ctx context.Context, req model.CreateBookingRequest) (*model.BookingResult, error) {
	res, err := s.createBooking(ctx, req)
	switch {
	case err == nil:
		s.monitor.TrackBooking(metrics.ResultOK)
	case model.IsDomainError(err):
		s.monitor.TrackBooking(metrics.ResultRejected)
	default:
		s.monitor.TrackBooking(metrics.ResultError)
	}
	return res, err
}

func (s *BookingService) createBooking(ctx context.Context, req model.CreateBookingRequest) (*model.BookingResult, error) {
	email, err := normaliseEmail(req.PurchaserEmail)
	if err != nil {
		return nil, err
	}
	if req.Quantity < 1 || req.Quantity > maxQuantity {
		return nil, &model.ValidationError{Violations: []model.Violation{{FieldID: "quantity", Reason: model.ReasonOutOfRange}}}
	}

	event, err := s.events.GetEvent(ctx, req.EventID)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	now := time.Now().UTC()
	if !event.OpenForRegistration(now) {
		return nil, fmt.Errorf("%w: event %s is %s, registration closes %s",
			model.ErrEventNotOpen, event.ID, event.Status, event.RegistrationDeadline.Format(time.RFC3339))
	}

	ticketType, err := s.events.GetTicketType(ctx, req.TicketTypeID)
	if err != nil {
		return nil, fmt.Errorf("get ticket type: %w", err)
	}
	if ticketType.EventID != event.ID {
		return nil, fmt.Errorf("ticket type %s for event %s: %w", ticketType.ID, event.ID, model.ErrNotFound)
	}

	units := ticketType.UnitsFor(req.Quantity)

	fields, err := s.events.ListFormFields(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("list form fields: %w", err)
	}
	answerSets, err := forms.ValidateBooking(fields, req.Answers, units)
	if err != nil {
		return nil, err
	}

	if err := s.ledger.Reserve(ctx, ticketType.ID, units); err != nil {
		if errors.Is(err, model.ErrInsufficient) {
			s.monitor.TrackReservation(ticketType.ID, metrics.ResultRejected, units)
			return nil, fmt.Errorf("%w: %w", model.ErrCapacityExceeded, err)
		}
		s.monitor.TrackReservation(ticketType.ID, metrics.ResultError, units)
		return nil, fmt.Errorf("reserve capacity: %w", err)
	}
	s.monitor.TrackReservation(ticketType.ID, metrics.ResultOK, units)

	nb, err := s.buildBooking(event, ticketType, email, req.Quantity, answerSets, now)
	if err == nil {
		err = s.store.CreateBooking(ctx, nb)
	}
	if err != nil {
		// Nothing was persisted, so the units go straight back.
		if relErr := s.release(context.WithoutCancel(ctx), ticketType.ID, units); relErr != nil {
			return nil, errors.Join(fmt.Errorf("create booking: %w", err), relErr)
		}
		return nil, fmt.Errorf("create booking: %w", err)
	}

	s.log.InfoContext(ctx, "booking created",
		slog.String("booking_id", nb.Booking.ID),
		slog.String("event_id", event.ID),
		slog.String("ticket_type_id", ticketType.ID),
		slog.Int("units", units),
	)

	return &model.BookingResult{Booking: nb.Booking, Attendees: nb.Attendees}, nil
}

func (s *BookingService) buildBooking(
	event *model.Event,
	ticketType *model.TicketType,
	email string,
	quantity int,
	answerSets []model.Answers,
	now time.Time,
) (*model.NewBooking, error) {
	units := ticketType.UnitsFor(quantity)
	booking := &model.Booking{
		ID:             uuid.New().String(),
		EventID:        event.ID,
		TicketTypeID:   ticketType.ID,
		PurchaserEmail: email,
		Quantity:       quantity,
		Units:          units,
		AmountDue:      ticketType.Price.Mul(decimal.NewFromInt(int64(quantity))),
		AmountPaid:     decimal.Zero,
		PaymentStatus:  model.PaymentPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	nb := &model.NewBooking{Booking: booking, Attendees: make([]*model.Attendee, 0, units)}
	for i := range units {
		hash, err := s.newCredential()
		if err != nil {
			return nil, err
		}
		attendee := &model.Attendee{
			ID:         uuid.New().String(),
			BookingID:  booking.ID,
			EventID:    event.ID,
			QRCodeHash: hash,
			Position:   i,
		}
		nb.Attendees = append(nb.Attendees, attendee)

		for fieldID, value := range answerSets[i] {
			nb.Responses = append(nb.Responses, &model.FormResponse{
				ID:          uuid.New().String(),
				AttendeeID:  attendee.ID,
				FormFieldID: fieldID,
				Value:       value,
			})
		}
	}
	return nb, nil
}

// ConfirmPayment marks a pending booking paid. A repeat delivery carrying the
// same payment reference returns the booking unchanged.
func (s *BookingService) ConfirmPayment(ctx context.Context, bookingID, paymentRef string) (*model.Booking, error) {
	paymentRef = strings.TrimSpace(paymentRef)
	if paymentRef == "" {
		return nil, &model.ValidationError{Violations: []model.Violation{{FieldID: "payment_ref", Reason: model.ReasonMissing}}}
	}

	current, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}

	booking, err := s.store.TransitionPayment(ctx, bookingID, model.Transition{
		To:         model.PaymentPaid,
		PaymentRef: paymentRef,
		AmountPaid: current.AmountDue,
		At:         time.Now().UTC(),
	})
	if err != nil {
		if !errors.Is(err, model.ErrNotPending) {
			s.monitor.TrackTransition(string(model.PaymentPaid), metrics.ResultError)
			return nil, fmt.Errorf("confirm payment: %w", err)
		}
		latest, getErr := s.store.GetBooking(ctx, bookingID)
		if getErr != nil {
			return nil, fmt.Errorf("get booking: %w", getErr)
		}
		if latest.PaymentStatus == model.PaymentPaid && latest.PaymentRef == paymentRef {
			s.monitor.TrackTransition(string(model.PaymentPaid), metrics.ResultDuplicate)
			s.log.InfoContext(ctx, "duplicate payment confirmation ignored",
				slog.String("booking_id", bookingID),
				slog.String("payment_ref", paymentRef),
			)
			return latest, nil
		}
		s.monitor.TrackTransition(string(model.PaymentPaid), metrics.ResultRejected)
		return nil, err
	}

	s.monitor.TrackTransition(string(model.PaymentPaid), metrics.ResultOK)
	s.log.InfoContext(ctx, "booking paid",
		slog.String("booking_id", booking.ID),
		slog.String("payment_ref", paymentRef),
		slog.String("amount", booking.AmountPaid.StringFixed(2)),
	)
	return booking, nil
}

// FailPayment marks a pending booking failed and releases its capacity.
// Calling it again on a failed booking only retries a release that did not
// go through.
func (s *BookingService) FailPayment(ctx context.Context, bookingID, reason string) (*model.Booking, error) {
	return s.closeBooking(ctx, bookingID, model.PaymentFailed, strings.TrimSpace(reason))
}

// ExpireBooking marks a pending booking expired and releases its capacity.
// Calling it again on an expired booking only retries a release that did
// not go through.
func (s *BookingService) ExpireBooking(ctx context.Context, bookingID string) (*model.Booking, error) {
	return s.closeBooking(ctx, bookingID, model.PaymentExpired, "")
}

func (s *BookingService) closeBooking(ctx context.Context, bookingID string, to model.PaymentStatus, reason string) (*model.Booking, error) {
	result := metrics.ResultOK
	booking, err := s.store.TransitionPayment(ctx, bookingID, model.Transition{
		To:     to,
		Reason: reason,
		At:     time.Now().UTC(),
	})
	if err != nil {
		if !errors.Is(err, model.ErrNotPending) {
			s.monitor.TrackTransition(string(to), metrics.ResultError)
			return nil, fmt.Errorf("%s booking: %w", to, err)
		}
		var npErr *model.NotPendingError
		if !errors.As(err, &npErr) || npErr.Status != to {
			s.monitor.TrackTransition(string(to), metrics.ResultRejected)
			return nil, err
		}
		// Already closed the same way. Its units are still owed if the
		// earlier release never went through.
		if booking, err = s.store.GetBooking(ctx, bookingID); err != nil {
			return nil, fmt.Errorf("get booking: %w", err)
		}
		result = metrics.ResultDuplicate
	}

	if err := s.settle(ctx, booking); err != nil {
		s.monitor.TrackTransition(string(to), metrics.ResultError)
		return nil, err
	}

	s.monitor.TrackTransition(string(to), result)
	if result == metrics.ResultOK {
		s.log.InfoContext(ctx, "booking closed",
			slog.String("booking_id", booking.ID),
			slog.String("status", string(to)),
			slog.Int("released_units", booking.Units),
		)
	}
	return booking, nil
}

// settle hands a closed booking's units back unless that already happened.
// The release mark is claimed before the ledger call and cleared again if
// the ledger refuses, so a later close or sweep retries it and no two
// callers release the same booking.
func (s *BookingService) settle(ctx context.Context, b *model.Booking) error {
	if b.CapacityReleased {
		return nil
	}
	// Losing the release would leak capacity, hence the detached context.
	ctx = context.WithoutCancel(ctx)

	claimed, err := s.store.ClaimRelease(ctx, b.ID)
	if err != nil {
		return fmt.Errorf("claim release: %w", err)
	}
	if claimed {
		if err := s.release(ctx, b.TicketTypeID, b.Units); err != nil {
			if unErr := s.store.UnclaimRelease(ctx, b.ID); unErr != nil {
				return errors.Join(err, fmt.Errorf("unclaim release: %w", unErr))
			}
			return err
		}
	}
	b.CapacityReleased = true
	return nil
}

// release hands units back, retrying transient ledger failures.
func (s *BookingService) release(ctx context.Context, ticketTypeID string, units int) error {
	err := s.releasePolicy.Do(ctx, func() error {
		return s.ledger.Release(ctx, ticketTypeID, units)
	})
	if err != nil {
		s.log.ErrorContext(ctx, "capacity release failed",
			slog.String("ticket_type_id", ticketTypeID),
			slog.Int("units", units),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("release capacity: %w", err)
	}
	s.monitor.TrackRelease(ticketTypeID, units)
	return nil
}

// ExpireStale expires pending bookings whose payment window or registration
// deadline has passed at now, then retries releases still owed by earlier
// closes. It keeps going past individual failures and returns the bookings
// it expired.
func (s *BookingService) ExpireStale(ctx context.Context, now time.Time, limit int) ([]*model.Booking, error) {
	ids, err := s.store.ListExpirable(ctx, now.Add(-s.paymentWindow), now, limit)
	if err != nil {
		return nil, fmt.Errorf("list expirable: %w", err)
	}

	var expired []*model.Booking
	var errs []error
	for _, id := range ids {
		b, err := s.ExpireBooking(ctx, id)
		switch {
		case err == nil:
			expired = append(expired, b)
		case errors.Is(err, model.ErrNotPending):
			// paid or failed since it was listed
		default:
			errs = append(errs, fmt.Errorf("expire %s: %w", id, err))
		}
	}

	if err := s.settleOwed(ctx, limit); err != nil {
		errs = append(errs, err)
	}
	return expired, errors.Join(errs...)
}

// settleOwed retries the releases of failed or expired bookings whose units
// never made it back to the ledger.
func (s *BookingService) settleOwed(ctx context.Context, limit int) error {
	ids, err := s.store.ListUnreleased(ctx, limit)
	if err != nil {
		return fmt.Errorf("list unreleased: %w", err)
	}
	var errs []error
	for _, id := range ids {
		b, err := s.store.GetBooking(ctx, id)
		if err == nil {
			err = s.settle(ctx, b)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("settle %s: %w", id, err))
			continue
		}
		s.log.InfoContext(ctx, "owed capacity released",
			slog.String("booking_id", id),
			slog.Int("released_units", b.Units),
		)
	}
	return errors.Join(errs...)
}

// GetBooking returns a booking with its attendees.
func (s *BookingService) GetBooking(ctx context.Context, id string) (*model.BookingResult, error) {
	b, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	attendees, err := s.store.ListAttendees(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list attendees: %w", err)
	}
	return &model.BookingResult{Booking: b, Attendees: attendees}, nil
}

// Remaining reports the capacity left for display. Callers must not use it
// to decide whether a booking will succeed.
func (s *BookingService) Remaining(ctx context.Context, ticketTypeID string) (int, error) {
	n, err := s.ledger.Remaining(ctx, ticketTypeID)
	if err != nil {
		return 0, fmt.Errorf("remaining capacity: %w", err)
	}
	return n, nil
}

func normaliseEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return "", &model.ValidationError{Violations: []model.Violation{{FieldID: "purchaser_email", Reason: model.ReasonTypeMismatch}}}
	}
	return email, nil
}
