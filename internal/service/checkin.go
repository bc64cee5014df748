package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/metrics"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
)

// CheckInService redeems attendee credentials at the venue.
type CheckInService struct {
	store   AttendeeStore
	auth    *Authorizer
	log     *slog.Logger
	monitor *metrics.Monitor

	// allowSelf admits credentials scanned without a team member, recording
	// model.SelfCheckIn as the scanner.
	allowSelf bool
}

// NewCheckInService constructs a CheckInService.
func NewCheckInService(
	store AttendeeStore,
	auth *Authorizer,
	log *slog.Logger,
	monitor *metrics.Monitor,
	allowSelfCheckIn bool,
) *CheckInService {
	return &CheckInService{
		store:     store,
		auth:      auth,
		log:       log,
		monitor:   monitor,
		allowSelf: allowSelfCheckIn,
	}
}

// CheckIn admits the attendee holding qrCodeHash. Exactly one of any number
// of concurrent scans of the same credential succeeds; the rest get a
// *model.AlreadyCheckedInError naming the first check-in.
func (s *CheckInService) CheckIn(ctx context.Context, qrCodeHash, performedBy string) (*model.Attendee, error) {
	attendee, err := s.checkIn(ctx, strings.TrimSpace(qrCodeHash), strings.TrimSpace(performedBy))
	switch {
	case err == nil:
		s.monitor.TrackCheckIn(metrics.ResultOK)
	case errors.Is(err, model.ErrAlreadyCheckedIn):
		s.monitor.TrackCheckIn(metrics.ResultDuplicate)
	case model.IsDomainError(err):
		s.monitor.TrackCheckIn(metrics.ResultRejected)
	default:
		s.monitor.TrackCheckIn(metrics.ResultError)
	}
	return attendee, err
}

func (s *CheckInService) checkIn(ctx context.Context, qrCodeHash, performedBy string) (*model.Attendee, error) {
	if qrCodeHash == "" {
		return nil, model.ErrCredentialNotFound
	}

	attendee, err := s.store.GetAttendeeByCredential(ctx, qrCodeHash)
	if err != nil {
		return nil, fmt.Errorf("get attendee: %w", err)
	}

	scanner, err := s.scanner(ctx, attendee.EventID, performedBy)
	if err != nil {
		return nil, err
	}

	checked, err := s.store.CheckIn(ctx, qrCodeHash, scanner, time.Now().UTC())
	if err != nil {
		var dup *model.AlreadyCheckedInError
		if errors.As(err, &dup) {
			s.log.WarnContext(ctx, "duplicate check-in",
				slog.String("attendee_id", dup.AttendeeID),
				slog.String("scanned_by", scanner),
				slog.Time("first_check_in", dup.CheckInTime),
				slog.String("first_checked_in_by", dup.CheckedInBy),
			)
			return nil, err
		}
		if model.IsDomainError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("check in: %w", err)
	}

	s.log.InfoContext(ctx, "attendee checked in",
		slog.String("attendee_id", checked.ID),
		slog.String("event_id", checked.EventID),
		slog.String("checked_in_by", scanner),
	)
	return checked, nil
}

// scanner resolves who is recorded as performing the check-in.
func (s *CheckInService) scanner(ctx context.Context, eventID, performedBy string) (string, error) {
	if performedBy == "" || performedBy == model.SelfCheckIn {
		if !s.allowSelf {
			return "", fmt.Errorf("%w: self check-in is disabled", model.ErrForbidden)
		}
		return model.SelfCheckIn, nil
	}
	if err := s.auth.Authorize(ctx, performedBy, eventID, model.RoleScanner); err != nil {
		return "", err
	}
	return performedBy, nil
}

// Lookup shows a scanner the attendee and payment state behind a credential
// without checking it in.
func (s *CheckInService) Lookup(ctx context.Context, qrCodeHash, principalID string) (*model.ScanPreview, error) {
	attendee, err := s.store.GetAttendeeByCredential(ctx, strings.TrimSpace(qrCodeHash))
	if err != nil {
		return nil, fmt.Errorf("get attendee: %w", err)
	}
	if err := s.auth.Authorize(ctx, principalID, attendee.EventID, model.RoleScanner); err != nil {
		return nil, err
	}
	booking, err := s.store.GetBooking(ctx, attendee.BookingID)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return &model.ScanPreview{
		Attendee:      attendee,
		PaymentStatus: booking.PaymentStatus,
		TicketTypeID:  booking.TicketTypeID,
	}, nil
}
