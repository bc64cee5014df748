package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/jackc/pgx/v5"
)

const attendeeColumns = `id, booking_id, event_id, qr_code_hash, position, check_in_status, check_in_time,
	COALESCE(checked_in_by, '')`

func scanAttendee(row pgx.Row) (*model.Attendee, error) {
	var a model.Attendee
	if err := row.Scan(&a.ID, &a.BookingID, &a.EventID, &a.QRCodeHash, &a.Position,
		&a.CheckInStatus, &a.CheckInTime, &a.CheckedInBy); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) ListAttendees(ctx context.Context, bookingID string) ([]*model.Attendee, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+attendeeColumns+`
		 FROM attendees
		 WHERE booking_id = $1
		 ORDER BY position ASC`,
		bookingID,
	)
	if err != nil {
		return nil, fmt.Errorf("list attendees: %w", err)
	}
	defer rows.Close()

	var out []*model.Attendee
	for rows.Next() {
		a, err := scanAttendee(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attendee: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) GetAttendeeByCredential(ctx context.Context, qrCodeHash string) (*model.Attendee, error) {
	a, err := scanAttendee(s.db.QueryRow(ctx,
		`SELECT `+attendeeColumns+` FROM attendees WHERE qr_code_hash = $1`, qrCodeHash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrCredentialNotFound
		}
		return nil, fmt.Errorf("get attendee: %w", err)
	}
	return a, nil
}

// CheckIn flips check_in_status with one conditional UPDATE joined to the
// booking's payment state. Concurrent scans of the same credential queue on
// the row lock; after the first commits, the rest no longer match.
func (s *Store) CheckIn(ctx context.Context, qrCodeHash, performedBy string, at time.Time) (*model.Attendee, error) {
	a, err := scanAttendee(s.db.QueryRow(ctx,
		`UPDATE attendees a
		 SET check_in_status = TRUE, check_in_time = $3, checked_in_by = $2
		 FROM bookings b
		 WHERE a.qr_code_hash = $1
		   AND b.id = a.booking_id
		   AND b.payment_status = 'paid'
		   AND a.check_in_status = FALSE
		 RETURNING a.id, a.booking_id, a.event_id, a.qr_code_hash, a.position, a.check_in_status,
		           a.check_in_time, a.checked_in_by`,
		qrCodeHash, performedBy, at,
	))
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("check in: %w", err)
	}
	return nil, s.checkInRefusal(ctx, qrCodeHash)
}

// checkInRefusal explains why the conditional check-in matched no row.
func (s *Store) checkInRefusal(ctx context.Context, qrCodeHash string) error {
	var (
		attendeeID, bookingID string
		checkedIn             bool
		checkInTime           *time.Time
		checkedInBy           string
		status                model.PaymentStatus
	)
	err := s.db.QueryRow(ctx,
		`SELECT a.id, a.booking_id, a.check_in_status, a.check_in_time,
		        COALESCE(a.checked_in_by, ''), b.payment_status
		 FROM attendees a
		 JOIN bookings b ON b.id = a.booking_id
		 WHERE a.qr_code_hash = $1`,
		qrCodeHash,
	).Scan(&attendeeID, &bookingID, &checkedIn, &checkInTime, &checkedInBy, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrCredentialNotFound
		}
		return fmt.Errorf("classify check-in: %w", err)
	}

	switch {
	case status != model.PaymentPaid:
		return fmt.Errorf("%w: booking %s is %s", model.ErrBookingNotPaid, bookingID, status)
	case checkedIn && checkInTime != nil:
		return &model.AlreadyCheckedInError{AttendeeID: attendeeID, CheckInTime: *checkInTime, CheckedInBy: checkedInBy}
	default:
		// The row changed between the two statements; let the caller retry.
		return fmt.Errorf("check in %s: state changed concurrently", attendeeID)
	}
}
