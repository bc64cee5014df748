package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/jackc/pgx/v5"
)

const bookingColumns = `id, event_id, ticket_type_id, purchaser_email, quantity, units,
	amount_due::text, amount_paid::text, payment_status, payment_ref, failure_reason, capacity_released,
	created_at, updated_at`

func scanBooking(row pgx.Row) (*model.Booking, error) {
	var (
		b         model.Booking
		due, paid string
	)
	err := row.Scan(&b.ID, &b.EventID, &b.TicketTypeID, &b.PurchaserEmail, &b.Quantity, &b.Units,
		&due, &paid, &b.PaymentStatus, &b.PaymentRef, &b.FailureReason, &b.CapacityReleased, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if b.AmountDue, err = parseAmount(due); err != nil {
		return nil, err
	}
	if b.AmountPaid, err = parseAmount(paid); err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateBooking writes the booking, its attendees and their form responses
// in one transaction. Nothing is visible until every row is in.
func (s *Store) CreateBooking(ctx context.Context, nb *model.NewBooking) error {
	b := nb.Booking
	return s.withTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO bookings (id, event_id, ticket_type_id, purchaser_email, quantity, units,
				amount_due, amount_paid, payment_status, payment_ref, failure_reason, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8::numeric, $9, $10, $11, $12, $13)`,
			b.ID, b.EventID, b.TicketTypeID, b.PurchaserEmail, b.Quantity, b.Units,
			b.AmountDue.StringFixed(2), b.AmountPaid.StringFixed(2), string(b.PaymentStatus),
			b.PaymentRef, b.FailureReason, b.CreatedAt, b.UpdatedAt,
		)
		if err != nil {
			if pgCode(err) == codeForeignKeyViolation {
				return fmt.Errorf("ticket type %s: %w", b.TicketTypeID, model.ErrNotFound)
			}
			return fmt.Errorf("insert booking: %w", err)
		}

		batch := &pgx.Batch{}
		for _, a := range nb.Attendees {
			batch.Queue(
				`INSERT INTO attendees (id, booking_id, event_id, qr_code_hash, position) VALUES ($1, $2, $3, $4, $5)`,
				a.ID, a.BookingID, a.EventID, a.QRCodeHash, a.Position,
			)
		}
		for _, r := range nb.Responses {
			batch.Queue(
				`INSERT INTO form_responses (id, attendee_id, form_field_id, response_value) VALUES ($1, $2, $3, $4)`,
				r.ID, r.AttendeeID, r.FormFieldID, r.Value,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			if pgCode(err) == codeUniqueViolation {
				return fmt.Errorf("duplicate credential in booking %s: %w", b.ID, err)
			}
			return fmt.Errorf("insert attendees: %w", err)
		}
		return nil
	})
}

func (s *Store) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	b, err := scanBooking(s.db.QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "booking", id)
	}
	return b, nil
}

// TransitionPayment is a single conditional UPDATE on payment_status, so of
// two racing transitions exactly one finds the booking pending.
func (s *Store) TransitionPayment(ctx context.Context, id string, tr model.Transition) (*model.Booking, error) {
	b, err := scanBooking(s.db.QueryRow(ctx,
		`UPDATE bookings
		 SET payment_status = $2, payment_ref = $3, amount_paid = $4::numeric,
		     failure_reason = $5, updated_at = $6
		 WHERE id = $1 AND payment_status = 'pending'
		 RETURNING `+bookingColumns,
		id, string(tr.To), tr.PaymentRef, tr.AmountPaid.StringFixed(2), tr.Reason, tr.At,
	))
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("transition booking: %w", err)
	}

	current, err := s.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	return nil, &model.NotPendingError{BookingID: id, Status: current.PaymentStatus}
}

// ListExpirable returns pending bookings past their payment window or whose
// event stopped taking registrations, oldest first.
func (s *Store) ListExpirable(ctx context.Context, createdBefore, now time.Time, limit int) ([]string, error) {
	rows, err := s.db.Query(ctx,
		`SELECT b.id
		 FROM bookings b
		 JOIN events e ON e.id = b.event_id
		 WHERE b.payment_status = 'pending'
		   AND (b.created_at < $1 OR e.registration_deadline < $2)
		 ORDER BY b.created_at ASC
		 LIMIT NULLIF($3::int, 0)`,
		createdBefore, now, max(limit, 0),
	)
	if err != nil {
		return nil, fmt.Errorf("list expirable: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan expirable: %w", err)
	}
	return ids, nil
}

// ClaimRelease sets capacity_released only while it is still false, so of
// several callers owing the same release exactly one sees true.
func (s *Store) ClaimRelease(ctx context.Context, id string) (bool, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE bookings SET capacity_released = TRUE
		 WHERE id = $1 AND payment_status IN ('failed', 'expired') AND NOT capacity_released`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("claim release: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}
	if _, err := s.GetBooking(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

func (s *Store) UnclaimRelease(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `UPDATE bookings SET capacity_released = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("unclaim release: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("booking %s: %w", id, model.ErrNotFound)
	}
	return nil
}

// ListUnreleased returns closed bookings whose units are still owed to the
// ledger, oldest first.
func (s *Store) ListUnreleased(ctx context.Context, limit int) ([]string, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id
		 FROM bookings
		 WHERE payment_status IN ('failed', 'expired') AND NOT capacity_released
		 ORDER BY updated_at ASC
		 LIMIT NULLIF($1::int, 0)`,
		max(limit, 0),
	)
	if err != nil {
		return nil, fmt.Errorf("list unreleased: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan unreleased: %w", err)
	}
	return ids, nil
}

func (s *Store) ListBookingsByEvent(ctx context.Context, eventID string) ([]model.Booking, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+bookingColumns+`
		 FROM bookings
		 WHERE event_id = $1
		 ORDER BY created_at ASC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var out []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}
