package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres keeps the counter in ticket_types.remaining. The row is created
// with remaining = capacity, and a CHECK constraint keeps it between 0 and
// capacity.
type Postgres struct {
	db *pgxpool.Pool
}

// NewPostgres constructs a Postgres ledger.
func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

// Provision only confirms the ticket type row exists; its counter was
// initialised when the row was inserted.
func (p *Postgres) Provision(ctx context.Context, ticketTypeID string, capacity int) error {
	if capacity <= 0 {
		return fmt.Errorf("provision %s: capacity must be positive, got %d", ticketTypeID, capacity)
	}
	var stored int
	err := p.db.QueryRow(ctx,
		`SELECT capacity FROM ticket_types WHERE id = $1`,
		ticketTypeID,
	).Scan(&stored)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("provision %s: %w", ticketTypeID, model.ErrNotFound)
		}
		return fmt.Errorf("provision %s: %w", ticketTypeID, err)
	}
	if stored != capacity {
		return fmt.Errorf("provision %s: stored capacity %d, want %d", ticketTypeID, stored, capacity)
	}
	return nil
}

// Reserve decrements the counter in a single conditional UPDATE. Postgres
// takes the row lock for the duration of the statement, so two reservations
// on the same ticket type are applied one after the other and the second
// sees the first one's result.
func (p *Postgres) Reserve(ctx context.Context, ticketTypeID string, units int) error {
	if units <= 0 {
		return fmt.Errorf("reserve %s: units must be positive, got %d", ticketTypeID, units)
	}
	var left int
	err := p.db.QueryRow(ctx,
		`UPDATE ticket_types
		 SET remaining = remaining - $2
		 WHERE id = $1 AND remaining >= $2
		 RETURNING remaining`,
		ticketTypeID, units,
	).Scan(&left)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("reserve %s: %w", ticketTypeID, err)
	}

	remaining, err := p.Remaining(ctx, ticketTypeID)
	if err != nil {
		return err
	}
	return &model.CapacityError{TicketTypeID: ticketTypeID, Requested: units, Remaining: remaining}
}

func (p *Postgres) Release(ctx context.Context, ticketTypeID string, units int) error {
	if units <= 0 {
		return fmt.Errorf("release %s: units must be positive, got %d", ticketTypeID, units)
	}
	tag, err := p.db.Exec(ctx,
		`UPDATE ticket_types
		 SET remaining = LEAST(capacity, remaining + $2)
		 WHERE id = $1`,
		ticketTypeID, units,
	)
	if err != nil {
		return fmt.Errorf("release %s: %w", ticketTypeID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("release %s: %w", ticketTypeID, model.ErrNotFound)
	}
	return nil
}

func (p *Postgres) Remaining(ctx context.Context, ticketTypeID string) (int, error) {
	var remaining int
	err := p.db.QueryRow(ctx,
		`SELECT remaining FROM ticket_types WHERE id = $1`,
		ticketTypeID,
	).Scan(&remaining)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("remaining %s: %w", ticketTypeID, model.ErrNotFound)
		}
		return 0, fmt.Errorf("remaining %s: %w", ticketTypeID, err)
	}
	return remaining, nil
}
