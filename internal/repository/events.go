package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/jackc/pgx/v5"
)

const eventColumns = `id, title, description, location, banner_url, slug, start_date, end_date,
	registration_deadline, is_published, status, created_at, created_by`

func scanEvent(row pgx.Row) (*model.Event, error) {
	var e model.Event
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Location, &e.BannerURL, &e.Slug,
		&e.StartDate, &e.EndDate, &e.RegistrationDeadline, &e.IsPublished, &e.Status,
		&e.CreatedAt, &e.CreatedBy)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// CreateEvent inserts the event and its organizer membership in one
// transaction.
func (s *Store) CreateEvent(ctx context.Context, e *model.Event, organizer *model.TeamMember) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO events (id, title, description, location, banner_url, slug, start_date,
				end_date, registration_deadline, is_published, status, created_at, created_by)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			e.ID, e.Title, e.Description, e.Location, e.BannerURL, e.Slug, e.StartDate,
			e.EndDate, e.RegistrationDeadline, e.IsPublished, string(e.Status), e.CreatedAt, e.CreatedBy,
		)
		if err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO event_team (id, event_id, principal_id, role, created_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			organizer.ID, organizer.EventID, organizer.PrincipalID, string(organizer.Role), organizer.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert organizer: %w", err)
		}
		return nil
	})
}

func (s *Store) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	e, err := scanEvent(s.db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "event", id)
	}
	return e, nil
}

func (s *Store) UpdateEventStatus(ctx context.Context, id string, from, to model.EventStatus) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE events SET status = $3 WHERE id = $1 AND status = $2`,
		id, string(from), string(to),
	)
	if err != nil {
		return fmt.Errorf("update event status: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	current, err := s.GetEvent(ctx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: event %s is %s, not %s", model.ErrInvalidTransition, id, current.Status, from)
}

func (s *Store) SetPublished(ctx context.Context, id string, published bool) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE events SET is_published = $2 WHERE id = $1`,
		id, published,
	)
	if err != nil {
		return fmt.Errorf("set published: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("event %s: %w", id, model.ErrNotFound)
	}
	return nil
}

// CreateTicketType inserts the ticket type with its counter at full capacity.
func (s *Store) CreateTicketType(ctx context.Context, t *model.TicketType) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO ticket_types (id, event_id, name, description, price, capacity, group_size, remaining, created_at)
		 VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $6, $8)`,
		t.ID, t.EventID, t.Name, t.Description, t.Price.StringFixed(2), t.Capacity, t.GroupSize, t.CreatedAt,
	)
	if err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return fmt.Errorf("event %s: %w", t.EventID, model.ErrNotFound)
		}
		return fmt.Errorf("insert ticket type: %w", err)
	}
	return nil
}

const ticketTypeColumns = `id, event_id, name, description, price::text, capacity, group_size, created_at`

func scanTicketType(row pgx.Row) (*model.TicketType, error) {
	var (
		t     model.TicketType
		price string
	)
	if err := row.Scan(&t.ID, &t.EventID, &t.Name, &t.Description, &price, &t.Capacity, &t.GroupSize, &t.CreatedAt); err != nil {
		return nil, err
	}
	p, err := parseAmount(price)
	if err != nil {
		return nil, err
	}
	t.Price = p
	return &t, nil
}

func (s *Store) GetTicketType(ctx context.Context, id string) (*model.TicketType, error) {
	t, err := scanTicketType(s.db.QueryRow(ctx,
		`SELECT `+ticketTypeColumns+` FROM ticket_types WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "ticket type", id)
	}
	return t, nil
}

func (s *Store) ListTicketTypes(ctx context.Context, eventID string) ([]model.TicketType, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+ticketTypeColumns+`
		 FROM ticket_types
		 WHERE event_id = $1
		 ORDER BY created_at ASC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list ticket types: %w", err)
	}
	defer rows.Close()

	var out []model.TicketType
	for rows.Next() {
		t, err := scanTicketType(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ticket type: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// ListTicketHoldings sums, per ticket type, the units of every booking that
// has not handed its capacity back.
func (s *Store) ListTicketHoldings(ctx context.Context) ([]model.TicketHolding, error) {
	rows, err := s.db.Query(ctx,
		`SELECT t.id, t.event_id, t.name, t.description, t.price::text, t.capacity, t.group_size, t.created_at,
		        COALESCE(SUM(b.units) FILTER (
		            WHERE b.payment_status IN ('pending', 'paid') OR NOT b.capacity_released
		        ), 0)
		 FROM ticket_types t
		 LEFT JOIN bookings b ON b.ticket_type_id = t.id
		 GROUP BY t.id
		 ORDER BY t.created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list ticket holdings: %w", err)
	}
	defer rows.Close()

	var out []model.TicketHolding
	for rows.Next() {
		var (
			h     model.TicketHolding
			price string
		)
		t := &h.TicketType
		if err := rows.Scan(&t.ID, &t.EventID, &t.Name, &t.Description, &price, &t.Capacity, &t.GroupSize, &t.CreatedAt, &h.Held); err != nil {
			return nil, fmt.Errorf("scan ticket holding: %w", err)
		}
		if t.Price, err = parseAmount(price); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// DeleteTicketType relies on the bookings foreign key to refuse deleting a
// ticket type that has been sold.
func (s *Store) DeleteTicketType(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM ticket_types WHERE id = $1`, id)
	if err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return fmt.Errorf("ticket type %s: %w", id, model.ErrTicketTypeInUse)
		}
		return fmt.Errorf("delete ticket type: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ticket type %s: %w", id, model.ErrNotFound)
	}
	return nil
}

func (s *Store) CreateFormField(ctx context.Context, f *model.FormField) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO form_fields (id, event_id, field_type, label, is_required, options, order_index, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		f.ID, f.EventID, string(f.Type), f.Label, f.Required, f.Options.String(), f.Position, f.CreatedAt,
	)
	if err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return fmt.Errorf("event %s: %w", f.EventID, model.ErrNotFound)
		}
		return fmt.Errorf("insert form field: %w", err)
	}
	return nil
}

// ListFormFields returns the fields in display order.
func (s *Store) ListFormFields(ctx context.Context, eventID string) ([]model.FormField, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, event_id, field_type, label, is_required, options, order_index, created_at
		 FROM form_fields
		 WHERE event_id = $1
		 ORDER BY order_index ASC, created_at ASC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list form fields: %w", err)
	}
	defer rows.Close()

	var fields []model.FormField
	for rows.Next() {
		var (
			f       model.FormField
			options string
		)
		if err := rows.Scan(&f.ID, &f.EventID, &f.Type, &f.Label, &f.Required, &options, &f.Position, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan form field: %w", err)
		}
		if f.Options, err = model.ParseFieldOptions(options); err != nil {
			return nil, fmt.Errorf("form field %s: %w", f.ID, err)
		}
		fields = append(fields, f)
	}
	return fields, rows.Err()
}

// GetRole returns model.ErrNotFound when the principal is not on the team.
func (s *Store) GetRole(ctx context.Context, eventID, principalID string) (model.TeamRole, error) {
	var role model.TeamRole
	err := s.db.QueryRow(ctx,
		`SELECT role FROM event_team WHERE event_id = $1 AND principal_id = $2`,
		eventID, principalID,
	).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", model.ErrNotFound
		}
		return "", fmt.Errorf("get role: %w", err)
	}
	return role, nil
}

// AddTeamMember upserts on (event_id, principal_id); an existing member keeps
// its ID and gets the new role. The event row is locked first so concurrent
// role changes on one team apply one at a time, and the organizer count seen
// here is still true at commit.
func (s *Store) AddTeamMember(ctx context.Context, m *model.TeamMember) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		var eventID string
		err := tx.QueryRow(ctx, `SELECT id FROM events WHERE id = $1 FOR UPDATE`, m.EventID).Scan(&eventID)
		if err != nil {
			return notFound(err, "event", m.EventID)
		}

		if m.Role != model.RoleOrganizer {
			var current model.TeamRole
			var organizers int
			err := tx.QueryRow(ctx,
				`SELECT
				     COALESCE((SELECT role FROM event_team WHERE event_id = $1 AND principal_id = $2), ''),
				     (SELECT COUNT(*) FROM event_team WHERE event_id = $1 AND role = 'organizer')`,
				m.EventID, m.PrincipalID,
			).Scan(&current, &organizers)
			if err != nil {
				return fmt.Errorf("count organizers: %w", err)
			}
			if current == model.RoleOrganizer && organizers <= 1 {
				return fmt.Errorf("demote %s: %w", m.PrincipalID, model.ErrLastOrganizer)
			}
		}

		err = tx.QueryRow(ctx,
			`INSERT INTO event_team (id, event_id, principal_id, role, created_at)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (event_id, principal_id) DO UPDATE SET role = EXCLUDED.role
			 RETURNING id, created_at`,
			m.ID, m.EventID, m.PrincipalID, string(m.Role), m.CreatedAt,
		).Scan(&m.ID, &m.CreatedAt)
		if err != nil {
			return fmt.Errorf("upsert team member: %w", err)
		}
		return nil
	})
}
