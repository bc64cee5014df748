// Package ledger holds capacity counters: per ticket type, the number of
// admission units still available. Reserve is the only way to take units.
package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
)

type counter struct {
	capacity  int
	remaining int
}

// Memory is a process-local ledger. It is only exclusive within one
// process, so it backs tests and single-instance runs.
type Memory struct {
	mu       sync.Mutex
	counters map[string]*counter
}

// NewMemory returns an empty in-memory ledger.
func NewMemory() *Memory {
	return &Memory{counters: make(map[string]*counter)}
}

// Provision registers a ticket type with its full capacity. Provisioning an
// existing ticket type leaves its counter untouched.
func (m *Memory) Provision(ctx context.Context, ticketTypeID string, capacity int) error {
	if _, err := m.Restore(ctx, ticketTypeID, capacity, capacity); err != nil {
		return fmt.Errorf("provision %s: %w", ticketTypeID, err)
	}
	return nil
}

// Restore creates a counter with remaining units left unless one exists.
func (m *Memory) Restore(_ context.Context, ticketTypeID string, capacity, remaining int) (bool, error) {
	if capacity <= 0 {
		return false, fmt.Errorf("capacity must be positive, got %d", capacity)
	}
	if remaining < 0 || remaining > capacity {
		return false, fmt.Errorf("remaining %d outside 0..%d", remaining, capacity)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.counters[ticketTypeID]; ok {
		return false, nil
	}
	m.counters[ticketTypeID] = &counter{capacity: capacity, remaining: remaining}
	return true, nil
}

func (m *Memory) Reserve(_ context.Context, ticketTypeID string, units int) error {
	if units <= 0 {
		return fmt.Errorf("reserve %s: units must be positive, got %d", ticketTypeID, units)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.counters[ticketTypeID]
	if !ok {
		return fmt.Errorf("reserve %s: %w", ticketTypeID, model.ErrNotFound)
	}
	if c.remaining < units {
		return &model.CapacityError{TicketTypeID: ticketTypeID, Requested: units, Remaining: c.remaining}
	}
	c.remaining -= units
	return nil
}

func (m *Memory) Release(_ context.Context, ticketTypeID string, units int) error {
	if units <= 0 {
		return fmt.Errorf("release %s: units must be positive, got %d", ticketTypeID, units)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.counters[ticketTypeID]
	if !ok {
		return fmt.Errorf("release %s: %w", ticketTypeID, model.ErrNotFound)
	}
	c.remaining = min(c.capacity, c.remaining+units)
	return nil
}

func (m *Memory) Remaining(_ context.Context, ticketTypeID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.counters[ticketTypeID]
	if !ok {
		return 0, fmt.Errorf("remaining %s: %w", ticketTypeID, model.ErrNotFound)
	}
	return c.remaining, nil
}
