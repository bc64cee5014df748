package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TicketType is a purchasable category within an event with its own
// price and capacity pool.
type TicketType struct {
	ID          string          `json:"id"`
	EventID     string          `json:"event_id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Capacity    int             `json:"capacity"`
	GroupSize   int             `json:"group_size"`
	CreatedAt   time.Time       `json:"created_at"`
}

// UnitsFor returns the capacity units consumed by quantity purchases.
func (t *TicketType) UnitsFor(quantity int) int {
	return quantity * t.GroupSize
}

// CreateTicketTypeRequest is the payload for adding a ticket type to an event.
type CreateTicketTypeRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Capacity    int             `json:"capacity"`
	GroupSize   int             `json:"group_size"`
}

// Validate normalises the request; a zero group size means single admission.
func (r *CreateTicketTypeRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.GroupSize == 0 {
		r.GroupSize = 1
	}

	var v []Violation
	if r.Name == "" {
		v = append(v, Violation{FieldID: "name", Reason: ReasonMissing})
	}
	if r.Price.IsNegative() {
		v = append(v, Violation{FieldID: "price", Reason: ReasonOutOfRange})
	}
	if r.Capacity <= 0 {
		v = append(v, Violation{FieldID: "capacity", Reason: ReasonOutOfRange})
	}
	if r.GroupSize < 1 {
		v = append(v, Violation{FieldID: "group_size", Reason: ReasonOutOfRange})
	}
	if len(v) > 0 {
		return &ValidationError{Violations: v}
	}
	return nil
}
