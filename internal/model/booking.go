package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the payment state of a booking.
//
//	pending -> paid     capacity stays committed
//	pending -> failed   capacity released
//	pending -> expired  capacity released
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
	PaymentExpired PaymentStatus = "expired"
)

// IsTerminal reports whether no transition can leave s.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentPaid || s == PaymentFailed || s == PaymentExpired
}

// ReleasesCapacity reports whether entering s hands the booking's units back.
func (s PaymentStatus) ReleasesCapacity() bool {
	return s == PaymentFailed || s == PaymentExpired
}

// Booking is one purchase transaction covering one or more attendees.
// Units is fixed at creation and is what a release gives back.
// CapacityReleased is set once a failed or expired booking's units are back
// in the ledger; until then the release is still owed.
type Booking struct {
	ID               string          `json:"id"`
	EventID          string          `json:"event_id"`
	TicketTypeID     string          `json:"ticket_type_id"`
	PurchaserEmail   string          `json:"purchaser_email"`
	Quantity         int             `json:"quantity"`
	Units            int             `json:"units"`
	AmountDue        decimal.Decimal `json:"amount_due"`
	AmountPaid       decimal.Decimal `json:"amount_paid"`
	PaymentStatus    PaymentStatus   `json:"payment_status"`
	PaymentRef       string          `json:"payment_ref,omitempty"`
	FailureReason    string          `json:"failure_reason,omitempty"`
	CapacityReleased bool            `json:"capacity_released"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// Transition describes a pending -> terminal change of a booking.
type Transition struct {
	To         PaymentStatus
	PaymentRef string
	AmountPaid decimal.Decimal
	Reason     string
	At         time.Time
}

// SelfCheckIn is recorded as the scanner when an attendee checks in without
// a team member.
const SelfCheckIn = "self"

// Attendee is one admitted person tied to a single-use check-in credential.
type Attendee struct {
	ID            string     `json:"id"`
	BookingID     string     `json:"booking_id"`
	EventID       string     `json:"event_id"`
	QRCodeHash    string     `json:"qr_code_hash"`
	Position      int        `json:"position"`
	CheckInStatus bool       `json:"check_in_status"`
	CheckInTime   *time.Time `json:"check_in_time,omitempty"`
	CheckedInBy   string     `json:"checked_in_by,omitempty"`
}

// CreateBookingRequest is the payload for purchasing tickets.
// Answers holds either one answer set shared by every attendee or one set
// per attendee, in attendee order.
type CreateBookingRequest struct {
	EventID        string    `json:"-"`
	TicketTypeID   string    `json:"ticket_type_id"`
	Quantity       int       `json:"quantity"`
	PurchaserEmail string    `json:"purchaser_email"`
	Answers        []Answers `json:"answers"`
}

// BookingResult is returned by a successful booking.
type BookingResult struct {
	Booking   *Booking    `json:"booking"`
	Attendees []*Attendee `json:"attendees"`
}

// NewBooking bundles every row written atomically when a booking is created.
type NewBooking struct {
	Booking   *Booking
	Attendees []*Attendee
	Responses []*FormResponse
}

// TicketHolding is a ticket type together with the units its bookings still
// hold against capacity.
type TicketHolding struct {
	TicketType TicketType
	Held       int
}

// ScanPreview is what a scanner sees before admitting an attendee.
type ScanPreview struct {
	Attendee      *Attendee     `json:"attendee"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	TicketTypeID  string        `json:"ticket_type_id"`
}
