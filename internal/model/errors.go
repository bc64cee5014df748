package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

var (
	ErrEventNotOpen       = errors.New("event is not open for registration")
	ErrValidationFailed   = errors.New("validation failed")
	ErrCapacityExceeded   = errors.New("not enough capacity left")
	ErrNotPending         = errors.New("booking is not pending")
	ErrCredentialNotFound = errors.New("credential not found")
	ErrBookingNotPaid     = errors.New("booking is not paid")
	ErrAlreadyCheckedIn   = errors.New("attendee already checked in")
	ErrForbidden          = errors.New("forbidden")
)

var (
	// ErrInsufficient is the ledger's refusal; services surface it as
	// ErrCapacityExceeded.
	ErrInsufficient      = errors.New("insufficient remaining capacity")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrTicketTypeInUse   = errors.New("ticket type has bookings")
	ErrLastOrganizer     = errors.New("event must keep at least one organizer")
)

var domainErrors = []error{
	ErrNotFound, ErrEventNotOpen, ErrValidationFailed, ErrCapacityExceeded,
	ErrNotPending, ErrCredentialNotFound, ErrBookingNotPaid, ErrAlreadyCheckedIn,
	ErrForbidden, ErrInsufficient, ErrInvalidTransition, ErrTicketTypeInUse,
	ErrLastOrganizer,
}

// IsDomainError reports whether err is an expected business outcome rather
// than an infrastructure failure.
func IsDomainError(err error) bool {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Violation reasons.
const (
	ReasonMissing      = "missing"
	ReasonTypeMismatch = "type_mismatch"
	ReasonNotAnOption  = "not_an_option"
	ReasonUnknownField = "unknown_field"
	ReasonAnswerCount  = "answer_count"
	ReasonOutOfRange   = "out_of_range"
	ReasonUnexpected   = "unexpected"
)

// Violation describes one rejected input.
type Violation struct {
	FieldID string `json:"field_id"`
	Label   string `json:"label,omitempty"`
	Reason  string `json:"reason"`
	// Attendee is the index of the answer set the value came from.
	Attendee int `json:"attendee"`
}

// ValidationError carries every violation found in a request.
type ValidationError struct {
	Violations []Violation `json:"violations"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.FieldID+": "+v.Reason)
	}
	return fmt.Sprintf("%s: %s", ErrValidationFailed, strings.Join(parts, ", "))
}

func (e *ValidationError) Unwrap() error { return ErrValidationFailed }

// CapacityError reports a reservation that did not fit.
type CapacityError struct {
	TicketTypeID string `json:"ticket_type_id"`
	Requested    int    `json:"requested"`
	Remaining    int    `json:"remaining"`
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s: ticket type %s requested %d, remaining %d",
		ErrInsufficient, e.TicketTypeID, e.Requested, e.Remaining)
}

func (e *CapacityError) Unwrap() error { return ErrInsufficient }

// NotPendingError reports the state a booking was found in.
type NotPendingError struct {
	BookingID string        `json:"booking_id"`
	Status    PaymentStatus `json:"status"`
}

func (e *NotPendingError) Error() string {
	return fmt.Sprintf("%s: booking %s is %s", ErrNotPending, e.BookingID, e.Status)
}

func (e *NotPendingError) Unwrap() error { return ErrNotPending }

// AlreadyCheckedInError tells venue staff when and by whom a credential was
// first redeemed.
type AlreadyCheckedInError struct {
	AttendeeID  string    `json:"attendee_id"`
	CheckInTime time.Time `json:"check_in_time"`
	CheckedInBy string    `json:"checked_in_by"`
}

func (e *AlreadyCheckedInError) Error() string {
	return fmt.Sprintf("%s at %s by %s",
		ErrAlreadyCheckedIn, e.CheckInTime.Format(time.RFC3339), e.CheckedInBy)
}

func (e *AlreadyCheckedInError) Unwrap() error { return ErrAlreadyCheckedIn }
