// Package metrics exposes prometheus counters for the ticketing hot paths.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	bookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketing_bookings_total",
			Help: "Booking attempts by outcome",
		},
		[]string{"result"},
	)

	reservationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketing_capacity_reservations_total",
			Help: "Capacity reservations by ticket type and outcome",
		},
		[]string{"ticket_type_id", "result"},
	)

	reservedUnits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketing_capacity_units_total",
			Help: "Capacity units reserved and released",
		},
		[]string{"ticket_type_id", "direction"},
	)

	paymentTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketing_payment_transitions_total",
			Help: "Booking payment transitions by target status and outcome",
		},
		[]string{"status", "result"},
	)

	checkInsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketing_checkins_total",
			Help: "Check-in attempts by outcome",
		},
		[]string{"result"},
	)
)

// Monitor records domain events. The zero value is ready to use.
type Monitor struct{}

// New returns a Monitor backed by the default registry.
func New() *Monitor { return &Monitor{} }

// TrackBooking counts a CreateBooking outcome.
func (m *Monitor) TrackBooking(result string) {
	bookingsTotal.WithLabelValues(result).Inc()
}

// TrackReservation counts a ledger Reserve outcome and the units taken.
func (m *Monitor) TrackReservation(ticketTypeID, result string, units int) {
	reservationsTotal.WithLabelValues(ticketTypeID, result).Inc()
	if result == ResultOK {
		reservedUnits.WithLabelValues(ticketTypeID, "reserved").Add(float64(units))
	}
}

// TrackRelease counts units handed back to the ledger.
func (m *Monitor) TrackRelease(ticketTypeID string, units int) {
	reservedUnits.WithLabelValues(ticketTypeID, "released").Add(float64(units))
}

// TrackTransition counts a payment status change attempt.
func (m *Monitor) TrackTransition(status, result string) {
	paymentTransitions.WithLabelValues(status, result).Inc()
}

// TrackCheckIn counts a check-in outcome.
func (m *Monitor) TrackCheckIn(result string) {
	checkInsTotal.WithLabelValues(result).Inc()
}

// Common result labels.
const (
	ResultOK        = "ok"
	ResultRejected  = "rejected"
	ResultError     = "error"
	ResultDuplicate = "duplicate"
)
