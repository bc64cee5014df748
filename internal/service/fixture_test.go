package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/ledger"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/memstore"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/metrics"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/retry"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	organizerID = "org-1"
	scannerID   = "scan-1"
	window      = 15 * time.Minute
)

// fastRetry keeps failure-path tests quick.
var fastRetry = retry.Policy{Retries: 3, Initial: time.Millisecond, Max: time.Millisecond}

type fixture struct {
	store    *memstore.Store
	ledger   *ledger.Memory
	auth     *Authorizer
	events   *EventService
	bookings *BookingService
	checkIns *CheckInService
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T, allowSelf bool) *fixture {
	t.Helper()
	st := memstore.New()
	l := ledger.NewMemory()
	log := discardLogger()
	monitor := metrics.New()
	auth := NewAuthorizer(st)

	f := &fixture{
		store:    st,
		ledger:   l,
		auth:     auth,
		events:   NewEventService(st, st, st, l, auth, log),
		bookings: NewBookingService(st, st, l, log, monitor, window),
		checkIns: NewCheckInService(st, auth, log, monitor, allowSelf),
	}
	f.bookings.releasePolicy = fastRetry
	return f
}

// liveEvent creates an event open for registration with a scanner on its
// team and returns it with one ticket type.
func (f *fixture) liveEvent(t *testing.T, capacity, groupSize int) (*model.Event, *model.TicketType) {
	t.Helper()
	return f.eventWithDeadline(t, time.Now().Add(24*time.Hour), capacity, groupSize)
}

func (f *fixture) eventWithDeadline(t *testing.T, deadline time.Time, capacity, groupSize int) (*model.Event, *model.TicketType) {
	t.Helper()
	ctx := context.Background()

	event, err := f.events.CreateEvent(ctx, organizerID, model.CreateEventRequest{
		Title:                "GopherCon",
		Location:             "Hall A",
		StartDate:            time.Now().Add(48 * time.Hour),
		RegistrationDeadline: deadline,
	})
	require.NoError(t, err)

	tt, err := f.events.AddTicketType(ctx, organizerID, event.ID, model.CreateTicketTypeRequest{
		Name:      "Team pass",
		Price:     decimal.RequireFromString("25.00"),
		Capacity:  capacity,
		GroupSize: groupSize,
	})
	require.NoError(t, err)

	_, err = f.events.AddTeamMember(ctx, organizerID, event.ID, scannerID, model.RoleScanner)
	require.NoError(t, err)

	event, err = f.events.UpdateStatus(ctx, organizerID, event.ID, model.EventLive)
	require.NoError(t, err)
	return event, tt
}

func (f *fixture) book(t *testing.T, event *model.Event, tt *model.TicketType, quantity int) *model.BookingResult {
	t.Helper()
	res, err := f.bookings.CreateBooking(context.Background(), model.CreateBookingRequest{
		EventID:        event.ID,
		TicketTypeID:   tt.ID,
		Quantity:       quantity,
		PurchaserEmail: "buyer@example.com",
	})
	require.NoError(t, err)
	return res
}

func (f *fixture) paidBooking(t *testing.T, event *model.Event, tt *model.TicketType, quantity int) *model.BookingResult {
	t.Helper()
	res := f.book(t, event, tt, quantity)
	_, err := f.bookings.ConfirmPayment(context.Background(), res.Booking.ID, "pay_"+res.Booking.ID)
	require.NoError(t, err)
	return res
}

func (f *fixture) remaining(t *testing.T, tt *model.TicketType) int {
	t.Helper()
	n, err := f.ledger.Remaining(context.Background(), tt.ID)
	require.NoError(t, err)
	return n
}
