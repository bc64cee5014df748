package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/ledger"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreateEvent_CreatorIsOrganizer(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	event, err := f.events.CreateEvent(ctx, "alice", model.CreateEventRequest{
		Title:                " Launch party ",
		Location:             "Rooftop",
		StartDate:            time.Now().Add(72 * time.Hour),
		RegistrationDeadline: time.Now().Add(48 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "Launch party", event.Title)
	assert.Equal(t, model.EventDraft, event.Status)

	role, err := f.store.GetRole(ctx, event.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, model.RoleOrganizer, role)
}

func TestCreateEvent_RequiresPrincipal(t *testing.T) {
	f := newFixture(t, false)
	_, err := f.events.CreateEvent(context.Background(), "", model.CreateEventRequest{
		Title:                "x",
		Location:             "y",
		StartDate:            time.Now().Add(time.Hour),
		RegistrationDeadline: time.Now(),
	})
	assert.ErrorIs(t, err, model.ErrForbidden)
}

func TestUpdateStatus_OnlyForward(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	event, _ := f.liveEvent(t, 10, 1)

	_, err := f.events.UpdateStatus(ctx, organizerID, event.ID, model.EventDraft)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	ended, err := f.events.UpdateStatus(ctx, organizerID, event.ID, model.EventEnded)
	require.NoError(t, err)
	assert.Equal(t, model.EventEnded, ended.Status)

	_, err = f.events.UpdateStatus(ctx, organizerID, event.ID, model.EventCompleted)
	require.NoError(t, err)

	_, err = f.events.UpdateStatus(ctx, organizerID, event.ID, model.EventCancelled)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
}

func TestSetPublished(t *testing.T) {
	f := newFixture(t, false)
	event, _ := f.liveEvent(t, 10, 1)

	got, err := f.events.SetPublished(context.Background(), organizerID, event.ID, true)
	require.NoError(t, err)
	assert.True(t, got.IsPublished)
}

func TestAddTicketType_ProvisionsLedger(t *testing.T) {
	f := newFixture(t, false)
	event, tt := f.liveEvent(t, 7, 1)

	assert.Equal(t, 7, f.remaining(t, tt))
	types, err := f.events.ListTicketTypes(context.Background(), event.ID)
	require.NoError(t, err)
	require.Len(t, types, 1)
	assert.Equal(t, "25", types[0].Price.String())
}

func TestAddTicketType_Invalid(t *testing.T) {
	f := newFixture(t, false)
	event, _ := f.liveEvent(t, 10, 1)

	_, err := f.events.AddTicketType(context.Background(), organizerID, event.ID, model.CreateTicketTypeRequest{
		Name:     "Free",
		Capacity: 0,
	})
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "capacity", verr.Violations[0].FieldID)
}

func TestDeleteTicketType(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	event, sold := f.liveEvent(t, 10, 1)
	f.book(t, event, sold, 1)

	err := f.events.DeleteTicketType(ctx, organizerID, sold.ID)
	assert.ErrorIs(t, err, model.ErrTicketTypeInUse)

	unsold, err := f.events.AddTicketType(ctx, organizerID, event.ID, model.CreateTicketTypeRequest{
		Name: "Student", Capacity: 3,
	})
	require.NoError(t, err)
	require.NoError(t, f.events.DeleteTicketType(ctx, organizerID, unsold.ID))

	_, err = f.store.GetTicketType(ctx, unsold.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestAddFormField(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	event, _ := f.liveEvent(t, 10, 1)

	_, err := f.events.AddFormField(ctx, organizerID, event.ID, model.CreateFormFieldRequest{
		Type: model.FieldSelect, Label: "Size",
	})
	assert.ErrorIs(t, err, model.ErrValidationFailed)

	_, err = f.events.AddFormField(ctx, organizerID, event.ID, model.CreateFormFieldRequest{
		Type: model.FieldNumber, Label: "Age", Position: 2,
	})
	require.NoError(t, err)
	_, err = f.events.AddFormField(ctx, organizerID, event.ID, model.CreateFormFieldRequest{
		Type: model.FieldText, Label: "Name", Position: 1,
	})
	require.NoError(t, err)

	fields, err := f.events.ListFormFields(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.Equal(t, "Name", fields[0].Label)
	assert.Equal(t, "Age", fields[1].Label)
}

func TestAddTeamMember_ReplacesRole(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	event, _ := f.liveEvent(t, 10, 1)

	_, err := f.events.AddTeamMember(ctx, organizerID, event.ID, scannerID, model.RoleOrganizer)
	require.NoError(t, err)

	role, err := f.store.GetRole(ctx, event.ID, scannerID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleOrganizer, role)

	_, err = f.events.AddTeamMember(ctx, organizerID, event.ID, "x", model.TeamRole("owner"))
	assert.ErrorIs(t, err, model.ErrValidationFailed)
}

func TestAddTeamMember_KeepsLastOrganizer(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	event, _ := f.liveEvent(t, 10, 1)

	_, err := f.events.AddTeamMember(ctx, organizerID, event.ID, organizerID, model.RoleScanner)
	assert.ErrorIs(t, err, model.ErrLastOrganizer)
	role, err := f.store.GetRole(ctx, event.ID, organizerID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleOrganizer, role)

	// With a second organizer the first may step down, but not both.
	_, err = f.events.AddTeamMember(ctx, organizerID, event.ID, "org-2", model.RoleOrganizer)
	require.NoError(t, err)
	_, err = f.events.AddTeamMember(ctx, "org-2", event.ID, organizerID, model.RoleScanner)
	require.NoError(t, err)
	_, err = f.events.AddTeamMember(ctx, "org-2", event.ID, "org-2", model.RoleScanner)
	assert.ErrorIs(t, err, model.ErrLastOrganizer)
}

func TestAddTicketType_RollsBackWhenProvisionFails(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	event, err := f.events.CreateEvent(ctx, organizerID, model.CreateEventRequest{
		Title:                "Workshop",
		Location:             "Room 2",
		StartDate:            time.Now().Add(48 * time.Hour),
		RegistrationDeadline: time.Now().Add(24 * time.Hour),
	})
	require.NoError(t, err)

	l := &mockLedger{}
	l.On("Provision", mock.Anything, mock.Anything, 5).Return(errors.New("redis: connection refused"))
	svc := NewEventService(f.store, f.store, f.store, l, f.auth, discardLogger())
	svc.provisionPolicy = fastRetry

	_, err = svc.AddTicketType(ctx, organizerID, event.ID, model.CreateTicketTypeRequest{
		Name:      "General",
		Price:     decimal.RequireFromString("10.00"),
		Capacity:  5,
		GroupSize: 1,
	})
	require.ErrorContains(t, err, "provision capacity")
	l.AssertNumberOfCalls(t, "Provision", 4)

	types, err := svc.ListTicketTypes(ctx, event.ID)
	require.NoError(t, err)
	assert.Empty(t, types)
}

func TestRestoreCapacity(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	event, tt := f.liveEvent(t, 10, 1)

	f.paidBooking(t, event, tt, 3)
	f.book(t, event, tt, 2)
	failed := f.book(t, event, tt, 1)
	_, err := f.bookings.FailPayment(ctx, failed.Booking.ID, "declined")
	require.NoError(t, err)
	// Closed without its release going through: still held.
	owed := f.book(t, event, tt, 1)
	_, err = f.store.TransitionPayment(ctx, owed.Booking.ID, model.Transition{To: model.PaymentExpired, At: time.Now()})
	require.NoError(t, err)
	require.Equal(t, 4, f.remaining(t, tt))

	// A flushed ledger starts out empty.
	flushed := ledger.NewMemory()
	svc := NewEventService(f.store, f.store, f.store, flushed, f.auth, discardLogger())

	restored, err := svc.RestoreCapacity(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, restored)
	n, err := flushed.Remaining(ctx, tt.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	restored, err = svc.RestoreCapacity(ctx)
	require.NoError(t, err)
	assert.Zero(t, restored)
}

func TestRestoreCapacity_LedgerWithoutCounters(t *testing.T) {
	f := newFixture(t, false)
	f.liveEvent(t, 10, 1)

	l := &mockLedger{}
	svc := NewEventService(f.store, f.store, f.store, l, f.auth, discardLogger())

	restored, err := svc.RestoreCapacity(context.Background())
	require.NoError(t, err)
	assert.Zero(t, restored)
	l.AssertExpectations(t)
}

func TestListBookings(t *testing.T) {
	f := newFixture(t, false)
	event, tt := f.liveEvent(t, 10, 1)
	f.book(t, event, tt, 1)
	f.book(t, event, tt, 2)

	bookings, err := f.events.ListBookings(context.Background(), organizerID, event.ID)
	require.NoError(t, err)
	assert.Len(t, bookings, 2)
}
