package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from, to EventStatus
		want     bool
	}{
		{EventDraft, EventLive, true},
		{EventLive, EventEnded, true},
		{EventLive, EventCompleted, true},
		{EventEnded, EventLive, false},
		{EventDraft, EventDraft, false},
		{EventDraft, EventCancelled, true},
		{EventEnded, EventCancelled, true},
		{EventCancelled, EventLive, false},
		{EventCompleted, EventCancelled, false},
		{EventLive, EventStatus("archived"), false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestEvent_OpenForRegistration(t *testing.T) {
	deadline := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	e := &Event{Status: EventLive, RegistrationDeadline: deadline}

	assert.True(t, e.OpenForRegistration(deadline.Add(-time.Hour)))
	assert.True(t, e.OpenForRegistration(deadline))
	assert.False(t, e.OpenForRegistration(deadline.Add(time.Second)))

	e.Status = EventDraft
	assert.False(t, e.OpenForRegistration(deadline.Add(-time.Hour)))
}

func TestCreateEventRequest_Validate(t *testing.T) {
	start := time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC)

	req := CreateEventRequest{
		Title:                "  Go Meetup ",
		Location:             "Berlin",
		StartDate:            start,
		RegistrationDeadline: start.Add(-24 * time.Hour),
	}
	require.NoError(t, req.Validate())
	assert.Equal(t, "Go Meetup", req.Title)

	late := CreateEventRequest{
		Title:                "Go Meetup",
		Location:             "Berlin",
		StartDate:            start,
		RegistrationDeadline: start.Add(time.Hour),
	}
	err := late.Validate()
	require.ErrorIs(t, err, ErrValidationFailed)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "registration_deadline", verr.Violations[0].FieldID)
}

func TestTeamRole_Allows(t *testing.T) {
	assert.True(t, RoleOrganizer.Allows(RoleOrganizer))
	assert.True(t, RoleOrganizer.Allows(RoleScanner))
	assert.True(t, RoleScanner.Allows(RoleScanner))
	assert.False(t, RoleScanner.Allows(RoleOrganizer))
	assert.False(t, TeamRole("").Allows(RoleScanner))
}

func TestParseFieldOptions(t *testing.T) {
	none, err := ParseFieldOptions("")
	require.NoError(t, err)
	assert.True(t, none.IsNone())

	opts, err := ParseFieldOptions(`["S","M"," L ","M",""]`)
	require.NoError(t, err)
	assert.Equal(t, []string{"S", "M", "L"}, opts.Values())
	assert.True(t, opts.Contains("L"))
	assert.False(t, opts.Contains("XL"))
	assert.Equal(t, `["S","M","L"]`, opts.String())

	_, err = ParseFieldOptions(`{"S":1}`)
	assert.Error(t, err)
}

func TestIsDomainError(t *testing.T) {
	assert.True(t, IsDomainError(&NotPendingError{BookingID: "b1", Status: PaymentPaid}))
	assert.True(t, IsDomainError(errors.Join(errors.New("ctx"), ErrForbidden)))
	assert.False(t, IsDomainError(errors.New("connection reset")))
}
