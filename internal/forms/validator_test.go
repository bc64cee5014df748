package forms

import (
	"errors"
	"testing"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFields() []model.FormField {
	return []model.FormField{
		{ID: "size", Type: model.FieldSelect, Label: "T-shirt", Required: true, Options: model.Enumerated("S", "M", "L"), Position: 2},
		{ID: "name", Type: model.FieldText, Label: "Name", Required: true, Position: 0},
		{ID: "age", Type: model.FieldNumber, Label: "Age", Position: 1},
		{ID: "terms", Type: model.FieldCheckbox, Label: "Terms", Required: true, Position: 3},
		{ID: "news", Type: model.FieldCheckbox, Label: "Newsletter", Position: 4},
	}
}

func violationsOf(t *testing.T, err error) []model.Violation {
	t.Helper()
	require.ErrorIs(t, err, model.ErrValidationFailed)
	var verr *model.ValidationError
	require.True(t, errors.As(err, &verr))
	return verr.Violations
}

func TestValidate_Valid(t *testing.T) {
	err := Validate(testFields(), model.Answers{
		"name":  "Ada",
		"age":   "36.5",
		"size":  "M",
		"terms": "true",
		"news":  "false",
	})
	assert.NoError(t, err)
}

func TestValidate_OptionalAbsent(t *testing.T) {
	err := Validate(testFields(), model.Answers{"name": "Ada", "size": "S", "terms": "1"})
	assert.NoError(t, err)
}

func TestValidate_Violations(t *testing.T) {
	err := Validate(testFields(), model.Answers{
		"name":  "   ",
		"age":   "thirty",
		"size":  "XL",
		"terms": "false",
		"extra": "x",
	})

	v := violationsOf(t, err)
	require.Len(t, v, 5)
	assert.Equal(t, model.Violation{FieldID: "name", Label: "Name", Reason: model.ReasonMissing}, v[0])
	assert.Equal(t, model.ReasonTypeMismatch, v[1].Reason)
	assert.Equal(t, "age", v[1].FieldID)
	assert.Equal(t, model.ReasonNotAnOption, v[2].Reason)
	assert.Equal(t, "terms", v[3].FieldID)
	assert.Equal(t, model.ReasonMissing, v[3].Reason)
	assert.Equal(t, model.Violation{FieldID: "extra", Reason: model.ReasonUnknownField}, v[4])
}

func TestValidate_CheckboxNotBool(t *testing.T) {
	err := Validate(testFields(), model.Answers{"name": "Ada", "size": "S", "terms": "yes"})
	v := violationsOf(t, err)
	require.Len(t, v, 1)
	assert.Equal(t, model.ReasonTypeMismatch, v[0].Reason)
}

func TestValidate_NoFields(t *testing.T) {
	assert.NoError(t, Validate(nil, nil))
	assert.Error(t, Validate(nil, model.Answers{"x": "1"}))
}

func TestValidateBooking_SharedSet(t *testing.T) {
	sets, err := ValidateBooking(testFields(), []model.Answers{
		{"name": "Ada", "size": "L", "terms": "true", "age": " "},
	}, 3)
	require.NoError(t, err)
	require.Len(t, sets, 3)
	for _, s := range sets {
		assert.Equal(t, model.Answers{"name": "Ada", "size": "L", "terms": "true"}, s)
	}
}

func TestValidateBooking_PerAttendee(t *testing.T) {
	fields := []model.FormField{{ID: "name", Type: model.FieldText, Required: true}}

	sets, err := ValidateBooking(fields, []model.Answers{{"name": "Ada"}, {"name": "Linus"}}, 2)
	require.NoError(t, err)
	assert.Equal(t, "Linus", sets[1]["name"])

	_, err = ValidateBooking(fields, []model.Answers{{"name": "Ada"}, {}}, 2)
	v := violationsOf(t, err)
	require.Len(t, v, 1)
	assert.Equal(t, 1, v[0].Attendee)
}

func TestValidateBooking_WrongCount(t *testing.T) {
	_, err := ValidateBooking(nil, []model.Answers{{}, {}}, 3)
	v := violationsOf(t, err)
	assert.Equal(t, model.ReasonAnswerCount, v[0].Reason)
}

func TestValidateBooking_NoSetsWithRequiredField(t *testing.T) {
	fields := []model.FormField{{ID: "name", Type: model.FieldText, Required: true}}
	_, err := ValidateBooking(fields, nil, 1)
	assert.ErrorIs(t, err, model.ErrValidationFailed)

	sets, err := ValidateBooking(nil, nil, 2)
	require.NoError(t, err)
	assert.Len(t, sets, 2)
}
