// Package forms checks attendee answers against an event's custom fields.
// Validation is pure: it only reads the field definitions it is given.
package forms

import (
	"slices"
	"strconv"
	"strings"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/shopspring/decimal"
)

// Validate checks one answer set. It returns nil or a *model.ValidationError
// whose violations follow field order.
func Validate(fields []model.FormField, answers model.Answers) error {
	v := violations(sortedFields(fields), answers, 0)
	if len(v) > 0 {
		return &model.ValidationError{Violations: v}
	}
	return nil
}

// ValidateBooking checks the answer sets of a booking with attendees people
// and returns the set to persist for each attendee.
//
// No sets means an empty set for everyone; one set is shared by every
// attendee; otherwise there must be exactly one set per attendee.
func ValidateBooking(fields []model.FormField, sets []model.Answers, attendees int) ([]model.Answers, error) {
	switch len(sets) {
	case 0:
		sets = []model.Answers{{}}
	case 1, attendees:
	default:
		return nil, &model.ValidationError{Violations: []model.Violation{{
			FieldID: "answers",
			Reason:  model.ReasonAnswerCount,
		}}}
	}

	ordered := sortedFields(fields)
	var all []model.Violation
	for i, set := range sets {
		all = append(all, violations(ordered, set, i)...)
	}
	if len(all) > 0 {
		return nil, &model.ValidationError{Violations: all}
	}

	out := make([]model.Answers, attendees)
	for i := range out {
		if len(sets) == 1 {
			out[i] = compact(sets[0])
		} else {
			out[i] = compact(sets[i])
		}
	}
	return out, nil
}

func sortedFields(fields []model.FormField) []model.FormField {
	out := slices.Clone(fields)
	slices.SortStableFunc(out, func(a, b model.FormField) int {
		return a.Position - b.Position
	})
	return out
}

func violations(fields []model.FormField, answers model.Answers, attendee int) []model.Violation {
	var out []model.Violation
	known := make(map[string]struct{}, len(fields))

	for _, f := range fields {
		known[f.ID] = struct{}{}
		raw, ok := answers[f.ID]
		value := strings.TrimSpace(raw)
		if !ok || value == "" {
			if f.Required {
				out = append(out, violation(f, model.ReasonMissing, attendee))
			}
			continue
		}
		if reason := check(f, value); reason != "" {
			out = append(out, violation(f, reason, attendee))
		}
	}

	var unknown []string
	for id := range answers {
		if _, ok := known[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	slices.Sort(unknown)
	for _, id := range unknown {
		out = append(out, model.Violation{FieldID: id, Reason: model.ReasonUnknownField, Attendee: attendee})
	}
	return out
}

func check(f model.FormField, value string) string {
	switch f.Type {
	case model.FieldText:
		return ""
	case model.FieldNumber:
		if _, err := decimal.NewFromString(value); err != nil {
			return model.ReasonTypeMismatch
		}
	case model.FieldSelect:
		if !f.Options.Contains(value) {
			return model.ReasonNotAnOption
		}
	case model.FieldCheckbox:
		checked, err := strconv.ParseBool(value)
		if err != nil {
			return model.ReasonTypeMismatch
		}
		if f.Required && !checked {
			return model.ReasonMissing
		}
	default:
		return model.ReasonTypeMismatch
	}
	return ""
}

func violation(f model.FormField, reason string, attendee int) model.Violation {
	return model.Violation{FieldID: f.ID, Label: f.Label, Reason: reason, Attendee: attendee}
}

// compact drops blank answers so only real responses are stored.
func compact(a model.Answers) model.Answers {
	out := make(model.Answers, len(a))
	for id, v := range a {
		if v = strings.TrimSpace(v); v != "" {
			out[id] = v
		}
	}
	return out
}
