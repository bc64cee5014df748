package model

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
)

// FieldType is the kind of value a form field accepts.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldNumber   FieldType = "number"
	FieldSelect   FieldType = "select"
	FieldCheckbox FieldType = "checkbox"
)

// Valid reports whether t is a known field type.
func (t FieldType) Valid() bool {
	switch t {
	case FieldText, FieldNumber, FieldSelect, FieldCheckbox:
		return true
	}
	return false
}

// FieldOptions is either None (zero value) or an enumerated set of choices.
type FieldOptions struct {
	values []string
	set    map[string]struct{}
}

// Enumerated builds an option set, dropping blanks and duplicates while
// keeping the declared order.
func Enumerated(values ...string) FieldOptions {
	o := FieldOptions{set: make(map[string]struct{}, len(values))}
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := o.set[v]; dup {
			continue
		}
		o.set[v] = struct{}{}
		o.values = append(o.values, v)
	}
	if len(o.values) == 0 {
		return FieldOptions{}
	}
	return o
}

// ParseFieldOptions decodes the stored JSON array of option labels.
// Empty input is None.
func ParseFieldOptions(raw string) (FieldOptions, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return FieldOptions{}, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return FieldOptions{}, fmt.Errorf("parse field options: %w", err)
	}
	return Enumerated(values...), nil
}

// IsNone reports whether no option set is declared.
func (o FieldOptions) IsNone() bool { return o.set == nil }

// Contains reports whether v is one of the declared options.
func (o FieldOptions) Contains(v string) bool {
	_, ok := o.set[v]
	return ok
}

// Values returns a copy of the options in declared order.
func (o FieldOptions) Values() []string { return slices.Clone(o.values) }

// String renders the options in their storage form.
func (o FieldOptions) String() string {
	if o.IsNone() {
		return ""
	}
	b, _ := json.Marshal(o.values)
	return string(b)
}

func (o FieldOptions) MarshalJSON() ([]byte, error) {
	if o.IsNone() {
		return []byte("null"), nil
	}
	return json.Marshal(o.values)
}

func (o *FieldOptions) UnmarshalJSON(b []byte) error {
	parsed, err := ParseFieldOptions(string(b))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// FormField is a custom question an event asks each attendee.
type FormField struct {
	ID        string       `json:"id"`
	EventID   string       `json:"event_id"`
	Type      FieldType    `json:"field_type"`
	Label     string       `json:"label"`
	Required  bool         `json:"is_required"`
	Options   FieldOptions `json:"options"`
	Position  int          `json:"order_index"`
	CreatedAt time.Time    `json:"created_at"`
}

// CreateFormFieldRequest is the payload for adding a form field to an event.
type CreateFormFieldRequest struct {
	Type     FieldType    `json:"field_type"`
	Label    string       `json:"label"`
	Required bool         `json:"is_required"`
	Options  FieldOptions `json:"options"`
	Position int          `json:"order_index"`
}

// Validate checks that options are present exactly when the type needs them.
func (r *CreateFormFieldRequest) Validate() error {
	r.Label = strings.TrimSpace(r.Label)

	var v []Violation
	if !r.Type.Valid() {
		v = append(v, Violation{FieldID: "field_type", Reason: ReasonTypeMismatch})
	}
	if r.Label == "" {
		v = append(v, Violation{FieldID: "label", Reason: ReasonMissing})
	}
	switch {
	case r.Type == FieldSelect && r.Options.IsNone():
		v = append(v, Violation{FieldID: "options", Reason: ReasonMissing})
	case r.Type != FieldSelect && !r.Options.IsNone():
		v = append(v, Violation{FieldID: "options", Reason: ReasonUnexpected})
	}
	if r.Position < 0 {
		v = append(v, Violation{FieldID: "order_index", Reason: ReasonOutOfRange})
	}
	if len(v) > 0 {
		return &ValidationError{Violations: v}
	}
	return nil
}

// Answers maps form field IDs to submitted values for one attendee.
type Answers map[string]string

// FormResponse is one attendee's answer to one form field.
type FormResponse struct {
	ID          string `json:"id"`
	AttendeeID  string `json:"attendee_id"`
	FormFieldID string `json:"form_field_id"`
	Value       string `json:"response_value"`
}
