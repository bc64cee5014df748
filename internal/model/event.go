// Package model defines the core domain types for the ticketing system.
package model

import (
	"strings"
	"time"
)

// EventStatus is the lifecycle state of an event.
type EventStatus string

const (
	EventDraft     EventStatus = "draft"
	EventLive      EventStatus = "live"
	EventEnded     EventStatus = "ended"
	EventCancelled EventStatus = "cancelled"
	EventCompleted EventStatus = "completed"
)

// forward order of the non-cancelled lifecycle.
var eventStatusRank = map[EventStatus]int{
	EventDraft:     0,
	EventLive:      1,
	EventEnded:     2,
	EventCompleted: 3,
}

// Valid reports whether s is a known status.
func (s EventStatus) Valid() bool {
	_, ok := eventStatusRank[s]
	return ok || s == EventCancelled
}

// IsTerminal reports whether no further transition can leave s.
func (s EventStatus) IsTerminal() bool {
	return s == EventCancelled || s == EventCompleted
}

// CanTransition reports whether an event may move from s to next.
// Statuses only move forward; any non-terminal status may be cancelled.
func (s EventStatus) CanTransition(next EventStatus) bool {
	if s.IsTerminal() || !next.Valid() {
		return false
	}
	if next == EventCancelled {
		return true
	}
	return eventStatusRank[next] > eventStatusRank[s]
}

// Event represents a ticketed event owned by the organizer who created it.
type Event struct {
	ID                   string      `json:"id"`
	Title                string      `json:"title"`
	Description          string      `json:"description,omitempty"`
	Location             string      `json:"location"`
	BannerURL            string      `json:"banner_url,omitempty"`
	Slug                 string      `json:"slug,omitempty"`
	StartDate            time.Time   `json:"start_date"`
	EndDate              *time.Time  `json:"end_date,omitempty"`
	RegistrationDeadline time.Time   `json:"registration_deadline"`
	IsPublished          bool        `json:"is_published"`
	Status               EventStatus `json:"status"`
	CreatedAt            time.Time   `json:"created_at"`
	CreatedBy            string      `json:"created_by"`
}

// OpenForRegistration reports whether bookings may be created at now.
func (e *Event) OpenForRegistration(now time.Time) bool {
	return e.Status == EventLive && !now.After(e.RegistrationDeadline)
}

// CreateEventRequest is the payload for creating a new event.
type CreateEventRequest struct {
	Title                string     `json:"title"`
	Description          string     `json:"description"`
	Location             string     `json:"location"`
	BannerURL            string     `json:"banner_url"`
	Slug                 string     `json:"slug"`
	StartDate            time.Time  `json:"start_date"`
	EndDate              *time.Time `json:"end_date"`
	RegistrationDeadline time.Time  `json:"registration_deadline"`
}

// Validate trims the request and checks the date window.
func (r *CreateEventRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	r.Location = strings.TrimSpace(r.Location)

	var v []Violation
	if r.Title == "" {
		v = append(v, Violation{FieldID: "title", Reason: ReasonMissing})
	}
	if r.Location == "" {
		v = append(v, Violation{FieldID: "location", Reason: ReasonMissing})
	}
	if r.StartDate.IsZero() {
		v = append(v, Violation{FieldID: "start_date", Reason: ReasonMissing})
	}
	if r.RegistrationDeadline.IsZero() {
		v = append(v, Violation{FieldID: "registration_deadline", Reason: ReasonMissing})
	} else if !r.StartDate.IsZero() && r.RegistrationDeadline.After(r.StartDate) {
		v = append(v, Violation{FieldID: "registration_deadline", Reason: ReasonOutOfRange})
	}
	if r.EndDate != nil && r.EndDate.Before(r.StartDate) {
		v = append(v, Violation{FieldID: "end_date", Reason: ReasonOutOfRange})
	}
	if len(v) > 0 {
		return &ValidationError{Violations: v}
	}
	return nil
}
