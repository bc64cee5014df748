package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
)

// Authorizer answers whether a principal may act on an event at a given
// level. It never mutates anything.
type Authorizer struct {
	team TeamReader
}

// NewAuthorizer constructs an Authorizer.
func NewAuthorizer(team TeamReader) *Authorizer {
	return &Authorizer{team: team}
}

// Authorize returns nil when principalID holds a role on eventID that allows
// required, and model.ErrForbidden otherwise.
func (a *Authorizer) Authorize(ctx context.Context, principalID, eventID string, required model.TeamRole) error {
	if principalID == "" || principalID == model.SelfCheckIn {
		return fmt.Errorf("%w: no principal", model.ErrForbidden)
	}
	role, err := a.team.GetRole(ctx, eventID, principalID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return fmt.Errorf("%w: %s is not on the team of event %s", model.ErrForbidden, principalID, eventID)
		}
		return fmt.Errorf("get team role: %w", err)
	}
	if !role.Allows(required) {
		return fmt.Errorf("%w: %s role cannot perform %s actions", model.ErrForbidden, role, required)
	}
	return nil
}
