// Package retry runs operations again on transient infrastructure errors.
// Domain errors and context cancellation are never retried.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/cenkalti/backoff/v4"
)

// Policy bounds how often and how fast an operation is retried.
type Policy struct {
	Retries uint64
	Initial time.Duration
	Max     time.Duration
}

// Default is used for ledger releases and check-in retries.
var Default = Policy{Retries: 4, Initial: 50 * time.Millisecond, Max: time.Second}

// Do calls op until it succeeds, returns a non-transient error, or the
// policy is exhausted. The last error is returned.
func (p Policy) Do(ctx context.Context, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.Initial
	b.MaxInterval = p.Max
	b.MaxElapsedTime = 0

	return backoff.Retry(func() error {
		err := op()
		if err != nil && !Transient(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(b, p.Retries), ctx))
}

// Transient reports whether err may succeed on a later attempt.
func Transient(err error) bool {
	if err == nil || model.IsDomainError(err) {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
