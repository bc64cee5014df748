package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/stretchr/testify/assert"
)

var fast = Policy{Retries: 3, Initial: time.Millisecond, Max: 2 * time.Millisecond}

func TestPolicy_RetriesTransient(t *testing.T) {
	calls := 0
	err := fast.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("connection reset")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestPolicy_StopsOnDomainError(t *testing.T) {
	calls := 0
	err := fast.Do(context.Background(), func() error {
		calls++
		return model.ErrAlreadyCheckedIn
	})
	assert.ErrorIs(t, err, model.ErrAlreadyCheckedIn)
	assert.Equal(t, 1, calls)
}

func TestPolicy_Bounded(t *testing.T) {
	calls := 0
	err := fast.Do(context.Background(), func() error {
		calls++
		return errors.New("timeout")
	})
	assert.EqualError(t, err, "timeout")
	assert.Equal(t, 4, calls)
}

func TestTransient(t *testing.T) {
	assert.False(t, Transient(nil))
	assert.False(t, Transient(context.Canceled))
	assert.False(t, Transient(model.ErrForbidden))
	assert.True(t, Transient(errors.New("broken pipe")))
}
