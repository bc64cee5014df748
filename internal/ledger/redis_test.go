package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedis_Provision(t *testing.T) {
	db, mock := redismock.NewClientMock()
	l := NewRedis(db)

	mock.ExpectEval(provisionScript, []string{"capacity:{tt1}:remaining", "capacity:{tt1}:total"}, 10, 10).SetVal(int64(1))

	require.NoError(t, l.Provision(context.Background(), "tt1", 10))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedis_Restore(t *testing.T) {
	db, mock := redismock.NewClientMock()
	l := NewRedis(db)
	keys := []string{"capacity:{tt1}:remaining", "capacity:{tt1}:total"}

	mock.ExpectEval(provisionScript, keys, 10, 3).SetVal(int64(1))
	mock.ExpectEval(provisionScript, keys, 10, 3).SetVal(int64(0))

	created, err := l.Restore(context.Background(), "tt1", 10, 3)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = l.Restore(context.Background(), "tt1", 10, 3)
	require.NoError(t, err)
	assert.False(t, created)

	_, err = l.Restore(context.Background(), "tt1", 10, 11)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedis_KeysShareSlot(t *testing.T) {
	assert.Equal(t, "capacity:{tt1}:remaining", remainingKey("tt1"))
	assert.Equal(t, "capacity:{tt1}:total", totalKey("tt1"))
}

func TestRedis_Reserve_Success(t *testing.T) {
	db, mock := redismock.NewClientMock()
	l := NewRedis(db)

	mock.ExpectEval(reserveScript, []string{"capacity:{tt1}:remaining"}, 6).
		SetVal([]interface{}{int64(1), int64(4)})

	require.NoError(t, l.Reserve(context.Background(), "tt1", 6))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedis_Reserve_Insufficient(t *testing.T) {
	db, mock := redismock.NewClientMock()
	l := NewRedis(db)

	mock.ExpectEval(reserveScript, []string{"capacity:{tt1}:remaining"}, 6).
		SetVal([]interface{}{int64(0), int64(2)})

	err := l.Reserve(context.Background(), "tt1", 6)
	require.ErrorIs(t, err, model.ErrInsufficient)

	var capErr *model.CapacityError
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, 2, capErr.Remaining)
	assert.Equal(t, 6, capErr.Requested)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedis_Reserve_Unknown(t *testing.T) {
	db, mock := redismock.NewClientMock()
	l := NewRedis(db)

	mock.ExpectEval(reserveScript, []string{"capacity:{nope}:remaining"}, 1).
		SetVal([]interface{}{int64(0), int64(-1)})

	assert.ErrorIs(t, l.Reserve(context.Background(), "nope", 1), model.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedis_Reserve_ConnectionError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	l := NewRedis(db)

	mock.ExpectEval(reserveScript, []string{"capacity:{tt1}:remaining"}, 1).
		SetErr(errors.New("connection refused"))

	err := l.Reserve(context.Background(), "tt1", 1)
	require.Error(t, err)
	assert.False(t, model.IsDomainError(err))
}

func TestRedis_Release(t *testing.T) {
	db, mock := redismock.NewClientMock()
	l := NewRedis(db)
	keys := []string{"capacity:{tt1}:remaining", "capacity:{tt1}:total"}

	mock.ExpectEval(releaseScript, keys, 6).SetVal(int64(10))
	mock.ExpectEval(releaseScript, keys, 1).SetVal(int64(-1))

	require.NoError(t, l.Release(context.Background(), "tt1", 6))
	assert.ErrorIs(t, l.Release(context.Background(), "tt1", 1), model.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedis_Remaining(t *testing.T) {
	db, mock := redismock.NewClientMock()
	l := NewRedis(db)

	mock.ExpectGet("capacity:{tt1}:remaining").SetVal("4")
	mock.ExpectGet("capacity:{nope}:remaining").RedisNil()

	n, err := l.Remaining(context.Background(), "tt1")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	_, err = l.Remaining(context.Background(), "nope")
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedis_RejectsNonPositiveUnits(t *testing.T) {
	db, mock := redismock.NewClientMock()
	l := NewRedis(db)

	assert.Error(t, l.Reserve(context.Background(), "tt1", 0))
	assert.Error(t, l.Release(context.Background(), "tt1", 0))
	assert.NoError(t, mock.ExpectationsWereMet())
}
