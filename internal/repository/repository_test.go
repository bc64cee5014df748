package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	d, err := parseAmount("19.90")
	require.NoError(t, err)
	assert.Equal(t, "19.90", d.StringFixed(2))

	_, err = parseAmount("abc")
	assert.Error(t, err)
}

func TestPgCode(t *testing.T) {
	wrapped := fmt.Errorf("insert: %w", &pgconn.PgError{Code: codeUniqueViolation})
	assert.Equal(t, codeUniqueViolation, pgCode(wrapped))
	assert.Empty(t, pgCode(errors.New("plain")))
}

func TestNotFound(t *testing.T) {
	assert.ErrorIs(t, notFound(pgx.ErrNoRows, "booking", "b1"), model.ErrNotFound)

	err := notFound(errors.New("conn closed"), "booking", "b1")
	assert.NotErrorIs(t, err, model.ErrNotFound)
}
