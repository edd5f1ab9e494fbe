package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/mnemolabs/mnemo-api/internal/store"
)

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil passes through", nil, nil},
		{"no rows becomes not found", sql.ErrNoRows, store.ErrNotFound},
		{
			"unique violation becomes duplicate",
			&pgconn.PgError{Code: "23505", ConstraintName: "cards_student_content_unique"},
			store.ErrDuplicate,
		},
		{
			"foreign key violation becomes invalid entity",
			&pgconn.PgError{Code: "23503"},
			store.ErrInvalidEntity,
		},
		{
			"check violation becomes invalid entity",
			&pgconn.PgError{Code: "23514", ConstraintName: "cards_state_check"},
			store.ErrInvalidEntity,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := MapError(tc.in)
			if tc.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tc.want)
		})
	}
}

func TestMapErrorUnknownErrorUnchanged(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("network unreachable")
	assert.Equal(t, err, MapError(err))
}

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("insert failed: %w", &pgconn.PgError{Code: "23505"})
	assert.True(t, IsUniqueViolation(wrapped))
	assert.False(t, IsUniqueViolation(errors.New("other")))
}

func TestIsNotFoundError(t *testing.T) {
	t.Parallel()

	assert.True(t, IsNotFoundError(sql.ErrNoRows))
	assert.True(t, IsNotFoundError(store.ErrCardNotFound))
	assert.False(t, IsNotFoundError(errors.New("boom")))
}
