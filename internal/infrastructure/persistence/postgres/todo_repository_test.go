package postgres

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezkam/tasks/internal/domain"
)

func TestUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: positionConstraint})

	constraint, ok := uniqueViolation(err)
	require.True(t, ok)
	assert.Equal(t, positionConstraint, constraint)

	_, ok = uniqueViolation(&pgconn.PgError{Code: pgForeignKeyViolation})
	assert.False(t, ok)

	_, ok = uniqueViolation(fmt.Errorf("plain"))
	assert.False(t, ok)
}

func TestIsForeignKeyViolation(t *testing.T) {
	assert.True(t, isForeignKeyViolation(fmt.Errorf("x: %w", &pgconn.PgError{Code: pgForeignKeyViolation})))
	assert.False(t, isForeignKeyViolation(&pgconn.PgError{Code: pgUniqueViolation}))
}

func TestCheckRowsAffected(t *testing.T) {
	assert.NoError(t, checkRowsAffected(pgconn.NewCommandTag("UPDATE 1"), domain.ErrTodoNotFound, "id"))

	err := checkRowsAffected(pgconn.NewCommandTag("DELETE 0"), domain.ErrTodoNotFound, "id")
	assert.ErrorIs(t, err, domain.ErrTodoNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestParseID(t *testing.T) {
	_, err := parseID("not-a-uuid")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
