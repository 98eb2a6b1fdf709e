package postgres_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezkam/tasks/internal/application/todo"
	"github.com/rezkam/tasks/internal/domain"
	"github.com/rezkam/tasks/internal/infrastructure/persistence/compliance"
	"github.com/rezkam/tasks/internal/infrastructure/persistence/postgres"
)

func TestPostgresStore_Compliance(t *testing.T) {
	dsn := os.Getenv("TASKS_TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TASKS_TEST_DB_DSN not set, skipping PostgreSQL tests")
	}

	compliance.RunRepositoryComplianceTest(t, func(t *testing.T) (todo.Repository, func()) {
		ctx := context.Background()

		store, err := postgres.NewPostgresStore(ctx, dsn)
		require.NoError(t, err)

		cleanup := func() {
			_, err := store.Pool().Exec(context.Background(), "TRUNCATE tasks CASCADE")
			if err != nil {
				t.Logf("Warning: failed to truncate tables: %v", err)
			}
			_ = store.Close()
		}
		// Start every subtest from empty tables.
		_, err = store.Pool().Exec(ctx, "TRUNCATE tasks CASCADE")
		require.NoError(t, err)

		return store, cleanup
	})
}

// TestErrorWrappingPattern verifies that wrapping keeps both the domain error
// and the underlying cause in the chain.
func TestErrorWrappingPattern(t *testing.T) {
	_, parseErr := uuid.Parse("invalid-uuid")
	require.Error(t, parseErr)

	wrapped := fmt.Errorf("%w: %w", domain.ErrInvalidID, parseErr)
	assert.ErrorIs(t, wrapped, domain.ErrInvalidID)
	assert.ErrorIs(t, wrapped, domain.ErrNotFound)
	assert.ErrorIs(t, wrapped, parseErr)
}
