package gcs

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/iterator"

	"github.com/rezkam/tasks/internal/application/todo"
	"github.com/rezkam/tasks/internal/infrastructure/persistence/compliance"
)

func TestGCSStore_Compliance(t *testing.T) {
	bucket := os.Getenv("TASKS_TEST_GCS_BUCKET")
	if bucket == "" {
		t.Skip("TASKS_TEST_GCS_BUCKET not set, skipping GCS tests")
	}

	compliance.RunRepositoryComplianceTest(t, func(t *testing.T) (todo.Repository, func()) {
		// Assumes Application Default Credentials, or STORAGE_EMULATOR_HOST
		// pointing at an emulator.
		ctx := context.Background()
		prefix := "compliance-" + uuid.NewString()

		store, err := NewStore(ctx, bucket, prefix)
		require.NoError(t, err)

		cleanup := func() {
			cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			it := store.client.Bucket(bucket).Objects(cleanupCtx, &storage.Query{Prefix: store.prefix})
			for {
				attrs, err := it.Next()
				if errors.Is(err, iterator.Done) {
					break
				}
				if err != nil {
					t.Logf("Warning: failed to list objects during cleanup: %v", err)
					break
				}
				if err := store.client.Bucket(bucket).Object(attrs.Name).Delete(cleanupCtx); err != nil {
					t.Logf("Warning: failed to delete object %s: %v", attrs.Name, err)
				}
			}
			_ = store.Close()
		}

		return store, cleanup
	})
}

func TestNewStoreWithClient_NormalizesPrefix(t *testing.T) {
	require.Equal(t, "tasks/", NewStoreWithClient(nil, "b", "tasks").prefix)
	require.Equal(t, "tasks/", NewStoreWithClient(nil, "b", "tasks/").prefix)
	require.Equal(t, "", NewStoreWithClient(nil, "b", "").prefix)
}
