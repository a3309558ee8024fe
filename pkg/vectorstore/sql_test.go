package vectorstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// newTestSQLStore starts a throwaway Postgres container, applies the
// embedded migrations, and returns a ready SQLStore. Grounded on
// `pkg/database/client_test.go`'s container-per-test setup.
func newTestSQLStore(t *testing.T, embedder Embedder) *SQLStore {
	t.Helper()
	if testing.Short() {
		t.Skip("sql vector store test requires docker; skipped in -short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(pgContainer); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	store, err := NewSQLStore(ctx, dsn, embedder)
	require.NoError(t, err)
	t.Cleanup(store.Close)
	return store
}

func TestSQLStoreAddFindSimilarRemove(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLStore(t, newFakeEmbedder())

	require.NoError(t, store.Add(ctx, "a", "what is sql injection?", map[string]string{"category": "web"}))
	require.NoError(t, store.Add(ctx, "b", "what is xss?", nil))

	matches, err := store.FindSimilar(ctx, "sql injection basics", 5, 0.5)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "a", matches[0].ID)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, store.Remove(ctx, "a"))
	count, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSQLStoreAddIsIdempotentOnID(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLStore(t, newFakeEmbedder())

	require.NoError(t, store.Add(ctx, "a", "phishing basics", nil))
	require.NoError(t, store.Add(ctx, "a", "phishing updated", nil))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
