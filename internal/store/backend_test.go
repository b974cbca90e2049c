package store

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuelsoyo/libs/db"
)

// postgresDSNEnv points the backend tests at a disposable database.
// Every run wipes the fuelsoyo relations there.
const postgresDSNEnv = "FUELSOYO_TEST_POSTGRES_DSN"

func newRedisBackend(t *testing.T) *RedisBackend {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisBackend(client, "test")
}

func newPostgresBackend(t *testing.T, dsn string) *PostgresBackend {
	t.Helper()
	ctx := context.Background()
	sqlDB, err := db.NewPostgresDB(ctx, dsn, db.PoolOptions{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	backend := NewPostgresBackend(sqlDB)
	require.NoError(t, backend.Migrate(ctx))
	wipe := func() {
		_, err := sqlDB.ExecContext(ctx, `DELETE FROM fuelsoyo_records`)
		require.NoError(t, err)
		_, err = sqlDB.ExecContext(ctx, `DELETE FROM fuelsoyo_seeded_tables`)
		require.NoError(t, err)
	}
	wipe()
	t.Cleanup(wipe)
	return backend
}

func backends(t *testing.T) map[string]Backend {
	out := map[string]Backend{
		"memory": NewMemoryBackend(),
		"redis":  newRedisBackend(t),
	}
	if dsn := os.Getenv(postgresDSNEnv); dsn != "" {
		out["postgres"] = newPostgresBackend(t, dsn)
	}
	return out
}

func TestBackend_InsertGetList(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			row, err := b.Insert(ctx, "stations", "a", []byte(`{"n":1}`))
			require.NoError(t, err)
			assert.Equal(t, int64(1), row.Version)

			_, err = b.Insert(ctx, "stations", "b", []byte(`{"n":2}`))
			require.NoError(t, err)

			_, err = b.Insert(ctx, "stations", "a", []byte(`{"n":3}`))
			assert.ErrorIs(t, err, ErrDuplicate)

			got, err := b.Get(ctx, "stations", "a")
			require.NoError(t, err)
			assert.JSONEq(t, `{"n":1}`, string(got.Data))

			_, err = b.Get(ctx, "stations", "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			rows, err := b.List(ctx, "stations")
			require.NoError(t, err)
			require.Len(t, rows, 2)
			assert.Equal(t, "a", rows[0].ID)
			assert.Equal(t, "b", rows[1].ID)

			other, err := b.List(ctx, "users")
			require.NoError(t, err)
			assert.Empty(t, other)
		})
	}
}

func TestBackend_SwapCompareAndSet(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := b.Insert(ctx, "requests", "r1", []byte(`{"status":"pending"}`))
			require.NoError(t, err)

			next, err := b.Swap(ctx, "requests", "r1", 1, []byte(`{"status":"approved"}`))
			require.NoError(t, err)
			assert.Equal(t, int64(2), next.Version)

			_, err = b.Swap(ctx, "requests", "r1", 1, []byte(`{"status":"rejected"}`))
			assert.ErrorIs(t, err, ErrConflict)

			got, err := b.Get(ctx, "requests", "r1")
			require.NoError(t, err)
			assert.JSONEq(t, `{"status":"approved"}`, string(got.Data))
			assert.Equal(t, int64(2), got.Version)

			_, err = b.Swap(ctx, "requests", "nope", 1, []byte(`{}`))
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestBackend_Delete(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := b.Insert(ctx, "stations", "a", []byte(`{}`))
			require.NoError(t, err)
			_, err = b.Insert(ctx, "stations", "b", []byte(`{}`))
			require.NoError(t, err)

			require.NoError(t, b.Delete(ctx, "stations", "a"))
			assert.ErrorIs(t, b.Delete(ctx, "stations", "a"), ErrNotFound)

			rows, err := b.List(ctx, "stations")
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, "b", rows[0].ID)
		})
	}
}

func TestBackend_SeedOnlyOnce(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seed := []Row{{ID: "1", Data: []byte(`{"v":"seed"}`)}}

			require.NoError(t, b.Seed(ctx, "users", seed))
			require.NoError(t, b.Delete(ctx, "users", "1"))
			require.NoError(t, b.Seed(ctx, "users", seed))

			rows, err := b.List(ctx, "users")
			require.NoError(t, err)
			assert.Empty(t, rows, "deleted seed rows must not come back")
		})
	}
}

func TestBackend_ConcurrentSeedWritesRowsOnce(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seed := make([]Row, 8)
			for i := range seed {
				seed[i] = Row{ID: fmt.Sprintf("s%d", i), Data: []byte(`{}`)}
			}

			const workers = 8
			start := make(chan struct{})
			errs := make([]error, workers)
			var wg sync.WaitGroup
			for i := range workers {
				wg.Add(1)
				go func() {
					defer wg.Done()
					<-start
					errs[i] = b.Seed(ctx, "stations", seed)
				}()
			}
			close(start)
			wg.Wait()
			for _, err := range errs {
				require.NoError(t, err)
			}

			rows, err := b.List(ctx, "stations")
			require.NoError(t, err)
			require.Len(t, rows, len(seed))
			for i, row := range rows {
				assert.Equal(t, seed[i].ID, row.ID)
				assert.Equal(t, int64(1), row.Version)
			}

			row, err := b.Insert(ctx, "stations", "later", []byte(`{}`))
			require.NoError(t, err)
			assert.Equal(t, int64(1), row.Version)
			rows, err = b.List(ctx, "stations")
			require.NoError(t, err)
			assert.Equal(t, "later", rows[len(rows)-1].ID, "inserts after a seed keep insertion order")
		})
	}
}

func TestRedisBackend_SeedIsAtomic(t *testing.T) {
	b := newRedisBackend(t)
	ctx := context.Background()

	require.NoError(t, b.Seed(ctx, "users", []Row{{ID: "1", Data: []byte(`{}`)}, {ID: "2", Data: []byte(`{}`)}}))

	seeded, err := b.client.Exists(ctx, b.seededKey("users"), b.rowKey("users", "1"), b.rowKey("users", "2")).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(3), seeded, "marker and rows are written together")

	seq, err := b.client.Get(ctx, b.seqKey("users")).Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(2), seq)

	// An empty seed still marks the table.
	require.NoError(t, b.Seed(ctx, "requests", nil))
	require.NoError(t, b.Seed(ctx, "requests", []Row{{ID: "late", Data: []byte(`{}`)}}))
	rows, err := b.List(ctx, "requests")
	require.NoError(t, err)
	assert.Empty(t, rows)
}
