package storage

import (
	"context"
	"errors"
	"os"
	"strconv"
	"sync"
	"testing"

	"github.com/cockroachdb/pebble/vfs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStorage creates an in-memory pebble store for testing.
func newTestStorage(t *testing.T) *PebbleStore {
	t.Helper()

	s, err := OpenPebble(PebbleOptions{Path: "db", FS: vfs.NewMem()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

// backends returns every store available in the current environment.
func backends(t *testing.T) map[string]Store {
	t.Helper()

	out := map[string]Store{"pebble": newTestStorage(t)}

	conn := os.Getenv("TEST_POSTGRES_CONN")
	if conn == "" {
		return out
	}
	pool, err := pgxpool.New(context.Background(), conn)
	require.NoError(t, err)
	_, err = pool.Exec(context.Background(), `
		CREATE TABLE IF NOT EXISTS kv_entries (
			kind VARCHAR(32) NOT NULL, key VARCHAR(512) NOT NULL, value BYTEA NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(), updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (kind, key))`)
	require.NoError(t, err)
	_, err = pool.Exec(context.Background(), `TRUNCATE kv_entries`)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	out["postgres"] = NewPostgresStore(pool)
	return out
}

func TestSetAndGet(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			err := s.Update(ctx, "test", func(tx Txn) error {
				return tx.Set(ctx, KindTender, "1", []byte("value"))
			})
			require.NoError(t, err)

			err = s.View(ctx, func(r Reader) error {
				got, err := r.Get(ctx, KindTender, "1")
				require.NoError(t, err)
				assert.Equal(t, []byte("value"), got)

				// same key, different kind
				other, err := r.Get(ctx, KindBid, "1")
				require.NoError(t, err)
				assert.Nil(t, other)

				ok, err := r.Has(ctx, KindTender, "1")
				require.NoError(t, err)
				assert.True(t, ok)
				return nil
			})
			require.NoError(t, err)
		})
	}
}

func TestUpdateRollsBackOnError(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			boom := errors.New("boom")

			err := s.Update(ctx, "test", func(tx Txn) error {
				require.NoError(t, tx.Set(ctx, KindTender, "rollback", []byte("a")))
				require.NoError(t, tx.Set(ctx, KindBidders, "rollback", []byte("b")))
				return boom
			})
			require.ErrorIs(t, err, boom)

			err = s.View(ctx, func(r Reader) error {
				for _, kind := range []Kind{KindTender, KindBidders} {
					ok, err := r.Has(ctx, kind, "rollback")
					require.NoError(t, err)
					assert.False(t, ok, "kind %s must not be written", kind)
				}
				return nil
			})
			require.NoError(t, err)
		})
	}
}

func TestReadYourWritesInsideUpdate(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			err := s.Update(ctx, "test", func(tx Txn) error {
				require.NoError(t, tx.Set(ctx, KindWinner, "7", []byte("w")))
				got, err := tx.Get(ctx, KindWinner, "7")
				require.NoError(t, err)
				assert.Equal(t, []byte("w"), got)
				return nil
			})
			require.NoError(t, err)
		})
	}
}

func TestGetMany(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			err := s.Update(ctx, "test", func(tx Txn) error {
				for _, k := range []string{"1/a", "1/b", "1/c"} {
					if err := tx.Set(ctx, KindBid, k, []byte(k)); err != nil {
						return err
					}
				}
				return nil
			})
			require.NoError(t, err)

			err = s.View(ctx, func(r Reader) error {
				got, err := r.GetMany(ctx, KindBid, []string{"1/a", "1/c", "1/missing"})
				require.NoError(t, err)
				assert.Equal(t, map[string][]byte{"1/a": []byte("1/a"), "1/c": []byte("1/c")}, got)
				return nil
			})
			require.NoError(t, err)
		})
	}
}

func TestUpdateSerializesScope(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			const writers = 32

			var wg sync.WaitGroup
			for i := 0; i < writers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					err := s.Update(ctx, "counter", func(tx Txn) error {
						raw, err := tx.Get(ctx, KindTenderCount, "global")
						if err != nil {
							return err
						}
						n := 0
						if raw != nil {
							n, _ = strconv.Atoi(string(raw))
						}
						return tx.Set(ctx, KindTenderCount, "global", []byte(strconv.Itoa(n+1)))
					})
					assert.NoError(t, err)
				}()
			}
			wg.Wait()

			err := s.View(ctx, func(r Reader) error {
				raw, err := r.Get(ctx, KindTenderCount, "global")
				require.NoError(t, err)
				assert.Equal(t, strconv.Itoa(writers), string(raw))
				return nil
			})
			require.NoError(t, err)
		})
	}
}

func TestUpdateHonoursCancelledContext(t *testing.T) {
	s := newTestStorage(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.Update(ctx, "test", func(tx Txn) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
