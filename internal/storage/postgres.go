package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

// PostgresStore - реализация Store поверх таблицы kv_entries.
type PostgresStore struct {
	DB *pgxpool.Pool
}

// NewPostgresStore создаёт новый экземпляр PostgresStore.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{DB: db}
}

// Update выполняет fn в одной SQL-транзакции под advisory-блокировкой scope.
func (s *PostgresStore) Update(ctx context.Context, scope string, fn func(tx Txn) error) error {
	return pgx.BeginTxFunc(ctx, s.DB, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, scope); err != nil {
			return fmt.Errorf("failed to lock scope %s: %w", scope, err)
		}
		return fn(&postgresTxn{q: tx})
	})
}

// View выполняет fn в read-only транзакции с уровнем REPEATABLE READ.
func (s *PostgresStore) View(ctx context.Context, fn func(r Reader) error) error {
	opts := pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}
	return pgx.BeginTxFunc(ctx, s.DB, opts, func(tx pgx.Tx) error {
		return fn(&postgresTxn{q: tx})
	})
}

// Close закрывает пул соединений.
func (s *PostgresStore) Close() error {
	s.DB.Close()
	return nil
}

type postgresTxn struct {
	q pgx.Tx
}

func (t *postgresTxn) Get(ctx context.Context, kind Kind, key string) ([]byte, error) {
	var value []byte
	err := t.q.QueryRow(ctx, `SELECT value FROM kv_entries WHERE kind = $1 AND key = $2`, string(kind), key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if value == nil {
		value = []byte{}
	}
	return value, nil
}

func (t *postgresTxn) Has(ctx context.Context, kind Kind, key string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM kv_entries WHERE kind = $1 AND key = $2)`
	err := t.q.QueryRow(ctx, query, string(kind), key).Scan(&exists)
	return exists, err
}

func (t *postgresTxn) GetMany(ctx context.Context, kind Kind, keys []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	rows, err := t.q.Query(ctx, `SELECT key, value FROM kv_entries WHERE kind = $1 AND key = ANY($2)`, string(kind), pq.Array(keys))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		out[key] = value
	}
	return out, rows.Err()
}

func (t *postgresTxn) Set(ctx context.Context, kind Kind, key string, value []byte) error {
	_, err := t.q.Exec(ctx, `
       INSERT INTO kv_entries (kind, key, value, updated_at)
       VALUES ($1, $2, $3, now())
       ON CONFLICT (kind, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
   `, string(kind), key, value)
	if err != nil {
		return fmt.Errorf("failed to upsert %s/%s: %w", kind, key, err)
	}
	return nil
}
