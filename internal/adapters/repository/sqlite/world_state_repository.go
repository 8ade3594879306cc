package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/vncsmyrnk/electionledger/internal/adapters/repository/sqlrows"
	"github.com/vncsmyrnk/electionledger/internal/core/domain"
	"github.com/vncsmyrnk/electionledger/internal/core/ports"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS world_state (
    key        BLOB PRIMARY KEY,
    value      BLOB NOT NULL,
    tx_id      TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

type worldStateRepository struct {
	mu sync.Mutex
	db *sql.DB
}

// Open opens (creating if needed) the SQLite database at path. The pool is
// limited to one connection so invocations never overlap.
func Open(ctx context.Context, path string) (ports.WorldState, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return NewWorldStateRepository(db), nil
}

func NewWorldStateRepository(db *sql.DB) ports.WorldState {
	return &worldStateRepository{db: db}
}

func (r *worldStateRepository) Transact(ctx context.Context, opts ports.TransactOptions, fn func(ports.StateAccessor) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %v", domain.ErrUnavailable, err)
	}
	defer tx.Rollback()

	if err := fn(&stateAccessor{tx: tx, txID: opts.TxID}); err != nil {
		return err
	}
	if opts.ReadOnly {
		return nil
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *worldStateRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	return nil
}

func (r *worldStateRepository) Close() error {
	return r.db.Close()
}

type stateAccessor struct {
	tx   *sql.Tx
	txID string
}

func (s *stateAccessor) GetState(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.tx.QueryRowContext(ctx, `SELECT value FROM world_state WHERE key = ?`, []byte(key)).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get state: %w", err)
	}
	return value, nil
}

func (s *stateAccessor) PutState(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	query := `
		INSERT INTO world_state (key, value, tx_id, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO UPDATE
		SET value = excluded.value,
		    tx_id = excluded.tx_id,
		    updated_at = CURRENT_TIMESTAMP
	`
	if _, err := s.tx.ExecContext(ctx, query, []byte(key), value, s.txID); err != nil {
		return fmt.Errorf("failed to put state: %w", err)
	}
	return nil
}

func (s *stateAccessor) DelState(ctx context.Context, key string) error {
	if _, err := s.tx.ExecContext(ctx, `DELETE FROM world_state WHERE key = ?`, []byte(key)); err != nil {
		return fmt.Errorf("failed to delete state: %w", err)
	}
	return nil
}

func (s *stateAccessor) GetStateByRange(ctx context.Context, startKey, endKey string) (ports.StateIterator, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if endKey == "" {
		rows, err = s.tx.QueryContext(ctx, `SELECT key, value FROM world_state WHERE key >= ? ORDER BY key`, []byte(startKey))
	} else {
		rows, err = s.tx.QueryContext(ctx, `SELECT key, value FROM world_state WHERE key >= ? AND key < ? ORDER BY key`, []byte(startKey), []byte(endKey))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query state range: %w", err)
	}
	return sqlrows.NewIterator(rows), nil
}
