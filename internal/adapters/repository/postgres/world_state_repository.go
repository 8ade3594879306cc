package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/electionledger/internal/adapters/repository/sqlrows"
	"github.com/vncsmyrnk/electionledger/internal/core/domain"
	"github.com/vncsmyrnk/electionledger/internal/core/ports"
)

// invocationLockID serializes writing invocations across every gateway
// process sharing the database.
const invocationLockID int64 = 0x656c656374696f6e

type worldStateRepository struct {
	db *sql.DB
}

func NewWorldStateRepository(db *sql.DB) ports.WorldState {
	return &worldStateRepository{
		db: db,
	}
}

func (r *worldStateRepository) Transact(ctx context.Context, opts ports.TransactOptions, fn func(ports.StateAccessor) error) error {
	txID, err := uuid.Parse(opts.TxID)
	if err != nil {
		txID = uuid.New()
	}

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: opts.ReadOnly})
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %v", domain.ErrUnavailable, err)
	}
	defer tx.Rollback()

	if !opts.ReadOnly {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, invocationLockID); err != nil {
			return fmt.Errorf("failed to acquire invocation lock: %w", err)
		}
	}

	if err := fn(&stateAccessor{tx: tx, txID: txID}); err != nil {
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
	txID uuid.UUID
}

func (s *stateAccessor) GetState(ctx context.Context, key string) ([]byte, error) {
	query := `SELECT value FROM world_state WHERE key = $1`
	var value []byte
	err := s.tx.QueryRowContext(ctx, query, []byte(key)).Scan(&value)
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
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value,
		    tx_id = EXCLUDED.tx_id,
		    updated_at = NOW()
	`
	if _, err := s.tx.ExecContext(ctx, query, []byte(key), value, s.txID); err != nil {
		return fmt.Errorf("failed to put state: %w", err)
	}
	return nil
}

func (s *stateAccessor) DelState(ctx context.Context, key string) error {
	query := `DELETE FROM world_state WHERE key = $1`
	if _, err := s.tx.ExecContext(ctx, query, []byte(key)); err != nil {
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
		query := `SELECT key, value FROM world_state WHERE key >= $1 ORDER BY key`
		rows, err = s.tx.QueryContext(ctx, query, []byte(startKey))
	} else {
		query := `SELECT key, value FROM world_state WHERE key >= $1 AND key < $2 ORDER BY key`
		rows, err = s.tx.QueryContext(ctx, query, []byte(startKey), []byte(endKey))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query state range: %w", err)
	}
	return sqlrows.NewIterator(rows), nil
}
