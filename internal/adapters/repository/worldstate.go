// Package repository opens the configured world state backend.
package repository

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/vncsmyrnk/electionledger/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/electionledger/internal/adapters/repository/sqlite"
	"github.com/vncsmyrnk/electionledger/internal/adapters/state/memory"
	"github.com/vncsmyrnk/electionledger/internal/config"
	"github.com/vncsmyrnk/electionledger/internal/core/ports"
)

func OpenWorldState(ctx context.Context, cfg config.Config) (ports.WorldState, error) {
	switch cfg.StateBackend {
	case config.BackendMemory:
		return memory.NewWorldState(), nil
	case config.BackendSQLite:
		return sqlite.Open(ctx, cfg.SQLitePath)
	case config.BackendPostgres:
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres: %w", err)
		}
		world := postgres.NewWorldStateRepository(db)
		if err := world.Ping(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return world, nil
	}
	return nil, fmt.Errorf("unknown state backend %q", cfg.StateBackend)
}
