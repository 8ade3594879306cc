package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"time"

	_ "github.com/lib/pq"

	"github.com/vncsmyrnk/electionledger/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/electionledger/internal/config"
)

// Usage: migrations [flags] [name]. Without a name every up migration is
// applied.
func main() {
	config.LoadDotEnv()

	cfg, err := config.Parse("migrations", append([]string{"-backend", config.BackendPostgres}, os.Args[1:]...))
	if err != nil {
		log.Fatal(err)
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if len(cfg.Args) > 0 {
		err = postgres.ApplyMigration(ctx, db, cfg.Args[0])
	} else {
		err = postgres.ApplyMigrations(ctx, db)
	}
	if err != nil {
		log.Fatalf("Failed to execute migration: %v", err)
	}

	log.Println("Migrations executed successfully.")
}
