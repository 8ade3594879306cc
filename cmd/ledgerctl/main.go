package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/vncsmyrnk/electionledger/internal/adapters/repository"
	"github.com/vncsmyrnk/electionledger/internal/config"
	"github.com/vncsmyrnk/electionledger/internal/core/ports"
	"github.com/vncsmyrnk/electionledger/internal/core/services"
)

var (
	backend     string
	databaseURL string
	sqlitePath  string
	jwtSecret   string
)

var rootCmd = &cobra.Command{
	Use:           "ledgerctl",
	Short:         "Operate the election ledger directly against its world state",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "World state backend (postgres or sqlite)")
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "Postgres connection string")
	rootCmd.PersistentFlags().StringVar(&sqlitePath, "sqlite-path", "", "SQLite database file")
	rootCmd.PersistentFlags().StringVar(&jwtSecret, "jwt-secret", "", "HS256 secret for access tokens")
}

func main() {
	config.LoadDotEnv()
	slog.SetDefault(slog.New(pterm.NewSlogHandler(&pterm.DefaultLogger)))

	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

// loadConfig merges the persistent flags over the environment.
func loadConfig() (config.Config, error) {
	var args []string
	if backend != "" {
		args = append(args, "-backend", backend)
	}
	if databaseURL != "" {
		args = append(args, "-database-url", databaseURL)
	}
	if sqlitePath != "" {
		args = append(args, "-sqlite-path", sqlitePath)
	}
	if jwtSecret != "" {
		args = append(args, "-jwt-secret", jwtSecret)
	}
	return config.Parse("ledgerctl", args)
}

// withInvoker opens the configured world state for the duration of fn.
func withInvoker(ctx context.Context, fn func(ports.Invoker) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.StateBackend == config.BackendMemory {
		pterm.Warning.Println("memory backend selected, state will not outlive this command")
	}

	world, err := repository.OpenWorldState(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open world state: %w", err)
	}
	defer world.Close()

	logger := slog.Default()
	invoker := services.NewGatewayService(world, services.NewElectionContract(services.NewElectionLedger(logger)), logger)
	return fn(invoker)
}
