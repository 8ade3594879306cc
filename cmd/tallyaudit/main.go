package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/vncsmyrnk/electionledger/internal/adapters/repository"
	"github.com/vncsmyrnk/electionledger/internal/config"
	"github.com/vncsmyrnk/electionledger/internal/core/services"
)

func main() {
	config.LoadDotEnv()

	cfg, err := config.Parse("tallyaudit", os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	// Use a timeout for the job execution to prevent it from hanging indefinitely
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	world, err := repository.OpenWorldState(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer world.Close()

	invoker := services.NewGatewayService(world, services.NewElectionContract(services.NewElectionLedger(logger)), logger)
	auditService := services.NewAuditService(invoker)

	logger.Info("starting tally audit")

	audits, err := auditService.AuditAllElections(ctx)
	if err != nil {
		log.Fatalf("Error auditing elections: %v", err)
	}

	failed := 0
	for _, a := range audits {
		if !a.Consistent {
			failed++
			logger.Error("tally mismatch", "election_id", a.ElectionID, "votes", a.Votes, "tally_total", a.TallyTotal)
		}
	}
	logger.Info("tally audit completed", "elections", len(audits), "inconsistent", failed)

	if failed > 0 {
		os.Exit(1)
	}
}
