package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vncsmyrnk/electionledger/internal/adapters/handler/http"
	"github.com/vncsmyrnk/electionledger/internal/adapters/repository"
	"github.com/vncsmyrnk/electionledger/internal/config"
	"github.com/vncsmyrnk/electionledger/internal/core/ports"
	"github.com/vncsmyrnk/electionledger/internal/core/services"
)

func main() {
	config.LoadDotEnv()

	cfg, err := config.Parse("server", os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	world, err := repository.OpenWorldState(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer world.Close()

	contract := services.NewElectionContract(services.NewElectionLedger(logger))
	invoker := services.NewGatewayService(world, contract, logger)

	var verifier ports.TokenVerifier
	if cfg.AuthEnabled() {
		verifier = services.NewTokenService(cfg.JWTSecret)
	} else {
		logger.Warn("JWT_SECRET not set, authentication disabled")
	}
	auth := http.NewAuth(verifier)

	handler := http.NewHandler(world,
		http.NewElectionHandler(invoker),
		http.NewVoteHandler(invoker, auth, nil),
		http.NewInvokeHandler(invoker),
		auth,
	)
	server := &stdhttp.Server{Addr: fmt.Sprintf("0.0.0.0:%d", cfg.Port), Handler: handler}

	go func() {
		logger.Info("server listening", "addr", server.Addr, "backend", cfg.StateBackend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	logger.Info("gracefully shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal(err)
	}
}
