package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/electionledger/internal/core/ports"
)

// gatewayService plays the host runtime: each call is one invocation with its
// own transaction id, admitted by the world state one at a time.
type gatewayService struct {
	world    ports.WorldState
	contract ports.Contract
	logger   *slog.Logger
}

func NewGatewayService(world ports.WorldState, contract ports.Contract, logger *slog.Logger) ports.Invoker {
	if logger == nil {
		logger = slog.Default()
	}
	return &gatewayService{
		world:    world,
		contract: contract,
		logger:   logger,
	}
}

func (s *gatewayService) Submit(ctx context.Context, fn string, args ...string) ([]byte, error) {
	return s.invoke(ctx, fn, args, false)
}

func (s *gatewayService) Evaluate(ctx context.Context, fn string, args ...string) ([]byte, error) {
	return s.invoke(ctx, fn, args, true)
}

func (s *gatewayService) invoke(ctx context.Context, fn string, args []string, readOnly bool) ([]byte, error) {
	txID := uuid.NewString()
	started := time.Now()

	var payload []byte
	err := s.world.Transact(ctx, ports.TransactOptions{TxID: txID, ReadOnly: readOnly}, func(stub ports.StateAccessor) error {
		var err error
		payload, err = s.contract.Invoke(ctx, stub, fn, args)
		return err
	})

	attrs := []any{"tx_id", txID, "fn", fn, "read_only", readOnly, "duration", time.Since(started)}
	if err != nil {
		s.logger.WarnContext(ctx, "invocation failed", append(attrs, "error", err)...)
		return nil, err
	}
	s.logger.InfoContext(ctx, "invocation completed", attrs...)
	return payload, nil
}
