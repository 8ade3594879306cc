package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/vncsmyrnk/electionledger/internal/core/domain"
	"github.com/vncsmyrnk/electionledger/internal/core/ledger"
	"github.com/vncsmyrnk/electionledger/internal/core/ports"
)

type auditService struct {
	invoker ports.Invoker
}

func NewAuditService(invoker ports.Invoker) ports.AuditService {
	return &auditService{
		invoker: invoker,
	}
}

// AuditAllElections audits every election in its own read-only invocation.
// Results keep the order of listElections.
func (s *auditService) AuditAllElections(ctx context.Context) ([]*domain.ElectionAudit, error) {
	payload, err := s.invoker.Evaluate(ctx, FnListElections)
	if err != nil {
		return nil, fmt.Errorf("failed to list elections: %w", err)
	}
	var elections []*domain.Election
	if err := ledger.Unmarshal(payload, &elections); err != nil {
		return nil, err
	}

	audits := make([]*domain.ElectionAudit, len(elections))
	var wg sync.WaitGroup
	errChan := make(chan error, len(elections))

	for i, election := range elections {
		wg.Add(1)
		go func(i int, electionID string) {
			defer wg.Done()
			payload, err := s.invoker.Evaluate(ctx, FnAuditElection, electionID)
			if err != nil {
				errChan <- fmt.Errorf("failed to audit election %s: %w", electionID, err)
				return
			}
			var audit domain.ElectionAudit
			if err := ledger.Unmarshal(payload, &audit); err != nil {
				errChan <- err
				return
			}
			audits[i] = &audit
		}(i, election.ElectionID)
	}

	wg.Wait()
	close(errChan)

	for err := range errChan {
		if err != nil {
			return nil, err
		}
	}

	return audits, nil
}
