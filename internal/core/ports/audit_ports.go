package ports

import (
	"context"

	"github.com/vncsmyrnk/electionledger/internal/core/domain"
)

type AuditService interface {
	AuditAllElections(ctx context.Context) ([]*domain.ElectionAudit, error)
}
