package ports

import (
	"context"

	"github.com/vncsmyrnk/electionledger/internal/core/domain"
)

type CreateElectionInput struct {
	ElectionID string
	StartTime  int64
	EndTime    int64
	Candidates []string
}

type CastVoteInput struct {
	ElectionID  string
	VoterID     string
	CandidateID string
	Timestamp   int64
}

type ElectionLedger interface {
	CreateElection(ctx context.Context, stub StateAccessor, input CreateElectionInput) (*domain.Election, error)
	CastVote(ctx context.Context, stub StateAccessor, input CastVoteInput) (*domain.VoteRecord, error)
	GetElectionResults(ctx context.Context, stub StateAccessor, electionID string) ([]domain.CandidateResult, error)
	UpdateElectionStatus(ctx context.Context, stub StateAccessor, electionID string, status domain.ElectionStatus) (*domain.Election, error)
	GetElection(ctx context.Context, stub StateAccessor, electionID string) (*domain.Election, error)
	GetVote(ctx context.Context, stub StateAccessor, electionID, voterID string) (*domain.VoteRecord, error)
	ListElections(ctx context.Context, stub StateAccessor) ([]*domain.Election, error)
	AuditElection(ctx context.Context, stub StateAccessor, electionID string) (*domain.ElectionAudit, error)
}

// Contract dispatches a named operation with string arguments and returns a
// canonical JSON payload.
type Contract interface {
	Invoke(ctx context.Context, stub StateAccessor, fn string, args []string) ([]byte, error)
}

// Invoker runs contract operations as invocations against the world state.
// Submit commits on success; Evaluate always discards writes.
type Invoker interface {
	Submit(ctx context.Context, fn string, args ...string) ([]byte, error)
	Evaluate(ctx context.Context, fn string, args ...string) ([]byte, error)
}
