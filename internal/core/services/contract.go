package services

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/vncsmyrnk/electionledger/internal/core/domain"
	"github.com/vncsmyrnk/electionledger/internal/core/ledger"
	"github.com/vncsmyrnk/electionledger/internal/core/ports"
)

const (
	FnCreateElection       = "createElection"
	FnCastVote             = "castVote"
	FnGetElectionResults   = "getElectionResults"
	FnUpdateElectionStatus = "updateElectionStatus"
	FnGetElection          = "getElection"
	FnGetVote              = "getVote"
	FnListElections        = "listElections"
	FnAuditElection        = "auditElection"
)

type operation struct {
	arity int
	call  func(ctx context.Context, stub ports.StateAccessor, args []string) (any, error)
}

type electionContract struct {
	ops map[string]operation
}

func NewElectionContract(l ports.ElectionLedger) ports.Contract {
	c := &electionContract{}
	c.ops = map[string]operation{
		FnCreateElection: {4, func(ctx context.Context, stub ports.StateAccessor, args []string) (any, error) {
			startTime, err := parseInt("startTime", args[1])
			if err != nil {
				return nil, err
			}
			endTime, err := parseInt("endTime", args[2])
			if err != nil {
				return nil, err
			}
			candidates, err := parseCandidates(args[3])
			if err != nil {
				return nil, err
			}
			return l.CreateElection(ctx, stub, ports.CreateElectionInput{
				ElectionID: args[0],
				StartTime:  startTime,
				EndTime:    endTime,
				Candidates: candidates,
			})
		}},
		FnCastVote: {4, func(ctx context.Context, stub ports.StateAccessor, args []string) (any, error) {
			if args[0] == "" || args[1] == "" || args[2] == "" || args[3] == "" {
				return nil, domain.NewError(domain.KindInvalidInput, "missing required vote parameters")
			}
			ts, err := parseInt("timestamp", args[3])
			if err != nil {
				return nil, err
			}
			return l.CastVote(ctx, stub, ports.CastVoteInput{
				ElectionID:  args[0],
				VoterID:     args[1],
				CandidateID: args[2],
				Timestamp:   ts,
			})
		}},
		FnGetElectionResults: {1, func(ctx context.Context, stub ports.StateAccessor, args []string) (any, error) {
			return l.GetElectionResults(ctx, stub, args[0])
		}},
		FnUpdateElectionStatus: {2, func(ctx context.Context, stub ports.StateAccessor, args []string) (any, error) {
			status, err := domain.ParseElectionStatus(args[1])
			if err != nil {
				return nil, err
			}
			return l.UpdateElectionStatus(ctx, stub, args[0], status)
		}},
		FnGetElection: {1, func(ctx context.Context, stub ports.StateAccessor, args []string) (any, error) {
			return l.GetElection(ctx, stub, args[0])
		}},
		FnGetVote: {2, func(ctx context.Context, stub ports.StateAccessor, args []string) (any, error) {
			return l.GetVote(ctx, stub, args[0], args[1])
		}},
		FnListElections: {0, func(ctx context.Context, stub ports.StateAccessor, _ []string) (any, error) {
			return l.ListElections(ctx, stub)
		}},
		FnAuditElection: {1, func(ctx context.Context, stub ports.StateAccessor, args []string) (any, error) {
			return l.AuditElection(ctx, stub, args[0])
		}},
	}
	return c
}

func (c *electionContract) Invoke(ctx context.Context, stub ports.StateAccessor, fn string, args []string) ([]byte, error) {
	op, ok := c.ops[fn]
	if !ok {
		return nil, domain.NewError(domain.KindInvalidInput, "unknown function %q", fn)
	}
	if len(args) != op.arity {
		return nil, domain.NewError(domain.KindInvalidInput, "%s expects %d arguments, got %d", fn, op.arity, len(args))
	}

	result, err := op.call(ctx, stub, args)
	if err != nil {
		return nil, err
	}
	return ledger.Marshal(result)
}

func parseInt(name, s string) (int64, error) {
	if s == "" {
		return 0, domain.NewError(domain.KindInvalidInput, "%s is required", name)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, domain.NewError(domain.KindInvalidInput, "%s %q is not an integer", name, s)
	}
	return n, nil
}

// parseCandidates decodes the serialized candidate list, a JSON array of
// strings.
func parseCandidates(s string) ([]string, error) {
	if s == "" {
		return nil, domain.NewError(domain.KindInvalidInput, "candidates are required")
	}
	var candidates []string
	if err := json.Unmarshal([]byte(s), &candidates); err != nil {
		return nil, domain.NewError(domain.KindInvalidInput, "candidates must be a JSON array of strings: %v", err)
	}
	if len(candidates) == 0 {
		return nil, domain.NewError(domain.KindInvalidInput, "at least one candidate is required")
	}
	return candidates, nil
}
