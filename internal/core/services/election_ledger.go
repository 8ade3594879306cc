package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/vncsmyrnk/electionledger/internal/core/domain"
	"github.com/vncsmyrnk/electionledger/internal/core/ledger"
	"github.com/vncsmyrnk/electionledger/internal/core/ports"
)

// electionLedger keeps no state between invocations: every method re-reads
// what it needs through the accessor it is handed. It must not read a clock,
// a random source or the network.
type electionLedger struct {
	logger *slog.Logger
}

func NewElectionLedger(logger *slog.Logger) ports.ElectionLedger {
	if logger == nil {
		logger = slog.Default()
	}
	return &electionLedger{logger: logger}
}

func (l *electionLedger) CreateElection(ctx context.Context, stub ports.StateAccessor, input ports.CreateElectionInput) (*domain.Election, error) {
	if input.ElectionID == "" {
		return nil, domain.NewError(domain.KindInvalidInput, "election id is required")
	}
	if input.StartTime >= input.EndTime {
		return nil, domain.NewError(domain.KindInvalidInput, "start time %d must be before end time %d", input.StartTime, input.EndTime)
	}
	if len(input.Candidates) == 0 {
		return nil, domain.NewError(domain.KindInvalidInput, "at least one candidate is required")
	}

	seen := make(map[string]struct{}, len(input.Candidates))
	countKeys := make([]string, 0, len(input.Candidates))
	for _, c := range input.Candidates {
		if c == "" {
			return nil, domain.NewError(domain.KindInvalidInput, "candidate id must not be empty")
		}
		if _, dup := seen[c]; dup {
			return nil, domain.NewError(domain.KindInvalidInput, "duplicate candidate %q", c)
		}
		seen[c] = struct{}{}

		key, err := ledger.CreateCompositeKey(ledger.ObjectTypeCount, input.ElectionID, c)
		if err != nil {
			return nil, err
		}
		countKeys = append(countKeys, key)
	}

	electionKey, err := ledger.CreateCompositeKey(ledger.ObjectTypeElection, input.ElectionID)
	if err != nil {
		return nil, err
	}
	existing, err := stub.GetState(ctx, electionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read election %s: %w", input.ElectionID, err)
	}
	if len(existing) > 0 {
		return nil, domain.NewError(domain.KindAlreadyExists, "election %s already exists", input.ElectionID)
	}

	election := &domain.Election{
		ElectionID: input.ElectionID,
		StartTime:  input.StartTime,
		EndTime:    input.EndTime,
		Candidates: append([]string(nil), input.Candidates...),
		Status:     domain.StatusCreated,
		DocType:    domain.DocTypeElection,
	}
	if err := putRecord(ctx, stub, electionKey, election); err != nil {
		return nil, err
	}

	for _, key := range countKeys {
		if err := stub.PutState(ctx, key, []byte("0")); err != nil {
			return nil, fmt.Errorf("failed to initialize tally: %w", err)
		}
	}

	l.logger.DebugContext(ctx, "election created", "election_id", election.ElectionID, "candidates", len(election.Candidates))
	return election, nil
}

func (l *electionLedger) CastVote(ctx context.Context, stub ports.StateAccessor, input ports.CastVoteInput) (*domain.VoteRecord, error) {
	if input.ElectionID == "" || input.VoterID == "" || input.CandidateID == "" {
		return nil, domain.NewError(domain.KindInvalidInput, "election id, voter id and candidate id are required")
	}

	voteKey, err := ledger.CreateCompositeKey(ledger.ObjectTypeVote, input.ElectionID, input.VoterID)
	if err != nil {
		return nil, err
	}
	countKey, err := ledger.CreateCompositeKey(ledger.ObjectTypeCount, input.ElectionID, input.CandidateID)
	if err != nil {
		return nil, err
	}

	election, err := l.readElection(ctx, stub, input.ElectionID)
	if err != nil {
		return nil, err
	}

	if !election.Status.AcceptsVotes() {
		return nil, domain.NewError(domain.KindInvalidState, "election %s is %s and not accepting votes", election.ElectionID, election.Status)
	}
	if !election.InWindow(input.Timestamp) {
		return nil, domain.NewError(domain.KindVotingClosed, "voting for election %s is not open at %d", election.ElectionID, input.Timestamp)
	}
	if !election.HasCandidate(input.CandidateID) {
		return nil, domain.NewError(domain.KindInvalidCandidate, "invalid candidate %s for election %s", input.CandidateID, election.ElectionID)
	}

	existing, err := stub.GetState(ctx, voteKey)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing vote: %w", err)
	}
	if len(existing) > 0 {
		return nil, domain.NewError(domain.KindAlreadyVoted, "voter %s has already voted in election %s", input.VoterID, election.ElectionID)
	}

	vote := &domain.VoteRecord{
		ElectionID:  election.ElectionID,
		VoterID:     input.VoterID,
		CandidateID: input.CandidateID,
		Timestamp:   input.Timestamp,
		DocType:     domain.DocTypeVote,
	}
	if err := putRecord(ctx, stub, voteKey, vote); err != nil {
		return nil, err
	}

	count, err := readCount(ctx, stub, countKey)
	if err != nil {
		return nil, err
	}
	if err := stub.PutState(ctx, countKey, []byte(strconv.FormatInt(count+1, 10))); err != nil {
		return nil, fmt.Errorf("failed to update tally: %w", err)
	}

	l.logger.DebugContext(ctx, "vote cast", "election_id", election.ElectionID, "candidate_id", input.CandidateID)
	return vote, nil
}

func (l *electionLedger) GetElectionResults(ctx context.Context, stub ports.StateAccessor, electionID string) ([]domain.CandidateResult, error) {
	election, err := l.readElection(ctx, stub, electionID)
	if err != nil {
		return nil, err
	}

	results := make([]domain.CandidateResult, 0, len(election.Candidates))
	for _, c := range election.Candidates {
		key, err := ledger.CreateCompositeKey(ledger.ObjectTypeCount, electionID, c)
		if err != nil {
			return nil, err
		}
		count, err := readCount(ctx, stub, key)
		if err != nil {
			return nil, err
		}
		results = append(results, domain.CandidateResult{CandidateID: c, VoteCount: count})
	}
	return results, nil
}

// UpdateElectionStatus accepts any transition, including leaving a terminal
// status.
func (l *electionLedger) UpdateElectionStatus(ctx context.Context, stub ports.StateAccessor, electionID string, status domain.ElectionStatus) (*domain.Election, error) {
	if _, err := domain.ParseElectionStatus(string(status)); err != nil {
		return nil, err
	}

	election, err := l.readElection(ctx, stub, electionID)
	if err != nil {
		return nil, err
	}

	previous := election.Status
	election.Status = status

	key, err := ledger.CreateCompositeKey(ledger.ObjectTypeElection, electionID)
	if err != nil {
		return nil, err
	}
	if err := putRecord(ctx, stub, key, election); err != nil {
		return nil, err
	}

	l.logger.DebugContext(ctx, "election status updated", "election_id", electionID, "from", previous, "to", status)
	return election, nil
}

func (l *electionLedger) GetElection(ctx context.Context, stub ports.StateAccessor, electionID string) (*domain.Election, error) {
	return l.readElection(ctx, stub, electionID)
}

func (l *electionLedger) GetVote(ctx context.Context, stub ports.StateAccessor, electionID, voterID string) (*domain.VoteRecord, error) {
	if electionID == "" || voterID == "" {
		return nil, domain.NewError(domain.KindInvalidInput, "election id and voter id are required")
	}
	key, err := ledger.CreateCompositeKey(ledger.ObjectTypeVote, electionID, voterID)
	if err != nil {
		return nil, err
	}
	raw, err := stub.GetState(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read vote: %w", err)
	}
	if len(raw) == 0 {
		return nil, domain.NewError(domain.KindNotFound, "voter %s has not voted in election %s", voterID, electionID)
	}

	var vote domain.VoteRecord
	if err := ledger.Unmarshal(raw, &vote); err != nil {
		return nil, err
	}
	return &vote, nil
}

func (l *electionLedger) ListElections(ctx context.Context, stub ports.StateAccessor) ([]*domain.Election, error) {
	start, end, err := ledger.PartialCompositeKeyRange(ledger.ObjectTypeElection)
	if err != nil {
		return nil, err
	}

	elections := []*domain.Election{}
	err = scanRange(ctx, stub, start, end, func(kv *ports.KV) error {
		var e domain.Election
		if err := ledger.Unmarshal(kv.Value, &e); err != nil {
			return err
		}
		elections = append(elections, &e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return elections, nil
}

// AuditElection recounts an election from its stored records, checking that
// the counters add up to the number of votes.
func (l *electionLedger) AuditElection(ctx context.Context, stub ports.StateAccessor, electionID string) (*domain.ElectionAudit, error) {
	if _, err := l.readElection(ctx, stub, electionID); err != nil {
		return nil, err
	}

	audit := &domain.ElectionAudit{
		ElectionID: electionID,
		Counts:     map[string]int64{},
	}

	start, end, err := ledger.PartialCompositeKeyRange(ledger.ObjectTypeCount, electionID)
	if err != nil {
		return nil, err
	}
	err = scanRange(ctx, stub, start, end, func(kv *ports.KV) error {
		_, attrs, err := ledger.SplitCompositeKey(kv.Key)
		if err != nil {
			return err
		}
		if len(attrs) != 2 {
			return fmt.Errorf("malformed tally key %q", kv.Key)
		}
		n, err := parseCount(kv.Value)
		if err != nil {
			return err
		}
		audit.Counts[attrs[1]] = n
		audit.TallyTotal += n
		return nil
	})
	if err != nil {
		return nil, err
	}

	start, end, err = ledger.PartialCompositeKeyRange(ledger.ObjectTypeVote, electionID)
	if err != nil {
		return nil, err
	}
	err = scanRange(ctx, stub, start, end, func(*ports.KV) error {
		audit.Votes++
		return nil
	})
	if err != nil {
		return nil, err
	}

	audit.Consistent = audit.Votes == audit.TallyTotal
	if !audit.Consistent {
		l.logger.WarnContext(ctx, "tally mismatch", "election_id", electionID, "votes", audit.Votes, "tally_total", audit.TallyTotal)
	}
	return audit, nil
}

func (l *electionLedger) readElection(ctx context.Context, stub ports.StateAccessor, electionID string) (*domain.Election, error) {
	if electionID == "" {
		return nil, domain.NewError(domain.KindInvalidInput, "election id is required")
	}
	key, err := ledger.CreateCompositeKey(ledger.ObjectTypeElection, electionID)
	if err != nil {
		return nil, err
	}
	raw, err := stub.GetState(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read election %s: %w", electionID, err)
	}
	if len(raw) == 0 {
		return nil, domain.NewError(domain.KindNotFound, "election %s does not exist", electionID)
	}

	var election domain.Election
	if err := ledger.Unmarshal(raw, &election); err != nil {
		return nil, err
	}
	return &election, nil
}

func putRecord(ctx context.Context, stub ports.StateAccessor, key string, v any) error {
	data, err := ledger.Marshal(v)
	if err != nil {
		return err
	}
	if err := stub.PutState(ctx, key, data); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

func readCount(ctx context.Context, stub ports.StateAccessor, key string) (int64, error) {
	raw, err := stub.GetState(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("failed to read tally: %w", err)
	}
	if len(raw) == 0 {
		return 0, nil
	}
	return parseCount(raw)
}

func parseCount(raw []byte) (int64, error) {
	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse tally %q: %w", raw, err)
	}
	return n, nil
}

// scanRange drains and closes the iterator before returning.
func scanRange(ctx context.Context, stub ports.StateAccessor, start, end string, fn func(*ports.KV) error) (err error) {
	it, err := stub.GetStateByRange(ctx, start, end)
	if err != nil {
		return fmt.Errorf("failed to open range scan: %w", err)
	}
	defer func() {
		if cerr := it.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close range scan: %w", cerr)
		}
	}()

	for it.HasNext() {
		kv, err := it.Next()
		if err != nil {
			return fmt.Errorf("failed to advance range scan: %w", err)
		}
		if err := fn(kv); err != nil {
			return err
		}
	}
	return nil
}
