package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/electionledger/internal/adapters/state/memory"
	"github.com/vncsmyrnk/electionledger/internal/core/domain"
	"github.com/vncsmyrnk/electionledger/internal/core/ledger"
	"github.com/vncsmyrnk/electionledger/internal/core/ports"
	"github.com/vncsmyrnk/electionledger/internal/core/services"
)

type testLedger struct {
	world   *memory.WorldState
	invoker ports.Invoker
}

func newTestLedger(t *testing.T) *testLedger {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	world := memory.NewWorldState()
	contract := services.NewElectionContract(services.NewElectionLedger(logger))
	return &testLedger{
		world:   world,
		invoker: services.NewGatewayService(world, contract, logger),
	}
}

func (l *testLedger) createElection(t *testing.T, id string, start, end int64, candidates ...string) *domain.Election {
	t.Helper()
	list, err := json.Marshal(candidates)
	require.NoError(t, err)

	payload, err := l.invoker.Submit(context.Background(), services.FnCreateElection, id, fmt.Sprint(start), fmt.Sprint(end), string(list))
	require.NoError(t, err)

	var e domain.Election
	require.NoError(t, json.Unmarshal(payload, &e))
	return &e
}

func (l *testLedger) castVote(electionID, voterID, candidateID string, ts int64) error {
	_, err := l.invoker.Submit(context.Background(), services.FnCastVote, electionID, voterID, candidateID, fmt.Sprint(ts))
	return err
}

func (l *testLedger) results(t *testing.T, electionID string) map[string]int64 {
	t.Helper()
	ordered := l.orderedResults(t, electionID)
	out := make(map[string]int64, len(ordered))
	for _, r := range ordered {
		out[r.CandidateID] = r.VoteCount
	}
	return out
}

func (l *testLedger) orderedResults(t *testing.T, electionID string) []domain.CandidateResult {
	t.Helper()
	payload, err := l.invoker.Evaluate(context.Background(), services.FnGetElectionResults, electionID)
	require.NoError(t, err)
	var results []domain.CandidateResult
	require.NoError(t, json.Unmarshal(payload, &results))
	return results
}

func TestElectionScenarios(t *testing.T) {
	l := newTestLedger(t)
	l.createElection(t, "E1", 1000, 2000, "alice", "bob")

	// A: first vote counts.
	require.NoError(t, l.castVote("E1", "v1", "alice", 1500))
	assert.Equal(t, map[string]int64{"alice": 1, "bob": 0}, l.results(t, "E1"))

	// B: same voter again.
	err := l.castVote("E1", "v1", "alice", 1600)
	assert.True(t, errors.Is(err, domain.ErrAlreadyVoted), "got %v", err)
	assert.Equal(t, map[string]int64{"alice": 1, "bob": 0}, l.results(t, "E1"))

	// C: unregistered candidate.
	err = l.castVote("E1", "v2", "carol", 1500)
	assert.True(t, errors.Is(err, domain.ErrInvalidCandidate), "got %v", err)

	// D: after the window.
	err = l.castVote("E1", "v3", "bob", 2500)
	assert.True(t, errors.Is(err, domain.ErrVotingClosed), "got %v", err)

	// E: completed elections reject votes.
	_, err = l.invoker.Submit(context.Background(), services.FnUpdateElectionStatus, "E1", "COMPLETED")
	require.NoError(t, err)
	err = l.castVote("E1", "v4", "bob", 1700)
	assert.True(t, errors.Is(err, domain.ErrInvalidState), "got %v", err)

	assert.Equal(t, map[string]int64{"alice": 1, "bob": 0}, l.results(t, "E1"))
}

func TestCreateElectionInitializesZeroResultsInOrder(t *testing.T) {
	l := newTestLedger(t)
	e := l.createElection(t, "E1", 1000, 2000, "zed", "alice", "mia")

	assert.Equal(t, domain.StatusCreated, e.Status)
	assert.Equal(t, domain.DocTypeElection, e.DocType)
	assert.Equal(t, []domain.CandidateResult{
		{CandidateID: "zed", VoteCount: 0},
		{CandidateID: "alice", VoteCount: 0},
		{CandidateID: "mia", VoteCount: 0},
	}, l.orderedResults(t, "E1"))
}

func TestMissingTallyCounterReadsAsZero(t *testing.T) {
	l := newTestLedger(t)
	l.createElection(t, "E1", 1000, 2000, "alice", "bob")

	key, err := ledger.CreateCompositeKey(ledger.ObjectTypeCount, "E1", "bob")
	require.NoError(t, err)
	err = l.world.Transact(context.Background(), ports.TransactOptions{}, func(stub ports.StateAccessor) error {
		return stub.DelState(context.Background(), key)
	})
	require.NoError(t, err)
	require.NotContains(t, l.world.Snapshot(), key)

	assert.Equal(t, []domain.CandidateResult{
		{CandidateID: "alice", VoteCount: 0},
		{CandidateID: "bob", VoteCount: 0},
	}, l.orderedResults(t, "E1"))

	require.NoError(t, l.castVote("E1", "v1", "bob", 1500))
	assert.Equal(t, []domain.CandidateResult{
		{CandidateID: "alice", VoteCount: 0},
		{CandidateID: "bob", VoteCount: 1},
	}, l.orderedResults(t, "E1"))
	assert.Equal(t, []byte("1"), l.world.Snapshot()[key])
}

func TestCreateElectionRejectsDuplicateID(t *testing.T) {
	l := newTestLedger(t)
	l.createElection(t, "E1", 1000, 2000, "alice", "bob")
	before := l.world.Snapshot()

	_, err := l.invoker.Submit(context.Background(), services.FnCreateElection, "E1", "0", "5", `["carol"]`)
	assert.True(t, errors.Is(err, domain.ErrAlreadyExists), "got %v", err)
	assert.Equal(t, before, l.world.Snapshot())
}

func TestCreateElectionValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"empty id", []string{"", "1000", "2000", `["a"]`}},
		{"bad start", []string{"E1", "soon", "2000", `["a"]`}},
		{"missing end", []string{"E1", "1000", "", `["a"]`}},
		{"start after end", []string{"E1", "3000", "2000", `["a"]`}},
		{"start equals end", []string{"E1", "2000", "2000", `["a"]`}},
		{"empty candidates", []string{"E1", "1000", "2000", `[]`}},
		{"candidates not json", []string{"E1", "1000", "2000", `alice,bob`}},
		{"duplicate candidates", []string{"E1", "1000", "2000", `["a","a"]`}},
		{"empty candidate", []string{"E1", "1000", "2000", `["a",""]`}},
		{"separator in id", []string{"E\x001", "1000", "2000", `["a"]`}},
		{"separator in candidate", []string{"E1", "1000", "2000", `["a\u0000b"]`}},
		{"wrong arity", []string{"E1", "1000", "2000"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTestLedger(t)
			_, err := l.invoker.Submit(context.Background(), services.FnCreateElection, tt.args...)
			require.Error(t, err)
			assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err), "got %v", err)
			assert.Empty(t, l.world.Snapshot())
		})
	}
}

func TestCastVoteErrors(t *testing.T) {
	l := newTestLedger(t)
	l.createElection(t, "E1", 1000, 2000, "alice", "bob")

	tests := []struct {
		name string
		args []string
		kind domain.ErrorKind
	}{
		{"missing voter", []string{"E1", "", "alice", "1500"}, domain.KindInvalidInput},
		{"bad timestamp", []string{"E1", "v1", "alice", "noon"}, domain.KindInvalidInput},
		{"unknown election", []string{"E2", "v1", "alice", "1500"}, domain.KindNotFound},
		{"before window", []string{"E1", "v1", "alice", "999"}, domain.KindVotingClosed},
		{"separator in voter", []string{"E1", "v\x001", "alice", "1500"}, domain.KindInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.invoker.Submit(context.Background(), services.FnCastVote, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.kind, domain.KindOf(err), "got %v", err)
		})
	}
	assert.Equal(t, map[string]int64{"alice": 0, "bob": 0}, l.results(t, "E1"))
}

func TestCastVoteWindowIsInclusive(t *testing.T) {
	l := newTestLedger(t)
	l.createElection(t, "E1", 1000, 2000, "alice")

	require.NoError(t, l.castVote("E1", "first", "alice", 1000))
	require.NoError(t, l.castVote("E1", "last", "alice", 2000))
	assert.Equal(t, int64(2), l.results(t, "E1")["alice"])
}

func TestCastVoteReturnsRecord(t *testing.T) {
	l := newTestLedger(t)
	l.createElection(t, "E1", 1000, 2000, "alice")

	payload, err := l.invoker.Submit(context.Background(), services.FnCastVote, "E1", "v1", "alice", "1500")
	require.NoError(t, err)
	assert.Equal(t, `{"candidateId":"alice","docType":"vote","electionId":"E1","timestamp":1500,"voterId":"v1"}`, string(payload))

	payload, err = l.invoker.Evaluate(context.Background(), services.FnGetVote, "E1", "v1")
	require.NoError(t, err)
	assert.Equal(t, `{"candidateId":"alice","docType":"vote","electionId":"E1","timestamp":1500,"voterId":"v1"}`, string(payload))

	_, err = l.invoker.Evaluate(context.Background(), services.FnGetVote, "E1", "nobody")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestOngoingElectionAcceptsVotesAndCancelledDoesNot(t *testing.T) {
	l := newTestLedger(t)
	l.createElection(t, "E1", 1000, 2000, "alice")

	_, err := l.invoker.Submit(context.Background(), services.FnUpdateElectionStatus, "E1", "ONGOING")
	require.NoError(t, err)
	require.NoError(t, l.castVote("E1", "v1", "alice", 1500))

	_, err = l.invoker.Submit(context.Background(), services.FnUpdateElectionStatus, "E1", "CANCELLED")
	require.NoError(t, err)
	assert.True(t, errors.Is(l.castVote("E1", "v2", "alice", 1500), domain.ErrInvalidState))
}

func TestUpdateElectionStatus(t *testing.T) {
	l := newTestLedger(t)
	created := l.createElection(t, "E1", 1000, 2000, "alice", "bob")

	_, err := l.invoker.Submit(context.Background(), services.FnUpdateElectionStatus, "E1", "FINISHED")
	assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err))

	_, err = l.invoker.Submit(context.Background(), services.FnUpdateElectionStatus, "nope", "FINISHED")
	assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err), "status is validated before existence")

	_, err = l.invoker.Submit(context.Background(), services.FnUpdateElectionStatus, "nope", "ONGOING")
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))

	// Any transition is accepted, including back out of a terminal status.
	for _, status := range []string{"COMPLETED", "CREATED", "CANCELLED", "ONGOING"} {
		payload, err := l.invoker.Submit(context.Background(), services.FnUpdateElectionStatus, "E1", status)
		require.NoError(t, err)

		var updated domain.Election
		require.NoError(t, json.Unmarshal(payload, &updated))
		assert.Equal(t, domain.ElectionStatus(status), updated.Status)

		updated.Status = created.Status
		assert.Equal(t, *created, updated, "only status may change")
	}
}

func TestResultsAreIdempotent(t *testing.T) {
	l := newTestLedger(t)
	l.createElection(t, "E1", 1000, 2000, "alice", "bob")
	require.NoError(t, l.castVote("E1", "v1", "bob", 1200))

	first, err := l.invoker.Evaluate(context.Background(), services.FnGetElectionResults, "E1")
	require.NoError(t, err)
	second, err := l.invoker.Evaluate(context.Background(), services.FnGetElectionResults, "E1")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	_, err = l.invoker.Evaluate(context.Background(), services.FnGetElectionResults, "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestTallyMatchesVoteCount(t *testing.T) {
	l := newTestLedger(t)
	l.createElection(t, "E1", 1000, 2000, "alice", "bob", "carol")
	l.createElection(t, "E10", 1000, 2000, "alice")

	candidates := []string{"alice", "bob", "carol", "dave"}
	for i := 0; i < 40; i++ {
		_ = l.castVote("E1", fmt.Sprintf("voter-%d", i%25), candidates[i%len(candidates)], int64(900+i*30))
	}
	require.NoError(t, l.castVote("E10", "voter-1", "alice", 1500))

	payload, err := l.invoker.Evaluate(context.Background(), services.FnAuditElection, "E1")
	require.NoError(t, err)
	var audit domain.ElectionAudit
	require.NoError(t, json.Unmarshal(payload, &audit))

	var sum int64
	for _, n := range l.results(t, "E1") {
		sum += n
	}
	assert.True(t, audit.Consistent)
	assert.Equal(t, audit.Votes, audit.TallyTotal)
	assert.Equal(t, sum, audit.TallyTotal)
	assert.Len(t, audit.Counts, 3, "E10 counters must not leak into E1")
}

func TestAuditDetectsTamperedTally(t *testing.T) {
	l := newTestLedger(t)
	l.createElection(t, "E1", 1000, 2000, "alice")
	require.NoError(t, l.castVote("E1", "v1", "alice", 1500))

	err := l.world.Transact(context.Background(), ports.TransactOptions{}, func(stub ports.StateAccessor) error {
		return stub.PutState(context.Background(), "\x00count\x00E1\x00alice\x00", []byte("5"))
	})
	require.NoError(t, err)

	payload, err := l.invoker.Evaluate(context.Background(), services.FnAuditElection, "E1")
	require.NoError(t, err)
	var audit domain.ElectionAudit
	require.NoError(t, json.Unmarshal(payload, &audit))
	assert.False(t, audit.Consistent)
	assert.Equal(t, int64(1), audit.Votes)
	assert.Equal(t, int64(5), audit.TallyTotal)
}

func TestListElections(t *testing.T) {
	l := newTestLedger(t)

	payload, err := l.invoker.Evaluate(context.Background(), services.FnListElections)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(payload))

	l.createElection(t, "b", 1, 2, "x")
	l.createElection(t, "a", 1, 2, "y")
	require.NoError(t, l.castVote("a", "v", "y", 1))

	payload, err = l.invoker.Evaluate(context.Background(), services.FnListElections)
	require.NoError(t, err)
	var elections []domain.Election
	require.NoError(t, json.Unmarshal(payload, &elections))
	require.Len(t, elections, 2)
	assert.Equal(t, "a", elections[0].ElectionID)
	assert.Equal(t, "b", elections[1].ElectionID)
}

func TestReplayProducesIdenticalState(t *testing.T) {
	replay := func() map[string][]byte {
		l := newTestLedger(t)
		l.createElection(t, "E1", 1000, 2000, "alice", "bob")
		require.NoError(t, l.castVote("E1", "v1", "alice", 1500))
		require.NoError(t, l.castVote("E1", "v2", "bob", 1501))
		_ = l.castVote("E1", "v1", "bob", 1502)
		_, err := l.invoker.Submit(context.Background(), services.FnUpdateElectionStatus, "E1", "COMPLETED")
		require.NoError(t, err)
		return l.world.Snapshot()
	}

	assert.Equal(t, replay(), replay())
}

func TestStoredElectionIsCanonical(t *testing.T) {
	l := newTestLedger(t)
	l.createElection(t, "E1", 1000, 2000, "alice", "bob")

	state := l.world.Snapshot()
	assert.Equal(t,
		`{"candidates":["alice","bob"],"docType":"election","electionId":"E1","endTime":2000,"startTime":1000,"status":"CREATED"}`,
		string(state["\x00election\x00E1\x00"]))
	assert.Equal(t, "0", string(state["\x00count\x00E1\x00alice\x00"]))
	assert.Equal(t, "0", string(state["\x00count\x00E1\x00bob\x00"]))
	assert.Len(t, state, 3)
}
