package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/electionledger/internal/core/domain"
	"github.com/vncsmyrnk/electionledger/internal/core/services"
)

func TestInvokeUnknownFunction(t *testing.T) {
	l := newTestLedger(t)

	for _, fn := range []string{"CreateAsset", "GetAllAssets", "", "createelection"} {
		_, err := l.invoker.Submit(context.Background(), fn)
		require.Error(t, err)
		assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err), "fn %q", fn)
	}
}

func TestInvokeChecksArity(t *testing.T) {
	l := newTestLedger(t)

	tests := map[string][]string{
		services.FnCastVote:             {"E1", "v1", "alice"},
		services.FnGetElectionResults:   {},
		services.FnUpdateElectionStatus: {"E1"},
		services.FnGetVote:              {"E1"},
		services.FnListElections:        {"extra"},
		services.FnAuditElection:        {"E1", "E2"},
	}
	for fn, args := range tests {
		_, err := l.invoker.Evaluate(context.Background(), fn, args...)
		require.Error(t, err)
		assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err), "fn %s", fn)
	}
}

func TestEvaluateDiscardsWrites(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.invoker.Evaluate(context.Background(), services.FnCreateElection, "E1", "1", "2", `["a"]`)
	require.NoError(t, err)
	assert.Empty(t, l.world.Snapshot())

	_, err = l.invoker.Evaluate(context.Background(), services.FnGetElection, "E1")
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}
