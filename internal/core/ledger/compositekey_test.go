package ledger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/electionledger/internal/core/domain"
)

func TestCreateCompositeKey(t *testing.T) {
	key, err := CreateCompositeKey(ObjectTypeCount, "E1", "alice")
	require.NoError(t, err)
	assert.Equal(t, "\x00count\x00E1\x00alice\x00", key)

	objectType, attrs, err := SplitCompositeKey(key)
	require.NoError(t, err)
	assert.Equal(t, ObjectTypeCount, objectType)
	assert.Equal(t, []string{"E1", "alice"}, attrs)
}

func TestCreateCompositeKeyRejectsReservedCharacters(t *testing.T) {
	tests := []struct {
		name       string
		objectType string
		attrs      []string
	}{
		{"empty object type", "", []string{"E1"}},
		{"separator in attribute", ObjectTypeVote, []string{"E1", "v\x001"}},
		{"max rune in attribute", ObjectTypeVote, []string{"E1\U0010FFFF"}},
		{"invalid utf-8", ObjectTypeElection, []string{"\xff\xfe"}},
		{"separator in object type", "vo\x00te", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CreateCompositeKey(tt.objectType, tt.attrs...)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvalidInput))
		})
	}
}

func TestSplitCompositeKeyRejectsSimpleKeys(t *testing.T) {
	for _, key := range []string{"", "\x00", "asset1", "\x00\x00"} {
		_, _, err := SplitCompositeKey(key)
		assert.Error(t, err, "key %q", key)
	}
}

func TestPartialCompositeKeyRangeDoesNotLeakAcrossPrefixes(t *testing.T) {
	start, end, err := PartialCompositeKeyRange(ObjectTypeCount, "E1")
	require.NoError(t, err)

	inRange := func(k string) bool { return k >= start && k < end }

	own, _ := CreateCompositeKey(ObjectTypeCount, "E1", "alice")
	sibling, _ := CreateCompositeKey(ObjectTypeCount, "E10", "alice")
	otherType, _ := CreateCompositeKey(ObjectTypeVote, "E1", "alice")

	assert.True(t, inRange(own))
	assert.False(t, inRange(sibling))
	assert.False(t, inRange(otherType))
	assert.False(t, inRange("asset1"))
}
