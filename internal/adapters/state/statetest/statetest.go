// Package statetest holds the behavior every ports.WorldState backend must
// share.
package statetest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/electionledger/internal/core/ports"
)

var errAbort = errors.New("abort")

func Run(t *testing.T, newWorld func(t *testing.T) ports.WorldState) {
	t.Run("GetAbsentKey", func(t *testing.T) { testGetAbsentKey(t, newWorld(t)) })
	t.Run("CommitAndReadBack", func(t *testing.T) { testCommitAndReadBack(t, newWorld(t)) })
	t.Run("FailedInvocationDiscardsWrites", func(t *testing.T) { testFailedInvocationDiscardsWrites(t, newWorld(t)) })
	t.Run("ReadOnlyDiscardsWrites", func(t *testing.T) { testReadOnlyDiscardsWrites(t, newWorld(t)) })
	t.Run("RangeScan", func(t *testing.T) { testRangeScan(t, newWorld(t)) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, newWorld(t)) })
	t.Run("SerializedIncrements", func(t *testing.T) { testSerializedIncrements(t, newWorld(t)) })
}

func put(t *testing.T, w ports.WorldState, kvs map[string]string) {
	t.Helper()
	err := w.Transact(context.Background(), ports.TransactOptions{}, func(s ports.StateAccessor) error {
		for k, v := range kvs {
			if err := s.PutState(context.Background(), k, []byte(v)); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func get(t *testing.T, w ports.WorldState, key string) []byte {
	t.Helper()
	var out []byte
	err := w.Transact(context.Background(), ports.TransactOptions{ReadOnly: true}, func(s ports.StateAccessor) error {
		var err error
		out, err = s.GetState(context.Background(), key)
		return err
	})
	require.NoError(t, err)
	return out
}

func scan(t *testing.T, w ports.WorldState, start, end string) []string {
	t.Helper()
	var keys []string
	err := w.Transact(context.Background(), ports.TransactOptions{ReadOnly: true}, func(s ports.StateAccessor) error {
		it, err := s.GetStateByRange(context.Background(), start, end)
		if err != nil {
			return err
		}
		defer it.Close()
		for it.HasNext() {
			kv, err := it.Next()
			if err != nil {
				return err
			}
			keys = append(keys, kv.Key)
		}
		return nil
	})
	require.NoError(t, err)
	return keys
}

func testGetAbsentKey(t *testing.T, w ports.WorldState) {
	assert.Nil(t, get(t, w, "missing"))
}

func testCommitAndReadBack(t *testing.T, w ports.WorldState) {
	put(t, w, map[string]string{"\x00election\x00E1\x00": `{"a":1}`})
	assert.Equal(t, []byte(`{"a":1}`), get(t, w, "\x00election\x00E1\x00"))

	err := w.Transact(context.Background(), ports.TransactOptions{}, func(s ports.StateAccessor) error {
		if err := s.PutState(context.Background(), "k", []byte("v1")); err != nil {
			return err
		}
		v, err := s.GetState(context.Background(), "k")
		if err != nil {
			return err
		}
		assert.Equal(t, []byte("v1"), v, "invocation sees its own writes")
		return nil
	})
	require.NoError(t, err)
}

func testFailedInvocationDiscardsWrites(t *testing.T, w ports.WorldState) {
	put(t, w, map[string]string{"k": "before"})

	err := w.Transact(context.Background(), ports.TransactOptions{}, func(s ports.StateAccessor) error {
		if err := s.PutState(context.Background(), "k", []byte("after")); err != nil {
			return err
		}
		if err := s.PutState(context.Background(), "other", []byte("x")); err != nil {
			return err
		}
		return errAbort
	})
	assert.ErrorIs(t, err, errAbort)
	assert.Equal(t, []byte("before"), get(t, w, "k"))
	assert.Nil(t, get(t, w, "other"))
}

func testReadOnlyDiscardsWrites(t *testing.T, w ports.WorldState) {
	// Backends may refuse the write outright; either way nothing persists.
	_ = w.Transact(context.Background(), ports.TransactOptions{ReadOnly: true}, func(s ports.StateAccessor) error {
		return s.PutState(context.Background(), "k", []byte("v"))
	})
	assert.Nil(t, get(t, w, "k"))
}

func testRangeScan(t *testing.T, w ports.WorldState) {
	put(t, w, map[string]string{
		"\x00count\x00E1\x00bob\x00":    "0",
		"\x00count\x00E1\x00alice\x00":  "2",
		"\x00count\x00E10\x00alice\x00": "1",
		"\x00vote\x00E1\x00v1\x00":      "{}",
		"asset1":                        "{}",
	})

	assert.Equal(t,
		[]string{"\x00count\x00E1\x00alice\x00", "\x00count\x00E1\x00bob\x00"},
		scan(t, w, "\x00count\x00E1\x00", "\x00count\x00E1\x00\U0010FFFF"))

	assert.Equal(t,
		[]string{"\x00count\x00E1\x00alice\x00", "\x00count\x00E1\x00bob\x00", "\x00count\x00E10\x00alice\x00", "\x00vote\x00E1\x00v1\x00", "asset1"},
		scan(t, w, "", ""), "empty bounds scan everything in key order")

	assert.Empty(t, scan(t, w, "b", "c"))
}

func testDelete(t *testing.T, w ports.WorldState) {
	put(t, w, map[string]string{"a": "1", "b": "2"})

	err := w.Transact(context.Background(), ports.TransactOptions{}, func(s ports.StateAccessor) error {
		return s.DelState(context.Background(), "a")
	})
	require.NoError(t, err)

	assert.Nil(t, get(t, w, "a"))
	assert.Equal(t, []string{"b"}, scan(t, w, "", ""))
}

// testSerializedIncrements races read-increment-write invocations; with
// invocations admitted one at a time no increment is lost.
func testSerializedIncrements(t *testing.T, w ports.WorldState) {
	put(t, w, map[string]string{"n": "0"})

	const workers = 8
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := w.Transact(context.Background(), ports.TransactOptions{}, func(s ports.StateAccessor) error {
				v, err := s.GetState(context.Background(), "n")
				if err != nil {
					return err
				}
				return s.PutState(context.Background(), "n", []byte{v[0] + 1})
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, []byte{'0' + workers}, get(t, w, "n"))
}
