// Package memory is an in-process world state. Invocations are admitted one
// at a time; each buffers its writes and applies them only on commit.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vncsmyrnk/electionledger/internal/core/ports"
)

type WorldState struct {
	mu    sync.Mutex
	state map[string][]byte
}

var _ ports.WorldState = (*WorldState)(nil)

func NewWorldState() *WorldState {
	return &WorldState{state: map[string][]byte{}}
}

func (w *WorldState) Transact(ctx context.Context, opts ports.TransactOptions, fn func(ports.StateAccessor) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &txState{committed: w.state, writes: map[string][]byte{}}
	if err := fn(tx); err != nil {
		return err
	}
	if opts.ReadOnly {
		return nil
	}

	for k, v := range tx.writes {
		if v == nil {
			delete(w.state, k)
			continue
		}
		w.state[k] = v
	}
	return nil
}

func (w *WorldState) Ping(context.Context) error { return nil }

func (w *WorldState) Close() error { return nil }

// Snapshot copies the committed state.
func (w *WorldState) Snapshot() map[string][]byte {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make(map[string][]byte, len(w.state))
	for k, v := range w.state {
		out[k] = append([]byte(nil), v...)
	}
	return out
}

// txState overlays pending writes on the committed map. A nil value in writes
// marks a deletion.
type txState struct {
	committed map[string][]byte
	writes    map[string][]byte
}

func (t *txState) GetState(_ context.Context, key string) ([]byte, error) {
	return clone(t.lookup(key)), nil
}

func (t *txState) lookup(key string) []byte {
	if v, ok := t.writes[key]; ok {
		return v
	}
	return t.committed[key]
}

func (t *txState) PutState(_ context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	t.writes[key] = clone(value)
	return nil
}

func (t *txState) DelState(_ context.Context, key string) error {
	t.writes[key] = nil
	return nil
}

func (t *txState) GetStateByRange(_ context.Context, startKey, endKey string) (ports.StateIterator, error) {
	inRange := func(k string) bool {
		return k >= startKey && (endKey == "" || k < endKey)
	}

	seen := map[string]struct{}{}
	var keys []string
	for k := range t.committed {
		if inRange(k) {
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	for k := range t.writes {
		if _, ok := seen[k]; !ok && inRange(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	kvs := make([]*ports.KV, 0, len(keys))
	for _, k := range keys {
		v := t.lookup(k)
		if v == nil {
			continue
		}
		kvs = append(kvs, &ports.KV{Key: k, Value: clone(v)})
	}
	return &iterator{kvs: kvs}, nil
}

type iterator struct {
	kvs    []*ports.KV
	pos    int
	closed bool
}

func (it *iterator) HasNext() bool {
	return !it.closed && it.pos < len(it.kvs)
}

func (it *iterator) Next() (*ports.KV, error) {
	if !it.HasNext() {
		return nil, ErrIteratorExhausted
	}
	kv := it.kvs[it.pos]
	it.pos++
	return kv, nil
}

func (it *iterator) Close() error {
	it.closed = true
	return nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte{}, b...)
}
