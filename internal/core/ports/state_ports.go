package ports

import "context"

// KV is one entry yielded by a range scan.
type KV struct {
	Key   string
	Value []byte
}

// StateIterator is a finite, key-ordered, non-restartable range scan. It must
// be closed before the next state call of the same invocation.
type StateIterator interface {
	HasNext() bool
	Next() (*KV, error)
	Close() error
}

// StateAccessor is the world state as seen by a single invocation. GetState
// returns nil, nil for an absent key. An empty endKey in GetStateByRange means
// the scan is unbounded above.
type StateAccessor interface {
	GetState(ctx context.Context, key string) ([]byte, error)
	PutState(ctx context.Context, key string, value []byte) error
	DelState(ctx context.Context, key string) error
	GetStateByRange(ctx context.Context, startKey, endKey string) (StateIterator, error)
}

type TransactOptions struct {
	TxID     string
	ReadOnly bool
}

// WorldState admits invocations one at a time. Writes made through the
// accessor are committed only when fn returns nil and the invocation is not
// read-only.
type WorldState interface {
	Transact(ctx context.Context, opts TransactOptions, fn func(StateAccessor) error) error
	Ping(ctx context.Context) error
	Close() error
}
