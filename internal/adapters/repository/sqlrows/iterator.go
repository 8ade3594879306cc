// Package sqlrows adapts database/sql result sets to state iterators.
package sqlrows

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/vncsmyrnk/electionledger/internal/core/ports"
)

var ErrIteratorExhausted = errors.New("iterator exhausted")

// Iterator reads one row ahead so HasNext can answer without consuming.
type Iterator struct {
	rows *sql.Rows
	next *ports.KV
	err  error
}

func NewIterator(rows *sql.Rows) *Iterator {
	it := &Iterator{rows: rows}
	it.advance()
	return it
}

func (it *Iterator) advance() {
	it.next = nil
	if !it.rows.Next() {
		if err := it.rows.Err(); err != nil {
			it.err = fmt.Errorf("error iterating state range: %w", err)
		}
		return
	}
	var key, value []byte
	if err := it.rows.Scan(&key, &value); err != nil {
		it.err = fmt.Errorf("failed to scan state entry: %w", err)
		return
	}
	it.next = &ports.KV{Key: string(key), Value: value}
}

func (it *Iterator) HasNext() bool {
	return it.next != nil || it.err != nil
}

func (it *Iterator) Next() (*ports.KV, error) {
	if it.err != nil {
		err := it.err
		it.err = nil
		return nil, err
	}
	if it.next == nil {
		return nil, ErrIteratorExhausted
	}
	kv := it.next
	it.advance()
	return kv, nil
}

func (it *Iterator) Close() error {
	return it.rows.Close()
}
