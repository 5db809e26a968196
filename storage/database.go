// Package storage provides the key-value persistence layer for registry
// state snapshots and the off-chain event journal.
//
// Keys follow a prefix-based schema where each record type uses a distinct
// single-byte prefix to avoid collisions.
package storage

import "errors"

var (
	ErrNotFound = errors.New("storage: not found")
	ErrClosed   = errors.New("storage: database closed")
)

// KeyValueReader wraps the Has and Get methods of a backing data store.
type KeyValueReader interface {
	Has(key []byte) (bool, error)
	Get(key []byte) ([]byte, error)
}

// KeyValueWriter wraps the Put and Delete methods of a backing data store.
type KeyValueWriter interface {
	Put(key, value []byte) error
	Delete(key []byte) error
}

// KeyValueStore combines read and write access to a backing data store.
type KeyValueStore interface {
	KeyValueReader
	KeyValueWriter
	Close() error
}

// Iterator iterates over a store's key/value pairs in ascending key order.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Release()
}

// Database is the full store interface: keyed access plus prefix
// iteration.
type Database interface {
	KeyValueStore
	NewIterator(prefix []byte) Iterator
}
