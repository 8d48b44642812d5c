package store

import "errors"

// ErrNotFound is returned when a key has no value in the store.
var ErrNotFound = errors.New("key not found")

// KV is the persistence boundary for docchat: a flat mapping from string
// keys to JSON-encoded values, surviving process restarts for the same
// data directory. Implementations must be safe for concurrent use.
type KV interface {
	// Get returns the value for key or ErrNotFound.
	Get(key string) ([]byte, error)
	// Set stores value under key, overwriting any previous value.
	Set(key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
	// Keys returns all keys starting with prefix, in lexical order. An
	// empty prefix returns every key.
	Keys(prefix string) ([]string, error)
	// Close releases the underlying resources.
	Close() error
}
