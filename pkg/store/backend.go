package store

import (
	"bytes"
	"maps"
	"sync"
)

// txn is the view of the raw record inside one exclusive transaction.
type txn interface {
	all() (map[string][]byte, error)
	put(name string, raw []byte) error
	del(name string) error
}

// backend persists the raw record.
type backend interface {
	// read returns a copy of every stored value.
	read() (map[string][]byte, error)

	// update runs fn in one exclusive, durable transaction. Nothing is
	// written when fn returns an error.
	update(fn func(txn) error) error

	// path returns the watched file, or "" when changes cannot come from
	// outside this handle.
	path() string

	close() error
}

// memoryBackend keeps the record in a map. Useful for testing or when
// persistence is not needed.
type memoryBackend struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{values: make(map[string][]byte)}
}

func (b *memoryBackend) read() (map[string][]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return cloneRaw(b.values), nil
}

func (b *memoryBackend) update(fn func(txn) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	staged := &memoryTxn{values: cloneRaw(b.values)}
	if err := fn(staged); err != nil {
		return err
	}

	b.values = staged.values
	return nil
}

func (b *memoryBackend) path() string { return "" }

func (b *memoryBackend) close() error { return nil }

// memoryTxn applies changes to a private copy that replaces the record on
// commit.
type memoryTxn struct {
	values map[string][]byte
}

func (t *memoryTxn) all() (map[string][]byte, error) {
	return cloneRaw(t.values), nil
}

func (t *memoryTxn) put(name string, raw []byte) error {
	t.values[name] = bytes.Clone(raw)
	return nil
}

func (t *memoryTxn) del(name string) error {
	delete(t.values, name)
	return nil
}

func cloneRaw(in map[string][]byte) map[string][]byte {
	out := make(map[string][]byte, len(in))
	for k, v := range maps.All(in) {
		out[k] = bytes.Clone(v)
	}
	return out
}
