package store

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketSettings = []byte("settings") // Key name -> encoded value
)

// boltBackend stores the record in a BoltDB file.
//
// The file is opened for each transaction and closed right after, so the
// BoltDB file lock is only held while a read or write is in progress and
// other handles and processes can share the file.
type boltBackend struct {
	file    string
	timeout time.Duration
}

func newBoltBackend(path string, timeout time.Duration) *boltBackend {
	return &boltBackend{file: path, timeout: timeout}
}

func (b *boltBackend) read() (map[string][]byte, error) {
	if _, err := os.Stat(b.file); errors.Is(err, fs.ErrNotExist) {
		return map[string][]byte{}, nil
	}

	db, err := bolt.Open(b.file, 0600, &bolt.Options{
		Timeout:  b.timeout,
		ReadOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	out := make(map[string][]byte)
	err = db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketSettings)
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(k, v []byte) error {
			out[string(k)] = bytes.Clone(v)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	return out, nil
}

// update returns errors from fn unchanged and wraps everything else in
// ErrWriteFailed.
func (b *boltBackend) update(fn func(txn) error) error {
	if err := os.MkdirAll(filepath.Dir(b.file), 0700); err != nil {
		return fmt.Errorf("%w: failed to create database directory: %v", ErrWriteFailed, err)
	}

	db, err := bolt.Open(b.file, 0600, &bolt.Options{
		Timeout: b.timeout,
	})
	if err != nil {
		return fmt.Errorf("%w: failed to open database: %v", ErrWriteFailed, err)
	}

	var fnErr error
	updateErr := db.Update(func(tx *bolt.Tx) error {
		bucket, createErr := tx.CreateBucketIfNotExists(bucketSettings)
		if createErr != nil {
			return fmt.Errorf("failed to create settings bucket: %w", createErr)
		}
		fnErr = fn(&boltTxn{bucket: bucket})
		return fnErr
	})
	closeErr := db.Close()

	switch {
	case fnErr != nil:
		return fnErr
	case updateErr != nil:
		return fmt.Errorf("%w: %v", ErrWriteFailed, updateErr)
	case closeErr != nil:
		return fmt.Errorf("%w: failed to close database: %v", ErrWriteFailed, closeErr)
	}
	return nil
}

func (b *boltBackend) path() string { return b.file }

func (b *boltBackend) close() error { return nil }

// boltTxn adapts a bucket inside a read-write transaction.
type boltTxn struct {
	bucket *bolt.Bucket
}

func (t *boltTxn) all() (map[string][]byte, error) {
	out := make(map[string][]byte)
	err := t.bucket.ForEach(func(k, v []byte) error {
		out[string(k)] = bytes.Clone(v)
		return nil
	})
	return out, err
}

func (t *boltTxn) put(name string, raw []byte) error {
	if err := t.bucket.Put([]byte(name), raw); err != nil {
		return fmt.Errorf("failed to store %s: %w", name, err)
	}
	return nil
}

func (t *boltTxn) del(name string) error {
	if err := t.bucket.Delete([]byte(name)); err != nil {
		return fmt.Errorf("failed to delete %s: %w", name, err)
	}
	return nil
}
