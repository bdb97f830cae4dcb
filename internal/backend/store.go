// Package backend is the on-disk block store: a key/value byte store
// returning serialized block lists, backed by go.etcd.io/bbolt — an
// embedded B+tree store, Go's closest ecosystem equivalent to the
// original's embedded sled store (backend/inmem.rs).
package backend

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

// ErrKeyNotFound is returned by Get for an absent key; callers (the
// gallery/game adapters) surface a backend miss upstream as
// core.ErrNoBlocks.
var ErrKeyNotFound = errors.New("backend: key not found")

var blocksBucket = []byte("blocks")

// ImageBlock is one progressively-refinable block stored under a
// query's catalog key. Grounded on apps/gallery/gallery.rs's
// ImageBlock, serialized here with encoding/gob (the pack carries no
// ecosystem binary-serialization library comparable to bincode; see
// DESIGN.md) instead of bincode.
type ImageBlock struct {
	BlockID uint32
	Content []byte
}

// Store is a single bbolt database file holding one bucket of
// key -> gob-encoded []ImageBlock, at the "data/<dbname>" path layout.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if necessary) the bbolt database at path and
// ensures the blocks bucket exists.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("backend: open %s: %w", path, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(blocksBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("backend: init bucket %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Put stores blocks under key, overwriting any existing value.
func (s *Store) Put(key string, blocks []ImageBlock) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(blocks); err != nil {
		return fmt.Errorf("backend: encode blocks for %q: %w", key, err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(blocksBucket).Put([]byte(key), buf.Bytes())
	})
}

// Get returns the blocks stored under key, or ErrKeyNotFound.
func (s *Store) Get(key string) ([]ImageBlock, error) {
	var blocks []ImageBlock
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(blocksBucket).Get([]byte(key))
		if v == nil {
			return ErrKeyNotFound
		}
		return gob.NewDecoder(bytes.NewReader(v)).Decode(&blocks)
	})
	if err != nil {
		return nil, err
	}
	return blocks, nil
}

// CollectBlocksPerQuery walks every key in the store, returning the
// block count per key in bucket iteration order — the scheduler's
// catalog needs a blocks-per-query count for every query at startup.
// Grounded on backend/inmem.rs's collect_blocks_per_query.
func (s *Store) CollectBlocksPerQuery() (keys []string, counts []uint32, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(blocksBucket).ForEach(func(k, v []byte) error {
			var blocks []ImageBlock
			if decErr := gob.NewDecoder(bytes.NewReader(v)).Decode(&blocks); decErr != nil {
				return fmt.Errorf("backend: decode %q: %w", k, decErr)
			}
			keys = append(keys, string(k))
			counts = append(counts, uint32(len(blocks)))
			return nil
		})
	})
	return keys, counts, err
}

// Close releases the underlying database file.
func (s *Store) Close() error { return s.db.Close() }
