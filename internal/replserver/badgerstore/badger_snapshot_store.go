// Package badgerstore provides a BadgerDB-backed replication.SnapshotStore
// for a single-instance host that wants its per-owner snapshots to
// survive a process restart without standing up Redis.
package badgerstore

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v3"

	"github.com/annel0/replicad/internal/logging"
	"github.com/annel0/replicad/internal/replication"
)

// Store persists each owner's snapshot as a JSON-encoded id slice
// under an 8-byte big-endian owner key, one BadgerDB record per owner.
type Store struct {
	db *badger.DB
}

// Open opens (creating if absent) a BadgerDB at dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // BadgerDB's own logger is too chatty for this use

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badgerstore: failed to open %q: %w", dir, err)
	}
	logging.Info("Replication snapshot store opened BadgerDB at %s", dir)
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func ownerKey(owner int64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(owner))
	return b[:]
}

// Get returns the owner's snapshot in insertion order.
func (s *Store) Get(owner int64) ([]int64, bool) {
	var ids []int64
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(ownerKey(owner))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			if len(val) == 0 {
				return nil
			}
			return json.Unmarshal(val, &ids)
		})
	})
	if err != nil {
		logging.Error("BadgerDB snapshot Get failed for owner %d: %v", owner, err)
		return nil, false
	}
	return ids, found
}

// Set atomically replaces the owner's snapshot.
func (s *Store) Set(owner int64, ids []int64) {
	payload, err := json.Marshal(ids)
	if err != nil {
		logging.Error("BadgerDB snapshot Set failed to encode owner %d: %v", owner, err)
		return
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(ownerKey(owner), payload)
	})
	if err != nil {
		logging.Error("BadgerDB snapshot Set failed for owner %d: %v", owner, err)
	}
}

// Delete drops the owner's snapshot entirely.
func (s *Store) Delete(owner int64) {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(ownerKey(owner))
	})
	if err != nil && err != badger.ErrKeyNotFound {
		logging.Error("BadgerDB snapshot Delete failed for owner %d: %v", owner, err)
	}
}

// Has reports whether owner currently has a snapshot record.
func (s *Store) Has(owner int64) bool {
	found := false
	_ = s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(ownerKey(owner))
		found = err == nil
		return nil
	})
	return found
}

// Ensure creates an empty snapshot record for owner if one doesn't
// exist yet.
func (s *Store) Ensure(owner int64) {
	if s.Has(owner) {
		return
	}
	s.Set(owner, nil)
}

var _ replication.SnapshotStore = (*Store)(nil)
