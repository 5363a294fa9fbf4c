package store

import (
	"context"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	json "github.com/goccy/go-json"
)

// BadgerStore persists records in an embedded Badger database. Keys are
// rec/<matchID>/<version> with zero-padded numeric segments so lexicographic
// order equals numeric order and a reverse scan yields the newest version
// first.
type BadgerStore struct {
	db *badger.DB
}

var _ Store = (*BadgerStore)(nil)

// OpenBadger opens (or creates) a store at dir.
func OpenBadger(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", dir, err)
	}
	return &BadgerStore{db: db}, nil
}

func recordKey(matchID int64, version int) []byte {
	return []byte(fmt.Sprintf("rec/%020d/%010d", matchID, version))
}

func matchPrefix(matchID int64) []byte {
	return []byte(fmt.Sprintf("rec/%020d/", matchID))
}

// FindLatest implements Store.
func (s *BadgerStore) FindLatest(ctx context.Context, matchID int64, oddsHash string) (*Record, error) {
	var found *Record
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := matchPrefix(matchID)
		seek := append(append([]byte{}, prefix...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var rec Record
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("decode record %s: %w", it.Item().Key(), err)
			}
			if oddsHash == "" || rec.OddsHash == oddsHash {
				found = &rec
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

// MaxVersion implements Store.
func (s *BadgerStore) MaxVersion(_ context.Context, matchID int64) (int, error) {
	max := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := matchPrefix(matchID)
		seek := append(append([]byte{}, prefix...), 0xFF)
		it.Seek(seek)
		if !it.ValidForPrefix(prefix) {
			return nil
		}
		key := it.Item().Key()
		if _, err := fmt.Sscanf(string(key[len(prefix):]), "%d", &max); err != nil {
			return fmt.Errorf("parse version from key %s: %w", key, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return max, nil
}

// Insert implements Store.
func (s *BadgerStore) Insert(_ context.Context, rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recordKey(rec.MatchID, rec.Version), data)
	})
}

// Close implements Store.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
