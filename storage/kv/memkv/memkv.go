package memkv

import (
	"context"
	"sync"

	"github.com/trezcool/rollcall/storage/kv"
)

type (
	DB struct {
		sync.RWMutex
		table map[string][]byte

		failSet error
	}
)

var _ kv.Store = (*DB)(nil) // interface compliance check

func Open() *DB {
	return &DB{table: make(map[string][]byte)}
}

func (db *DB) Get(_ context.Context, key string) ([]byte, error) {
	db.RLock()
	defer db.RUnlock()

	val, ok := db.table[key]
	if !ok {
		return nil, kv.ErrNotFound
	}
	return append([]byte(nil), val...), nil
}

func (db *DB) Set(_ context.Context, key string, value []byte) error {
	db.Lock()
	defer db.Unlock()

	if db.failSet != nil {
		return db.failSet
	}
	db.table[key] = append([]byte(nil), value...)
	return nil
}

func (db *DB) Delete(_ context.Context, key string) error {
	db.Lock()
	defer db.Unlock()
	delete(db.table, key)
	return nil
}

// Keys returns the stored keys, unordered.
func (db *DB) Keys() []string {
	db.RLock()
	defer db.RUnlock()

	keys := make([]string, 0, len(db.table))
	for k := range db.table {
		keys = append(keys, k)
	}
	return keys
}

// FailWrites makes every following Set return err; nil restores normal writes.
// Used to simulate a full or unavailable storage.
func (db *DB) FailWrites(err error) {
	db.Lock()
	defer db.Unlock()
	db.failSet = err
}

func (db *DB) Close() error { return nil }
