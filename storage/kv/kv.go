// Package kv defines the byte-valued key-value store the application persists its documents in.
package kv

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("key not found")

// Store is a durable (or, for tests and sessions, ephemeral) key-value store.
// A Set must be atomic: readers observe either the previous or the new value.
type Store interface {
	// Get returns ErrNotFound when key is missing.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Delete is a no-op when key is missing.
	Delete(ctx context.Context, key string) error
	Close() error
}

// Namespace prefixes every key of store with prefix.
func Namespace(store Store, prefix string) Store {
	return &namespaced{Store: store, prefix: prefix}
}

type namespaced struct {
	Store
	prefix string
}

func (ns *namespaced) Get(ctx context.Context, key string) ([]byte, error) {
	return ns.Store.Get(ctx, ns.prefix+key)
}

func (ns *namespaced) Set(ctx context.Context, key string, value []byte) error {
	return ns.Store.Set(ctx, ns.prefix+key, value)
}

func (ns *namespaced) Delete(ctx context.Context, key string) error {
	return ns.Store.Delete(ctx, ns.prefix+key)
}

// Close does not close the underlying store, it is shared.
func (ns *namespaced) Close() error { return nil }
