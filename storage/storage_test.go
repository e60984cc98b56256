package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/storage/kv/badgerkv"
	"github.com/trezcool/rollcall/storage/kv/memkv"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		store, err := Open(ctx, &core.Config{Storage: core.StorageConfig{Backend: core.StorageMemory}})
		require.NoError(t, err)
		assert.IsType(t, &memkv.DB{}, store)
	})

	t.Run("badger", func(t *testing.T) {
		conf := &core.Config{Storage: core.StorageConfig{Backend: core.StorageBadger, BadgerPath: t.TempDir()}}
		store, err := Open(ctx, conf)
		require.NoError(t, err)
		defer func() { _ = store.Close() }()
		assert.IsType(t, &badgerkv.Store{}, store)
	})

	t.Run("unknown", func(t *testing.T) {
		store, err := Open(ctx, &core.Config{Storage: core.StorageConfig{Backend: "floppy"}})
		assert.ErrorIs(t, err, ErrUnknownBackend)
		assert.Nil(t, store)
	})

	t.Run("unreachable redis", func(t *testing.T) {
		conf := &core.Config{Storage: core.StorageConfig{Backend: core.StorageRedis}}
		conf.Redis.Addr = "127.0.0.1:1"
		store, err := Open(ctx, conf)
		assert.Error(t, err)
		assert.Nil(t, store)
	})
}
