// Package storage opens the configured kv.Store backend.
package storage

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/storage/database"
	"github.com/trezcool/rollcall/storage/kv"
	"github.com/trezcool/rollcall/storage/kv/badgerkv"
	"github.com/trezcool/rollcall/storage/kv/memkv"
	"github.com/trezcool/rollcall/storage/kv/rediskv"
	"github.com/trezcool/rollcall/storage/kv/sqlkv"
)

var ErrUnknownBackend = errors.New("unknown storage backend")

// Open opens the backend named by conf.Storage.Backend.
func Open(ctx context.Context, conf *core.Config) (kv.Store, error) {
	switch conf.Storage.Backend {
	case core.StorageMemory:
		return memkv.Open(), nil
	case core.StorageBadger, "":
		store, err := badgerkv.Open(conf.Storage.BadgerPath)
		if err != nil {
			return nil, err
		}
		return store, nil
	case core.StorageRedis:
		store, err := rediskv.Open(ctx, conf.Redis.Addr, conf.Redis.Password, conf.Redis.DB)
		if err != nil {
			return nil, err
		}
		return store, nil
	case core.StoragePostgres:
		db, err := database.Setup(conf)
		if err != nil {
			return nil, errors.Wrap(err, "setting up database")
		}
		return sqlkv.New(db), nil
	}
	return nil, errors.Wrapf(ErrUnknownBackend, "%q", conf.Storage.Backend)
}
