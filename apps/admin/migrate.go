package main

import (
	"github.com/pkg/errors"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/storage/database"
)

var gooseRunFunc = database.RunMigration // mockable

var errNotPostgres = errors.New("migrations only apply to the postgres storage backend")

func (cli *commandLine) migrate(args []string) error {
	if cli.conf.Storage.Backend != core.StoragePostgres {
		return errNotPostgres
	}
	db, err := cli.openDB()
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	if db != nil {
		defer func() { _ = db.Close() }()
	}
	return gooseRunFunc(db, args[0], args[1:]...)
}
