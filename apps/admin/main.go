package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sort"

	"github.com/trezcool/rollcall/apps/deps"
	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/storage/database"
)

func main() {
	conf := core.NewConfig()
	logger := deps.NewLogger(conf, "ADMIN : ")
	_, translator := deps.NewValidator()

	cli := commandLine{
		conf: conf,
		newDeps: func() (*deps.Container, error) {
			return deps.New(context.Background(), conf, logger)
		},
		openDB: func() (*sql.DB, error) {
			if err := database.CreateIfNotExist(conf); err != nil {
				return nil, err
			}
			db, err := database.Open(conf)
			if err != nil {
				return nil, err
			}
			if err = db.Ping(); err != nil {
				_ = db.Close()
				return nil, err
			}
			return db, nil
		},
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			if fldErrs := core.TranslateErrors(err, translator); fldErrs != nil {
				printFieldErrors(fldErrs)
			} else {
				fmt.Printf("\nerror: %s\n", err)
			}
		}
		os.Exit(1)
	}
}

func printFieldErrors(fldErrs map[string]string) {
	fields := make([]string, 0, len(fldErrs))
	for f := range fldErrs {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	fmt.Println()
	for _, f := range fields {
		fmt.Printf("%s: %s\n", f, fldErrs[f])
	}
}
