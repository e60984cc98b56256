package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"

	"golang.org/x/term"

	"github.com/trezcool/rollcall/apps/deps"
	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/session"
	logsvc "github.com/trezcool/rollcall/services/logger"
	"github.com/trezcool/rollcall/storage/kv/memkv"
)

func main() {
	conf := core.NewConfig()

	// the terminal belongs to the shell; logs go to stderr
	logger := logsvc.NewRollbarLogger(log.New(os.Stderr, "SHELL : ", log.LstdFlags|log.Lshortfile), conf)
	logger.Enable(!conf.Debug)

	ctx := context.Background()
	c, err := deps.New(ctx, conf, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up dependencies: %v", err), err)
	}
	defer func() {
		if err = c.Close(); err != nil {
			logger.Error("closing storage", err)
		}
	}()

	sh := &shell{
		in:         bufio.NewScanner(os.Stdin),
		out:        os.Stdout,
		tty:        term.IsTerminal(int(os.Stdin.Fd())),
		users:      c.Users,
		attendance: c.Attendance,
		sessions:   session.NewManager(memkv.Open()), // ends with the process
		validate:   c.Validate,
		translator: c.Translator,
		logger:     logger,
	}
	if err = sh.run(ctx); err != nil {
		logger.Error("reading input", err)
	}
}
