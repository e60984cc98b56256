// Package deps builds the dependencies shared by the rollcall programs from the configuration.
package deps

import (
	"context"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/attendance"
	"github.com/trezcool/rollcall/core/roster"
	"github.com/trezcool/rollcall/core/user"
	logsvc "github.com/trezcool/rollcall/services/logger"
	"github.com/trezcool/rollcall/services/metrics"
	"github.com/trezcool/rollcall/storage"
	"github.com/trezcool/rollcall/storage/docstore"
	"github.com/trezcool/rollcall/storage/kv"
)

type Container struct {
	Conf       *core.Config
	Logger     core.Logger
	Store      kv.Store
	Validate   *validator.Validate
	Translator ut.Translator
	Metrics    *metrics.Recorder
	Users      *user.Service
	Attendance *attendance.Service
}

// NewLogger returns a RollbarLogger writing to stdout with prefix, e.g. "API : ".
// Rollbar reporting is off in debug mode.
func NewLogger(conf *core.Config, prefix string) *logsvc.RollbarLogger {
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, prefix, log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)
	return logger
}

func NewValidator() (*validator.Validate, ut.Translator) {
	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)
	return validate, translator
}

// New opens the configured store and wires the services on top of it.
func New(ctx context.Context, conf *core.Config, logger core.Logger) (*Container, error) {
	store, err := storage.Open(ctx, conf)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s storage", conf.Storage.Backend)
	}
	c, err := NewWithStore(ctx, conf, logger, store)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return c, nil
}

// NewWithStore wires the services on top of an already opened store.
func NewWithStore(ctx context.Context, conf *core.Config, logger core.Logger, store kv.Store) (*Container, error) {
	validate, translator := NewValidator()

	seeds, err := user.DefaultUsers(conf.Seed)
	if err != nil {
		return nil, errors.Wrap(err, "hashing default passwords")
	}
	usrRepo, err := docstore.NewUserRepository(ctx, store, logger, seeds...)
	if err != nil {
		return nil, err
	}

	records, err := attendance.Load(ctx, store, logger)
	if err != nil {
		return nil, err
	}

	recorder := metrics.NewRecorder("rollcall")

	return &Container{
		Conf:       conf,
		Logger:     logger,
		Store:      store,
		Validate:   validate,
		Translator: translator,
		Metrics:    recorder,
		Users:      user.NewService(usrRepo),
		Attendance: attendance.NewService(records, roster.Default(), validate, logger, recorder),
	}, nil
}

func (c *Container) Close() error {
	return c.Store.Close()
}
