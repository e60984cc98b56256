package logsvc

import (
	"io"
	"log"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/user"
)

type level int

const (
	levelDebug level = iota
	levelInfo
	levelWarn
	levelError
	levelCritical
)

var reporters = map[level]func(...interface{}){
	levelDebug:    rollbar.Debug,
	levelInfo:     rollbar.Info,
	levelWarn:     rollbar.Warning,
	levelError:    rollbar.Error,
	levelCritical: rollbar.Critical,
}

// RollbarLogger prints to a std logger and, once enabled with a token, reports to Rollbar.
type RollbarLogger struct {
	std       *log.Logger
	token     string
	reporting bool
}

var _ core.Logger = (*RollbarLogger)(nil)

// NewRollbarLogger configures the Rollbar client; reporting stays off until Enable.
func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(false)
	return &RollbarLogger{std: std, token: conf.RollbarToken}
}

// NewDiscardLogger logs nowhere.
func NewDiscardLogger() *RollbarLogger {
	return &RollbarLogger{std: log.New(io.Discard, "", 0)}
}

// Enable turns reporting on or off. Without a token it stays off.
func (l *RollbarLogger) Enable(enabled bool) {
	l.reporting = enabled && l.token != ""
	rollbar.SetEnabled(l.reporting)
}

func (l *RollbarLogger) Reporting() bool {
	return l.reporting
}

// split separates the session user from the printable args (error, map[string]interface{}).
func split(args []interface{}) (*user.User, []interface{}) {
	var usr *user.User
	rest := make([]interface{}, 0, len(args))
	for _, arg := range args {
		u, ok := arg.(user.User)
		if !ok {
			rest = append(rest, arg)
			continue
		}
		if usr == nil && u.Role != "" {
			usr = &u
		}
	}
	return usr, rest
}

func (l *RollbarLogger) log(lvl level, msg string, args []interface{}) {
	usr, rest := split(args)

	if l.reporting {
		if usr != nil {
			id := usr.Username
			if id == "" {
				id = usr.Name
			}
			rollbar.SetPerson(id, usr.Name, "")
		} else {
			rollbar.ClearPerson()
		}
		reporters[lvl](append([]interface{}{msg}, rest...)...)
	}

	l.std.Println(msg)
	for _, arg := range rest {
		l.std.Printf("%+v\n", arg)
	}
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) { l.log(levelDebug, msg, args) }
func (l *RollbarLogger) Info(msg string, args ...interface{})  { l.log(levelInfo, msg, args) }
func (l *RollbarLogger) Warn(msg string, args ...interface{})  { l.log(levelWarn, msg, args) }
func (l *RollbarLogger) Error(msg string, args ...interface{}) { l.log(levelError, msg, args) }

func (l *RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.log(levelCritical, msg, args)
	if l.reporting {
		rollbar.Wait()
	}
	l.std.Fatal(msg)
}
