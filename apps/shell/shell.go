package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/attendance"
	"github.com/trezcool/rollcall/core/session"
	"github.com/trezcool/rollcall/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable
	nowFunc          = time.Now          // mockable

	errQuit = errors.New("quit")
)

type shell struct {
	in         *bufio.Scanner
	out        io.Writer
	tty        bool // stdin is a terminal: passwords are read without echo
	users      *user.Service
	attendance *attendance.Service
	sessions   *session.Manager
	validate   *validator.Validate
	translator ut.Translator
	logger     core.Logger
}

type command struct {
	usage string
	help  string
	run   func(sh *shell, ctx context.Context, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"login":    {usage: "login [USERNAME]", help: "log in, the password is prompted", run: (*shell).login},
		"logout":   {usage: "logout", help: "end the session", run: (*shell).logout},
		"whoami":   {usage: "whoami", help: "show the logged in user", run: (*shell).whoami},
		"students": {usage: "students", help: "list the roster", run: (*shell).students},
		"day":      {usage: "day [YYYY-MM-DD]", help: "admin: show the attendance sheet of a date, today by default", run: (*shell).day},
		"mark":     {usage: "mark YYYY-MM-DD ID present|absent", help: "admin: mark a student", run: (*shell).mark},
		"report":   {usage: "report [YYYY-MM]", help: "teacher: monthly report, this month by default", run: (*shell).report},
		"adduser":  {usage: "adduser USERNAME admin|teacher [NAME]", help: "admin: create a user, the password is prompted", run: (*shell).addUser},
		"help":     {usage: "help", help: "show this help", run: (*shell).help},
		"quit":     {usage: "quit", help: "leave the shell", run: func(*shell, context.Context, []string) error { return errQuit }},
	}
}

// run reads commands until quit or the end of the input.
func (sh *shell) run(ctx context.Context) error {
	fmt.Fprintln(sh.out, "Rollcall attendance shell. Type \"help\" for the commands.")
	for {
		sh.prompt(ctx)
		if !sh.in.Scan() {
			fmt.Fprintln(sh.out)
			return sh.in.Err()
		}
		fields := strings.Fields(sh.in.Text())
		if len(fields) == 0 {
			continue
		}

		name := strings.ToLower(fields[0])
		if name == "exit" {
			name = "quit"
		}
		cmd, ok := commands[name]
		if !ok {
			fmt.Fprintf(sh.out, "Unknown command %q. Type \"help\" for the commands.\n", fields[0])
			continue
		}
		if err := cmd.run(sh, ctx, fields[1:]); err != nil {
			if err == errQuit {
				return nil
			}
			sh.printError(err)
		}
	}
}

func (sh *shell) prompt(ctx context.Context) {
	sess, err := sh.sessions.Current(ctx)
	if err != nil || !sess.IsAuthenticated() {
		fmt.Fprint(sh.out, "rollcall> ")
		return
	}
	fmt.Fprintf(sh.out, "rollcall(%s)> ", sess.Role)
}

func (sh *shell) printError(err error) {
	switch {
	case errors.Is(err, core.ErrUnauthenticated):
		fmt.Fprintln(sh.out, "Please log in first.")
	case errors.Is(err, core.ErrForbidden):
		fmt.Fprintln(sh.out, "Your role cannot do that.")
	case errors.Is(err, user.ErrInvalidCredentials):
		fmt.Fprintln(sh.out, "Invalid username or password.")
	case errors.Is(err, session.ErrAlreadyAuthenticated):
		fmt.Fprintln(sh.out, "Already logged in. Log out first.")
	case core.IsPersistence(err):
		var pErr *core.PersistenceError
		errors.As(err, &pErr)
		fmt.Fprintf(sh.out, "Changes could not be saved: %v\n", pErr.Err)
		sh.logger.Error("shell command not saved", err)
	default:
		if fldErrs := core.TranslateErrors(err, sh.translator); fldErrs != nil {
			for _, f := range sortedKeys(fldErrs) {
				fmt.Fprintf(sh.out, "%s: %s\n", f, fldErrs[f])
			}
			return
		}
		fmt.Fprintf(sh.out, "error: %v\n", err)
		sh.logger.Error("shell command failed", err)
	}
}

func (sh *shell) readLine(prompt string) string {
	fmt.Fprint(sh.out, prompt)
	if !sh.in.Scan() {
		return ""
	}
	return strings.TrimSpace(sh.in.Text())
}

func (sh *shell) readPassword() (string, error) {
	if !sh.tty {
		return sh.readLine("Password: "), nil
	}
	fmt.Fprint(sh.out, "Password: ")
	pwd, err := readPasswordFunc(int(os.Stdin.Fd()))
	fmt.Fprintln(sh.out)
	if err != nil {
		return "", errors.Wrap(err, "reading password")
	}
	return string(pwd), nil
}

func (sh *shell) current(ctx context.Context) (session.Context, error) {
	sess, err := sh.sessions.Current(ctx)
	return sess, errors.Wrap(err, "reading session")
}

// Commands

func (sh *shell) login(ctx context.Context, args []string) error {
	sess, err := sh.current(ctx)
	if err != nil {
		return err
	}
	if sess.IsAuthenticated() {
		return session.ErrAlreadyAuthenticated
	}

	var uname string
	if len(args) > 0 {
		uname = args[0]
	} else {
		uname = sh.readLine("Username: ")
	}
	pwd, err := sh.readPassword()
	if err != nil {
		return err
	}

	usr, err := sh.users.Authenticate(ctx, uname, pwd)
	if err != nil {
		return err
	}
	if sess, err = sh.sessions.Begin(ctx, usr); err != nil {
		return err
	}
	sh.logger.Info("logged in", usr)
	fmt.Fprintf(sh.out, "Welcome, %s!\n", sess.DisplayName)

	if sess.Can(user.CapViewReports) {
		return sh.report(ctx, nil)
	}
	return nil
}

func (sh *shell) logout(ctx context.Context, _ []string) error {
	sess, err := sh.current(ctx)
	if err != nil {
		return err
	}
	if !sess.IsAuthenticated() {
		return core.ErrUnauthenticated
	}
	switch strings.ToLower(sh.readLine("Are you sure you want to log out? [y/N] ")) {
	case "y", "yes":
	default:
		return nil
	}
	if err = sh.sessions.End(ctx); err != nil {
		return err
	}
	fmt.Fprintln(sh.out, "Logged out.")
	return nil
}

func (sh *shell) whoami(ctx context.Context, _ []string) error {
	sess, err := sh.current(ctx)
	if err != nil {
		return err
	}
	if !sess.IsAuthenticated() {
		fmt.Fprintln(sh.out, "Not logged in.")
		return nil
	}
	fmt.Fprintf(sh.out, "%s (%s)\n", sess.DisplayName, sess.Role)
	return nil
}

func (sh *shell) students(ctx context.Context, _ []string) error {
	sess, err := sh.current(ctx)
	if err != nil {
		return err
	}
	if !sess.IsAuthenticated() {
		return core.ErrUnauthenticated
	}
	renderStudents(sh.out, sh.attendance.Roster().Students())
	return nil
}

func (sh *shell) day(ctx context.Context, args []string) error {
	sess, err := sh.current(ctx)
	if err != nil {
		return err
	}
	date := nowFunc().Format(core.DateLayout)
	if len(args) > 0 {
		date = args[0]
	}
	sheet, err := sh.attendance.DaySheet(sess, attendance.DayRequest{Date: date})
	if err != nil {
		return err
	}
	renderSheet(sh.out, sheet)
	return nil
}

func (sh *shell) mark(ctx context.Context, args []string) error {
	sess, err := sh.current(ctx)
	if err != nil {
		return err
	}
	if err = sess.Require(user.CapMarkAttendance); err != nil {
		return err
	}

	var req attendance.MarkRequest
	if len(args) > 0 {
		req.Date = args[0]
	}
	if len(args) > 1 {
		if req.StudentID, err = strconv.Atoi(args[1]); err != nil {
			return core.NewValidationError(nil, core.FieldError{Field: "studentId", Error: "must be a number"})
		}
	}
	if len(args) > 2 {
		req.Status, _ = attendance.ParseStatus(args[2])
	}

	if err = sh.attendance.MarkAttendance(ctx, sess, req); err != nil {
		return err
	}
	student, _ := sh.attendance.Roster().Lookup(req.StudentID)
	fmt.Fprintf(sh.out, "Marked %s %s on %s.\n", student.Name, req.Status, req.Date)
	return nil
}

func (sh *shell) report(ctx context.Context, args []string) error {
	sess, err := sh.current(ctx)
	if err != nil {
		return err
	}
	yearMonth := nowFunc().Format(core.MonthLayout)
	if len(args) > 0 {
		yearMonth = args[0]
	}
	report, err := sh.attendance.RequestReport(sess, attendance.ReportRequest{YearMonth: yearMonth})
	if err != nil {
		return err
	}
	renderReport(sh.out, report)
	return nil
}

func (sh *shell) addUser(ctx context.Context, args []string) error {
	sess, err := sh.current(ctx)
	if err != nil {
		return err
	}
	if err = sess.Require(user.CapCreateUsers); err != nil {
		return err
	}

	var nu user.NewUser
	if len(args) > 0 {
		nu.Username = args[0]
	}
	if len(args) > 1 {
		nu.Role = user.Role(args[1])
	}
	if len(args) > 2 {
		nu.Name = strings.Join(args[2:], " ")
	}
	if nu.Password, err = sh.readPassword(); err != nil {
		return err
	}

	if err = nu.Validate(ctx, sh.validate, sh.users); err != nil {
		return err
	}
	usr, err := sh.users.Create(ctx, nu)
	if err != nil {
		return err
	}
	sh.logger.Info("user created", map[string]interface{}{"username": usr.Username, "role": usr.Role}, sess.User())
	fmt.Fprintf(sh.out, "User %q (%s) created successfully!\n", usr.Username, usr.Role)
	return nil
}

func (sh *shell) help(context.Context, []string) error {
	for _, name := range []string{"login", "logout", "whoami", "students", "day", "mark", "report", "adduser", "help", "quit"} {
		cmd := commands[name]
		fmt.Fprintf(sh.out, "  %-36s %s\n", cmd.usage, cmd.help)
	}
	return nil
}
