package testutil

import (
	"context"
	"testing"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/attendance"
	"github.com/trezcool/rollcall/core/user"
	logsvc "github.com/trezcool/rollcall/services/logger"
	"github.com/trezcool/rollcall/storage/docstore"
	"github.com/trezcool/rollcall/storage/kv"
)

// Seeds are the default users with the passwords of a fresh install.
var Seeds = core.SeedConfig{AdminPassword: "admin123", TeacherPassword: "teacher123"}

func Logger() core.Logger {
	return logsvc.NewDiscardLogger()
}

func NewValidator() (*validator.Validate, ut.Translator) {
	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)
	return validate, translator
}

func NewUserService(t *testing.T, store kv.Store) (*user.Service, user.Repository) {
	t.Helper()
	seeds, err := user.DefaultUsers(Seeds)
	if err != nil {
		t.Fatalf("DefaultUsers() failed: %v", err)
	}
	repo, err := docstore.NewUserRepository(context.Background(), store, Logger(), seeds...)
	if err != nil {
		t.Fatalf("NewUserRepository() failed: %v", err)
	}
	return user.NewService(repo), repo
}

func CreateUser(t *testing.T, repo user.Repository, uname, pwd string, role user.Role, name string) user.User {
	t.Helper()
	usr := user.User{Username: uname, Name: name, Role: role}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

func LoadRecords(t *testing.T, store kv.Store) *attendance.RecordStore {
	t.Helper()
	rs, err := attendance.Load(context.Background(), store, Logger())
	if err != nil {
		t.Fatalf("attendance.Load() failed: %v", err)
	}
	return rs
}

// Mark writes statuses as {date: {studentID: status}}.
func Mark(t *testing.T, rs *attendance.RecordStore, days map[string]map[int]attendance.Status) {
	t.Helper()
	for date, day := range days {
		for id, st := range day {
			if err := rs.SetStatus(context.Background(), date, id, st); err != nil {
				t.Fatalf("SetStatus(%s, %d, %s) failed: %v", date, id, st, err)
			}
		}
	}
}
