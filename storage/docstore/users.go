// Package docstore keeps whole JSON documents in a kv.Store.
package docstore

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/user"
	"github.com/trezcool/rollcall/storage/kv"
)

// UsersKey is the key of the users document: username -> {password, role, name}.
const UsersKey = "attendanceUsers"

type userRecord struct {
	Password string    `json:"password"` // bcrypt hash
	Role     user.Role `json:"role"`
	Name     string    `json:"name"`
}

type userRepository struct {
	sync.RWMutex
	store  kv.Store
	table  map[string]userRecord
	logger core.Logger
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

// NewUserRepository loads the users document. When it is missing or malformed, the seeds are used
// until the next write replaces the document.
func NewUserRepository(ctx context.Context, store kv.Store, logger core.Logger, seeds ...user.User) (user.Repository, error) {
	repo := &userRepository{
		store:  store,
		table:  make(map[string]userRecord),
		logger: logger,
	}

	data, err := store.Get(ctx, UsersKey)
	switch {
	case errors.Is(err, kv.ErrNotFound):
		repo.seed(seeds)
	case err != nil:
		return nil, errors.Wrap(err, "loading users")
	default:
		if err = json.Unmarshal(data, &repo.table); err != nil {
			logger.Warn("users document is malformed, falling back to default users", err)
			repo.table = make(map[string]userRecord)
			repo.seed(seeds)
		} else if repo.table == nil {
			// a null document reads as missing
			repo.table = make(map[string]userRecord)
			repo.seed(seeds)
		}
	}
	return repo, nil
}

func (repo *userRepository) seed(seeds []user.User) {
	for _, usr := range seeds {
		repo.table[usr.Username] = toRecord(usr)
	}
}

func toRecord(usr user.User) userRecord {
	return userRecord{Password: string(usr.PasswordHash), Role: usr.Role, Name: usr.Name}
}

func toUser(uname string, rec userRecord) user.User {
	return user.User{Username: uname, Name: rec.Name, Role: rec.Role, PasswordHash: []byte(rec.Password)}
}

// persist writes the whole document; the caller holds the write lock.
func (repo *userRepository) persist(ctx context.Context) error {
	data, err := json.Marshal(repo.table)
	if err == nil {
		err = repo.store.Set(ctx, UsersKey, data)
	}
	if err != nil {
		return core.NewPersistenceError("users", err)
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	repo.Lock()
	defer repo.Unlock()

	if _, ok := repo.table[usr.Username]; ok {
		return user.User{}, user.ErrUsernameExists
	}
	repo.table[usr.Username] = toRecord(usr)
	if err := repo.persist(ctx); err != nil {
		delete(repo.table, usr.Username)
		return user.User{}, err
	}
	return usr, nil
}

func (repo *userRepository) GetUser(_ context.Context, username string) (user.User, error) {
	repo.RLock()
	defer repo.RUnlock()

	if rec, ok := repo.table[username]; ok {
		return toUser(username, rec), nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) QueryAllUsers(_ context.Context) ([]user.User, error) {
	repo.RLock()
	defer repo.RUnlock()

	users := make([]user.User, 0, len(repo.table))
	for uname, rec := range repo.table {
		users = append(users, toUser(uname, rec))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	repo.Lock()
	defer repo.Unlock()

	orig, ok := repo.table[usr.Username]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	repo.table[usr.Username] = toRecord(usr)
	if err := repo.persist(ctx); err != nil {
		repo.table[usr.Username] = orig
		return user.User{}, err
	}
	return usr, nil
}
