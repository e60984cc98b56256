// Package session tracks who is signed in for one session (one shell, one API token)
// and which capabilities that grants.
package session

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/user"
	"github.com/trezcool/rollcall/storage/kv"
)

// session store keys
const (
	keyLoggedIn = "isLoggedIn"
	keyRole     = "userRole"
	keyName     = "userName"
)

var ErrAlreadyAuthenticated = errors.New("session already authenticated")

// Context is the identity of a session. The zero value is Anonymous.
type Context struct {
	Role        user.Role `json:"role"`
	DisplayName string    `json:"name"`
}

var Anonymous = Context{}

func (c Context) IsAuthenticated() bool {
	return c.Role != ""
}

func (c Context) Can(capability user.Capability) bool {
	return c.Role.Capabilities().Has(capability)
}

// User is the session's identity as a user.User, for logging.
func (c Context) User() user.User {
	return user.User{Name: c.DisplayName, Role: c.Role}
}

// Require returns core.ErrUnauthenticated for anonymous sessions
// and core.ErrForbidden when the role lacks capability.
func (c Context) Require(capability user.Capability) error {
	if !c.IsAuthenticated() {
		return core.ErrUnauthenticated
	}
	if !c.Can(capability) {
		return core.ErrForbidden
	}
	return nil
}

// Manager moves one session between Anonymous and Authenticated.
// The role never changes while authenticated; logging in again requires ending the session first.
type Manager struct {
	store kv.Store
}

func NewManager(store kv.Store) *Manager {
	return &Manager{store: store}
}

func (m *Manager) get(ctx context.Context, key string) (string, error) {
	val, err := m.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return "", nil
		}
		return "", errors.Wrapf(err, "reading session %s", key)
	}
	return string(val), nil
}

// Current reads the session. Anything short of a complete, valid session is Anonymous.
func (m *Manager) Current(ctx context.Context) (Context, error) {
	loggedIn, err := m.get(ctx, keyLoggedIn)
	if err != nil || loggedIn != "true" {
		return Anonymous, err
	}
	role, err := m.get(ctx, keyRole)
	if err != nil {
		return Anonymous, err
	}
	name, err := m.get(ctx, keyName)
	if err != nil {
		return Anonymous, err
	}
	if !user.Role(role).Valid() {
		return Anonymous, nil
	}
	return Context{Role: user.Role(role), DisplayName: name}, nil
}

// Begin authenticates the session as usr.
func (m *Manager) Begin(ctx context.Context, usr user.User) (Context, error) {
	curr, err := m.Current(ctx)
	if err != nil {
		return Anonymous, err
	}
	if curr.IsAuthenticated() {
		return curr, ErrAlreadyAuthenticated
	}

	// isLoggedIn goes last: a half written session reads as Anonymous
	if err = m.store.Set(ctx, keyRole, []byte(usr.Role)); err != nil {
		return Anonymous, errors.Wrap(err, "writing session")
	}
	if err = m.store.Set(ctx, keyName, []byte(usr.Name)); err != nil {
		return Anonymous, errors.Wrap(err, "writing session")
	}
	if err = m.store.Set(ctx, keyLoggedIn, []byte("true")); err != nil {
		return Anonymous, errors.Wrap(err, "writing session")
	}
	return Context{Role: usr.Role, DisplayName: usr.Name}, nil
}

// End clears the session, returning it to Anonymous.
func (m *Manager) End(ctx context.Context) error {
	for _, key := range []string{keyLoggedIn, keyRole, keyName} {
		if err := m.store.Delete(ctx, key); err != nil {
			return errors.Wrap(err, "clearing session")
		}
	}
	return nil
}
