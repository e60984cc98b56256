package echoapi

import (
	"context"
	"sync"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/session"
	"github.com/trezcool/rollcall/core/user"
	"github.com/trezcool/rollcall/storage/kv"
)

const (
	contextTokenKey   = "userToken"
	contextSessionKey = "session"
	contextSessIDKey  = "sessionID"
)

// Claims represents the authorization claims transmitted via a JWT.
// The subject is the server side session id; role and name are informative only.
type Claims struct {
	jwt.StandardClaims
	Role user.Role `json:"role,omitempty"`
	Name string    `json:"name,omitempty"`
}

type authenticator struct {
	appName         string
	expirationDelta time.Duration
	sessions        kv.Store
	jwtConfig       middleware.JWTConfig

	mu       sync.Mutex
	expiries map[string]time.Time // session id -> token expiry
}

func newAuthenticator(conf *core.Config, sessions kv.Store) *authenticator {
	return &authenticator{
		appName:         conf.AppName,
		expirationDelta: conf.Server.SessionExpirationDelta,
		sessions:        sessions,
		expiries:        make(map[string]time.Time),
		jwtConfig: middleware.JWTConfig{
			SigningKey:    []byte(conf.SecretKey),
			SigningMethod: middleware.AlgorithmHS256,
			ContextKey:    contextTokenKey,
			Claims:        new(Claims),
		},
	}
}

func (a *authenticator) manager(sessID string) *session.Manager {
	return session.NewManager(kv.Namespace(a.sessions, "session:"+sessID+":"))
}

func (a *authenticator) claims(sessID string, sess session.Context) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    a.appName,
			Subject:   sessID,
			ExpiresAt: now.Add(a.expirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Role: sess.Role,
		Name: sess.DisplayName,
	}
}

// generateToken generates a signed JWT token string representing the Claims.
func (a *authenticator) generateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(a.jwtConfig.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(a.jwtConfig.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// begin opens a new authenticated session for usr and returns its token.
func (a *authenticator) begin(ctx echo.Context, usr user.User) (string, session.Context, error) {
	sessID := uuid.NewString()
	sess, err := a.manager(sessID).Begin(ctx.Request().Context(), usr)
	if err != nil {
		return "", session.Anonymous, errors.Wrap(err, "beginning session")
	}
	claims := a.claims(sessID, sess)
	token, err := a.generateToken(claims)
	if err != nil {
		return "", session.Anonymous, err
	}

	a.mu.Lock()
	a.expiries[sessID] = time.Unix(claims.ExpiresAt, 0)
	a.mu.Unlock()
	return token, sess, nil
}

func (a *authenticator) end(ctx echo.Context) error {
	sessID, ok := ctx.Get(contextSessIDKey).(string)
	if !ok {
		return errUnauthorized
	}
	if err := a.manager(sessID).End(ctx.Request().Context()); err != nil {
		return err
	}
	a.mu.Lock()
	delete(a.expiries, sessID)
	a.mu.Unlock()
	return nil
}

// reap ends the sessions whose token expired before now and returns how many were removed.
func (a *authenticator) reap(ctx context.Context, now time.Time) (int, error) {
	a.mu.Lock()
	var expired []string
	for sessID, exp := range a.expiries {
		if !exp.After(now) {
			expired = append(expired, sessID)
		}
	}
	a.mu.Unlock()

	reaped := 0
	for _, sessID := range expired {
		if err := a.manager(sessID).End(ctx); err != nil {
			return reaped, errors.Wrapf(err, "reaping session %s", sessID)
		}
		a.mu.Lock()
		delete(a.expiries, sessID)
		a.mu.Unlock()
		reaped++
	}
	return reaped, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// sessionMiddleware resolves the token's session. Ended sessions are rejected even if the token has not expired.
func (a *authenticator) sessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return err
		}
		sess, err := a.manager(claims.Subject).Current(ctx.Request().Context())
		if err != nil {
			return errors.Wrap(err, "reading session")
		}
		if !sess.IsAuthenticated() {
			return errUnauthorized
		}
		ctx.Set(contextSessIDKey, claims.Subject)
		ctx.Set(contextSessionKey, sess)
		return next(ctx)
	}
}

// getContextSession returns the caller's session; Anonymous outside authed routes.
func getContextSession(ctx echo.Context) session.Context {
	if sess, ok := ctx.Get(contextSessionKey).(session.Context); ok {
		return sess
	}
	return session.Anonymous
}
