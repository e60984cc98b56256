package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/attendance"
	"github.com/trezcool/rollcall/core/user"
	"github.com/trezcool/rollcall/storage/kv"
)

type (
	ServerDeps struct {
		Conf          *core.Config
		Logger        core.Logger
		UserSvc       *user.Service
		AttendanceSvc *attendance.Service
		// Sessions holds the per session keys, namespaced by session id. Ephemeral by default.
		Sessions   kv.Store
		Validate   *validator.Validate
		Translator ut.Translator
	}

	Server struct {
		ServerDeps
		app      *echo.Echo
		auth     *authenticator
		errors   chan error
		shutdown chan os.Signal
		done     chan struct{}
	}
)

var _ http.Handler = (*Server)(nil)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		ServerDeps: deps,
		app:        echo.New(),
		auth:       newAuthenticator(deps.Conf, deps.Sessions),
		errors:     make(chan error, 1),
		shutdown:   make(chan os.Signal, 1),
		done:       make(chan struct{}),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.Conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(s.Conf.Debug || s.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.Logger, s.Translator, s.SignalShutdown)
	s.app.Debug = s.Conf.Debug

	s.app.GET("/", s.home)

	v1 := s.app.Group("/v1")
	authed := []echo.MiddlewareFunc{middleware.JWTWithConfig(s.auth.jwtConfig), s.auth.sessionMiddleware}

	registerSessionAPI(v1, authed, s.auth, s.UserSvc, s.Validate)
	registerAttendanceAPI(v1, authed, s.AttendanceSvc)
	registerUserAPI(v1, authed, s.UserSvc, s.Validate)
}

// Start listens on conf.Server.Host until the server is shut down. Listen errors are sent to Errors.
func (s *Server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	go s.reapSessions()
	if err := s.app.Start(s.Conf.Server.Host); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// SignalShutdown asks main to shut the server down gracefully.
func (s *Server) SignalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

// ReapExpiredSessions removes the sessions whose token expired before now.
func (s *Server) ReapExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	return s.auth.reap(ctx, now)
}

func (s *Server) reapSessions() {
	interval := s.Conf.Server.SessionExpirationDelta
	if interval <= 0 || interval > time.Hour {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			n, err := s.ReapExpiredSessions(context.Background(), now)
			if err != nil {
				s.Logger.Error("reaping sessions failed", err)
				continue
			}
			if n > 0 {
				s.Logger.Debug("expired sessions reaped", map[string]interface{}{"count": n})
			}
		}
	}
}

func (s *Server) stopReaper() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.stopReaper()
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	s.stopReaper()
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.Conf.AppName+" API!")
}
