package echoapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/rollcall/apps/api/echo"
	"github.com/trezcool/rollcall/core/session"
	"github.com/trezcool/rollcall/core/user"
)

func TestSessionLogin(t *testing.T) {
	app, _ := setup(t)

	tests := []httpTest{
		{
			name:     "missing fields",
			method:   http.MethodPost,
			path:     "/v1/session/login",
			body:     []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"username":"this field is required","password":"this field is required"}`),
		},
		{
			name:     "wrong password",
			method:   http.MethodPost,
			path:     "/v1/session/login",
			body:     []byte(`{"username":"admin","password":"teacher123"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "invalid username or password"}),
		},
		{
			name:     "unknown user",
			method:   http.MethodPost,
			path:     "/v1/session/login",
			body:     []byte(`{"username":"ghost","password":"admin123"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "invalid username or password"}),
		},
		{
			name:     "no token",
			method:   http.MethodGet,
			path:     "/v1/session",
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "bad token",
			method:   http.MethodGet,
			path:     "/v1/session",
			token:    "not.a.jwt",
			wantCode: http.StatusUnauthorized,
		},
	}
	runHTTPTests(t, app, tests)

	t.Run("success", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/session/login", []byte(`{"username":" Teacher ","password":"teacher123"}`))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp echoapi.LoginResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, session.Context{Role: user.RoleTeacher, DisplayName: "Ms. Smith"}, resp.Session)
	})
}

func TestSessionLifecycle(t *testing.T) {
	app, _ := setup(t)
	token := login(t, app, "admin", "admin123")
	other := login(t, app, "teacher", "teacher123")

	runHTTPTests(t, app, []httpTest{
		{
			name:     "current",
			method:   http.MethodGet,
			path:     "/v1/session",
			token:    token,
			wantCode: http.StatusOK,
			wantData: []byte(`{"role":"admin","name":"System Admin"}`),
		},
		{
			name:     "logout",
			method:   http.MethodPost,
			path:     "/v1/session/logout",
			token:    token,
			wantCode: http.StatusOK,
			wantData: []byte(`{"success":"You have been logged out."}`),
		},
		{
			name:     "token of an ended session",
			method:   http.MethodGet,
			path:     "/v1/session",
			token:    token,
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, httpErr{Error: "user not authenticated"}),
		},
		{
			name:     "other sessions are kept",
			method:   http.MethodGet,
			path:     "/v1/session",
			token:    other,
			wantCode: http.StatusOK,
			wantData: []byte(`{"role":"teacher","name":"Ms. Smith"}`),
		},
	})
}

func TestReapExpiredSessions(t *testing.T) {
	app, _, sessions := setupWithSessions(t)
	ctx := context.Background()

	adminToken := login(t, app, "admin", "admin123")
	teacherToken := login(t, app, "teacher", "teacher123")
	require.Len(t, sessions.Keys(), 6)

	req, rec := newAuthRequest(http.MethodPost, "/v1/session/logout", teacherToken)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, sessions.Keys(), 3)

	n, err := app.ReapExpiredSessions(ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, n, "live sessions are kept")
	assert.Len(t, sessions.Keys(), 3)

	n, err = app.ReapExpiredSessions(ctx, time.Now().Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Empty(t, sessions.Keys())

	req, rec = newAuthRequest(http.MethodGet, "/v1/session", adminToken)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
