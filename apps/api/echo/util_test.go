package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	echoapi "github.com/trezcool/rollcall/apps/api/echo"
	"github.com/trezcool/rollcall/apps/deps"
	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/storage/kv/memkv"
	"github.com/trezcool/rollcall/tests"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func testConfig() *core.Config {
	conf := &core.Config{
		Env:       "TEST",
		AppName:   "Rollcall",
		TestMode:  true,
		SecretKey: "secret",
		Seed:      testutil.Seeds,
	}
	conf.Server.SessionExpirationDelta = time.Hour
	return conf
}

// setup returns a server over a fresh memory store, seeded with the default users.
func setup(t *testing.T) (*echoapi.Server, *memkv.DB) {
	server, db, _ := setupWithSessions(t)
	return server, db
}

// setupWithSessions is setup that also returns the session store.
func setupWithSessions(t *testing.T) (*echoapi.Server, *memkv.DB, *memkv.DB) {
	conf := testConfig()
	sessions := memkv.Open()
	db := memkv.Open()
	c, err := deps.NewWithStore(context.Background(), conf, testutil.Logger(), db)
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:          conf,
		Logger:        c.Logger,
		UserSvc:       c.Users,
		AttendanceSvc: c.Attendance,
		Sessions:      sessions,
		Validate:      c.Validate,
		Translator:    c.Translator,
	})
	return server, db, sessions
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func login(t *testing.T, app http.Handler, uname, pwd string) string {
	req, rec := newRequest(http.MethodPost, "/v1/session/login", marchallObj(t, echoapi.LoginRequest{Username: uname, Password: pwd}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login(%s) failed: %d %s", uname, rec.Code, rec.Body.String())
	}
	var resp echoapi.LoginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("login(%s) failed: %v", uname, err)
	}
	return resp.Token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app http.Handler, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
