package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TooLazyToCreate/lap-counter/internal/model"
	"github.com/TooLazyToCreate/lap-counter/internal/repository"
	"github.com/TooLazyToCreate/lap-counter/internal/service"
	"github.com/TooLazyToCreate/lap-counter/internal/testutil"
)

var secret = []byte("app-secret")

type env struct {
	db      *sql.DB
	router  http.Handler
	users   repository.UserRepository
	runners repository.RunnerRepository
	laps    repository.LapRepository
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.OpenDB(t)
	logger := testutil.Logger(t)
	e := &env{
		db:      db,
		users:   repository.NewUserRepository(logger, db),
		runners: repository.NewRunnerRepository(logger, db),
		laps:    repository.NewLapRepository(logger, db),
	}
	cfg := testutil.Config(secret)
	cfg.Env = "DEV"
	e.router = NewRouter(logger, cfg, service.Repositories{
		Users:        e.users,
		AccessTokens: repository.NewAccessTokenRepository(logger, db),
		Runners:      e.runners,
		Laps:         e.laps,
	})
	return e
}

func (e *env) do(t *testing.T, method, target string, session []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if session != nil {
		req.AddCookie(&http.Cookie{Name: "lapcounter_session", Value: string(session)})
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *env) count(t *testing.T, table string) int {
	t.Helper()
	var n int
	require.NoError(t, e.db.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}

func (e *env) seedRunners(t *testing.T, numbers ...int64) {
	t.Helper()
	for _, n := range numbers {
		_, err := e.runners.Create(context.Background(), &model.Runner{Number: n, FirstName: "Vor", LastName: "Nach", Grade: "6c", House: "Red"})
		require.NoError(t, err)
	}
}

func session(t *testing.T, email string, role model.Role) []byte {
	return testutil.MintToken(t, secret, email, string(role), time.Hour)
}

func listedNumbers(t *testing.T, rec *httptest.ResponseRecorder) []int64 {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code)
	var payload struct {
		Data []model.RunnerWithLapCount `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	numbers := make([]int64, 0, len(payload.Data))
	for _, r := range payload.Data {
		numbers = append(numbers, r.Number)
	}
	return numbers
}

func TestHealth(t *testing.T) {
	rec := newEnv(t).do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestCreateAccessTokenWrongVerb(t *testing.T) {
	e := newEnv(t)
	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete, http.MethodPatch} {
		rec := e.do(t, method, "/api/accessTokens/create", nil)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, method)
		assert.Empty(t, rec.Body.String(), method)
	}
	assert.Zero(t, e.count(t, "access_tokens"))
}

func TestCreateAccessTokenDenied(t *testing.T) {
	e := newEnv(t)
	testutil.CreateUser(t, e.users, "helper@example.com", model.RoleHelper, "pw")

	cases := []struct {
		name    string
		session []byte
		status  int
	}{
		{"no session", nil, http.StatusUnauthorized},
		{"garbage", []byte("not-a-jwt"), http.StatusUnauthorized},
		{"foreign secret", testutil.MintToken(t, []byte("other"), "helper@example.com", "superadmin", time.Hour), http.StatusUnauthorized},
		{"expired", testutil.MintToken(t, secret, "helper@example.com", "superadmin", -time.Minute), http.StatusUnauthorized},
		{"helper", session(t, "helper@example.com", model.RoleHelper), http.StatusForbidden},
		{"unknown role", session(t, "helper@example.com", "runner"), http.StatusForbidden},
		{"superadmin without user", session(t, "ghost@example.com", model.RoleSuperadmin), http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := e.do(t, http.MethodPost, "/api/accessTokens/create", tc.session)
			assert.Equal(t, tc.status, rec.Code)
			assert.Zero(t, e.count(t, "access_tokens"))
		})
	}
}

func TestCreateAccessTokenOncePerUser(t *testing.T) {
	e := newEnv(t)
	admin := testutil.CreateUser(t, e.users, "admin@example.com", model.RoleSuperadmin, "pw")
	sess := session(t, admin.Email, model.RoleSuperadmin)

	rec := e.do(t, http.MethodPost, "/api/accessTokens/create", sess)
	require.Equal(t, http.StatusOK, rec.Code)

	var created struct {
		Data model.AccessTokenWithOwner `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.Data.UUID)
	assert.Equal(t, admin.UUID, created.Data.CreatedBy.UUID)
	assert.Equal(t, admin.Email, created.Data.CreatedBy.Email)
	assert.Equal(t, model.RoleSuperadmin, created.Data.CreatedBy.Role)

	rec = e.do(t, http.MethodPost, "/api/accessTokens/create", sess)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Access Token existiert bereits"}`, rec.Body.String())
	assert.Equal(t, 1, e.count(t, "access_tokens"))

	rec = e.do(t, http.MethodGet, "/api/accessTokens", sess)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), created.Data.UUID)
}

func TestRunnerRoutesDeniedWithoutMutation(t *testing.T) {
	e := newEnv(t)
	e.seedRunners(t, 1, 2)

	for _, sess := range [][]byte{nil, session(t, "x@example.com", "runner")} {
		for _, tc := range []struct{ method, target string }{
			{http.MethodGet, "/api/runners"},
			{http.MethodGet, "/api/runners/1"},
			{http.MethodDelete, "/api/runners/1"},
			{http.MethodPost, "/api/runners/1/laps"},
		} {
			rec := e.do(t, tc.method, tc.target, sess)
			if sess == nil {
				assert.Equal(t, http.StatusUnauthorized, rec.Code, tc.target)
			} else {
				assert.Equal(t, http.StatusForbidden, rec.Code, tc.target)
			}
		}
	}
	assert.Equal(t, 2, e.count(t, "runners"))
	assert.Zero(t, e.count(t, "laps"))
}

func TestRunnerListAndDelete(t *testing.T) {
	e := newEnv(t)
	e.seedRunners(t, 20, 1, 7)
	for i := 0; i < 3; i++ {
		_, err := e.laps.Create(context.Background(), 1)
		require.NoError(t, err)
	}
	helper := session(t, "helper@example.com", model.RoleHelper)

	rec := e.do(t, http.MethodGet, "/api/runners", helper)
	assert.Equal(t, []int64{1, 7, 20}, listedNumbers(t, rec))
	assert.Contains(t, rec.Body.String(), `"_count":{"laps":3}`)

	rec = e.do(t, http.MethodDelete, "/api/runners/99", helper)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, []int64{1, 7, 20}, listedNumbers(t, e.do(t, http.MethodGet, "/api/runners", helper)))

	rec = e.do(t, http.MethodDelete, "/api/runners/7", helper)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"number":7`)
	assert.Equal(t, []int64{1, 20}, listedNumbers(t, e.do(t, http.MethodGet, "/api/runners", helper)))

	admin := session(t, "admin@example.com", model.RoleSuperadmin)
	rec = e.do(t, http.MethodDelete, "/api/runners/1", admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, e.count(t, "laps"))
}

func TestCreateRunnerAndLap(t *testing.T) {
	e := newEnv(t)
	helper := session(t, "helper@example.com", model.RoleHelper)

	req := httptest.NewRequest(http.MethodPost, "/api/runners", strings.NewReader(`{"number":3,"firstName":"Lena","lastName":"Muster"}`))
	req.Header.Set("Authorization", "Bearer "+string(helper))
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/runners/3/laps", helper)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = e.do(t, http.MethodPost, "/api/runners/4/laps", helper)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/runners/3", helper)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"_count":{"laps":1}`)
}

func TestRunnerNumberBeyond32Bits(t *testing.T) {
	e := newEnv(t)
	e.seedRunners(t, 1<<31)
	helper := session(t, "helper@example.com", model.RoleHelper)

	rec := e.do(t, http.MethodGet, "/api/runners/2147483648", helper)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"number":2147483648`)

	rec = e.do(t, http.MethodGet, "/api/runners/4294967296", helper)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(t, http.MethodDelete, "/api/runners/2147483648", helper)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRunnersPage(t *testing.T) {
	e := newEnv(t)
	e.seedRunners(t, 2, 1)

	rec := e.do(t, http.MethodGet, "/runners", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Zugriff verweigert")
	assert.NotContains(t, rec.Body.String(), `data-number="1"`)

	rec = e.do(t, http.MethodGet, "/runners", session(t, "helper@example.com", model.RoleHelper))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Less(t, strings.Index(body, `<tr data-number="1"`), strings.Index(body, `<tr data-number="2"`))

	rec = e.do(t, http.MethodGet, "/static/runners.js", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginCookieOpensPage(t *testing.T) {
	e := newEnv(t)
	testutil.CreateUser(t, e.users, "helper@example.com", model.RoleHelper, "pw")
	srv := httptest.NewServer(e.router)
	defer srv.Close()

	res, err := http.Post(srv.URL+"/api/auth/login", "application/json",
		strings.NewReader(`{"email":"helper@example.com","password":"pw"}`))
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, res.Body)
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var cookie *http.Cookie
	for _, c := range res.Cookies() {
		if c.Name == "lapcounter_session" {
			cookie = c
		}
	}
	require.NotNil(t, cookie)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/runners", nil)
	require.NoError(t, err)
	req.AddCookie(cookie)
	page, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer page.Body.Close()
	assert.Equal(t, http.StatusOK, page.StatusCode)
}
