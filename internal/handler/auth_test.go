package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YildirimDemir/social-platform/internal/authgate"
	"github.com/YildirimDemir/social-platform/internal/clients"
	"github.com/YildirimDemir/social-platform/internal/config"
	"github.com/YildirimDemir/social-platform/internal/crypto"
	"github.com/YildirimDemir/social-platform/internal/handler"
	"github.com/YildirimDemir/social-platform/internal/identity"
	"github.com/YildirimDemir/social-platform/internal/model"
	"github.com/YildirimDemir/social-platform/internal/repository"
	"github.com/YildirimDemir/social-platform/internal/router"
	"github.com/YildirimDemir/social-platform/internal/token"
	"github.com/YildirimDemir/social-platform/internal/verification"
)

const serviceToken = "internal-test-token"

type memAccounts struct {
	accounts map[uint64]model.Account
	nextID   uint64
}

func (m *memAccounts) find(match func(model.Account) bool) (model.Account, error) {
	for _, a := range m.accounts {
		if match(a) {
			return a, nil
		}
	}
	return model.Account{}, repository.ErrNotFound
}

func (m *memAccounts) GetByEmail(_ context.Context, email string) (model.Account, error) {
	return m.find(func(a model.Account) bool { return a.Email == email })
}

func (m *memAccounts) GetByUsername(_ context.Context, username string) (model.Account, error) {
	return m.find(func(a model.Account) bool { return a.Username == username })
}

func (m *memAccounts) GetByID(_ context.Context, id uint64) (model.Account, error) {
	return m.find(func(a model.Account) bool { return a.ID == id })
}

func (m *memAccounts) Create(_ context.Context, username, email, hash string, roles []model.Role) (model.Account, error) {
	if _, err := m.find(func(a model.Account) bool { return a.Email == email || a.Username == username }); err == nil {
		return model.Account{}, repository.ErrDuplicate
	}
	m.nextID++
	a := model.Account{ID: m.nextID, Username: username, Email: email, PasswordHash: hash, Roles: roles}
	m.accounts[a.ID] = a
	return a, nil
}

func (m *memAccounts) Delete(_ context.Context, id uint64) error {
	if _, ok := m.accounts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.accounts, id)
	return nil
}

type memRoles struct{}

func (memRoles) Resolve(_ context.Context, names []string) ([]model.Role, error) {
	if len(names) == 0 {
		return []model.Role{{ID: 1, Name: repository.DefaultRoleName}}, nil
	}
	roles := make([]model.Role, 0, len(names))
	for i, name := range names {
		roles = append(roles, model.Role{ID: uint64(i + 1), Name: strings.ToLower(name)})
	}
	return roles, nil
}

type nopEvents struct{}

func (nopEvents) PublishVerification(context.Context, string, string) error { return nil }

func (nopEvents) PublishWelcome(context.Context, string, string) error { return nil }

type testApp struct {
	e     *echo.Echo
	store *verification.MemoryStore
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	cfg := config.Config{
		Env:              "test",
		Port:             "0",
		JWTSecret:        "test-secret",
		JWTExpirationSec: 3600,
		BcryptCost:       4,
		CookieSecure:     true,
		CookieSameSite:   "strict",
		ServiceAuthToken: serviceToken,
	}
	store := verification.NewMemoryStore()
	svc := identity.NewService(
		&memAccounts{accounts: map[uint64]model.Account{}},
		memRoles{},
		store,
		token.NewService(cfg.JWTSecret, cfg.JWTExpirationSec),
		crypto.NewHasher(cfg.BcryptCost),
		nopEvents{},
	)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, svc), authgate.New(svc), cfg, nil)
	return &testApp{e: e, store: store}
}

func (a *testApp) do(t *testing.T, method, path, body string, mutate func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

// register walks the full verification flow and returns the login token.
func (a *testApp) register(t *testing.T, email, username, password string) string {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/v1/auth/send-verification", `{"email":"`+email+`"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	code, ok, err := a.store.Get(context.Background(), "verify:"+email)
	require.NoError(t, err)
	require.True(t, ok)

	rec = a.do(t, http.MethodPost, "/v1/auth/verify-email", `{"email":"`+email+`","code":"`+code+`"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(t, http.MethodPost, "/v1/auth/register",
		`{"username":"`+username+`","email":"`+email+`","password":"`+password+`","passwordConfirm":"`+password+`"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = a.do(t, http.MethodPost, "/v1/auth/login", `{"email":"`+email+`","password":"`+password+`"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotEmpty(t, out.AccessToken)
	return out.AccessToken
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	res := rec.Result()
	defer res.Body.Close()
	for _, c := range res.Cookies() {
		if c.Name == authgate.CookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", authgate.CookieName)
	return nil
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)
	rec := app.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestLoginSetsSessionCookie(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "a@example.com", "alice", "hunter22")

	rec := app.do(t, http.MethodPost, "/v1/auth/login", `{"email":"a@example.com","password":"hunter22"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	cookie := sessionCookie(t, rec)
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	assert.Equal(t, "/", cookie.Path)
	assert.WithinDuration(t, time.Now().Add(time.Hour), cookie.Expires, time.Minute)
}

func TestLogoutClearsSessionCookie(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/v1/auth/logout", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	cookie := sessionCookie(t, rec)
	assert.Empty(t, cookie.Value)
	assert.True(t, cookie.Expires.Before(time.Now().Add(-time.Hour)))
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "a@example.com", "alice", "hunter22")

	for _, body := range []string{
		`{"email":"a@example.com","password":"wrong"}`,
		`{"email":"nobody@example.com","password":"hunter22"}`,
	} {
		rec := app.do(t, http.MethodPost, "/v1/auth/login", body, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"unauthorized"}`, rec.Body.String())
	}
}

func TestRegisterWithoutVerificationFails(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/v1/auth/register",
		`{"username":"alice","email":"a@example.com","password":"hunter22","passwordConfirm":"hunter22"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "not verified")
}

func TestSendVerificationConflictForRegisteredEmail(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "a@example.com", "alice", "hunter22")

	rec := app.do(t, http.MethodPost, "/v1/auth/send-verification", `{"email":"a@example.com"}`, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestVerifyEmailWrongCode(t *testing.T) {
	app := newTestApp(t)
	rec := app.do(t, http.MethodPost, "/v1/auth/send-verification", `{"email":"a@example.com"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(t, http.MethodPost, "/v1/auth/verify-email", `{"email":"a@example.com","code":"000000"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMeRequiresSession(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/v1/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMeWithBearerToken(t *testing.T) {
	app := newTestApp(t)
	tok := app.register(t, "a@example.com", "alice", "hunter22")

	rec := app.do(t, http.MethodGet, "/v1/me", "", func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+tok)
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var account model.PublicAccount
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &account))
	assert.Equal(t, "alice", account.Username)
	assert.NotContains(t, strings.ToLower(rec.Body.String()), "password")
}

func TestMeWithCookie(t *testing.T) {
	app := newTestApp(t)
	tok := app.register(t, "a@example.com", "alice", "hunter22")

	rec := app.do(t, http.MethodGet, "/v1/me", "", func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: authgate.CookieName, Value: tok})
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDeleteMe(t *testing.T) {
	app := newTestApp(t)
	tok := app.register(t, "a@example.com", "alice", "hunter22")

	rec := app.do(t, http.MethodDelete, "/v1/me", "", func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+tok)
	})
	require.Equal(t, http.StatusOK, rec.Code)

	cookie := sessionCookie(t, rec)
	assert.Empty(t, cookie.Value)

	// Session is gone with the account.
	rec = app.do(t, http.MethodGet, "/v1/me", "", func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+tok)
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestInternalAuthenticate(t *testing.T) {
	app := newTestApp(t)
	tok := app.register(t, "a@example.com", "alice", "hunter22")

	// Without the service token the endpoint does not exist for callers.
	rec := app.do(t, http.MethodPost, "/internal/authenticate", `{"authentication":"`+tok+`"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.do(t, http.MethodPost, "/internal/authenticate", `{"authentication":"`+tok+`"}`, func(r *http.Request) {
		r.Header.Set(clients.ServiceTokenHeader, "wrong")
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = app.do(t, http.MethodPost, "/internal/authenticate", `{"authentication":"`+tok+`"}`, func(r *http.Request) {
		r.Header.Set(clients.ServiceTokenHeader, serviceToken)
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var account model.PublicAccount
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &account))
	assert.Equal(t, "alice", account.Username)

	rec = app.do(t, http.MethodPost, "/internal/authenticate", `{"authentication":"garbage"}`, func(r *http.Request) {
		r.Header.Set(clients.ServiceTokenHeader, serviceToken)
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
