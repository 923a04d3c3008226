package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/koyif/billing/internal/config"
	"github.com/koyif/billing/internal/domain"
	"github.com/koyif/billing/internal/storage"
	"github.com/koyif/billing/pkg/dto"
)

var testNow = time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)

type client struct {
	t     *testing.T
	h     http.Handler
	token string
}

func (c *client) do(method, path, body string) *httptest.ResponseRecorder {
	c.t.Helper()
	r := httptest.NewRequest(method, path, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		r.Header.Set("Authorization", "Bearer "+c.token)
	}
	rec := httptest.NewRecorder()
	c.h.ServeHTTP(rec, r)
	return rec
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	ctx := context.Background()

	cfg := &config.Config{
		DatabaseDriver: storage.DriverSQLite,
		SQLitePath:     filepath.Join(t.TempDir(), "billing.db"),
		PrivateKey:     "test-key",
		TokenTTL:       time.Hour,
	}
	store, err := storage.OpenSQLite(ctx, cfg.SQLitePath)
	require.NoError(t, err)

	a := NewWithStore(cfg, store, func() time.Time { return testNow })
	a.Users.WithBcryptCost(bcrypt.MinCost)
	t.Cleanup(func() { _ = a.Close() })

	require.NoError(t, a.Migrate(ctx))
	require.NoError(t, a.Seed(ctx))
	return a
}

func TestBillingFlow(t *testing.T) {
	c := &client{t: t, h: newTestApp(t).Router()}

	rec := c.do(http.MethodPost, "/api/v1/register", `{"email":"student@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var tok dto.Token
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tok))
	require.NotEmpty(t, tok.Token)
	c.token = tok.Token

	rec = c.do(http.MethodGet, "/api/v1/users/current", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"email":"student@example.com","roles":["ROLE_USER"],"balance":"0.00"}`, rec.Body.String())

	rec = c.do(http.MethodPost, "/api/v1/courses/MATH101/pay", "")
	assert.Equal(t, http.StatusNotAcceptable, rec.Code)
	assert.JSONEq(t, `{"code":406,"message":"insufficient funds"}`, rec.Body.String())

	rec = c.do(http.MethodPost, "/api/v1/deposit", `{"amount": 150}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"balance":"150.00"}`, rec.Body.String())

	rec = c.do(http.MethodPost, "/api/v1/courses/MATH101/pay", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"course_type":"rent","expires_at":"2026-11-13T10:00:00+00:00"}`, rec.Body.String())

	rec = c.do(http.MethodPost, "/api/v1/courses/PHYS202/pay", "")
	assert.Equal(t, http.StatusNotAcceptable, rec.Code)

	rec = c.do(http.MethodPost, "/api/v1/courses/NOPE/pay", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"code":404,"message":"course not found"}`, rec.Body.String())

	rec = c.do(http.MethodPost, "/api/v1/deposit", `{"amount": -1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.do(http.MethodGet, "/api/v1/transactions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var history []dto.Transaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history, 2)
	assert.Equal(t, "payment", history[0].Type)
	assert.Equal(t, "-100.00", history[0].Amount)
	require.NotNil(t, history[0].CourseCode)
	assert.Equal(t, "MATH101", *history[0].CourseCode)
	assert.Equal(t, "deposit", history[1].Type)
	assert.Nil(t, history[1].CourseCode)
	assert.Greater(t, history[0].ID, history[1].ID)

	rec = c.do(http.MethodGet, "/api/v1/transactions?filter[type]=deposit", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history, 1)
	assert.Equal(t, "150.00", history[0].Amount)

	rec = c.do(http.MethodGet, "/api/v1/transactions?filter[course_code]=MATH101&filter[skip_expired]=1", "")
	history = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	assert.Len(t, history, 1)

	rec = c.do(http.MethodGet, "/api/v1/users/current", "")
	assert.JSONEq(t, `{"email":"student@example.com","roles":["ROLE_USER"],"balance":"50.00"}`, rec.Body.String())
}

func TestSeededAccountsAndCatalogue(t *testing.T) {
	c := &client{t: t, h: newTestApp(t).Router()}

	rec := c.do(http.MethodGet, "/api/v1/courses", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[
		{"code":"MATH101","type":"rent","price":"100.00"},
		{"code":"PHYS202","type":"buy"},
		{"code":"CHEM303","type":"rent","price":"150.50"},
		{"code":"BIO404","type":"buy"},
		{"code":"CS505","type":"rent","price":"200.00"}
	]`, rec.Body.String())

	rec = c.do(http.MethodPost, "/api/v1/auth", `{"email":"user1@example.com","password":"password"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var tok dto.Token
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tok))
	c.token = tok.Token

	rec = c.do(http.MethodGet, "/api/v1/users/current", "")
	assert.JSONEq(t, `{"email":"user1@example.com","roles":["ROLE_USER"],"balance":"249.50"}`, rec.Body.String())

	rec = c.do(http.MethodGet, "/api/v1/transactions?filter[type]=payment&filter[skip_expired]=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[
		{"id":3,"created_at":"2026-10-13T10:00:00+00:00","type":"payment","course_code":"CHEM303","amount":"-150.50"},
		{"id":2,"created_at":"2026-10-10T10:00:00+00:00","type":"payment","course_code":"MATH101","amount":"-100.00"}
	]`, rec.Body.String())

	rec = c.do(http.MethodPost, "/api/v1/courses/PHYS202/pay", "")
	assert.Equal(t, http.StatusNotAcceptable, rec.Code)

	rec = c.do(http.MethodPost, "/api/v1/auth", `{"email":"adminaa@example.com","password":"password"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tok))
	c.token = tok.Token

	rec = c.do(http.MethodGet, "/api/v1/users/current", "")
	assert.JSONEq(t, `{"email":"adminaa@example.com","roles":["ROLE_ADMIN"],"balance":"0.00"}`, rec.Body.String())
}

func TestSeedIsIdempotent(t *testing.T) {
	a := newTestApp(t)
	require.NoError(t, a.Seed(context.Background()))

	courses, err := a.Catalog.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, courses, 5)

	u, err := a.Store.UserByEmail(context.Background(), "user1@example.com")
	require.NoError(t, err)
	assert.Equal(t, "249.50", u.Balance.StringFixed(2))

	history, err := a.Transactions.ListForUser(context.Background(), u.ID, domain.TransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, history, 3)
}

func TestAuthErrors(t *testing.T) {
	c := &client{t: t, h: newTestApp(t).Router()}

	for _, path := range []string{"/api/v1/users/current", "/api/v1/transactions"} {
		rec := c.do(http.MethodGet, path, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"code":401,"message":"authentication required"}`, rec.Body.String())
	}

	rec := c.do(http.MethodPost, "/api/v1/auth", `{"email":"user1@example.com","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = c.do(http.MethodPost, "/api/v1/register", `{"email":"user1@example.com","password":"secret1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"errors":{"email":"User with this email already exists"}}`, rec.Body.String())

	rec = c.do(http.MethodPost, "/api/v1/register", `{"email":"bad","password":"1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"errors":{"email":"Invalid email format","password":"Password must be at least 6 characters"}}`, rec.Body.String())
}
