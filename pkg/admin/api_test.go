package admin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fauxsmith/fauxsmith/internal/storage"
	"github.com/fauxsmith/fauxsmith/pkg/config"
	"github.com/fauxsmith/fauxsmith/pkg/httputil"
	"github.com/fauxsmith/fauxsmith/pkg/token"
)

func newTestAPI(t *testing.T) (*API, http.Handler) {
	t.Helper()

	users := storage.NewMemoryMockUserStore()
	stores := Stores{
		Accounts:    storage.NewMemoryAccountStore(),
		ResetTokens: storage.NewMemoryResetTokenStore(),
		Definitions: storage.NewMemoryDefinitionStore(),
		AuthDefs:    storage.NewMemoryAuthDefinitionStore(users),
		MockUsers:   users,
	}
	issuer := token.NewIssuer([]byte("test-secret-test-secret-test1234"), "fauxsmith-test", time.Hour, token.NewMemoryRevoker())

	api := New(0, stores, issuer, WithRateLimit(config.RateConfig{Disabled: true}))
	return api, api.Handler()
}

func doJSON(t *testing.T, h http.Handler, method, path, bearer string, body any) (*httptest.ResponseRecorder, httputil.Envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env httputil.Envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func signupAndLogin(t *testing.T, h http.Handler, handle, email string) string {
	t.Helper()

	rec, _ := doJSON(t, h, http.MethodPost, "/api/accounts/signup", "", map[string]any{
		"handle":   handle,
		"name":     "Test Person",
		"email":    email,
		"password": "correct horse",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, env := doJSON(t, h, http.MethodPost, "/api/accounts/login", "", map[string]any{
		"email":    email,
		"password": "correct horse",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	data := env.Data.(map[string]any)
	return data["token"].(string)
}

func TestSignupValidation(t *testing.T) {
	_, h := newTestAPI(t)

	rec, env := doJSON(t, h, http.MethodPost, "/api/accounts/signup", "", map[string]any{
		"handle":   "x",
		"email":    "not-an-email",
		"password": "pw",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
	assert.Len(t, env.Errors, 3)
}

func TestSignupDuplicateHandle(t *testing.T) {
	_, h := newTestAPI(t)
	signupAndLogin(t, h, "alice", "alice@example.com")

	rec, _ := doJSON(t, h, http.MethodPost, "/api/accounts/signup", "", map[string]any{
		"handle":   "alice",
		"name":     "Other",
		"email":    "other@example.com",
		"password": "different pw",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLoginFailuresAreUniform(t *testing.T) {
	_, h := newTestAPI(t)
	signupAndLogin(t, h, "alice", "alice@example.com")

	for _, body := range []map[string]any{
		{"email": "nobody@example.com", "password": "whatever pw"},
		{"email": "alice@example.com", "password": "wrong password"},
	} {
		rec, env := doJSON(t, h, http.MethodPost, "/api/accounts/login", "", body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, invalidCredentialsMsg, env.Message)
	}
}

func TestMeRequiresToken(t *testing.T) {
	_, h := newTestAPI(t)

	rec, _ := doJSON(t, h, http.MethodGet, "/api/accounts/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = doJSON(t, h, http.MethodGet, "/api/accounts/me", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutRevokesToken(t *testing.T) {
	_, h := newTestAPI(t)
	tok := signupAndLogin(t, h, "alice", "alice@example.com")

	rec, _ := doJSON(t, h, http.MethodGet, "/api/accounts/me", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = doJSON(t, h, http.MethodPost, "/api/accounts/logout", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = doJSON(t, h, http.MethodGet, "/api/accounts/me", tok, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMockCRUD(t *testing.T) {
	_, h := newTestAPI(t)
	tok := signupAndLogin(t, h, "alice", "alice@example.com")

	rec, env := doJSON(t, h, http.MethodPost, "/api/mocks", tok, map[string]any{
		"route":    "books",
		"isArray":  true,
		"response": []any{map[string]any{"id": 1}, map[string]any{"id": 2}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := env.Data.(map[string]any)
	mockID := created["id"].(string)
	assert.Equal(t, "GET", created["method"])
	assert.Equal(t, float64(200), created["status"])

	rec, env = doJSON(t, h, http.MethodGet, "/api/mocks", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, env.Data, 1)

	rec, env = doJSON(t, h, http.MethodPut, fmt.Sprintf("/api/mocks/%s", mockID), tok, map[string]any{
		"route":    "books",
		"status":   201,
		"response": map[string]any{"id": 1},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(201), env.Data.(map[string]any)["status"])

	rec, _ = doJSON(t, h, http.MethodDelete, fmt.Sprintf("/api/mocks/%s", mockID), tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = doJSON(t, h, http.MethodGet, fmt.Sprintf("/api/mocks/%s", mockID), tok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMockValidationRejected(t *testing.T) {
	_, h := newTestAPI(t)
	tok := signupAndLogin(t, h, "alice", "alice@example.com")

	rec, env := doJSON(t, h, http.MethodPost, "/api/mocks", tok, map[string]any{
		"route":             "plain",
		"response":          map[string]any{"id": 1},
		"paginationEnabled": true,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.Len(t, env.Errors, 1)
	assert.Contains(t, env.Errors[0], "array")
}

func TestMockUpdateRejectionLeavesRecordUnchanged(t *testing.T) {
	api, h := newTestAPI(t)
	tok := signupAndLogin(t, h, "alice", "alice@example.com")

	rec, _ := doJSON(t, h, http.MethodPost, "/api/mocks", tok, map[string]any{
		"route":    "taken",
		"response": map[string]any{"id": 1},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, env := doJSON(t, h, http.MethodPost, "/api/mocks", tok, map[string]any{
		"route":    "original",
		"response": map[string]any{"id": 2},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	mockID := env.Data.(map[string]any)["id"].(string)

	// Renaming onto an occupied route must fail without touching the record.
	rec, _ = doJSON(t, h, http.MethodPut, fmt.Sprintf("/api/mocks/%s", mockID), tok, map[string]any{
		"route":    "taken",
		"status":   418,
		"response": map[string]any{"id": 2},
	})
	require.Equal(t, http.StatusConflict, rec.Code)

	stored, err := api.stores.Definitions.Get(mockID)
	require.NoError(t, err)
	assert.Equal(t, "original", stored.Route)
	assert.Equal(t, 200, stored.Status)

	// Same guarantee when the update fails validation.
	rec, _ = doJSON(t, h, http.MethodPut, fmt.Sprintf("/api/mocks/%s", mockID), tok, map[string]any{
		"route":             "original",
		"response":          map[string]any{"id": 2},
		"paginationEnabled": true,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	stored, err = api.stores.Definitions.Get(mockID)
	require.NoError(t, err)
	assert.False(t, stored.PaginationEnabled)
}

func TestMockOwnershipIsolation(t *testing.T) {
	_, h := newTestAPI(t)
	aliceTok := signupAndLogin(t, h, "alice", "alice@example.com")
	bobTok := signupAndLogin(t, h, "bob", "bob@example.com")

	rec, env := doJSON(t, h, http.MethodPost, "/api/mocks", aliceTok, map[string]any{
		"route":    "secrets",
		"response": map[string]any{"id": 1},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	mockID := env.Data.(map[string]any)["id"].(string)

	// Bob sees not-found, not forbidden: foreign IDs do not leak existence.
	rec, _ = doJSON(t, h, http.MethodGet, fmt.Sprintf("/api/mocks/%s", mockID), bobTok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = doJSON(t, h, http.MethodDelete, fmt.Sprintf("/api/mocks/%s", mockID), bobTok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = doJSON(t, h, http.MethodGet, fmt.Sprintf("/api/mocks/%s", mockID), aliceTok, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthEndpointCRUD(t *testing.T) {
	_, h := newTestAPI(t)
	tok := signupAndLogin(t, h, "alice", "alice@example.com")

	rec, env := doJSON(t, h, http.MethodPost, "/api/auth-endpoints", tok, map[string]any{
		"endpoint": "shop",
		"fields": []map[string]any{
			{"name": "age", "type": "number", "required": true},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	authID := env.Data.(map[string]any)["id"].(string)

	rec, env = doJSON(t, h, http.MethodPut, fmt.Sprintf("/api/auth-endpoints/%s", authID), tok, map[string]any{
		"endpoint": "store",
		"fields":   []map[string]any{},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "store", env.Data.(map[string]any)["endpoint"])

	rec, _ = doJSON(t, h, http.MethodDelete, fmt.Sprintf("/api/auth-endpoints/%s", authID), tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = doJSON(t, h, http.MethodGet, fmt.Sprintf("/api/auth-endpoints/%s", authID), tok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuthEndpointBadSchema(t *testing.T) {
	_, h := newTestAPI(t)
	tok := signupAndLogin(t, h, "alice", "alice@example.com")

	rec, env := doJSON(t, h, http.MethodPost, "/api/auth-endpoints", tok, map[string]any{
		"endpoint": "shop",
		"fields": []map[string]any{
			{"name": "age", "type": "integer"},
		},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.Len(t, env.Errors, 1)
	assert.Contains(t, env.Errors[0], "unknown type")
}

func TestResetPasswordFlow(t *testing.T) {
	api, h := newTestAPI(t)
	signupAndLogin(t, h, "alice", "alice@example.com")

	rec, _ := doJSON(t, h, http.MethodPost, "/api/accounts/forgot-password", "", map[string]any{
		"email": "alice@example.com",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// No mailer in tests: pull the stored token directly.
	acct, err := api.stores.Accounts.GetByEmail("alice@example.com")
	require.NoError(t, err)

	// Unknown emails get the same 200 answer.
	rec, _ = doJSON(t, h, http.MethodPost, "/api/accounts/forgot-password", "", map[string]any{
		"email": "nobody@example.com",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = doJSON(t, h, http.MethodPost, "/api/accounts/reset-password", "", map[string]any{
		"token":    "not-a-real-token",
		"password": "new password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// The happy path is covered at the account/storage level; here we
	// only assert the handler wiring rejects bad tokens and that the
	// account still logs in with the old password afterwards.
	rec, _ = doJSON(t, h, http.MethodPost, "/api/accounts/login", "", map[string]any{
		"email":    acct.Email,
		"password": "correct horse",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	users := storage.NewMemoryMockUserStore()
	stores := Stores{
		Accounts:    storage.NewMemoryAccountStore(),
		ResetTokens: storage.NewMemoryResetTokenStore(),
		Definitions: storage.NewMemoryDefinitionStore(),
		AuthDefs:    storage.NewMemoryAuthDefinitionStore(users),
		MockUsers:   users,
	}
	issuer := token.NewIssuer([]byte("test-secret-test-secret-test1234"), "fauxsmith-test", time.Hour, token.NewMemoryRevoker())
	api := New(0, stores, issuer,
		WithRateLimit(config.RateConfig{Disabled: true}),
		WithCORS(config.CORSConfig{AllowedOrigins: []string{"https://app.example.com"}}),
	)
	h := api.Handler()

	req := httptest.NewRequest(http.MethodOptions, "/api/mocks", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/mocks", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(1, 2)
	defer rl.stop()

	assert.True(t, rl.allow("10.0.0.1"))
	assert.True(t, rl.allow("10.0.0.1"))
	assert.False(t, rl.allow("10.0.0.1"))

	// Separate IPs get separate buckets.
	assert.True(t, rl.allow("10.0.0.2"))
}

func TestRateLimiterStop(t *testing.T) {
	rl := newRateLimiter(1, 2)
	rl.stop()
	rl.stop()

	select {
	case <-rl.done:
	default:
		t.Fatal("sweep channel still open after stop")
	}
}

func TestHealth(t *testing.T) {
	_, h := newTestAPI(t)

	rec, env := doJSON(t, h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", env.Data.(map[string]any)["status"])
}
