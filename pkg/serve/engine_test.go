package serve

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

	"github.com/fauxsmith/fauxsmith/internal/id"
	"github.com/fauxsmith/fauxsmith/internal/storage"
	"github.com/fauxsmith/fauxsmith/pkg/account"
	"github.com/fauxsmith/fauxsmith/pkg/httputil"
	"github.com/fauxsmith/fauxsmith/pkg/mockauth"
	"github.com/fauxsmith/fauxsmith/pkg/mockdef"
	"github.com/fauxsmith/fauxsmith/pkg/token"
)

type fixture struct {
	engine  *Engine
	handler http.Handler
	ownerID string
	stores  Stores
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	users := storage.NewMemoryMockUserStore()
	stores := Stores{
		Accounts:    storage.NewMemoryAccountStore(),
		Definitions: storage.NewMemoryDefinitionStore(),
		AuthDefs:    storage.NewMemoryAuthDefinitionStore(users),
		MockUsers:   users,
	}

	acct := &account.Account{ID: id.New(), Handle: "alice", Name: "Alice", Email: "alice@example.com"}
	require.NoError(t, stores.Accounts.Create(acct))

	issuer := token.NewIssuer([]byte("test-secret-test-secret-test1234"), "fauxsmith-test", time.Hour, token.NewMemoryRevoker())
	engine := New(0, stores, issuer)

	return &fixture{
		engine:  engine,
		handler: engine.Handler(),
		ownerID: acct.ID,
		stores:  stores,
	}
}

func (f *fixture) addMock(t *testing.T, p mockdef.Params) *mockdef.Definition {
	t.Helper()
	def, err := mockdef.New(id.New, f.ownerID, p)
	require.NoError(t, err)
	require.NoError(t, f.stores.Definitions.Create(def))
	return def
}

func (f *fixture) get(t *testing.T, path string) (*httptest.ResponseRecorder, any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	var body any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func (f *fixture) postJSON(t *testing.T, path, bearer string, payload any) (*httptest.ResponseRecorder, httputil.Envelope) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(payload))
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	var env httputil.Envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestMockFilterReturnsSingleElement(t *testing.T) {
	f := newFixture(t)
	f.addMock(t, mockdef.Params{
		Route:         "books",
		IsArray:       true,
		FilterEnabled: true,
		Response:      []any{map[string]any{"id": float64(1)}, map[string]any{"id": float64(2)}},
	})

	rec, body := f.get(t, "/mocks/alice/books?id=2")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"id": float64(2)}, body)
}

func TestMockFilterNoMatchReturnsNull(t *testing.T) {
	f := newFixture(t)
	f.addMock(t, mockdef.Params{
		Route:         "books",
		IsArray:       true,
		FilterEnabled: true,
		Response:      []any{map[string]any{"id": float64(1)}},
	})

	rec, body := f.get(t, "/mocks/alice/books?id=99")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, body)
}

func TestMockPagination(t *testing.T) {
	f := newFixture(t)
	f.addMock(t, mockdef.Params{
		Route:             "books",
		IsArray:           true,
		PaginationEnabled: true,
		DefaultLimit:      1,
		Response: []any{
			map[string]any{"id": float64(1)},
			map[string]any{"id": float64(2)},
			map[string]any{"id": float64(3)},
		},
	})

	rec, body := f.get(t, "/mocks/alice/books?page=2&limit=1&offset=1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{map[string]any{"id": float64(2)}}, body)

	rec, body = f.get(t, "/mocks/alice/books?offset=50")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{}, body)
}

func TestMockSimulatedError(t *testing.T) {
	f := newFixture(t)
	f.addMock(t, mockdef.Params{
		Route:    "flaky",
		Status:   503,
		Error:    true,
		Response: map[string]any{"id": float64(1)},
	})

	rec, body := f.get(t, "/mocks/alice/flaky?id=1&limit=5")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, map[string]any{"error": true, "message": "simulated error"}, body)
}

func TestMockPassthrough(t *testing.T) {
	f := newFixture(t)
	payload := map[string]any{"greeting": "hello"}
	f.addMock(t, mockdef.Params{Route: "hello", Response: payload})

	rec, body := f.get(t, "/mocks/alice/hello?unknown=param")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, payload, body)
}

func TestMockNestedRoute(t *testing.T) {
	f := newFixture(t)
	f.addMock(t, mockdef.Params{Route: "shop/orders", Response: []any{}, IsArray: true})

	rec, _ := f.get(t, "/mocks/alice/shop/orders")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMockUnknownOwnerAndRoute(t *testing.T) {
	f := newFixture(t)
	f.addMock(t, mockdef.Params{Route: "books", Response: map[string]any{}})

	rec, _ := f.get(t, "/mocks/nobody/books")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = f.get(t, "/mocks/alice/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func addAuthEndpoint(t *testing.T, f *fixture, fields []mockauth.Field) *mockauth.Definition {
	t.Helper()
	def := &mockauth.Definition{
		ID:       id.New(),
		OwnerID:  f.ownerID,
		Endpoint: "shop",
		Fields:   fields,
	}
	require.NoError(t, f.stores.AuthDefs.Create(def))
	return def
}

func TestSignupValidationAccumulates(t *testing.T) {
	f := newFixture(t)
	addAuthEndpoint(t, f, []mockauth.Field{
		{Name: "email", Type: mockauth.TypeString, Required: true},
		{Name: "age", Type: mockauth.TypeNumber, Required: false},
	})

	// The string "30" does not satisfy a number field.
	rec, env := f.postJSON(t, "/mock-auth/shop/signup/alice", "", map[string]any{
		"email":    "a@b.com",
		"password": "hunter2",
		"age":      "30",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, "age must be a number", env.Errors[0])
}

func TestSignupMissingCredentials(t *testing.T) {
	f := newFixture(t)
	addAuthEndpoint(t, f, nil)

	rec, env := f.postJSON(t, "/mock-auth/shop/signup/alice", "", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.Errors, "email is required")
	assert.Contains(t, env.Errors, "password is required")
}

func TestSignupLoginProfileFlow(t *testing.T) {
	f := newFixture(t)
	addAuthEndpoint(t, f, []mockauth.Field{
		{Name: "age", Type: mockauth.TypeNumber, Required: true},
	})

	rec, env := f.postJSON(t, "/mock-auth/shop/signup/alice", "", map[string]any{
		"email":    "user@example.com",
		"password": "hunter2",
		"age":      float64(30),
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	data := env.Data.(map[string]any)
	require.NotEmpty(t, data["token"])

	user := data["user"].(map[string]any)
	userID := user["id"].(string)
	_, hasPassword := user["data"].(map[string]any)["password"]
	assert.False(t, hasPassword, "signup response must not echo the password")

	// Duplicate email under the same endpoint conflicts.
	rec, _ = f.postJSON(t, "/mock-auth/shop/signup/alice", "", map[string]any{
		"email":    "user@example.com",
		"password": "other",
		"age":      float64(40),
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, env = f.postJSON(t, "/mock-auth/shop/login/alice", "", map[string]any{
		"email":    "user@example.com",
		"password": "hunter2",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	tok := env.Data.(map[string]any)["token"].(string)

	// Wrong password and unknown email share one failure message.
	rec, env = f.postJSON(t, "/mock-auth/shop/login/alice", "", map[string]any{
		"email":    "user@example.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, authFailureMsg, env.Message)

	rec, env = f.postJSON(t, "/mock-auth/shop/login/alice", "", map[string]any{
		"email":    "nobody@example.com",
		"password": "hunter2",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, authFailureMsg, env.Message)

	// Profile: requires the user's own token, strips the password.
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/mock-auth/%s", userID), nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	recorder := httptest.NewRecorder()
	f.handler.ServeHTTP(recorder, req)
	require.Equal(t, http.StatusOK, recorder.Code)

	var profileEnv httputil.Envelope
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &profileEnv))
	profile := profileEnv.Data.(map[string]any)
	assert.Equal(t, "user@example.com", profile["email"])
	_, hasPassword = profile["data"].(map[string]any)["password"]
	assert.False(t, hasPassword)

	// A token for another user is rejected.
	req = httptest.NewRequest(http.MethodGet, "/mock-auth/some-other-user", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	recorder = httptest.NewRecorder()
	f.handler.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	// No token at all is rejected.
	req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/mock-auth/%s", userID), nil)
	recorder = httptest.NewRecorder()
	f.handler.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestSignupUnknownEndpoint(t *testing.T) {
	f := newFixture(t)

	rec, _ := f.postJSON(t, "/mock-auth/nothere/signup/alice", "", map[string]any{
		"email":    "a@b.com",
		"password": "pw",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
