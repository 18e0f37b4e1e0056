package admin

import (
	"net/http"
	"time"

	"github.com/fauxsmith/fauxsmith/pkg/httputil"
)

func (a *API) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", a.handleHealth)

	mux.HandleFunc("POST /api/accounts/signup", a.handleSignup)
	mux.HandleFunc("POST /api/accounts/login", a.handleLogin)
	mux.HandleFunc("POST /api/accounts/logout", a.requireAccount(a.handleLogout))
	mux.HandleFunc("GET /api/accounts/me", a.requireAccount(a.handleMe))
	mux.HandleFunc("POST /api/accounts/forgot-password", a.handleForgotPassword)
	mux.HandleFunc("POST /api/accounts/reset-password", a.handleResetPassword)

	mux.HandleFunc("GET /api/mocks", a.requireAccount(a.handleListMocks))
	mux.HandleFunc("POST /api/mocks", a.requireAccount(a.handleCreateMock))
	mux.HandleFunc("GET /api/mocks/{id}", a.requireAccount(a.handleGetMock))
	mux.HandleFunc("PUT /api/mocks/{id}", a.requireAccount(a.handleUpdateMock))
	mux.HandleFunc("DELETE /api/mocks/{id}", a.requireAccount(a.handleDeleteMock))
	mux.HandleFunc("DELETE /api/mocks", a.requireAccount(a.handleDeleteAllMocks))

	mux.HandleFunc("GET /api/auth-endpoints", a.requireAccount(a.handleListAuthEndpoints))
	mux.HandleFunc("POST /api/auth-endpoints", a.requireAccount(a.handleCreateAuthEndpoint))
	mux.HandleFunc("GET /api/auth-endpoints/{id}", a.requireAccount(a.handleGetAuthEndpoint))
	mux.HandleFunc("PUT /api/auth-endpoints/{id}", a.requireAccount(a.handleUpdateAuthEndpoint))
	mux.HandleFunc("DELETE /api/auth-endpoints/{id}", a.requireAccount(a.handleDeleteAuthEndpoint))

	mux.HandleFunc("POST /api/import/openapi", a.requireAccount(a.handleImportOpenAPI))
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteOK(w, map[string]any{
		"status":  "ok",
		"version": a.version,
		"uptime":  time.Since(a.startTime).Round(time.Second).String(),
	}, "")
}
