// Package serve implements the public mock engine: the unauthenticated
// surface that resolves stored mock definitions and runs the synthetic
// auth flows for mock consumers.
package serve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/fauxsmith/fauxsmith/internal/storage"
	"github.com/fauxsmith/fauxsmith/pkg/logging"
	"github.com/fauxsmith/fauxsmith/pkg/token"
)

// Stores bundles the read-side stores the engine resolves against, plus
// the mock user store the auth flows write to.
type Stores struct {
	Accounts    storage.AccountStore
	Definitions storage.DefinitionStore
	AuthDefs    storage.AuthDefinitionStore
	MockUsers   storage.MockUserStore
}

// Engine is the public mock server.
type Engine struct {
	stores     Stores
	issuer     *token.Issuer
	log        *slog.Logger
	httpServer *http.Server
	port       int
}

// Option is a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets the operational logger.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// New creates the public engine on the given port.
func New(port int, stores Stores, issuer *token.Issuer, opts ...Option) *Engine {
	e := &Engine{
		stores: stores,
		issuer: issuer,
		log:    logging.Nop(),
		port:   port,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Handler builds the engine's handler. Exposed for tests.
func (e *Engine) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /mocks/{owner}/{route...}", e.handleMock)
	mux.HandleFunc("POST /mock-auth/{endpoint}/signup/{owner}", e.handleSignup)
	mux.HandleFunc("POST /mock-auth/{endpoint}/login/{owner}", e.handleLogin)
	mux.HandleFunc("GET /mock-auth/{userId}", e.handleProfile)

	return e.recoverPanic(mux)
}

// Start begins serving. It returns once the listener is bound.
func (e *Engine) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", e.port))
	if err != nil {
		return fmt.Errorf("binding mock engine port %d: %w", e.port, err)
	}

	e.httpServer = &http.Server{
		Handler:           e.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		if err := e.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.log.Error("mock engine server stopped", "error", err)
		}
	}()

	e.log.Info("mock engine listening", "port", e.port)
	return nil
}

// Stop gracefully shuts the server down.
func (e *Engine) Stop(ctx context.Context) error {
	if e.httpServer == nil {
		return nil
	}
	return e.httpServer.Shutdown(ctx)
}

func (e *Engine) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				w.Header().Set("Connection", "close")
				e.log.Error("panic serving mock request", "path", r.URL.Path, "panic", rec)
				http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// ownerByHandle resolves the path's owner handle to an account ID.
func (e *Engine) ownerByHandle(handle string) (string, error) {
	acct, err := e.stores.Accounts.GetByHandle(handle)
	if err != nil {
		return "", err
	}
	return acct.ID, nil
}
