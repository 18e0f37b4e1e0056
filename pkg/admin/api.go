// Package admin exposes the authenticated authoring REST API: platform
// account management plus CRUD for mock definitions and mock auth
// schemas.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/fauxsmith/fauxsmith/internal/mailer"
	"github.com/fauxsmith/fauxsmith/internal/storage"
	"github.com/fauxsmith/fauxsmith/pkg/config"
	"github.com/fauxsmith/fauxsmith/pkg/logging"
	"github.com/fauxsmith/fauxsmith/pkg/token"
)

// Stores bundles the record stores the API operates on.
type Stores struct {
	Accounts    storage.AccountStore
	ResetTokens storage.ResetTokenStore
	Definitions storage.DefinitionStore
	AuthDefs    storage.AuthDefinitionStore
	MockUsers   storage.MockUserStore
}

// API is the authoring API server.
type API struct {
	stores     Stores
	issuer     *token.Issuer
	mailer     mailer.Mailer
	log        *slog.Logger
	cors       config.CORSConfig
	limiter    *rateLimiter
	httpServer *http.Server
	port       int
	startTime  time.Time
	version    string
}

// Option is a functional option for configuring the API.
type Option func(*API)

// WithLogger sets the operational logger.
func WithLogger(log *slog.Logger) Option {
	return func(a *API) {
		if log != nil {
			a.log = log
		}
	}
}

// WithMailer sets the transactional mailer used for welcome and
// password-reset email.
func WithMailer(m mailer.Mailer) Option {
	return func(a *API) { a.mailer = m }
}

// WithCORS sets the CORS configuration.
func WithCORS(cfg config.CORSConfig) Option {
	return func(a *API) { a.cors = cfg }
}

// WithRateLimit configures per-client-IP rate limiting.
func WithRateLimit(cfg config.RateConfig) Option {
	return func(a *API) {
		if a.limiter != nil {
			a.limiter.stop()
		}
		if cfg.Disabled {
			a.limiter = nil
			return
		}
		a.limiter = newRateLimiter(cfg.RPS, cfg.Burst)
	}
}

// WithVersion sets the version string reported by the health endpoint.
func WithVersion(v string) Option {
	return func(a *API) { a.version = v }
}

// New creates the authoring API on the given port.
func New(port int, stores Stores, issuer *token.Issuer, opts ...Option) *API {
	a := &API{
		stores:    stores,
		issuer:    issuer,
		log:       logging.Nop(),
		port:      port,
		limiter:   newRateLimiter(10, 20),
		version:   "dev",
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Handler builds the full middleware-wrapped handler. Exposed for tests.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	a.registerRoutes(mux)

	var handler http.Handler = mux
	handler = a.recoverPanic(handler)
	if a.limiter != nil {
		handler = a.limiter.middleware(handler)
	}
	handler = a.corsMiddleware(handler)
	handler = a.requestLogging(handler)
	return handler
}

// Start begins serving. It returns once the listener is bound.
func (a *API) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", a.port))
	if err != nil {
		return fmt.Errorf("binding authoring API port %d: %w", a.port, err)
	}

	a.httpServer = &http.Server{
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		if err := a.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("authoring API server stopped", "error", err)
		}
	}()

	a.log.Info("authoring API listening", "port", a.port)
	return nil
}

// Stop gracefully shuts the server down.
func (a *API) Stop(ctx context.Context) error {
	if a.limiter != nil {
		a.limiter.stop()
	}
	if a.httpServer == nil {
		return nil
	}
	return a.httpServer.Shutdown(ctx)
}
