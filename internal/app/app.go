// Package app wires all techtranslator subsystems into a running server.
//
// The App struct owns the full lifecycle: New builds the authenticator,
// translation service, MCP server and HTTP router; Run serves until the
// context is cancelled; Shutdown drains and tears everything down in order.
//
// For testing, inject doubles via functional options (WithMetrics,
// WithLogger, ...) and an in-memory provider through [Providers].
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	sdkauth "github.com/modelcontextprotocol/go-sdk/auth"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/techtranslator/internal/auth"
	"github.com/MrWong99/techtranslator/internal/config"
	"github.com/MrWong99/techtranslator/internal/explain"
	"github.com/MrWong99/techtranslator/internal/health"
	"github.com/MrWong99/techtranslator/internal/observe"
	"github.com/MrWong99/techtranslator/internal/toolserver"
	"github.com/MrWong99/techtranslator/pkg/provider/llm"
)

const (
	// shutdownTimeout bounds graceful shutdown after the run context ends.
	shutdownTimeout = 15 * time.Second

	readHeaderTimeout = 10 * time.Second

	// writeSlack is added to the translator timeout for the server write
	// deadline so a slow upstream still gets its full budget.
	writeSlack = 15 * time.Second
)

// Providers holds the configured upstream. Populated by main.go via the
// config registry.
type Providers struct {
	LLM llm.Provider

	// LLMName labels metrics and logs (e.g. "openrouter").
	LLMName string
}

// App owns all subsystem lifetimes.
type App struct {
	cfg       *config.Config
	providers *Providers

	version        string
	logger         *slog.Logger
	metrics        *observe.Metrics
	metricsHandler http.Handler

	// Subsystems, initialised in New.
	authn   *auth.Authenticator
	service *explain.Service
	handler http.Handler
	server  *http.Server

	draining atomic.Bool

	// closers are called in order during Shutdown, after the HTTP server has
	// stopped.
	closers []func(context.Context) error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
	stopErr  error
}

// Option is a functional option for New.
type Option func(*App)

// WithVersion sets the version announced to MCP clients.
func WithVersion(v string) Option {
	return func(a *App) { a.version = v }
}

// WithLogger sets the logger handed to the MCP SDK and the tools.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) { a.logger = l }
}

// WithMetrics records metrics on m instead of [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithMetricsHandler mounts h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(a *App) { a.metricsHandler = h }
}

// WithCloser registers fn to run during Shutdown (e.g. telemetry flush).
func WithCloser(fn func(context.Context) error) Option {
	return func(a *App) { a.closers = append(a.closers, fn) }
}

// ─── New ─────────────────────────────────────────────────────────────────────

// New creates an App from a validated config and the constructed providers.
func New(cfg *config.Config, providers *Providers, opts ...Option) (*App, error) {
	if providers == nil || providers.LLM == nil {
		return nil, errors.New("app: an LLM provider is required")
	}
	a := &App{
		cfg:       cfg,
		providers: providers,
	}
	for _, o := range opts {
		o(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	authn, err := auth.New(cfg.Auth.Token)
	if err != nil {
		return nil, fmt.Errorf("app: init auth: %w", err)
	}
	a.authn = authn

	a.service, err = explain.New(explain.Config{
		Timeout:       cfg.Translator.Timeout,
		MaxInputRunes: cfg.Translator.MaxInputRunes,
		Temperature:   cfg.Translator.Temperature,
		ProviderName:  providers.LLMName,
	}, authn, providers.LLM, explain.WithMetrics(a.metrics))
	if err != nil {
		return nil, fmt.Errorf("app: init translator: %w", err)
	}

	a.handler = a.routes()
	a.server = &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           a.handler,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      a.service.Timeout() + writeSlack,
		ErrorLog:          slog.NewLogLogger(a.logger.Handler(), slog.LevelWarn),
	}
	return a, nil
}

// routes builds the chi router: health checks and metrics are public, the MCP
// endpoint sits behind the bearer-token middleware.
func (a *App) routes() http.Handler {
	mcpServer := toolserver.New(a.service, toolserver.Options{
		Version:      a.version,
		CallerNumber: a.cfg.Auth.CallerNumber,
		Logger:       a.logger,
		Metrics:      a.metrics,
	})
	mcpHandler := toolserver.Handler(mcpServer, toolserver.HandlerOptions{
		Logger:       a.logger,
		BehindTunnel: a.cfg.Server.BehindTunnel,
	})
	requireToken := sdkauth.RequireBearerToken(a.authn.Verifier(a.cfg.Auth.ClientID), nil)

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(observe.Middleware(a.metrics))

	health.New(
		health.Drain(&a.draining),
		health.Checker{Name: "auth", Check: func(context.Context) error {
			// A secret made only of whitespace builds an authenticator that
			// no bearer header can ever satisfy.
			return a.authn.Check(a.cfg.Auth.Token)
		}},
	).Register(r)

	if a.metricsHandler != nil {
		r.Handle("/metrics", a.metricsHandler)
	}
	r.Handle(a.cfg.Server.MCPPath, requireToken(mcpHandler))
	return r
}

// Handler returns the root HTTP handler. Useful for tests.
func (a *App) Handler() http.Handler { return a.handler }

// ─── Run ─────────────────────────────────────────────────────────────────────

// Run listens on the configured address and serves until ctx is cancelled,
// then shuts down gracefully. It returns nil after a clean shutdown.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.Server.ListenAddr)
	if err != nil {
		return fmt.Errorf("app: listen %s: %w", a.cfg.Server.ListenAddr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve is Run on an existing listener. It takes ownership of ln.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("mcp server listening",
			"addr", ln.Addr().String(),
			"path", a.cfg.Server.MCPPath,
			"tls", a.tlsEnabled(),
		)
		var err error
		if a.tlsEnabled() {
			err = a.server.ServeTLS(ln, a.cfg.Server.TLS.CertFile, a.cfg.Server.TLS.KeyFile)
		} else {
			err = a.server.Serve(ln)
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("app: serve: %w", err)
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return a.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (a *App) tlsEnabled() bool {
	tls := a.cfg.Server.TLS
	return tls != nil && tls.CertFile != "" && tls.KeyFile != ""
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

// Shutdown marks the server as draining, stops accepting requests, waits for
// in-flight translations up to ctx's deadline and then runs the closers.
// It is safe to call more than once.
func (a *App) Shutdown(ctx context.Context) error {
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))
		a.draining.Store(true)

		var errs []error
		if err := a.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("app: http shutdown: %w", err))
		}
		for i, closer := range a.closers {
			if err := closer(ctx); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
				errs = append(errs, err)
			}
		}
		a.stopErr = errors.Join(errs...)
		slog.Info("shutdown complete")
	})
	return a.stopErr
}
