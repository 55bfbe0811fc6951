// Package http serves the dashboard: server-rendered pages backed by the
// view-models, the badge endpoints and the health probes.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"bankpro/internal/api"
	"bankpro/internal/cache"
	"bankpro/internal/log"
	"bankpro/internal/middleware/ratelimit"
	"bankpro/internal/middleware/security"
	"bankpro/internal/middleware/trace"
	"bankpro/internal/poll"
	"bankpro/internal/view"
	appweb "bankpro/web"
)

// Options configures a Server.
type Options struct {
	Addr               string
	RateLimitPerMinute int
	BadgePollInterval  time.Duration
	CookieSecure       bool
	Logger             *log.Logger
	// Now overrides time.Now for page defaults such as the current month.
	Now func() time.Time
}

type Server struct {
	http.Server

	client   *api.Client
	sessions SessionStore
	guards   *view.Guards
	pages    map[string]*template.Template
	logger   *log.Logger
	opts     Options

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	sweeper  *cache.Manager

	// baseCtx ends when Shutdown starts; long-lived handlers watch it.
	baseCtx      context.Context
	stopStreams  context.CancelFunc
	shutdownOnce sync.Once
}

// NewServer wires the router. Templates are parsed eagerly; a broken template
// is a startup error.
func NewServer(client *api.Client, sessions SessionStore, opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.BadgePollInterval <= 0 {
		opts.BadgePollInterval = poll.DefaultInterval
	}

	pages, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	logger := opts.Logger.WithComponent(log.ComponentHTTP)
	s := &Server{
		client:   client,
		sessions: sessions,
		guards:   view.NewGuards(),
		pages:    pages,
		logger:   logger,
		opts:     opts,
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector: security.NewDetector(),
	}
	s.baseCtx, s.stopStreams = context.WithCancel(context.Background())
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)
	s.sweeper = cache.NewManager(logger)
	s.sweeper.Register(s.guards)
	s.sweeper.StartCleanup(10 * time.Minute)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
		// No WriteTimeout: the badge stream is long lived.
	}
	return s, nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.tracer.Middleware)
	r.Use(log.Middleware(s.logger))
	r.Use(log.RequestIDMiddleware(func(r *http.Request) string { return trace.GetRequestID(r.Context()) }))
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware)

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.With(security.StaticAssetMiddleware(3600)).Handle("/static/*", static)
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	r.Group(func(r chi.Router) {
		r.Use(security.NoStore)
		r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, http.MethodPost))
		r.Use(s.loadSession)

		r.Get("/login", s.handleLoginPage)
		r.Post("/login", s.handleLogin)
		r.Get("/register", s.handleRegisterPage)
		r.Post("/register", s.handleRegister)
		r.Post("/logout", s.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)

			r.Get("/", s.handleHome)
			r.Post("/", s.handleTransfer)

			r.Get("/accounts", s.handleAccounts)
			r.Post("/accounts", s.handleAddAccount)

			r.Get("/transactions", s.handleTransactions)
			r.Post("/transactions/{id}/category", s.handleUpdateCategory)
			r.Post("/rules", s.handleCreateRule)
			r.Post("/rules/{id}/toggle", s.handleToggleRule)
			r.Post("/rules/{id}/delete", s.handleDeleteRule)

			r.Get("/analytics", s.handleAnalytics)

			r.Get("/budget", s.handleBudget)
			r.Post("/budget", s.handleCreateBudget)
			r.Post("/budget/{id}", s.handleUpdateBudget)
			r.Post("/budget/{id}/delete", s.handleDeleteBudget)

			r.Get("/notifications", s.handleNotifications)
			r.Post("/notifications/read-all", s.handleMarkAllRead)
			r.Post("/notifications/{id}/read", s.handleMarkRead)
			r.Post("/notifications/{id}/delete", s.handleDeleteAlert)

			r.Get("/rewards", s.handleRewards)
			r.Get("/kyc", s.handleKYC)
			r.Get("/profile", s.handleProfile)
			r.Post("/profile", s.handleSaveProfile)

			r.Get("/ui/badge", s.handleBadge)
			r.Get("/ui/badge/stream", s.handleBadgeStream)
		})
	})
	return r
}

// Shutdown ends open badge streams and stops background helpers, then the
// HTTP server. http.Server.Shutdown does not cancel request contexts, so the
// streams are released first.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.stopStreams()
		s.sweeper.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// Guards exposes the in-flight guards, for tests.
func (s *Server) Guards() *view.Guards {
	return s.guards
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady checks the session database and the banking backend.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := s.sessions.Ping(ctx); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Readiness: session store unavailable", log.FieldError, err)
		http.Error(w, "session store unavailable", http.StatusServiceUnavailable)
		return
	}
	if _, err := s.client.Health(ctx); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Readiness: backend unavailable", log.FieldError, err)
		http.Error(w, "backend unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// env builds the per-request view environment.
func (s *Server) env(r *http.Request) view.Env {
	sess, id := sessionFrom(r.Context())
	return view.Env{
		Session:    sess,
		GuardOwner: id,
		Guards:     s.guards,
		Logger:     log.FromContext(r.Context()),
		Now:        s.opts.Now,
	}
}
