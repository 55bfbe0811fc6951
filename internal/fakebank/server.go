// Package fakebank is an in-memory stand-in for the banking REST backend.
// It speaks the same wire format, issues signed bearer tokens and records
// every request per route so tests can assert on what was sent.
package fakebank

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"bankpro/internal/core"
	"bankpro/internal/log"
)

type failure struct {
	status int
	detail string
}

// Server implements http.Handler. The zero value is not usable; use New.
type Server struct {
	mu     sync.Mutex
	secret []byte
	now    func() time.Time
	logger *log.Logger
	router chi.Router

	nextID       int64
	users        map[int64]*user
	accounts     []core.Account
	transactions []core.Transaction
	rules        []core.CategoryRule
	budgets      []core.Budget
	alerts       []core.Alert
	rewards      []core.Reward

	counts   map[string]int
	gates    map[string]chan struct{}
	failures map[string]failure
}

type Option func(*Server)

// WithClock overrides the time source used for created_at fields.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l.WithComponent(log.ComponentFakeBank) }
}

func New(opts ...Option) *Server {
	s := &Server{
		secret:   []byte("fakebank-signing-key"),
		now:      time.Now,
		logger:   log.Discard(),
		users:    make(map[int64]*user),
		counts:   make(map[string]int),
		gates:    make(map[string]chan struct{}),
		failures: make(map[string]failure),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(s.record)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/login", s.handleLogin)
	r.Post("/users", s.handleRegister)

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)

		r.Get("/users/{id}", s.handleGetUser)
		r.Put("/users/{id}", s.handleUpdateUser)

		r.Get("/accounts", s.handleListAccounts)
		r.Post("/accounts", s.handleCreateAccount)

		r.Get("/transactions", s.handleListTransactions)
		r.Put("/transactions/{id}/category", s.handleUpdateCategory)

		r.Get("/categories", s.handleListCategories)
		r.Get("/categories/rules", s.handleListRules)
		r.Post("/categories/rules", s.handleCreateRule)
		r.Put("/categories/rules/{id}", s.handleUpdateRule)
		r.Delete("/categories/rules/{id}", s.handleDeleteRule)

		r.Get("/budgets", s.handleListBudgets)
		r.Post("/budgets", s.handleCreateBudget)
		r.Put("/budgets/{id}", s.handleUpdateBudget)
		r.Delete("/budgets/{id}", s.handleDeleteBudget)

		r.Get("/insights/spending-by-category", s.handleSpendingByCategory)
		r.Get("/insights/summary", s.handleSummary)

		r.Get("/alerts", s.handleListAlerts)
		r.Get("/alerts/unread-count", s.handleUnreadCount)
		r.Patch("/alerts/read-all", s.handleMarkAllRead)
		r.Patch("/alerts/{id}", s.handleMarkRead)
		r.Delete("/alerts/{id}", s.handleDeleteAlert)

		r.Get("/rewards", s.handleListRewards)
	})
	return r
}

// record counts the request under "METHOD /pattern", then applies any
// injected failure or gate for that route.
func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + s.routePattern(r)

		s.mu.Lock()
		s.counts[key]++
		gate := s.gates[key]
		fail, failing := s.failures[key]
		s.mu.Unlock()

		s.logger.DebugContext(r.Context(), "Request", log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)

		if gate != nil {
			select {
			case <-gate:
			case <-r.Context().Done():
				return
			}
		}
		if failing {
			writeDetail(w, fail.status, fail.detail)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// routePattern resolves the chi pattern ahead of routing so middleware at
// the root can key on it.
func (s *Server) routePattern(r *http.Request) string {
	rctx := chi.NewRouteContext()
	if s.router != nil && s.router.Match(rctx, r.Method, r.URL.Path) {
		return rctx.RoutePattern()
	}
	return r.URL.Path
}

// Count returns how many requests hit route, e.g. "POST /accounts" or
// "PATCH /alerts/{id}".
func (s *Server) Count(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[route]
}

// Hold blocks requests on route until the returned release func is called.
func (s *Server) Hold(route string) (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.gates[route] = ch
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.gates, route)
			s.mu.Unlock()
			close(ch)
		})
	}
}

// Fail makes route answer status with the given detail. An empty detail
// yields a body without the detail field.
func (s *Server) Fail(route string, status int, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = failure{status: status, detail: detail}
}

// Recover undoes Fail.
func (s *Server) Recover(route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, route)
}

func (s *Server) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Server) timestamp() core.Timestamp {
	return core.Timestamp{Time: s.now().UTC().Truncate(time.Second)}
}

type ctxKey struct{}

func withUser(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func userFrom(ctx context.Context) int64 {
	id, _ := ctx.Value(ctxKey{}).(int64)
	return id
}

// scopedUser resolves the user a request acts for. A user_id query naming
// someone else is rejected.
func scopedUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	uid := userFrom(r.Context())
	if v := r.URL.Query().Get("user_id"); v != "" {
		q, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeDetail(w, http.StatusUnprocessableEntity, "user_id must be an integer")
			return 0, false
		}
		if q != uid {
			writeDetail(w, http.StatusForbidden, "Not authorized for this user")
			return 0, false
		}
	}
	return uid, true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "id must be an integer")
		return 0, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	if detail == "" {
		writeJSON(w, status, map[string]string{})
		return
	}
	writeJSON(w, status, map[string]string{"detail": detail})
}
