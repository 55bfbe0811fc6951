package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"bankpro/internal/api"
	"bankpro/internal/log"
	"bankpro/internal/storage"
)

const sessionCookie = "bankpro_session"

// SessionStore is the part of storage.SessionStore the server uses.
type SessionStore interface {
	Create(ctx context.Context, sess api.Session) (string, error)
	Get(ctx context.Context, id string) (api.Session, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

type sessionKey struct{}

type sessionValue struct {
	sess api.Session
	id   string
}

func withSession(ctx context.Context, id string, sess api.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sessionValue{sess: sess, id: id})
}

// sessionFrom returns the request's session and its ID. Anonymous requests
// get the zero session and an empty ID.
func sessionFrom(ctx context.Context) (api.Session, string) {
	v, _ := ctx.Value(sessionKey{}).(sessionValue)
	return v.sess, v.id
}

// loadSession resolves the session cookie, if any. Unknown or expired
// cookies are cleared.
func (s *Server) loadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(sessionCookie)
		if err != nil || c.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		sess, err := s.sessions.Get(ctx, c.Value)
		switch {
		case err == nil:
			logger := log.FromContext(ctx).With(log.FieldUserID, sess.UserID)
			ctx = log.IntoContext(withSession(ctx, c.Value, sess), logger)
			r = r.WithContext(ctx)
		case errors.Is(err, storage.ErrSessionNotFound), errors.Is(err, storage.ErrSessionExpired):
			s.guards.Forget(c.Value)
			s.clearCookie(w)
		default:
			log.FromContext(ctx).ErrorContext(ctx, "Session lookup failed",
				log.FieldError, err, log.FieldOperation, log.OpRead)
		}
		next.ServeHTTP(w, r)
	})
}

// requireSession redirects anonymous page requests to the login page and
// answers 401 to the badge endpoints.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sess, _ := sessionFrom(r.Context()); !sess.Authenticated() {
			if isFragment(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isFragment(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/ui/")
}

func (s *Server) setCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
