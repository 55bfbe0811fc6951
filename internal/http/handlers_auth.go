package http

import (
	"net/http"

	"bankpro/internal/log"
	"bankpro/internal/view"
)

// loginView adds the post-registration banner to the login page.
type loginView struct {
	*view.LoginPage
	Registered bool
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if sess, _ := sessionFrom(r.Context()); sess.Authenticated() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	p := view.NewLoginPage(s.client, s.env(r))
	s.render(w, r, http.StatusOK, "login", loginView{LoginPage: p, Registered: r.URL.Query().Get("registered") == "1"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	form, ok := parseForm(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	p := view.NewLoginPage(s.client, s.env(r))
	err := p.Submit(ctx, field(form, "email"), form.Get("password"))
	if !p.LoggedIn() {
		s.render(w, r, actionStatus(p, err), "login", loginView{LoginPage: p})
		return
	}

	id, err := s.sessions.Create(ctx, p.Result)
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Failed to persist session",
			log.FieldOperation, log.OpLogin, log.FieldError, err)
		http.Error(w, "Login failed", http.StatusInternalServerError)
		return
	}
	log.FromContext(ctx).InfoContext(ctx, "User logged in",
		log.FieldOperation, log.OpLogin, log.FieldUserID, p.Result.UserID)
	s.setCookie(w, id)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	p := view.NewRegisterPage(s.client, s.env(r))
	s.render(w, r, http.StatusOK, "register", p)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	form, ok := parseForm(w, r)
	if !ok {
		return
	}
	p := view.NewRegisterPage(s.client, s.env(r))
	err := p.Submit(r.Context(), ParseRegisterForm(form))
	if p.Registered {
		http.Redirect(w, r, "/login?registered=1", http.StatusSeeOther)
		return
	}
	s.render(w, r, actionStatus(p, err), "register", p)
}

// handleLogout drops the stored session and its guards.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, id := sessionFrom(ctx); id != "" {
		if err := s.sessions.Delete(ctx, id); err != nil {
			log.FromContext(ctx).WarnContext(ctx, "Failed to delete session",
				log.FieldOperation, log.OpLogout, log.FieldError, err)
		}
		s.guards.Forget(id)
	}
	s.clearCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
