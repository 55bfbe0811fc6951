package http

import (
	"errors"
	"net/http"
	"strconv"

	"bankpro/internal/view"
)

type errorReporter interface {
	HasErrors() bool
}

// actionStatus maps an action's outcome to the response status. A dropped
// duplicate is a conflict; a page carrying error notices is unprocessable.
func actionStatus(page errorReporter, err error) int {
	switch {
	case errors.Is(err, view.ErrInFlight):
		return http.StatusConflict
	case page.HasErrors():
		return http.StatusUnprocessableEntity
	default:
		return http.StatusOK
	}
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	p := view.NewHomePage(s.client, s.env(r))
	p.Load(r.Context())
	s.render(w, r, http.StatusOK, "home", p)
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	form, ok := parseForm(w, r)
	if !ok {
		return
	}
	p := view.NewHomePage(s.client, s.env(r))
	p.Load(r.Context())
	err := p.SubmitTransfer(r.Context(), ParseTransferForm(form))
	s.render(w, r, actionStatus(p, err), "home", p)
}

func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request) {
	p := view.NewAccountsPage(s.client, s.env(r))
	p.ShowForm = r.URL.Query().Get("new") == "1"
	p.Load(r.Context())
	s.render(w, r, http.StatusOK, "accounts", p)
}

func (s *Server) handleAddAccount(w http.ResponseWriter, r *http.Request) {
	form, ok := parseForm(w, r)
	if !ok {
		return
	}
	p := view.NewAccountsPage(s.client, s.env(r))
	p.Load(r.Context())
	err := p.AddAccount(r.Context(), ParseAccountForm(form))
	s.render(w, r, actionStatus(p, err), "accounts", p)
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	p := view.NewTransactionsPage(s.client, s.env(r))
	p.Load(r.Context())
	if id, err := strconv.ParseInt(r.URL.Query().Get("selected"), 10, 64); err == nil {
		p.Select(id)
	}
	s.render(w, r, http.StatusOK, "transactions", p)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	form, ok := parseForm(w, r)
	if !ok {
		return
	}
	category, saveAsRule := ParseCategoryForm(form)

	p := view.NewTransactionsPage(s.client, s.env(r))
	p.Load(r.Context())
	err := p.UpdateCategory(r.Context(), id, category, saveAsRule)
	s.render(w, r, actionStatus(p, err), "transactions", p)
}

func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	form, ok := parseForm(w, r)
	if !ok {
		return
	}
	txnID, ok := formID(form, "transaction_id")
	if !ok {
		http.Error(w, "Invalid transaction", http.StatusBadRequest)
		return
	}
	category, _ := ParseCategoryForm(form)

	p := view.NewTransactionsPage(s.client, s.env(r))
	p.Load(r.Context())
	err := p.CreateRule(r.Context(), txnID, category)
	s.render(w, r, actionStatus(p, err), "transactions", p)
}

func (s *Server) handleToggleRule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	p := view.NewTransactionsPage(s.client, s.env(r))
	p.Load(r.Context())
	err := p.ToggleRule(r.Context(), id)
	s.render(w, r, actionStatus(p, err), "transactions", p)
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	p := view.NewTransactionsPage(s.client, s.env(r))
	p.Load(r.Context())
	err := p.DeleteRule(r.Context(), id)
	s.render(w, r, actionStatus(p, err), "transactions", p)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	p := view.NewAnalyticsPage(s.client, s.env(r), "")
	month := r.URL.Query().Get("month")
	if month == "" {
		p.Load(r.Context())
	} else if err := p.SelectMonth(r.Context(), month); err != nil {
		p.Load(r.Context())
	}
	s.render(w, r, http.StatusOK, "analytics", p)
}

func (s *Server) handleBudget(w http.ResponseWriter, r *http.Request) {
	p := view.NewBudgetPage(s.client, s.env(r), r.URL.Query().Get("month"))
	p.Load(r.Context())
	s.render(w, r, http.StatusOK, "budget", p)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	form, ok := parseForm(w, r)
	if !ok {
		return
	}
	in := ParseBudgetForm(form)
	p := view.NewBudgetPage(s.client, s.env(r), in.Month)
	p.Load(r.Context())
	err := p.CreateBudget(r.Context(), in)
	s.render(w, r, actionStatus(p, err), "budget", p)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	form, ok := parseForm(w, r)
	if !ok {
		return
	}
	in := ParseBudgetForm(form)
	p := view.NewBudgetPage(s.client, s.env(r), in.Month)
	p.Load(r.Context())
	err := p.UpdateBudget(r.Context(), id, in)
	s.render(w, r, actionStatus(p, err), "budget", p)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	form, ok := parseForm(w, r)
	if !ok {
		return
	}
	p := view.NewBudgetPage(s.client, s.env(r), field(form, "month"))
	p.Load(r.Context())
	err := p.DeleteBudget(r.Context(), id)
	s.render(w, r, actionStatus(p, err), "budget", p)
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	p := view.NewNotificationsPage(s.client, s.env(r))
	p.Load(r.Context())
	s.render(w, r, http.StatusOK, "notifications", p)
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	p := view.NewNotificationsPage(s.client, s.env(r))
	p.Load(r.Context())
	err := p.MarkRead(r.Context(), id)
	s.render(w, r, actionStatus(p, err), "notifications", p)
}

func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	p := view.NewNotificationsPage(s.client, s.env(r))
	p.Load(r.Context())
	err := p.MarkAllRead(r.Context())
	s.render(w, r, actionStatus(p, err), "notifications", p)
}

func (s *Server) handleDeleteAlert(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	p := view.NewNotificationsPage(s.client, s.env(r))
	p.Load(r.Context())
	err := p.Delete(r.Context(), id)
	s.render(w, r, actionStatus(p, err), "notifications", p)
}

func (s *Server) handleRewards(w http.ResponseWriter, r *http.Request) {
	p := view.NewRewardsPage(s.client, s.env(r))
	p.Load(r.Context())
	s.render(w, r, http.StatusOK, "rewards", p)
}

func (s *Server) handleKYC(w http.ResponseWriter, r *http.Request) {
	p := view.NewKYCPage(s.client, s.env(r))
	p.Load(r.Context())
	s.render(w, r, http.StatusOK, "kyc", p)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	p := view.NewProfilePage(s.client, s.env(r))
	p.Load(r.Context())
	s.render(w, r, http.StatusOK, "profile", p)
}

func (s *Server) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	form, ok := parseForm(w, r)
	if !ok {
		return
	}
	p := view.NewProfilePage(s.client, s.env(r))
	p.Load(r.Context())
	err := p.Save(r.Context(), ParseProfileForm(form))
	s.render(w, r, actionStatus(p, err), "profile", p)
}
