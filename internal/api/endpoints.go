package api

import (
	"context"
	"net/http"
	"strconv"

	"bankpro/internal/core"
)

type (
	// LoginResponse is the body of POST /login.
	LoginResponse struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type,omitempty"`
		User        struct {
			ID    int64  `json:"id"`
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"user"`
	}

	Health struct {
		Status string `json:"status"`
	}

	categoryUpdate struct {
		Category string `json:"category"`
	}

	alertPatch struct {
		IsRead bool `json:"is_read"`
	}

	unreadCount struct {
		UnreadCount int `json:"unread_count"`
	}

	loginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
)

// Session converts a login response into a request session.
func (r LoginResponse) Session() Session {
	return Session{Token: r.AccessToken, UserID: r.User.ID, Name: r.User.Name, Email: r.User.Email}
}

// Login exchanges credentials for a session. A 401 means the credentials
// were rejected.
func (c *Client) Login(ctx context.Context, email, password string) (Session, error) {
	var out LoginResponse
	if err := c.do(ctx, Anonymous, http.MethodPost, "/login", nil, loginRequest{Email: email, Password: password}, &out); err != nil {
		return Session{}, err
	}
	return out.Session(), nil
}

// Register creates a user.
func (c *Client) Register(ctx context.Context, reg core.Registration) (core.User, error) {
	var out core.User
	err := c.do(ctx, Anonymous, http.MethodPost, "/users", nil, reg, &out)
	return out, err
}

func (c *Client) GetUser(ctx context.Context, sess Session, id int64) (core.User, error) {
	var out core.User
	err := c.do(ctx, sess, http.MethodGet, idPath("/users", id), nil, nil, &out)
	return out, err
}

// UpdateUser replaces the profile wholesale.
func (c *Client) UpdateUser(ctx context.Context, sess Session, u core.User) (core.User, error) {
	var out core.User
	err := c.do(ctx, sess, http.MethodPut, idPath("/users", u.ID), nil, u, &out)
	return out, err
}

func (c *Client) ListAccounts(ctx context.Context, sess Session) ([]core.Account, error) {
	var out []core.Account
	err := c.do(ctx, sess, http.MethodGet, "/accounts", userQuery(sess), nil, &out)
	return out, err
}

func (c *Client) CreateAccount(ctx context.Context, sess Session, a core.NewAccount) (core.Account, error) {
	if a.UserID == 0 {
		a.UserID = sess.UserID
	}
	var out core.Account
	err := c.do(ctx, sess, http.MethodPost, "/accounts", nil, a, &out)
	return out, err
}

// ListTransactions lists the session's transactions, restricted to month when
// it is non-empty.
func (c *Client) ListTransactions(ctx context.Context, sess Session, month string) ([]core.Transaction, error) {
	q := userQuery(sess)
	if month != "" {
		q.Set("month", month)
	}
	var out []core.Transaction
	err := c.do(ctx, sess, http.MethodGet, "/transactions", q, nil, &out)
	return out, err
}

// UpdateTransactionCategory sets the category of one transaction and returns
// the updated row. With saveAsRule the backend also records a rule.
func (c *Client) UpdateTransactionCategory(ctx context.Context, sess Session, id int64, category string, saveAsRule bool) (core.Transaction, error) {
	q := userQuery(sess)
	q.Set("save_as_rule", strconv.FormatBool(saveAsRule))
	var out core.Transaction
	err := c.do(ctx, sess, http.MethodPut, idPath("/transactions", id)+"/category", q, categoryUpdate{Category: category}, &out)
	return out, err
}

// ListCategories returns the predefined category catalogue.
func (c *Client) ListCategories(ctx context.Context, sess Session) ([]core.Category, error) {
	var out []core.Category
	err := c.do(ctx, sess, http.MethodGet, "/categories", nil, nil, &out)
	return out, err
}

func (c *Client) ListRules(ctx context.Context, sess Session) ([]core.CategoryRule, error) {
	var out []core.CategoryRule
	err := c.do(ctx, sess, http.MethodGet, "/categories/rules", userQuery(sess), nil, &out)
	return out, err
}

func (c *Client) CreateRule(ctx context.Context, sess Session, r core.RuleInput) (core.CategoryRule, error) {
	var out core.CategoryRule
	err := c.do(ctx, sess, http.MethodPost, "/categories/rules", userQuery(sess), r, &out)
	return out, err
}

func (c *Client) UpdateRule(ctx context.Context, sess Session, id int64, r core.RuleInput) (core.CategoryRule, error) {
	var out core.CategoryRule
	err := c.do(ctx, sess, http.MethodPut, idPath("/categories/rules", id), nil, r, &out)
	return out, err
}

func (c *Client) DeleteRule(ctx context.Context, sess Session, id int64) error {
	return c.do(ctx, sess, http.MethodDelete, idPath("/categories/rules", id), nil, nil, nil)
}

func (c *Client) ListBudgets(ctx context.Context, sess Session, month string) ([]core.Budget, error) {
	q := userQuery(sess)
	if month != "" {
		q.Set("month", month)
	}
	var out []core.Budget
	err := c.do(ctx, sess, http.MethodGet, "/budgets", q, nil, &out)
	return out, err
}

func (c *Client) CreateBudget(ctx context.Context, sess Session, b core.BudgetInput) (core.Budget, error) {
	if b.UserID == 0 {
		b.UserID = sess.UserID
	}
	var out core.Budget
	err := c.do(ctx, sess, http.MethodPost, "/budgets", userQuery(sess), b, &out)
	return out, err
}

func (c *Client) UpdateBudget(ctx context.Context, sess Session, id int64, b core.BudgetInput) (core.Budget, error) {
	if b.UserID == 0 {
		b.UserID = sess.UserID
	}
	var out core.Budget
	err := c.do(ctx, sess, http.MethodPut, idPath("/budgets", id), userQuery(sess), b, &out)
	return out, err
}

func (c *Client) DeleteBudget(ctx context.Context, sess Session, id int64) error {
	return c.do(ctx, sess, http.MethodDelete, idPath("/budgets", id), userQuery(sess), nil, nil)
}

// SpendingByCategory returns expense totals per category, largest first.
func (c *Client) SpendingByCategory(ctx context.Context, sess Session, month string) ([]core.CategoryAmount, error) {
	q := userQuery(sess)
	if month != "" {
		q.Set("month", month)
	}
	var out []core.CategoryAmount
	err := c.do(ctx, sess, http.MethodGet, "/insights/spending-by-category", q, nil, &out)
	return out, err
}

func (c *Client) Summary(ctx context.Context, sess Session) (core.Summary, error) {
	var out core.Summary
	err := c.do(ctx, sess, http.MethodGet, "/insights/summary", userQuery(sess), nil, &out)
	return out, err
}

func (c *Client) ListAlerts(ctx context.Context, sess Session) ([]core.Alert, error) {
	var out []core.Alert
	err := c.do(ctx, sess, http.MethodGet, "/alerts", userQuery(sess), nil, &out)
	return out, err
}

// MarkAlertRead flags one alert as read and returns it.
func (c *Client) MarkAlertRead(ctx context.Context, sess Session, id int64) (core.Alert, error) {
	var out core.Alert
	err := c.do(ctx, sess, http.MethodPatch, idPath("/alerts", id), nil, alertPatch{IsRead: true}, &out)
	return out, err
}

func (c *Client) MarkAllAlertsRead(ctx context.Context, sess Session) error {
	return c.do(ctx, sess, http.MethodPatch, "/alerts/read-all", userQuery(sess), nil, nil)
}

func (c *Client) DeleteAlert(ctx context.Context, sess Session, id int64) error {
	return c.do(ctx, sess, http.MethodDelete, idPath("/alerts", id), nil, nil, nil)
}

// UnreadCount returns the number of unread alerts for the badge.
func (c *Client) UnreadCount(ctx context.Context, sess Session) (int, error) {
	var out unreadCount
	if err := c.do(ctx, sess, http.MethodGet, "/alerts/unread-count", userQuery(sess), nil, &out); err != nil {
		return 0, err
	}
	return out.UnreadCount, nil
}

func (c *Client) ListRewards(ctx context.Context, sess Session) ([]core.Reward, error) {
	var out []core.Reward
	err := c.do(ctx, sess, http.MethodGet, "/rewards", userQuery(sess), nil, &out)
	return out, err
}

func (c *Client) Health(ctx context.Context) (Health, error) {
	var out Health
	err := c.do(ctx, Anonymous, http.MethodGet, "/health", nil, nil, &out)
	return out, err
}
