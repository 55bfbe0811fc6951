package http

import (
	"bufio"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankpro/internal/api"
	"bankpro/internal/core"
	"bankpro/internal/fakebank"
	"bankpro/internal/storage"
)

var testNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

type testApp struct {
	bank   *fakebank.Server
	server *Server
	ts     *httptest.Server
	user   core.User
	store  *storage.SessionStore
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	bank := fakebank.New(fakebank.WithClock(func() time.Time { return testNow }))
	backend := httptest.NewServer(bank)
	t.Cleanup(backend.Close)

	store, err := storage.Open(filepath.Join(t.TempDir(), "sessions.db"), time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	srv, err := NewServer(api.New(backend.URL), store, Options{
		RateLimitPerMinute: 1000,
		BadgePollInterval:  20 * time.Millisecond,
		Now:                func() time.Time { return testNow },
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)

	return &testApp{
		bank:   bank,
		server: srv,
		ts:     ts,
		user:   bank.AddUser("Asha Rao", "asha@example.in", "s3cret"),
		store:  store,
	}
}

func (a *testApp) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar, Timeout: 5 * time.Second}
}

// loggedIn returns a client holding a session cookie.
func (a *testApp) loggedIn(t *testing.T) *http.Client {
	t.Helper()
	c := a.client(t)
	resp, body := a.post(t, c, "/login", url.Values{"email": {"asha@example.in"}, "password": {"s3cret"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "/", resp.Request.URL.Path)
	require.Contains(t, body, "Welcome, Asha Rao")
	return c
}

func (a *testApp) get(t *testing.T, c *http.Client, path string) (*http.Response, string) {
	t.Helper()
	resp, err := c.Get(a.ts.URL + path)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func (a *testApp) post(t *testing.T, c *http.Client, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := c.PostForm(a.ts.URL+path, form)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestTemplatesParse(t *testing.T) {
	pages, err := parseTemplates()
	require.NoError(t, err)
	for _, name := range []string{"home", "accounts", "transactions", "analytics", "budget",
		"notifications", "rewards", "kyc", "profile", "login", "register"} {
		assert.Contains(t, pages, name)
	}
}

func TestHealthAndReady(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		resp, _ := app.get(t, c, path)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}

	app.bank.Fail("GET /health", http.StatusServiceUnavailable, "down")
	resp, _ := app.get(t, c, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestAnonymousRedirectsToLogin(t *testing.T) {
	app := newTestApp(t)
	resp, body := app.get(t, app.client(t), "/accounts")
	assert.Equal(t, "/login", resp.Request.URL.Path)
	assert.Contains(t, body, "Sign in")
}

func TestAnonymousBadgeIsUnauthorized(t *testing.T) {
	app := newTestApp(t)
	resp, _ := app.get(t, app.client(t), "/ui/badge")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSecurityHeaders(t *testing.T) {
	app := newTestApp(t)
	resp, _ := app.get(t, app.client(t), "/login")
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.Contains(t, resp.Header.Get("Content-Security-Policy"), "default-src 'self'")
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestSuspiciousRequestRejected(t *testing.T) {
	app := newTestApp(t)
	resp, _ := app.get(t, app.client(t), "/wp-admin/setup.php")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLoginFailureShowsInvalidCredentials(t *testing.T) {
	app := newTestApp(t)
	resp, body := app.post(t, app.client(t), "/login", url.Values{"email": {"asha@example.in"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "Invalid credentials")
}

func TestRegisterThenLogin(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)

	resp, body := app.post(t, c, "/register", url.Values{
		"name": {"Ravi"}, "email": {"ravi@example.in"}, "password": {"pw"}, "phone": {"98765"},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/login", resp.Request.URL.Path)
	assert.Contains(t, body, "Registration successful")

	resp, body = app.post(t, c, "/login", url.Values{"email": {"ravi@example.in"}, "password": {"pw"}})
	assert.Equal(t, "/", resp.Request.URL.Path)
	assert.Contains(t, body, "Welcome, Ravi")
}

func TestLogoutDropsSession(t *testing.T) {
	app := newTestApp(t)
	c := app.loggedIn(t)

	resp, _ := app.post(t, c, "/logout", nil)
	assert.Equal(t, "/login", resp.Request.URL.Path)

	resp, _ = app.get(t, c, "/")
	assert.Equal(t, "/login", resp.Request.URL.Path)
}

func TestAccountsPageAndAddAccount(t *testing.T) {
	app := newTestApp(t)
	app.bank.SeedAccount(app.user.ID, "HDFC", core.AccountSavings, "150000")
	c := app.loggedIn(t)

	_, body := app.get(t, c, "/accounts")
	assert.Contains(t, body, "HDFC")
	assert.Contains(t, body, "₹1,50,000.00")

	resp, body := app.post(t, c, "/accounts", url.Values{
		"bank_name": {"ICICI"}, "account_type": {"Current"}, "balance": {"2500.50"},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "ICICI")
	assert.Contains(t, body, "₹2,500.50")
	assert.Equal(t, 1, app.bank.Count("POST /accounts"))
}

func TestAddAccountValidationAndFailure(t *testing.T) {
	app := newTestApp(t)
	c := app.loggedIn(t)

	resp, body := app.post(t, c, "/accounts", url.Values{"bank_name": {""}, "account_type": {"Savings"}, "balance": {"10"}})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "Bank name is required")
	assert.Zero(t, app.bank.Count("POST /accounts"))

	app.bank.Fail("POST /accounts", http.StatusInternalServerError, "")
	resp, body = app.post(t, c, "/accounts", url.Values{"bank_name": {"SBI"}, "account_type": {"Savings"}, "balance": {"10"}})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "Error adding account")
}

func TestDuplicateSubmissionConflicts(t *testing.T) {
	app := newTestApp(t)
	c := app.loggedIn(t)
	form := url.Values{"bank_name": {"Axis"}, "account_type": {"Savings"}, "balance": {"1"}}

	release := app.bank.Hold("POST /accounts")
	var wg sync.WaitGroup
	var first int
	wg.Add(1)
	go func() {
		defer wg.Done()
		resp, err := c.PostForm(app.ts.URL+"/accounts", form)
		if err == nil {
			first = resp.StatusCode
			resp.Body.Close()
		}
	}()
	require.Eventually(t, func() bool { return app.bank.Count("POST /accounts") == 1 }, 2*time.Second, 5*time.Millisecond)

	resp, _ := app.post(t, c, "/accounts", form)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	release()
	wg.Wait()
	assert.Equal(t, http.StatusOK, first)
	assert.Equal(t, 1, app.bank.Count("POST /accounts"))
}

func TestTransferAcknowledged(t *testing.T) {
	app := newTestApp(t)
	app.bank.SeedAccount(app.user.ID, "HDFC", core.AccountSavings, "100")
	c := app.loggedIn(t)

	_, body := app.post(t, c, "/", url.Values{"account_type": {"Savings"}, "amount": {"250"}})
	assert.Contains(t, body, "Transferred ₹250.00 from Savings")
}

func TestTransactionsCategoryUpdate(t *testing.T) {
	app := newTestApp(t)
	acct := app.bank.SeedAccount(app.user.ID, "HDFC", core.AccountSavings, "100")
	txn := app.bank.SeedTransaction(acct.ID, "Swiggy order", "-450", "", testNow)
	c := app.loggedIn(t)

	_, body := app.get(t, c, "/transactions?selected="+itoa(txn.ID))
	assert.Contains(t, body, "Swiggy order")
	assert.Contains(t, body, "Update category")

	resp, body := app.post(t, c, "/transactions/"+itoa(txn.ID)+"/category", url.Values{
		"category": {"Food & Dining"}, "save_as_rule": {"on"},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Category updated successfully!")
	assert.Equal(t, 1, app.bank.Count("PUT /transactions/{id}/category"))
}

func TestRuleToggle(t *testing.T) {
	app := newTestApp(t)
	rule := app.bank.SeedRule(app.user.ID, "Transportation", "Uber")
	c := app.loggedIn(t)

	_, body := app.get(t, c, "/transactions")
	assert.Contains(t, body, "/rules/"+itoa(rule.ID)+"/toggle")
	assert.Contains(t, body, "Pause")

	resp, body := app.post(t, c, "/rules/"+itoa(rule.ID)+"/toggle", url.Values{})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Rule paused")
	assert.Contains(t, body, "Resume")
	assert.Equal(t, 1, app.bank.Count("PUT /categories/rules/{id}"))

	resp, body = app.post(t, c, "/rules/"+itoa(rule.ID)+"/toggle", url.Values{})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Rule resumed")
}

func TestBudgetCreate(t *testing.T) {
	app := newTestApp(t)
	c := app.loggedIn(t)

	resp, body := app.post(t, c, "/budget", url.Values{
		"category": {"Shopping"}, "limit_amount": {"5000"}, "month": {"2024-03"},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Shopping")
	assert.Contains(t, body, "₹5,000.00")

	resp, body = app.post(t, c, "/budget", url.Values{
		"category": {"Shopping"}, "limit_amount": {"abc"}, "month": {"2024-03"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "Please enter a valid amount")
}

func TestNotificationsAndBadge(t *testing.T) {
	app := newTestApp(t)
	a1 := app.bank.SeedAlert(app.user.ID, "Low balance", "Below ₹1,000", core.AlertWarning, false)
	app.bank.SeedAlert(app.user.ID, "Welcome", "Hello", core.AlertInfo, false)
	c := app.loggedIn(t)

	_, body := app.get(t, c, "/ui/badge")
	assert.Contains(t, body, `data-count="2"`)

	_, body = app.get(t, c, "/notifications")
	assert.Contains(t, body, "Low balance")
	assert.Contains(t, body, "Mark all as read")

	resp, _ := app.post(t, c, "/notifications/"+itoa(a1.ID)+"/read", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, body = app.get(t, c, "/ui/badge")
	assert.Contains(t, body, `data-count="1"`)

	app.post(t, c, "/notifications/read-all", nil)
	_, body = app.get(t, c, "/ui/badge")
	assert.Contains(t, body, `data-count="0"`)
}

// openBadgeStream opens the badge stream at base and returns the response
// with the first event and its data already read.
func openBadgeStream(t *testing.T, ctx context.Context, c *http.Client, base string) (resp *http.Response, event, data string) {
	t.Helper()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/ui/badge/stream", nil)
	require.NoError(t, err)
	resp, err = c.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	br := bufio.NewReader(resp.Body)
	for {
		line, err := br.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		if v, ok := strings.CutPrefix(line, "event: "); ok {
			event = v
		}
		if v, ok := strings.CutPrefix(line, "data: "); ok {
			return resp, event, v
		}
	}
}

func TestBadgeStreamSendsCount(t *testing.T) {
	app := newTestApp(t)
	app.bank.SeedAlert(app.user.ID, "Hi", "There", core.AlertInfo, false)
	c := app.loggedIn(t)
	c.Timeout = 0

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_, event, data := openBadgeStream(t, ctx, c, app.ts.URL)
	assert.Equal(t, "badge", event)
	assert.JSONEq(t, `{"count":1,"label":"1"}`, data)
}

func TestBadgeStreamStopsPollingWhenClientLeaves(t *testing.T) {
	app := newTestApp(t)
	app.bank.SeedAlert(app.user.ID, "Hi", "There", core.AlertInfo, false)
	c := app.loggedIn(t)
	c.Timeout = 0

	ctx, cancel := context.WithCancel(context.Background())
	resp, _, _ := openBadgeStream(t, ctx, c, app.ts.URL)

	// Let the poller tick a few times before leaving.
	require.Eventually(t, func() bool {
		return app.bank.Count("GET /alerts/unread-count") >= 3
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	resp.Body.Close()

	// Teardown finishes within a few poll intervals.
	time.Sleep(200 * time.Millisecond)
	before := app.bank.Count("GET /alerts/unread-count")
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, before, app.bank.Count("GET /alerts/unread-count"))
}

func TestShutdownEndsOpenBadgeStream(t *testing.T) {
	app := newTestApp(t)
	app.bank.SeedAlert(app.user.ID, "Hi", "There", core.AlertInfo, false)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	served := make(chan error, 1)
	go func() { served <- app.server.Serve(ln) }()
	base := "http://" + ln.Addr().String()

	// Cookies are not port scoped, so the login on app.ts carries over.
	c := app.loggedIn(t)
	c.Timeout = 0

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, _, data := openBadgeStream(t, ctx, c, base)
	assert.JSONEq(t, `{"count":1,"label":"1"}`, data)

	shutdownCtx, stop := context.WithTimeout(context.Background(), 2*time.Second)
	defer stop()
	start := time.Now()
	require.NoError(t, app.server.Shutdown(shutdownCtx))
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.ErrorIs(t, <-served, http.ErrServerClosed)

	// The stream body ends instead of hanging.
	_, err = io.Copy(io.Discard, resp.Body)
	assert.NoError(t, err)
}

func TestPagesRender(t *testing.T) {
	app := newTestApp(t)
	app.bank.SeedReward(app.user.ID, 1200, "Welcome bonus")
	c := app.loggedIn(t)

	cases := map[string]string{
		"/analytics?month=2024-02": "February 2024",
		"/rewards":                 "1,200",
		"/kyc":                     "Pending",
		"/profile":                 "asha@example.in",
		"/budget":                  "March 2024",
	}
	for path, want := range cases {
		resp, body := app.get(t, c, path)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Contains(t, body, want, path)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
