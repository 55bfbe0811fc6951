package http

import (
	"bytes"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"bankpro/internal/api"
	"bankpro/internal/core"
	"bankpro/internal/log"
	appweb "bankpro/web"
)

// navItem is a sidebar entry.
type navItem struct {
	Name, Href, Label string
}

var navItems = []navItem{
	{"home", "/", "Dashboard"},
	{"accounts", "/accounts", "Accounts"},
	{"transactions", "/transactions", "Transactions"},
	{"analytics", "/analytics", "Analytics"},
	{"budget", "/budget", "Budget"},
	{"notifications", "/notifications", "Notifications"},
	{"rewards", "/rewards", "Rewards"},
	{"kyc", "/kyc", "KYC"},
	{"profile", "/profile", "Profile"},
}

// pageData is what the layout receives. Page is the view-model.
type pageData struct {
	Active  string
	Session api.Session
	Nav     []navItem
	Page    any
}

var templateFuncs = template.FuncMap{
	"rupees":   formatRupees,
	"points":   formatPoints,
	"date":     func(ts core.Timestamp) string { return formatDate(ts.Time) },
	"time":     func(ts core.Timestamp) string { return formatTime(ts.Time) },
	"humanize": humanize,
	"badge":    core.BadgeLabel,
	"percent":  core.FormatPercent,
	"chart":    buildLineChart,
	"lower":    strings.ToLower,
}

// parseTemplates builds one template set per page: the shared layout plus the
// page's own definitions of "title" and "content".
func parseTemplates() (map[string]*template.Template, error) {
	base, err := template.New("layout.html").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/layout.html")
	if err != nil {
		return nil, err
	}

	files, err := fs.Glob(appweb.TemplatesFS, "templates/pages/*.html")
	if err != nil {
		return nil, err
	}

	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		t, err := template.Must(base.Clone()).ParseFS(appweb.TemplatesFS, file)
		if err != nil {
			return nil, err
		}
		pages[strings.TrimSuffix(path.Base(file), ".html")] = t
	}
	return pages, nil
}

// render executes the page into a buffer first so a template error never
// produces a half-written response.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, page any) {
	ctx := r.Context()
	t, ok := s.pages[name]
	if !ok {
		log.FromContext(ctx).ErrorContext(ctx, "Unknown template",
			log.FieldComponent, log.ComponentTemplate, log.FieldPage, name)
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}

	sess, _ := sessionFrom(ctx)
	data := pageData{Active: name, Session: sess, Nav: navItems, Page: page}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Template execution failed",
			log.FieldComponent, log.ComponentTemplate,
			log.FieldPage, name,
			log.FieldOperation, log.OpRender,
			log.FieldError, err)
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
