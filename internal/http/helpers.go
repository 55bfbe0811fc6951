package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var (
	indianPrinter = message.NewPrinter(language.MustParse("en-IN"))
	titleCaser    = cases.Title(language.English)
)

// formatRupees formats an amount with Indian digit grouping, e.g. "₹1,50,000.00".
func formatRupees(d decimal.Decimal) string {
	s := indianPrinter.Sprint(number.Decimal(d.Abs().Round(2).InexactFloat64(), number.Scale(2)))
	if d.IsNegative() {
		return "-₹" + s
	}
	return "₹" + s
}

// formatPoints groups a points total the same way.
func formatPoints(n int64) string {
	return indianPrinter.Sprint(number.Decimal(n))
}

// formatDate renders d/m/yyyy, the en-IN short date.
func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2/1/2006")
}

// formatTime renders h:mm:ss am/pm, the en-IN short time.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("3:04:05 pm")
}

// humanize turns a wire enum such as budget_exceeded into "Budget Exceeded".
func humanize(s string) string {
	return titleCaser.String(strings.ReplaceAll(s, "_", " "))
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// pathID parses the {id} route parameter.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}
