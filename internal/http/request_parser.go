package http

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"bankpro/internal/view"
)

// maxFormBytes bounds every form body the dashboard accepts.
const maxFormBytes = 64 << 10

// parseForm reads a url-encoded form body of at most maxFormBytes.
func parseForm(w http.ResponseWriter, r *http.Request) (url.Values, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return nil, false
	}
	return r.PostForm, true
}

func field(form url.Values, key string) string {
	return sanitizeInput(form.Get(key))
}

// checkbox reports whether an HTML checkbox was ticked.
func checkbox(form url.Values, key string) bool {
	switch strings.ToLower(field(form, key)) {
	case "on", "true", "1", "yes":
		return true
	default:
		return false
	}
}

func ParseTransferForm(form url.Values) view.TransferForm {
	return view.TransferForm{
		AccountType: field(form, "account_type"),
		Amount:      field(form, "amount"),
	}
}

func ParseAccountForm(form url.Values) view.AccountForm {
	return view.AccountForm{
		BankName:    field(form, "bank_name"),
		AccountType: field(form, "account_type"),
		Balance:     field(form, "balance"),
	}
}

func ParseBudgetForm(form url.Values) view.BudgetForm {
	return view.BudgetForm{
		Category:    field(form, "category"),
		LimitAmount: field(form, "limit_amount"),
		Month:       field(form, "month"),
	}
}

func ParseProfileForm(form url.Values) view.ProfileForm {
	return view.ProfileForm{
		Email:   field(form, "email"),
		Phone:   field(form, "phone"),
		Address: field(form, "address"),
	}
}

// ParseRegisterForm keeps the password verbatim; everything else is sanitized.
func ParseRegisterForm(form url.Values) view.RegisterForm {
	return view.RegisterForm{
		Name:     field(form, "name"),
		Email:    field(form, "email"),
		Password: form.Get("password"),
		Phone:    field(form, "phone"),
	}
}

// ParseCategoryForm reads the transaction side panel.
func ParseCategoryForm(form url.Values) (category string, saveAsRule bool) {
	return field(form, "category"), checkbox(form, "save_as_rule")
}

// formID reads a positive integer form field.
func formID(form url.Values, key string) (int64, bool) {
	id, err := strconv.ParseInt(field(form, key), 10, 64)
	return id, err == nil && id > 0
}
