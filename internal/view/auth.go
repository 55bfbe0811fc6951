package view

import (
	"context"
	"strings"

	"bankpro/internal/api"
	"bankpro/internal/core"
)

type LoginAPI interface {
	Login(ctx context.Context, email, password string) (api.Session, error)
}

type RegisterAPI interface {
	Register(ctx context.Context, reg core.Registration) (core.User, error)
}

// LoginPage exchanges credentials for a backend session. Its guard owner is
// the email being logged in, as there is no session yet.
type LoginPage struct {
	Page
	Email string
	// Result is set after a successful login.
	Result api.Session

	api LoginAPI
}

func NewLoginPage(c LoginAPI, env Env) *LoginPage {
	return &LoginPage{Page: newPage("login", env), api: c}
}

// LoggedIn reports whether the last Submit succeeded.
func (p *LoginPage) LoggedIn() bool {
	return p.Result.Authenticated()
}

func (p *LoginPage) Submit(ctx context.Context, email, password string) error {
	p.Email = strings.TrimSpace(email)
	p.env.GuardOwner = "login:" + strings.ToLower(p.Email)
	return p.guarded(ctx, FormLogin, func() {
		if p.Email == "" {
			p.invalid(FormLogin, core.ErrEmptyEmail)
			return
		}
		sess, err := p.api.Login(ctx, p.Email, password)
		if err != nil {
			p.logWrite(ctx, FormLogin, err)
			// Any rejection by the backend reads as bad credentials.
			if api.IsKind(err, api.KindStatus) {
				p.alert(NoticeError, "Invalid credentials")
			} else {
				p.alert(NoticeError, "Login failed")
			}
			return
		}
		p.Result = sess
	})
}

// RegisterForm is the raw registration form.
type RegisterForm struct {
	Name     string
	Email    string
	Password string
	Phone    string
}

type RegisterPage struct {
	Page
	Form       RegisterForm
	Registered bool

	api RegisterAPI
}

func NewRegisterPage(c RegisterAPI, env Env) *RegisterPage {
	return &RegisterPage{Page: newPage("register", env), api: c}
}

// Submit registers a new user with KYC status Pending.
func (p *RegisterPage) Submit(ctx context.Context, form RegisterForm) error {
	p.Form = RegisterForm{Name: form.Name, Email: strings.TrimSpace(form.Email), Phone: form.Phone}
	p.env.GuardOwner = "register:" + strings.ToLower(p.Form.Email)
	return p.guarded(ctx, FormRegister, func() {
		reg := core.Registration{
			Name:      strings.TrimSpace(form.Name),
			Email:     p.Form.Email,
			Password:  form.Password,
			Phone:     strings.TrimSpace(form.Phone),
			KYCStatus: core.KYCPending,
		}
		if err := reg.Validate(); err != nil {
			p.invalid(FormRegister, err)
			return
		}
		if _, err := p.api.Register(ctx, reg); err != nil {
			p.writeFailed(ctx, FormRegister, err, "Server error. Please try again.")
			return
		}
		p.Registered = true
		p.Form = RegisterForm{}
		p.alert(NoticeSuccess, "Registration successful")
	})
}
