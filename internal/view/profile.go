package view

import (
	"context"
	"strings"

	"bankpro/internal/api"
	"bankpro/internal/core"
)

type UserAPI interface {
	GetUser(ctx context.Context, sess api.Session, id int64) (core.User, error)
}

type ProfileAPI interface {
	UserAPI
	UpdateUser(ctx context.Context, sess api.Session, u core.User) (core.User, error)
}

// ProfileForm holds the editable profile fields.
type ProfileForm struct {
	Email   string
	Phone   string
	Address string
}

type ProfilePage struct {
	Page
	User core.User
	// Form is what the inputs show: the saved user, or the rejected edits.
	Form ProfileForm

	api ProfileAPI
}

func NewProfilePage(c ProfileAPI, env Env) *ProfilePage {
	return &ProfilePage{Page: newPage("profile", env), api: c}
}

func (p *ProfilePage) Load(ctx context.Context) {
	u, err := p.api.GetUser(ctx, p.Session, p.Session.UserID)
	if err != nil {
		p.readFailed(ctx, "GET /users/{id}", err)
		return
	}
	p.User = u
	p.Form = profileForm(u)
}

func profileForm(u core.User) ProfileForm {
	return ProfileForm{Email: u.Email, Phone: u.Phone, Address: u.Address}
}

// Save sends the whole user record with the edited fields applied.
func (p *ProfilePage) Save(ctx context.Context, form ProfileForm) error {
	return p.guarded(ctx, FormSaveProfile, func() {
		next := p.User
		next.ID = p.Session.UserID
		next.Email = strings.TrimSpace(form.Email)
		next.Phone = strings.TrimSpace(form.Phone)
		next.Address = strings.TrimSpace(form.Address)
		if next.Email == "" {
			p.Form = profileForm(next)
			p.invalid(FormSaveProfile, core.ErrEmptyEmail)
			return
		}

		saved, err := p.api.UpdateUser(ctx, p.Session, next)
		if err != nil {
			p.Form = profileForm(next)
			p.writeFailed(ctx, FormSaveProfile, err, "Failed to save changes")
			return
		}
		p.User = saved
		p.Form = profileForm(saved)
		p.alert(NoticeSuccess, "Changes saved successfully")
	})
}

type KYCPage struct {
	Page
	User core.User

	api UserAPI
}

func NewKYCPage(c UserAPI, env Env) *KYCPage {
	return &KYCPage{Page: newPage("kyc", env), api: c}
}

func (p *KYCPage) Load(ctx context.Context) {
	u, err := p.api.GetUser(ctx, p.Session, p.Session.UserID)
	if err != nil {
		p.readFailed(ctx, "GET /users/{id}", err)
		return
	}
	p.User = u
}

// Status is the user's KYC status, Pending when the backend has none.
func (p *KYCPage) Status() string {
	return core.KYCStatusOrDefault(p.User)
}

func (p *KYCPage) Verified() bool {
	return strings.EqualFold(p.Status(), "Verified")
}
