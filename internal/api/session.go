package api

// Session is the caller identity attached to every backend request. It is
// passed explicitly; the client keeps no ambient credentials.
type Session struct {
	Token  string
	UserID int64
	Name   string
	Email  string
}

// Anonymous is the zero session used for login, registration and health.
var Anonymous = Session{}

// Authenticated reports whether the session carries a bearer token.
func (s Session) Authenticated() bool {
	return s.Token != ""
}

// DisplayName prefers the user's name and falls back to the email.
func (s Session) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Email
}
