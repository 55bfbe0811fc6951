package fakebank

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"bankpro/internal/core"
)

type user struct {
	core.User
	passwordHash []byte
}

// AddUser seeds a user with a bcrypt-hashed password and returns it.
func (s *Server) AddUser(name, email, password string) core.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(fmt.Sprintf("fakebank: hash password: %v", err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u := &user{
		User:         core.User{ID: s.id(), Name: name, Email: email, KYCStatus: core.KYCPending},
		passwordHash: hash,
	}
	s.users[u.ID] = u
	return u.User
}

// Token issues a bearer token for userID, as POST /login would.
func (s *Server) Token(userID int64) string {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     s.now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		panic(fmt.Sprintf("fakebank: sign token: %v", err))
	}
	return signed
}

func (s *Server) parseToken(header string) (int64, error) {
	raw := strings.TrimPrefix(header, "Bearer ")
	if raw == "" || raw == header {
		return 0, errors.New("missing token")
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return 0, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, errors.New("invalid token claims")
	}
	id, ok := claims["user_id"].(float64)
	if !ok {
		return 0, errors.New("invalid token claims")
	}
	return int64(id), nil
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, err := s.parseToken(r.Header.Get("Authorization"))
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		s.mu.Lock()
		_, known := s.users[uid]
		s.mu.Unlock()
		if !known {
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), uid)))
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	var found *user
	for _, u := range s.users {
		if strings.EqualFold(u.Email, req.Email) {
			found = u
			break
		}
	}
	s.mu.Unlock()

	if found == nil || bcrypt.CompareHashAndPassword(found.passwordHash, []byte(req.Password)) != nil {
		writeDetail(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": s.Token(found.ID),
		"token_type":   "bearer",
		"user": map[string]any{
			"id":    found.ID,
			"name":  found.Name,
			"email": found.Email,
		},
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var reg core.Registration
	if !decode(w, r, &reg) {
		return
	}
	if err := reg.Validate(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.mu.Lock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, reg.Email) {
			s.mu.Unlock()
			writeDetail(w, http.StatusBadRequest, "Email already registered")
			return
		}
	}
	s.mu.Unlock()

	created := s.AddUser(reg.Name, reg.Email, reg.Password)

	s.mu.Lock()
	u := s.users[created.ID]
	u.Phone = reg.Phone
	if reg.KYCStatus != "" {
		u.KYCStatus = reg.KYCStatus
	}
	out := u.User
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if id != userFrom(r.Context()) {
		writeDetail(w, http.StatusForbidden, "Not authorized for this user")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u, found := s.users[id]
	if !found {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, u.User)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if id != userFrom(r.Context()) {
		writeDetail(w, http.StatusForbidden, "Not authorized for this user")
		return
	}
	var in core.User
	if !decode(w, r, &in) {
		return
	}
	if strings.TrimSpace(in.Email) == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "Email is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u, found := s.users[id]
	if !found {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	u.Email = in.Email
	u.Phone = in.Phone
	u.Address = in.Address
	if in.Name != "" {
		u.Name = in.Name
	}
	writeJSON(w, http.StatusOK, u.User)
}
