package httpapi

import (
	"net/http"
	"strings"
	"time"

	"portfolio-backend-go/internal/models"
	"portfolio-backend-go/internal/state"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SessionResponse struct {
	Authenticated bool         `json:"authenticated"`
	User          *models.User `json:"user,omitempty"`
	Token         string       `json:"token,omitempty"`
	ExpiresAt     int64        `json:"expiresAt,omitempty"`
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)
	if s.logins.Blocked(ip) {
		WriteError(w, http.StatusTooManyRequests, "Too many failed attempts. Please try again later.")
		return
	}
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		WriteError(w, http.StatusBadRequest, "Email and password are required")
		return
	}
	session, err := s.Accounts.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		s.logins.Fail(ip)
		writeServiceError(w, err)
		return
	}
	s.logins.Reset(ip)

	expires := time.Now().Add(s.Tokens.AccessTTL)
	if _, claims, err := s.Tokens.ParseToken(session.Token); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			expires = exp.Time
		}
	}
	s.dispatch(state.SetCredentials{User: session.User, Token: session.Token})
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    session.Token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	user := session.User
	WriteJSON(w, http.StatusOK, SessionResponse{
		Authenticated: true,
		User:          &user,
		Token:         session.Token,
		ExpiresAt:     expires.Unix(),
	})
}

func (s *Server) Session(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authorize(bearerToken(r))
	if !ok {
		WriteJSON(w, http.StatusOK, SessionResponse{Authenticated: false})
		return
	}
	WriteJSON(w, http.StatusOK, SessionResponse{Authenticated: true, User: &user})
}

func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	s.dispatch(state.Logout{})
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
