package httpapi

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"portfolio-backend-go/internal/models"
	"portfolio-backend-go/internal/services"
	"portfolio-backend-go/internal/state"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const ctxUser contextKey = "user"

const (
	sessionCookie = "portfolio_admin"
	signInPath    = "/signin"
)

// shouldRedirectToSignIn is the gate decision: anything but the held session
// token is sent to the sign-in page.
func shouldRedirectToSignIn(auth state.Auth, token string) bool {
	if !auth.IsAuthenticated() || token == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(auth.Token), []byte(token)) != 1
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// authorize resolves the admin behind token. An expired token ends the held
// session.
func (s *Server) authorize(token string) (models.User, bool) {
	if shouldRedirectToSignIn(s.Store.State().Auth, token) {
		return models.User{}, false
	}
	parsed, claims, err := s.Tokens.ParseToken(token)
	if err != nil || !parsed.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			s.dispatch(state.Logout{})
		}
		return models.User{}, false
	}
	return services.UserFromClaims(claims)
}

// RequireSession lets a request through only for the signed-in admin.
func (s *Server) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.authorize(bearerToken(r))
		if !ok {
			redirectToSignIn(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), ctxUser, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func CurrentUser(r *http.Request) (models.User, bool) {
	user, ok := r.Context().Value(ctxUser).(models.User)
	return user, ok
}

func wantsHTML(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") && !strings.Contains(accept, "application/json")
}

func redirectToSignIn(w http.ResponseWriter, r *http.Request) {
	if wantsHTML(r) {
		target := signInPath + "?next=" + url.QueryEscape(r.URL.RequestURI())
		http.Redirect(w, r, target, http.StatusFound)
		return
	}
	WriteJSON(w, http.StatusUnauthorized, ErrorResponse{Message: "Authentication required", Redirect: signInPath})
}
