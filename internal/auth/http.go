// ABOUTME: HTTP middleware for session authentication on API endpoints
// ABOUTME: Reads the session cookie (or bearer header), verifies it, and attaches AuthContext

package auth

import (
	"net/http"
	"strings"
)

// DefaultCookieName is the session cookie the platform sets at login.
const DefaultCookieName = "lk_session"

// extractToken pulls the session token from the named cookie, falling back
// to an Authorization bearer header for non-browser clients. Returns the
// token and an error message (empty if successful).
func extractToken(r *http.Request, cookieName string) (string, string) {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value, ""
	}
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", "missing session"
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", "invalid authorization header format"
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return "", "empty token"
	}
	return token, ""
}

// Middleware verifies the session on every request and attaches the
// AuthContext. Requests without a valid session get 401.
func Middleware(verifier TokenVerifier, cookieName string) func(http.Handler) http.Handler {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, errMsg := extractToken(r, cookieName)
			if errMsg != "" {
				writeAuthError(w, errMsg, http.StatusUnauthorized)
				return
			}

			userID, role, err := verifier.Verify(token)
			if err != nil {
				writeAuthError(w, "invalid session", http.StatusUnauthorized)
				return
			}

			authCtx := &AuthContext{UserID: userID, Role: role}
			next.ServeHTTP(w, r.WithContext(WithAuth(r.Context(), authCtx)))
		})
	}
}

// RequireAdmin rejects non-administrative sessions with 403. Must be used
// after Middleware.
func RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx := FromContext(r.Context())
			if authCtx == nil {
				writeAuthError(w, "not authenticated", http.StatusUnauthorized)
				return
			}
			if !authCtx.IsAdmin() {
				writeAuthError(w, "admin role required", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeAuthError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"success":false,"message":"` + msg + `"}`))
}
