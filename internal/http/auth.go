package http

import (
	"context"
	"net/http"
	"time"
)

type contextKey string

const userIDKey contextKey = "user_id"

const sessionCookie = "session"

// withSession resolves the session cookie to a user id and stores it in the
// request context. Missing or stale sessions leave the request anonymous;
// endpoints that need a user enforce it via requireUser.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(sessionCookie); err == nil {
			if userID, err := s.accounts.Authenticate(r.Context(), cookie.Value); err == nil {
				ctx := context.WithValue(r.Context(), userIDKey, userID)
				r = r.WithContext(ctx)
			}
		}
		next.ServeHTTP(w, r)
	})
}

// userFrom returns the authenticated user id, 0 when anonymous.
func userFrom(ctx context.Context) int64 {
	if id, ok := ctx.Value(userIDKey).(int64); ok {
		return id
	}
	return 0
}

// requireUser writes a 401 and returns false when the request is anonymous.
func requireUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID := userFrom(r.Context())
	if userID <= 0 {
		respondJSON(w, http.StatusUnauthorized, errorBody{Error: "authentication required"})
		return 0, false
	}
	return userID, true
}

func setSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
