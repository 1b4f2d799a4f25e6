package delivery

import (
	"context"
	"errors"
	"net/http"

	"github.com/Vovarama1992/go-utils/logger"

	"github.com/Vovarama1992/voicecheck/internal/domain"
	"github.com/Vovarama1992/voicecheck/internal/models"
	"github.com/Vovarama1992/voicecheck/internal/ports"
)

const authHeader = "X-Auth"

type ctxKey int

const userKey ctxKey = iota

// LoadUser resolves the session token from the X-Auth header or the session
// cookie and stores the user in the request context. Anonymous requests pass
// through untouched.
func LoadUser(auth ports.AuthService, cookieName string, log *logger.ZapLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessionToken(r, cookieName)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := auth.CurrentUser(r.Context(), token)
			if err != nil && !errors.Is(err, domain.ErrInvalidToken) {
				log.Log(logger.LogEntry{
					Level:   "error",
					Message: "session lookup failed",
					Error:   err,
				})
			}
			if user != nil {
				r = r.WithContext(context.WithValue(r.Context(), userKey, user))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func sessionToken(r *http.Request, cookieName string) string {
	if token := r.Header.Get(authHeader); token != "" {
		return token
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return c.Value
	}
	return ""
}

// CurrentUser returns the user loaded by LoadUser or nil.
func CurrentUser(r *http.Request) *models.User {
	user, _ := r.Context().Value(userKey).(*models.User)
	return user
}
