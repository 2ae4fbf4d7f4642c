package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

const (
	adminCookieName = "admin_session"
	AdminSessionTTL = 7 * 24 * time.Hour
)

// SessionStore persists admin session ids. See internal/sessions for the
// memory, Redis and libSQL backends.
type SessionStore interface {
	Create(ctx context.Context) (string, error)
	Valid(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
}

// startAdminSession issues a session and sets its cookie. It writes the
// 500 itself and reports false when the store fails.
func startAdminSession(w http.ResponseWriter, r *http.Request, logger *slog.Logger, sessions SessionStore) bool {
	id, err := sessions.Create(r.Context())
	if err != nil {
		logger.Error("creating admin session", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return false
	}
	setAdminCookie(w, id)
	return true
}

func setAdminCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     adminCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(AdminSessionTTL / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearAdminCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     adminCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
