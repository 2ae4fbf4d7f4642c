package server

import (
	"log/slog"
	"net/http"
)

func handleAdminLogout(logger *slog.Logger, sessions SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(adminCookieName)
		if err == nil && cookie.Value != "" {
			if err := sessions.Delete(r.Context(), cookie.Value); err != nil {
				logger.Error("deleting admin session", "error", err)
			}
		}

		clearAdminCookie(w)
		writeOK(w)
	}
}
