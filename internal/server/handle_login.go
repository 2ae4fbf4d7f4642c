package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/technomatra/missions/internal/missions"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Success  bool           `json:"success"`
	Role     missions.Role  `json:"role,omitempty"`
	UserData *missions.User `json:"userData,omitempty"`
	Message  string         `json:"message,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// handleLogin signs in an operative or the admin. An admin login also
// issues the admin session cookie.
func handleLogin(logger *slog.Logger, svc *missions.Service, sessions SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		res, err := svc.Login(r.Context(), req.Username, req.Password)
		if errors.Is(err, missions.ErrDisqualified) {
			writeJSON(w, http.StatusForbidden, LoginResponse{
				Success:  false,
				Role:     res.Role,
				UserData: res.User,
				Error:    http.StatusText(http.StatusForbidden),
				Message:  "you have been disqualified",
			})
			return
		}
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}

		if res.Role == missions.RoleAdmin && !startAdminSession(w, r, logger, sessions) {
			return
		}
		writeJSON(w, http.StatusOK, LoginResponse{
			Success:  true,
			Role:     res.Role,
			UserData: res.User,
		})
	}
}
