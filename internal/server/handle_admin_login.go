package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/technomatra/missions/internal/missions"
)

// AdminLoginRequest is the request body for POST /api/admin/login.
type AdminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func handleAdminLogin(logger *slog.Logger, svc *missions.Service, sessions SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AdminLoginRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		req.Username = strings.TrimSpace(req.Username)
		if req.Username == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "username and password are required")
			return
		}

		if err := svc.AdminLogin(req.Username, req.Password); err != nil {
			writeServiceError(w, logger, err)
			return
		}

		if !startAdminSession(w, r, logger, sessions) {
			return
		}
		writeJSON(w, http.StatusOK, LoginResponse{Success: true, Role: missions.RoleAdmin})
	}
}
