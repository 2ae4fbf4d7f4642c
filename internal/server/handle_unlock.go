package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/technomatra/missions/internal/missions"
)

type UnlockRequest struct {
	Username string `json:"username"`
	TaskID   int    `json:"taskId"`
	Password string `json:"password"`
}

type UnlockResponse struct {
	Success bool `json:"success"`
	missions.UnlockResult
}

func handleUnlock(logger *slog.Logger, svc *missions.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UnlockRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Username = strings.TrimSpace(req.Username)
		if req.Username == "" {
			writeError(w, http.StatusBadRequest, "username is required")
			return
		}

		res, err := svc.UnlockTask(r.Context(), req.Username, req.TaskID, req.Password)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, UnlockResponse{Success: true, UnlockResult: res})
	}
}
