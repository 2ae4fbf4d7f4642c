package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/technomatra/missions/internal/missions"
)

func handleAdminData(logger *slog.Logger, svc *missions.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := svc.Snapshot(r.Context())
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, doc)
	}
}

type SaveTasksRequest struct {
	Tasks []missions.Task `json:"tasks"`
}

func handleAdminSaveTasks(logger *slog.Logger, svc *missions.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SaveTasksRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if err := svc.SaveTasks(r.Context(), req.Tasks); err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeOK(w)
	}
}

type ResetUserRequest struct {
	Username string `json:"username"`
}

func handleAdminResetUser(logger *slog.Logger, svc *missions.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ResetUserRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Username = strings.TrimSpace(req.Username)
		if req.Username == "" {
			writeError(w, http.StatusBadRequest, "username is required")
			return
		}

		if err := svc.ResetUser(r.Context(), req.Username); err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeOK(w)
	}
}

type DisqualificationRequest struct {
	Username     string `json:"username"`
	Disqualified bool   `json:"disqualified"`
}

func handleAdminDisqualification(logger *slog.Logger, svc *missions.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DisqualificationRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Username = strings.TrimSpace(req.Username)
		if req.Username == "" {
			writeError(w, http.StatusBadRequest, "username is required")
			return
		}

		if err := svc.SetDisqualified(r.Context(), req.Username, req.Disqualified); err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeOK(w)
	}
}
