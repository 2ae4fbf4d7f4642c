package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/technomatra/missions/internal/missions"
)

type CompleteRequest struct {
	Username string `json:"username"`
	TaskID   int    `json:"taskId"`
}

type CompleteResponse struct {
	Success bool `json:"success"`
	missions.CompletionResult
}

func handleComplete(logger *slog.Logger, svc *missions.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CompleteRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Username = strings.TrimSpace(req.Username)
		if req.Username == "" {
			writeError(w, http.StatusBadRequest, "username is required")
			return
		}

		res, err := svc.CompleteTask(r.Context(), req.Username, req.TaskID)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, CompleteResponse{Success: true, CompletionResult: res})
	}
}

type ToggleItemRequest struct {
	Username  string `json:"username"`
	TaskID    int    `json:"taskId"`
	ItemIndex int    `json:"itemIndex"`
}

type ToggleItemResponse struct {
	Success    bool  `json:"success"`
	ItemsFound []int `json:"itemsFound"`
}

// handleToggleItem serves both the operative and the admin toggle; admin
// skips the disqualification check.
func handleToggleItem(logger *slog.Logger, svc *missions.Service, admin bool) http.HandlerFunc {
	toggle := svc.ToggleItem
	if admin {
		toggle = svc.AdminToggleItem
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req ToggleItemRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Username = strings.TrimSpace(req.Username)
		if req.Username == "" {
			writeError(w, http.StatusBadRequest, "username is required")
			return
		}

		items, err := toggle(r.Context(), req.Username, req.TaskID, req.ItemIndex)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, ToggleItemResponse{Success: true, ItemsFound: items})
	}
}

type UpdateAttemptsRequest struct {
	Username string `json:"username"`
	TaskID   int    `json:"taskId"`
	Count    int    `json:"count"`
}

type UpdateAttemptsResponse struct {
	Success      bool `json:"success"`
	Disqualified bool `json:"disqualified"`
}

func handleUpdateAttempts(logger *slog.Logger, svc *missions.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpdateAttemptsRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Username = strings.TrimSpace(req.Username)
		if req.Username == "" {
			writeError(w, http.StatusBadRequest, "username is required")
			return
		}

		disq, err := svc.UpdateAttempts(r.Context(), req.Username, req.TaskID, req.Count)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, UpdateAttemptsResponse{Success: true, Disqualified: disq})
	}
}
