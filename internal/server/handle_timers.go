package server

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/technomatra/missions/internal/missions"
)

type StartTimerRequest struct {
	Kind     string `json:"kind"`
	Username string `json:"username"`
	TaskID   int    `json:"taskId"`
}

func handleStartTimer(logger *slog.Logger, svc *missions.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req StartTimerRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		kind, err := missions.ParseTimerKind(req.Kind)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		req.Username = strings.TrimSpace(req.Username)
		if req.Username == "" {
			writeError(w, http.StatusBadRequest, "username is required")
			return
		}

		st, err := svc.StartTimer(r.Context(), kind, req.Username, req.TaskID)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

// timerParams reads {kind}, {taskId} and ?username= shared by the timer
// read endpoints. It writes the 400 itself when they are malformed.
func timerParams(w http.ResponseWriter, r *http.Request) (missions.TimerKind, int, string, bool) {
	kind, err := missions.ParseTimerKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", 0, "", false
	}
	taskID, err := strconv.Atoi(chi.URLParam(r, "taskId"))
	if err != nil || taskID < 0 {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return "", 0, "", false
	}
	username := strings.TrimSpace(r.URL.Query().Get("username"))
	if username == "" {
		writeError(w, http.StatusBadRequest, "username query parameter required")
		return "", 0, "", false
	}
	return kind, taskID, username, true
}

func handleTimerStatus(logger *slog.Logger, svc *missions.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, taskID, username, ok := timerParams(w, r)
		if !ok {
			return
		}

		st, err := svc.TimerStatus(r.Context(), kind, username, taskID)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}
