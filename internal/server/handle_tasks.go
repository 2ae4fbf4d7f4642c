package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/technomatra/missions/internal/missions"
)

// PublicTask is a task as operatives see it: the password is replaced by a
// flag.
type PublicTask struct {
	Title        string              `json:"title"`
	Description  string              `json:"description"`
	HasPassword  bool                `json:"hasPassword"`
	TimerEnabled bool                `json:"timerEnabled"`
	Duration     int                 `json:"duration"`
	Questions    []missions.Question `json:"questions"`
}

func publicTasks(tasks []missions.Task) []PublicTask {
	out := make([]PublicTask, 0, len(tasks))
	for _, t := range tasks {
		qs := t.Questions
		if qs == nil {
			qs = []missions.Question{}
		}
		out = append(out, PublicTask{
			Title:        t.Title,
			Description:  t.Description,
			HasPassword:  strings.TrimSpace(t.Password) != "",
			TimerEnabled: t.TimerEnabled,
			Duration:     t.Duration,
			Questions:    qs,
		})
	}
	return out
}

func handleTasks(logger *slog.Logger, svc *missions.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tasks, err := svc.Tasks(r.Context())
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, publicTasks(tasks))
	}
}

func handleProgress(logger *slog.Logger, svc *missions.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := strings.TrimSpace(r.URL.Query().Get("username"))
		if username == "" {
			writeError(w, http.StatusBadRequest, "username query parameter required")
			return
		}

		rep, err := svc.Progress(r.Context(), username)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, rep)
	}
}
