package server

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, logger *slog.Logger, deps Deps) {
	svc := deps.Service

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Mission Tracker API", "/openapi.json", "/docs"))

	// Operative routes. The username travels in the body or query string.
	r.Route("/api", func(r chi.Router) {
		r.Post("/login", handleLogin(logger, svc, deps.Sessions))
		r.Get("/tasks", handleTasks(logger, svc))
		r.Get("/progress", handleProgress(logger, svc))
		r.Post("/unlock-task", handleUnlock(logger, svc))
		r.Post("/complete-task", handleComplete(logger, svc))
		r.Post("/toggle-item", handleToggleItem(logger, svc, false))
		r.Post("/update-attempts", handleUpdateAttempts(logger, svc))

		r.Post("/timers/start", handleStartTimer(logger, svc))
		r.Get("/timers/{kind}/{taskId}", handleTimerStatus(logger, svc))
		r.Get("/timers/{kind}/{taskId}/events", handleTimerEvents(logger, svc))

		r.Post("/admin/login", handleAdminLogin(logger, svc, deps.Sessions))
		r.Post("/admin/logout", handleAdminLogout(logger, deps.Sessions))

		r.Group(func(r chi.Router) {
			r.Use(adminAuthMiddleware(logger, deps.Sessions))
			r.Get("/admin/data", handleAdminData(logger, svc))
			r.Post("/admin/tasks", handleAdminSaveTasks(logger, svc))
			r.Post("/admin/reset-user", handleAdminResetUser(logger, svc))
			r.Post("/admin/toggle-user-item", handleToggleItem(logger, svc, true))
			r.Post("/admin/toggle-disqualification", handleAdminDisqualification(logger, svc))
			if deps.UploadsDir != "" {
				r.Post("/admin/upload", handleAdminUpload(logger, deps.UploadsDir))
			}
			if deps.Live != nil {
				r.Handle("/admin/live", deps.Live)
			}
		})
	})

	if deps.UploadsDir != "" {
		r.Handle("/uploads/*", handleUploads(deps.UploadsDir))
	}

	if deps.PublicDir != "" {
		if info, err := os.Stat(deps.PublicDir); err == nil && info.IsDir() {
			logger.Info("serving static files", "dir", deps.PublicDir)
			r.NotFound(handleSPA(deps.PublicDir))
		}
	}
}
