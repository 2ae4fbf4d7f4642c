package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/technomatra/missions/internal/metrics"
	"github.com/technomatra/missions/internal/missions"
)

// handleTimerEvents streams one "tick" event per second until the timer
// expires ("expired", carrying the terminal action) or disappears
// ("cleared"). Every tick is recomputed from the stored deadline, so a
// reconnecting client picks up the same countdown.
func handleTimerEvents(logger *slog.Logger, svc *missions.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, taskID, username, ok := timerParams(w, r)
		if !ok {
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming not supported")
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		flusher.Flush()

		metrics.TimerWatchers.Inc()
		defer metrics.TimerWatchers.Dec()

		send := func(event string, st missions.TimerStatus) {
			data, _ := json.Marshal(st)
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
			flusher.Flush()
		}

		final, err := svc.WatchTimer(r.Context(), kind, username, taskID, func(st missions.TimerStatus) {
			send("tick", st)
		})
		if err != nil {
			logger.Error("timer watch failed", "kind", kind, "username", username, "task_id", taskID, "error", err)
			return
		}
		if r.Context().Err() != nil {
			return
		}
		if final.Expired {
			send("expired", final)
			return
		}
		send("cleared", final)
	}
}
