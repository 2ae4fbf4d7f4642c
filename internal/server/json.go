package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/technomatra/missions/internal/missions"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// SuccessResponse acknowledges a mutation that has nothing else to report.
type SuccessResponse struct {
	Success bool `json:"success"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{
		Success: false,
		Error:   http.StatusText(status),
		Message: msg,
	})
}

func writeOK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

var errorStatus = []struct {
	err    error
	status int
}{
	{missions.ErrInvalidCredentials, http.StatusUnauthorized},
	{missions.ErrUserNotFound, http.StatusNotFound},
	{missions.ErrTaskNotFound, http.StatusNotFound},
	{missions.ErrDisqualified, http.StatusForbidden},
	{missions.ErrTaskLocked, http.StatusForbidden},
	{missions.ErrAlreadyCompleted, http.StatusConflict},
	{missions.ErrTimerDisabled, http.StatusConflict},
	{missions.ErrTimerNotRunning, http.StatusConflict},
	{missions.ErrInvalidItem, http.StatusBadRequest},
	{missions.ErrInvalidCount, http.StatusBadRequest},
	{missions.ErrInvalidTask, http.StatusBadRequest},
	{missions.ErrInvalidTimerKind, http.StatusBadRequest},
}

// statusFor maps a domain error to its HTTP status; 0 means unknown.
func statusFor(err error) int {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return 0
}

// writeServiceError renders err from the missions service. Unknown errors
// are logged and reported as 500 without detail.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	if status := statusFor(err); status != 0 {
		writeError(w, status, err.Error())
		return
	}
	logger.Error("request failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}
