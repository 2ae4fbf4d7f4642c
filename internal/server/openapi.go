package server

import (
	"encoding/json"
	"mime/multipart"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/technomatra/missions/internal/missions"
)

// HealthResponse documents the /healthz body: one status per dependency.
type HealthResponse map[string]struct {
	Status string `json:"status"`
}

type timerPath struct {
	Kind     string `path:"kind" enum:"mission,extraction"`
	TaskID   int    `path:"taskId"`
	Username string `query:"username"`
}

type usernameQuery struct {
	Username string `query:"username"`
}

type uploadForm struct {
	Image *multipart.FileHeader `formData:"image"`
}

type operation struct {
	method, path, summary, description string
	req                                any
	resp                               []response
}

type response struct {
	body   any
	status int
	ctype  string
}

func respOK(body any) response { return response{body: body, status: http.StatusOK} }

func respError(status int) response { return response{body: ErrorResponse{}, status: status} }

func respStream(ctype string) response { return response{status: http.StatusOK, ctype: ctype} }

func respUpgrade(ctype string) response {
	return response{status: http.StatusSwitchingProtocols, ctype: ctype}
}

var operations = []operation{
	{http.MethodGet, "/healthz", "Health check",
		"Returns the health status of the document store and the timer store.",
		nil, []response{respOK(HealthResponse{}), {body: HealthResponse{}, status: http.StatusServiceUnavailable}}},
	{http.MethodPost, "/api/login", "Log in",
		"Operatives log in with any username and the shared passphrase; a new operative is created on first login. Admin credentials also set the admin_session cookie.",
		LoginRequest{}, []response{respOK(LoginResponse{}), respError(http.StatusUnauthorized), {body: LoginResponse{}, status: http.StatusForbidden}}},
	{http.MethodGet, "/api/tasks", "List tasks",
		"Returns the visible tasks in order. Passwords are replaced by hasPassword.",
		nil, []response{respOK([]PublicTask{})}},
	{http.MethodGet, "/api/progress", "Operative progress",
		"Returns the operative's record and the state of every visible task.",
		usernameQuery{}, []response{respOK(missions.ProgressReport{}), respError(http.StatusNotFound)}},
	{http.MethodPost, "/api/unlock-task", "Unlock task by password",
		"Checks a task password. Wrong answers count towards disqualification.",
		UnlockRequest{}, []response{respOK(UnlockResponse{}), respError(http.StatusForbidden), respError(http.StatusNotFound)}},
	{http.MethodPost, "/api/complete-task", "Complete task",
		"Submits a task. When every item is secured the extraction timer starts.",
		CompleteRequest{}, []response{respOK(CompleteResponse{}), respError(http.StatusForbidden), respError(http.StatusNotFound), respError(http.StatusConflict)}},
	{http.MethodPost, "/api/toggle-item", "Toggle intel item",
		"Flips one item of a task in the operative's found set.",
		ToggleItemRequest{}, []response{respOK(ToggleItemResponse{}), respError(http.StatusBadRequest), respError(http.StatusForbidden), respError(http.StatusNotFound)}},
	{http.MethodPost, "/api/update-attempts", "Record attempt count",
		"Stores the client's wrong-attempt count for a task. Counts never decrease.",
		UpdateAttemptsRequest{}, []response{respOK(UpdateAttemptsResponse{}), respError(http.StatusBadRequest), respError(http.StatusNotFound)}},
	{http.MethodPost, "/api/timers/start", "Start or resume timer",
		"Starts a mission countdown on an open, uncompleted task, or resumes the stored mission or extraction countdown. Extraction only begins by completing a task.",
		StartTimerRequest{}, []response{respOK(missions.TimerStatus{}), respError(http.StatusBadRequest), respError(http.StatusForbidden), respError(http.StatusConflict)}},
	{http.MethodGet, "/api/timers/{kind}/{taskId}", "Timer status",
		"Recomputes the remaining time from the stored deadline. An expired timer is cleared and its terminal action reported.",
		timerPath{}, []response{respOK(missions.TimerStatus{}), respError(http.StatusBadRequest)}},
	{http.MethodGet, "/api/timers/{kind}/{taskId}/events", "Timer event stream",
		"Server-Sent Events: tick every second, then expired or cleared.",
		timerPath{}, []response{respStream("text/event-stream")}},
	{http.MethodPost, "/api/admin/login", "Admin login",
		"Authenticate with the admin pair. Sets admin_session cookie.",
		AdminLoginRequest{}, []response{respOK(LoginResponse{}), respError(http.StatusUnauthorized)}},
	{http.MethodPost, "/api/admin/logout", "Admin logout",
		"Clears admin session and cookie.",
		nil, []response{respOK(SuccessResponse{})}},
	{http.MethodGet, "/api/admin/data", "All data",
		"Returns every user and task, hidden tasks and passwords included. Requires admin_session cookie.",
		nil, []response{respOK(missions.Document{}), respError(http.StatusUnauthorized)}},
	{http.MethodPost, "/api/admin/tasks", "Save tasks",
		"Replaces the whole task list. Requires admin_session cookie.",
		SaveTasksRequest{}, []response{respOK(SuccessResponse{}), respError(http.StatusBadRequest), respError(http.StatusUnauthorized)}},
	{http.MethodPost, "/api/admin/reset-user", "Reset operative",
		"Rewinds an operative to the first task and clears their timers. Requires admin_session cookie.",
		ResetUserRequest{}, []response{respOK(SuccessResponse{}), respError(http.StatusNotFound), respError(http.StatusUnauthorized)}},
	{http.MethodPost, "/api/admin/toggle-user-item", "Toggle item for operative",
		"Flips one item for any operative. Requires admin_session cookie.",
		ToggleItemRequest{}, []response{respOK(ToggleItemResponse{}), respError(http.StatusBadRequest), respError(http.StatusNotFound), respError(http.StatusUnauthorized)}},
	{http.MethodPost, "/api/admin/toggle-disqualification", "Disqualify or reinstate",
		"Sets the disqualified flag. Reinstating clears wrong attempts. Requires admin_session cookie.",
		DisqualificationRequest{}, []response{respOK(SuccessResponse{}), respError(http.StatusNotFound), respError(http.StatusUnauthorized)}},
	{http.MethodPost, "/api/admin/upload", "Upload image",
		"Stores an image from the multipart field image and returns its /uploads/ path. Requires admin_session cookie.",
		uploadForm{}, []response{respOK(UploadResponse{}), respError(http.StatusBadRequest), respError(http.StatusUnauthorized)}},
	{http.MethodGet, "/api/admin/live", "Live admin feed",
		"Upgrades to a WebSocket that pushes every operative change. Requires admin_session cookie.",
		nil, []response{respUpgrade("application/json")}},
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Mission Tracker API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for the mission tracker.")

	for _, op := range operations {
		oc, err := r.NewOperationContext(op.method, op.path)
		if err != nil {
			continue
		}
		oc.SetSummary(op.summary)
		oc.SetDescription(op.description)
		if op.req != nil {
			oc.AddReqStructure(op.req)
		}
		for _, resp := range op.resp {
			opts := []openapi.ContentOption{openapi.WithHTTPStatus(resp.status)}
			if resp.ctype != "" {
				opts = append(opts, openapi.WithContentType(resp.ctype))
			}
			oc.AddRespStructure(resp.body, opts...)
		}
		_ = r.AddOperation(oc)
	}

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
