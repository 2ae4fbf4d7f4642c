package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

type brokenSessions struct{}

func (brokenSessions) Create(context.Context) (string, error)      { return "", errors.New("down") }
func (brokenSessions) Valid(context.Context, string) (bool, error) { return false, errors.New("down") }
func (brokenSessions) Delete(context.Context, string) error        { return errors.New("down") }

func TestAdminSessionStoreFailure(t *testing.T) {
	tests := []struct {
		name    string
		handler http.Handler
		cookie  bool
	}{
		{"start session", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if startAdminSession(w, r, slog.Default(), brokenSessions{}) {
				t.Error("expected startAdminSession to fail")
			}
		}), false},
		{"guard", adminAuthMiddleware(slog.Default(), brokenSessions{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("guarded handler reached")
		})), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie {
				req.AddCookie(&http.Cookie{Name: adminCookieName, Value: "abc"})
			}
			w := httptest.NewRecorder()
			tt.handler.ServeHTTP(w, req)
			if w.Code != http.StatusInternalServerError {
				t.Errorf("expected 500, got %d", w.Code)
			}
			if len(w.Result().Cookies()) != 0 {
				t.Error("no cookie should be set")
			}
		})
	}
}
