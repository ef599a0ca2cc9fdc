package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/carhire/carhire/internal/auth"
	"github.com/carhire/carhire/internal/model"
	"github.com/carhire/carhire/internal/testutil"
)

var testCookie = CookieConfig{Name: "carhire_session", TTL: time.Hour}

func captureSession(got **model.Session) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = auth.SessionFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestSession_LoadsIntoContext(t *testing.T) {
	t.Parallel()

	want := &model.Session{UserID: "u1", Username: "alice", Role: model.RoleUser}
	var seenToken string
	resolve := func(ctx context.Context, token string) (*model.Session, error) {
		seenToken = token
		return want, nil
	}

	var got *model.Session
	handler := Session(SessionConfig{
		Logger:  testutil.DiscardLogger(),
		Resolve: resolve,
		Cookie:  testCookie,
	})(captureSession(&got))

	req := httptest.NewRequest(http.MethodGet, "/cars", nil)
	req.AddCookie(&http.Cookie{Name: "carhire_session", Value: "sess_abc"})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if seenToken != "sess_abc" {
		t.Errorf("resolver got token %q", seenToken)
	}
	if got != want {
		t.Errorf("session in context = %+v, want %+v", got, want)
	}
}

func TestSession_AnonymousAndStale(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		cookie      string
		resolveErr  error
		wantCleared bool
	}{
		{"no cookie", "", nil, false},
		{"stale cookie", "sess_stale", nil, true},
		{"resolver error", "sess_any", errors.New("redis down"), false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			calls := 0
			resolve := func(ctx context.Context, token string) (*model.Session, error) {
				calls++
				return nil, tt.resolveErr
			}

			var got *model.Session
			handler := Session(SessionConfig{
				Logger:  testutil.DiscardLogger(),
				Resolve: resolve,
				Cookie:  testCookie,
			})(captureSession(&got))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "carhire_session", Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Errorf("status = %d, anonymous requests must pass through", rec.Code)
			}
			if got != nil {
				t.Errorf("expected no session, got %+v", got)
			}
			if tt.cookie == "" && calls != 0 {
				t.Error("resolver should not be called without a cookie")
			}

			cleared := false
			for _, c := range rec.Result().Cookies() {
				if c.Name == "carhire_session" && c.MaxAge < 0 {
					cleared = true
				}
			}
			if cleared != tt.wantCleared {
				t.Errorf("cookie cleared = %v, want %v", cleared, tt.wantCleared)
			}
		})
	}
}

func TestRequireSessionAndRole(t *testing.T) {
	t.Parallel()

	logger := testutil.DiscardLogger()
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	user := &model.Session{UserID: "u1", Role: model.RoleUser}
	admin := &model.Session{UserID: "a1", Role: model.RoleAdmin}

	tests := []struct {
		name       string
		guard      func(http.Handler) http.Handler
		session    *model.Session
		wantStatus int
	}{
		{"session required, none", RequireSession(logger), nil, http.StatusUnauthorized},
		{"session required, user", RequireSession(logger), user, http.StatusOK},
		{"admin required, none", RequireAdmin(logger), nil, http.StatusUnauthorized},
		{"admin required, user", RequireAdmin(logger), user, http.StatusForbidden},
		{"admin required, admin", RequireAdmin(logger), admin, http.StatusOK},
		{"user role, admin satisfies", RequireRole(logger, model.RoleUser), admin, http.StatusOK},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/admin/cars", nil)
			if tt.session != nil {
				req = req.WithContext(auth.ContextWithSession(req.Context(), tt.session))
			}
			rec := httptest.NewRecorder()
			tt.guard(ok).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
					t.Errorf("Content-Type = %q, want HTML error page", ct)
				}
			}
		})
	}
}

func TestCookieConfig_Attributes(t *testing.T) {
	t.Parallel()

	cfg := CookieConfig{Name: "carhire_session", Secure: true, TTL: 2 * time.Hour}
	rec := httptest.NewRecorder()
	cfg.SetSessionCookie(rec, "sess_token")

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("got %d cookies, want 1", len(cookies))
	}
	c := cookies[0]
	if !c.HttpOnly || !c.Secure || c.SameSite != http.SameSiteLaxMode {
		t.Errorf("cookie flags = HttpOnly:%v Secure:%v SameSite:%v", c.HttpOnly, c.Secure, c.SameSite)
	}
	if c.MaxAge != 7200 || c.Path != "/" || c.Value != "sess_token" {
		t.Errorf("cookie = %+v", c)
	}
}

func TestRecoverer_RendersErrorPage(t *testing.T) {
	t.Parallel()

	handler := Recoverer(testutil.DiscardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
