package authgoogle_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/clubhub/internal/app/features/authgoogle"
	"github.com/dalemusser/clubhub/internal/app/store/audit"
	"github.com/dalemusser/clubhub/internal/app/store/oauthstate"
	userstore "github.com/dalemusser/clubhub/internal/app/store/users"
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/app/system/identity"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/dalemusser/clubhub/internal/testutil"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// fakeGoogle serves the token and userinfo endpoints.
func fakeGoogle(t *testing.T, user map[string]any) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.Form.Get("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(user)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type env struct {
	h        *authgoogle.Handler
	profiles *userstore.MemStore
	states   *oauthstate.MemStore
	audit    *testutil.AuditRecorder
}

func newEnv(t *testing.T, user map[string]any) *env {
	t.Helper()
	logger := zap.NewNop()
	sm, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	profiles := userstore.NewMemStore()
	states := oauthstate.NewMemStore()
	auditLog, rec := testutil.NewAuditLogger()
	resolver := identity.NewResolver(profiles, identity.DefaultDomains(), logger)

	h := authgoogle.NewHandler(sm, auditLog, states, resolver, "test-client-id", "test-client-secret", "http://localhost:8080", logger)
	if user != nil {
		srv := fakeGoogle(t, user)
		h.Endpoint = oauth2.Endpoint{
			AuthURL:   srv.URL + "/auth",
			TokenURL:  srv.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		}
		h.UserInfoURL = srv.URL + "/userinfo"
	}
	return &env{h: h, profiles: profiles, states: states, audit: rec}
}

// login runs ServeLogin and returns the state Google would echo back.
func (e *env) login(t *testing.T, ret string) string {
	t.Helper()
	rec := httptest.NewRecorder()
	e.h.ServeLogin(rec, httptest.NewRequest("GET", "/auth/google?return="+url.QueryEscape(ret), nil))
	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("login status: got %d, want %d", rec.Code, http.StatusTemporaryRedirect)
	}
	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse location: %v", err)
	}
	state := loc.Query().Get("state")
	if state == "" {
		t.Fatal("expected state in redirect")
	}
	return state
}

func (e *env) callback(state, code string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	target := "/auth/google/callback?state=" + url.QueryEscape(state) + "&code=" + code
	e.h.ServeCallback(rec, httptest.NewRequest("GET", target, nil))
	return rec
}

func googleUser(id, email string) map[string]any {
	return map[string]any{
		"id":             id,
		"email":          email,
		"verified_email": true,
		"name":           "Ava Reyes",
		"picture":        "https://lh3.example/ava.png",
	}
}

func TestIsConfigured(t *testing.T) {
	e := newEnv(t, nil)
	if !e.h.IsConfigured() {
		t.Error("IsConfigured() should return true with client ID and secret")
	}
	e.h.ClientID = ""
	if e.h.IsConfigured() {
		t.Error("IsConfigured() should return false without client ID")
	}
}

func TestServeLogin_NotConfigured(t *testing.T) {
	e := newEnv(t, nil)
	e.h.ClientSecret = ""

	rec := httptest.NewRecorder()
	e.h.ServeLogin(rec, httptest.NewRequest("GET", "/auth/google", nil))

	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	if loc := rec.Header().Get("Location"); !strings.Contains(loc, "google_not_configured") {
		t.Errorf("expected google_not_configured redirect, got %q", loc)
	}
}

func TestServeLogin_SavesState(t *testing.T) {
	e := newEnv(t, googleUser("g-1", "ava@madisonstudent.org"))
	state := e.login(t, "/application")

	if e.states.Len() != 1 {
		t.Fatalf("states: got %d, want 1", e.states.Len())
	}
	ret, ok, err := e.states.Validate(context.Background(), state)
	if err != nil || !ok {
		t.Fatalf("Validate: ok=%v err=%v", ok, err)
	}
	if ret != "/application" {
		t.Errorf("return url: got %q, want /application", ret)
	}
}

func TestServeCallback_FirstLoginCreatesStudentProfile(t *testing.T) {
	e := newEnv(t, googleUser("g-1", "Ava@MadisonStudent.org"))
	state := e.login(t, "/application")

	rec := e.callback(state, "good-code")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("callback status: got %d, want %d (location %q)", rec.Code, http.StatusSeeOther, rec.Header().Get("Location"))
	}
	if loc := rec.Header().Get("Location"); loc != "/application" {
		t.Errorf("location: got %q, want /application", loc)
	}
	if len(rec.Result().Cookies()) == 0 {
		t.Error("expected a session cookie")
	}

	u, err := e.profiles.GetByPrincipalID(context.Background(), "g-1")
	if err != nil {
		t.Fatalf("profile not created: %v", err)
	}
	if u.Role != models.RoleStudent {
		t.Errorf("role: got %q, want student", u.Role)
	}
	if u.Status() != models.StatusNone {
		t.Errorf("status: got %q, want none", u.Status())
	}
	if !e.audit.Has(audit.EventProfileCreated) || !e.audit.Has(audit.EventLoginSuccess) {
		t.Errorf("expected profile_created and login_success audit events, got %+v", e.audit.Events())
	}
}

func TestServeCallback_ExistingRoleWins(t *testing.T) {
	e := newEnv(t, googleUser("g-coach", "coach@madisonstudent.org"))
	e.profiles.Put(models.User{PrincipalID: "g-coach", Email: "coach@madisonstudent.org", Role: models.RoleCoach})

	state := e.login(t, "")
	rec := e.callback(state, "good-code")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("callback status: got %d", rec.Code)
	}

	u, err := e.profiles.GetByPrincipalID(context.Background(), "g-coach")
	if err != nil {
		t.Fatalf("GetByPrincipalID: %v", err)
	}
	if u.Role != models.RoleCoach {
		t.Errorf("role: got %q, want coach", u.Role)
	}
	if e.audit.Has(audit.EventProfileCreated) {
		t.Error("no profile should be created for a returning user")
	}
}

func TestServeCallback_StateIsSingleUse(t *testing.T) {
	e := newEnv(t, googleUser("g-1", "ava@madisonstudent.org"))
	state := e.login(t, "")

	if rec := e.callback(state, "good-code"); rec.Code != http.StatusSeeOther {
		t.Fatalf("first callback: got %d", rec.Code)
	}
	rec := e.callback(state, "good-code")
	if loc := rec.Header().Get("Location"); !strings.Contains(loc, "invalid_state") {
		t.Errorf("replayed state: got location %q, want invalid_state", loc)
	}
}

func TestServeCallback_UnverifiedEmailRefused(t *testing.T) {
	user := googleUser("g-staff", "kim@madison.k12.in.us")
	user["verified_email"] = false
	e := newEnv(t, user)
	state := e.login(t, "/roster")

	rec := e.callback(state, "good-code")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("callback status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); !strings.Contains(loc, "email_unverified") {
		t.Errorf("location: got %q, want email_unverified error", loc)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("no session cookie should be set for an unverified email")
	}
	if _, err := e.profiles.GetByPrincipalID(context.Background(), "g-staff"); err == nil {
		t.Error("no profile should be created for an unverified email")
	}
	if !e.audit.Has(audit.EventLoginFailed) || e.audit.Has(audit.EventLoginSuccess) {
		t.Errorf("expected login_failed only, got %+v", e.audit.Events())
	}
}

func TestServeCallback_Failures(t *testing.T) {
	tests := []struct {
		name   string
		target func(state string) string
		want   string
	}{
		{"google error", func(string) string { return "/auth/google/callback?error=access_denied" }, "google_denied"},
		{"missing state", func(string) string { return "/auth/google/callback?code=good-code" }, "invalid_state"},
		{"unknown state", func(string) string { return "/auth/google/callback?state=nope&code=good-code" }, "invalid_state"},
		{"missing code", func(s string) string { return "/auth/google/callback?state=" + url.QueryEscape(s) }, "invalid_code"},
		{"bad code", func(s string) string { return "/auth/google/callback?state=" + url.QueryEscape(s) + "&code=bad" }, "token_exchange"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := newEnv(t, googleUser("g-1", "ava@madisonstudent.org"))
			state := e.login(t, "")

			rec := httptest.NewRecorder()
			e.h.ServeCallback(rec, httptest.NewRequest("GET", tc.target(state), nil))

			if rec.Code != http.StatusSeeOther {
				t.Errorf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
			}
			if loc := rec.Header().Get("Location"); !strings.Contains(loc, tc.want) {
				t.Errorf("location: got %q, want error %q", loc, tc.want)
			}
			if _, err := e.profiles.GetByPrincipalID(context.Background(), "g-1"); err == nil {
				t.Error("no profile should be created on a failed sign-in")
			}
		})
	}
}
