package bootstrap

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/clubhub/internal/app/system/ratelimit"
	"github.com/dalemusser/clubhub/internal/app/system/realtime"
	"github.com/dalemusser/clubhub/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func validConfig() AppConfig {
	return AppConfig{
		MongoURI:           "mongodb://localhost:27017",
		MongoDatabase:      "clubhub_test",
		SessionKey:         "test-session-key-for-testing-only-0123456789",
		SessionName:        "clubhub-session",
		SessionMaxAge:      time.Hour,
		StudentEmailDomain: "madisonstudent.org",
		StaffEmailDomain:   "madison.k12.in.us",
		AuditLogAuth:       "all",
		AuditLogAdmin:      "db",
		AuditLogWorkflow:   "off",
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{name: "valid", mutate: func(*AppConfig) {}},
		{name: "valid with redis", mutate: func(c *AppConfig) { c.RedisURL = "redis://localhost:6379/0" }},
		{name: "bad mongo uri", mutate: func(c *AppConfig) { c.MongoURI = "postgres://nope" }, wantErr: "MongoDB URI"},
		{name: "bad redis url", mutate: func(c *AppConfig) { c.RedisURL = "http://localhost" }, wantErr: "Redis URL"},
		{name: "blank student domain", mutate: func(c *AppConfig) { c.StudentEmailDomain = "" }, wantErr: "student_email_domain"},
		{name: "staff domain not a domain", mutate: func(c *AppConfig) { c.StaffEmailDomain = "not a domain" }, wantErr: "staff_email_domain"},
		{name: "same domains", mutate: func(c *AppConfig) { c.StaffEmailDomain = "MadisonStudent.org" }, wantErr: "must differ"},
		{name: "bad audit destination", mutate: func(c *AppConfig) { c.AuditLogAdmin = "everywhere" }, wantErr: "audit_log_admin"},
		{name: "short key in prod", env: "prod", mutate: func(c *AppConfig) { c.SessionKey = "short" }, wantErr: "session_key"},
		{name: "short key in dev", env: "dev", mutate: func(c *AppConfig) { c.SessionKey = "short" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(&config.CoreConfig{Env: tt.env}, cfg, testLogger())
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error: got %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestDBDeps_Publisher(t *testing.T) {
	if _, ok := (DBDeps{}).Publisher().(realtime.Nop); !ok {
		t.Error("no hub: expected Nop publisher")
	}
	hub := realtime.NewHub(testLogger())
	defer hub.Close()
	if got := (DBDeps{Hub: hub}).Publisher(); got != realtime.Publisher(hub) {
		t.Errorf("hub only: got %T", got)
	}
}

func TestEnsureSchema(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{MongoDatabase: db}
	for i := 0; i < 2; i++ {
		if err := EnsureSchema(ctx, &config.CoreConfig{}, validConfig(), deps, testLogger()); err != nil {
			t.Fatalf("EnsureSchema run %d: %v", i+1, err)
		}
	}

	// The users validator rejects a profile without a role.
	_, err := db.Collection("users").InsertOne(ctx, bson.M{"principal_id": "p1", "application_status": "none"})
	if err == nil {
		t.Error("expected users validator to reject a profile without a role")
	}
}

func TestBuildHandler_Routes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	hub := realtime.NewHub(testLogger())
	defer hub.Close()

	deps := DBDeps{MongoClient: db.Client(), MongoDatabase: db, Hub: hub}
	h, err := BuildHandler(&config.CoreConfig{Env: "dev"}, validConfig(), deps, testLogger())
	if err != nil {
		t.Fatalf("BuildHandler: %v", err)
	}

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{"GET", "/health", http.StatusOK},
		{"GET", "/public/roster", http.StatusOK},
		{"GET", "/public/matches", http.StatusOK},
		{"GET", "/public/overlay", http.StatusOK},
		{"GET", "/me", http.StatusUnauthorized},
		{"POST", "/application", http.StatusUnauthorized},
		{"GET", "/inbox", http.StatusUnauthorized},
		{"GET", "/roster", http.StatusUnauthorized},
		{"GET", "/comms/general", http.StatusUnauthorized},
		{"GET", "/financials", http.StatusUnauthorized},
		{"POST", "/register/sales", http.StatusUnauthorized},
		{"GET", "/calendar", http.StatusUnauthorized},
		{"GET", "/stream", http.StatusUnauthorized},
		{"GET", "/audit", http.StatusUnauthorized},
		{"GET", "/overlay", http.StatusUnauthorized},
		{"POST", "/overlay", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		rec := testutil.NewRecorder()
		h.ServeHTTP(rec, testutil.JSONRequest(t, tt.method, tt.path, nil))
		if rec.Code != tt.want {
			t.Errorf("%s %s: got %d, want %d (body: %s)", tt.method, tt.path, rec.Code, tt.want, rec.Body.String())
		}
	}

	// Google sign-in without credentials sends the browser back home.
	rec := testutil.NewRecorder()
	h.ServeHTTP(rec, testutil.JSONRequest(t, "GET", "/auth/google", nil))
	if loc := rec.Header().Get("Location"); !strings.Contains(loc, "google_not_configured") {
		t.Errorf("auth redirect: got %d %q", rec.Code, loc)
	}
}

func TestBuildHandler_LoginRateLimit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	limiter := ratelimit.New(1, time.Minute)
	defer limiter.Stop()

	deps := DBDeps{MongoClient: db.Client(), MongoDatabase: db, LoginLimiter: limiter}
	h, err := BuildHandler(&config.CoreConfig{Env: "dev"}, validConfig(), deps, testLogger())
	if err != nil {
		t.Fatalf("BuildHandler: %v", err)
	}

	first := testutil.NewRecorder()
	h.ServeHTTP(first, testutil.JSONRequest(t, "GET", "/auth/google", nil))
	if first.Code == http.StatusTooManyRequests {
		t.Fatal("first sign-in attempt was limited")
	}

	second := testutil.NewRecorder()
	h.ServeHTTP(second, testutil.JSONRequest(t, "GET", "/auth/google", nil))
	second.AssertStatus(t, http.StatusTooManyRequests)
	if second.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
}
