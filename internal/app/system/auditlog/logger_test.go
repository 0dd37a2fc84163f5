package auditlog_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/dalemusser/clubhub/internal/app/store/audit"
	"github.com/dalemusser/clubhub/internal/app/system/auditlog"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/dalemusser/clubhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type memRecorder struct {
	mu     sync.Mutex
	events []audit.Event
	err    error
}

func (m *memRecorder) Log(_ context.Context, e audit.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, e)
	return nil
}

func (m *memRecorder) all() []audit.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]audit.Event(nil), m.events...)
}

func allConfig() auditlog.Config {
	return auditlog.Config{Auth: "all", Admin: "all", Workflow: "all"}
}

func TestLogger_NilLogger(t *testing.T) {
	var logger *auditlog.Logger
	ctx := context.Background()

	// These should all be no-ops, not panic
	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.LoginSuccess(ctx, primitive.NewObjectID(), "a@b.org")
	logger.Logout(ctx, primitive.NewObjectID().Hex())
	logger.Transition(ctx, audit.EventApplicationApproved, primitive.NewObjectID(), primitive.NewObjectID(), models.StatusTryout, models.StatusApproved)
}

func TestLogger_Destinations(t *testing.T) {
	tests := []struct {
		setting string
		wantDB  int
		wantLog int
	}{
		{"all", 1, 1},
		{"db", 1, 0},
		{"log", 0, 1},
		{"off", 0, 0},
	}
	for _, tc := range tests {
		t.Run(tc.setting, func(t *testing.T) {
			rec := &memRecorder{}
			core, logs := observer.New(zap.InfoLevel)
			logger := auditlog.New(rec, zap.New(core), auditlog.Config{Workflow: tc.setting})

			logger.Transition(context.Background(), audit.EventTryoutScheduled,
				primitive.NewObjectID(), primitive.NewObjectID(), models.StatusSubmitted, models.StatusTryout)

			if got := len(rec.all()); got != tc.wantDB {
				t.Errorf("db events: got %d, want %d", got, tc.wantDB)
			}
			if got := logs.FilterMessage("audit event").Len(); got != tc.wantLog {
				t.Errorf("zap entries: got %d, want %d", got, tc.wantLog)
			}
		})
	}
}

func TestLogger_CategoryFilteredByConfig(t *testing.T) {
	rec := &memRecorder{}
	logger := auditlog.New(rec, zap.NewNop(), auditlog.Config{Auth: "off", Admin: "db", Workflow: "off"})
	ctx := context.Background()
	actor, target := primitive.NewObjectID(), primitive.NewObjectID()

	logger.LoginSuccess(ctx, target, "ava@madisonstudent.org")
	logger.RoleAssigned(ctx, actor, target, models.RoleCoach, models.RoleStudent, models.RolePlayer)
	logger.Transition(ctx, audit.EventApplicationApproved, actor, target, models.StatusTryout, models.StatusApproved)

	events := rec.all()
	if len(events) != 1 {
		t.Fatalf("expected only the admin event, got %d", len(events))
	}
	e := events[0]
	if e.EventType != audit.EventRoleAssigned || e.Category != audit.CategoryAdmin {
		t.Errorf("got %s/%s", e.Category, e.EventType)
	}
	if e.Details["from"] != "student" || e.Details["to"] != "player" || e.Details["actor_role"] != "coach" {
		t.Errorf("details: %v", e.Details)
	}
	if *e.ActorID != actor || *e.UserID != target {
		t.Error("actor/user ids not recorded")
	}
}

func TestLogger_StoreFailureIsLogged(t *testing.T) {
	rec := &memRecorder{err: errors.New("boom")}
	core, logs := observer.New(zap.ErrorLevel)
	logger := auditlog.New(rec, zap.New(core), auditlog.Config{Auth: "db"})

	logger.LoginFailed(context.Background(), "state mismatch")

	if logs.FilterMessage("failed to store audit event").Len() != 1 {
		t.Error("expected store failure to be logged")
	}
}

func TestLogger_Logout_InvalidID(t *testing.T) {
	rec := &memRecorder{}
	logger := auditlog.New(rec, zap.NewNop(), allConfig())

	logger.Logout(context.Background(), "not-an-id")

	events := rec.all()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].UserID != nil {
		t.Errorf("expected nil user id, got %v", events[0].UserID)
	}
}

func TestLogger_RecordChanged_MergesDetails(t *testing.T) {
	rec := &memRecorder{}
	logger := auditlog.New(rec, zap.NewNop(), allConfig())
	id := primitive.NewObjectID()

	logger.RecordChanged(context.Background(), audit.EventLedgerEntryCreated, primitive.NewObjectID(), id,
		map[string]string{"amount": "12.50", "type": "incoming"})

	events := rec.all()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	d := events[0].Details
	if d["record_id"] != id.Hex() || d["amount"] != "12.50" || d["type"] != "incoming" {
		t.Errorf("details: %v", d)
	}
}

func TestMiddleware_ClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"x-forwarded-for wins", map[string]string{"X-Forwarded-For": "203.0.113.195, 70.41.3.18", "X-Real-IP": "192.168.1.1"}, "127.0.0.1:12345", "203.0.113.195"},
		{"x-real-ip", map[string]string{"X-Real-IP": "192.168.1.100"}, "127.0.0.1:12345", "192.168.1.100"},
		{"remote addr port stripped", nil, "10.0.0.5:12345", "10.0.0.5"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := &memRecorder{}
			logger := auditlog.New(rec, zap.NewNop(), allConfig())

			req := httptest.NewRequest("GET", "/", nil)
			req.Header.Set("User-Agent", "TestBrowser/1.0")
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			req.RemoteAddr = tc.remote

			h := auditlog.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				logger.LoginSuccess(r.Context(), primitive.NewObjectID(), "x@y.org")
			}))
			h.ServeHTTP(httptest.NewRecorder(), req)

			events := rec.all()
			if len(events) != 1 {
				t.Fatalf("expected 1 event, got %d", len(events))
			}
			if events[0].IP != tc.want {
				t.Errorf("IP: got %q, want %q", events[0].IP, tc.want)
			}
			if events[0].UserAgent != "TestBrowser/1.0" {
				t.Errorf("UserAgent: got %q", events[0].UserAgent)
			}
		})
	}
}

func TestLogger_MongoStore(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	logger := auditlog.New(store, zap.NewNop(), allConfig())
	logger.ProfileCreated(ctx, userID, models.RoleStudent)

	events, err := store.GetByUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].EventType != audit.EventProfileCreated || events[0].Details["role"] != "student" {
		t.Errorf("got %+v", events[0])
	}
}

func TestConfig_Defaults(t *testing.T) {
	config := auditlog.Config{}
	if config.Auth != "" || config.Admin != "" || config.Workflow != "" {
		t.Errorf("expected empty defaults, got %+v", config)
	}
}
