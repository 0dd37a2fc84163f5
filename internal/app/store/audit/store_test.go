package audit_test

import (
	"testing"
	"time"

	"github.com/dalemusser/clubhub/internal/app/store/audit"
	"github.com/dalemusser/clubhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Log(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	event := audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &userID,
		IP:        "192.168.1.1",
		UserAgent: "TestBrowser/1.0",
		Success:   true,
	}
	if err := store.Log(ctx, event); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	events, err := store.GetByUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].ID.IsZero() {
		t.Error("expected generated ID")
	}
	if events[0].Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
	if events[0].UserAgent != "TestBrowser/1.0" {
		t.Errorf("UserAgent: got %q", events[0].UserAgent)
	}
}

func TestStore_Log_WithDetails(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	actorID := primitive.NewObjectID()
	err := store.Log(ctx, audit.Event{
		Category:  audit.CategoryWorkflow,
		EventType: audit.EventApplicationApproved,
		UserID:    &userID,
		ActorID:   &actorID,
		Success:   true,
		Details:   map[string]string{"from": "tryout", "to": "approved"},
	})
	if err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	events, err := store.GetByUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Details["to"] != "approved" {
		t.Errorf("details: got %v", events[0].Details)
	}
	if events[0].ActorID == nil || *events[0].ActorID != actorID {
		t.Errorf("actor: got %v, want %v", events[0].ActorID, actorID)
	}
}

func TestStore_GetRecent_NewestFirst(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	base := time.Now().UTC().Add(-time.Hour)
	for i, typ := range []string{audit.EventApplicationSubmitted, audit.EventTryoutScheduled, audit.EventApplicationApproved} {
		if err := store.Log(ctx, audit.Event{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Category:  audit.CategoryWorkflow,
			EventType: typ,
			Success:   true,
		}); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	events, err := store.GetRecent(ctx, 2)
	if err != nil {
		t.Fatalf("GetRecent failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].EventType != audit.EventApplicationApproved || events[1].EventType != audit.EventTryoutScheduled {
		t.Errorf("order: got %s, %s", events[0].EventType, events[1].EventType)
	}
}

func TestStore_Query_ByCategoryAndType(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	seed := []audit.Event{
		{Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess, Success: true},
		{Category: audit.CategoryAuth, EventType: audit.EventLogout, Success: true},
		{Category: audit.CategoryAdmin, EventType: audit.EventRoleAssigned, Success: true},
	}
	for _, e := range seed {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	auth, err := store.Query(ctx, audit.QueryFilter{Category: audit.CategoryAuth})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(auth) != 2 {
		t.Errorf("auth events: got %d, want 2", len(auth))
	}

	roles, err := store.Query(ctx, audit.QueryFilter{EventType: audit.EventRoleAssigned})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(roles) != 1 || roles[0].Category != audit.CategoryAdmin {
		t.Errorf("role events: got %+v", roles)
	}

	n, err := store.CountByFilter(ctx, audit.QueryFilter{})
	if err != nil {
		t.Fatalf("CountByFilter failed: %v", err)
	}
	if n != 3 {
		t.Errorf("count: got %d, want 3", n)
	}
}

func TestStore_Query_ByTimeRangeAndOffset(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC()
	for _, ago := range []time.Duration{72 * time.Hour, 2 * time.Hour, time.Hour, time.Minute} {
		if err := store.Log(ctx, audit.Event{
			Timestamp: now.Add(-ago),
			Category:  audit.CategoryAdmin,
			EventType: audit.EventUserUpdated,
			Success:   true,
		}); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	start := now.Add(-24 * time.Hour)
	events, err := store.Query(ctx, audit.QueryFilter{StartTime: &start})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 3 {
		t.Errorf("in range: got %d, want 3", len(events))
	}

	page, err := store.Query(ctx, audit.QueryFilter{StartTime: &start, Offset: 2})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(page) != 1 {
		t.Errorf("offset page: got %d, want 1", len(page))
	}
}

func TestStore_GetFailedLogins(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	old := time.Now().UTC().Add(-48 * time.Hour)
	seed := []audit.Event{
		{Category: audit.CategoryAuth, EventType: audit.EventLoginFailed, FailureReason: "state mismatch"},
		{Category: audit.CategoryAuth, EventType: audit.EventLoginFailed, FailureReason: "exchange failed", Timestamp: old},
		{Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess, Success: true},
	}
	for _, e := range seed {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	events, err := store.GetFailedLogins(ctx, time.Now().UTC().Add(-time.Hour), 10)
	if err != nil {
		t.Fatalf("GetFailedLogins failed: %v", err)
	}
	if len(events) != 1 || events[0].FailureReason != "state mismatch" {
		t.Errorf("got %+v, want the single recent failure", events)
	}
}
