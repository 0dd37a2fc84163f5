package comms_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/clubhub/internal/app/features/comms"
	uierrors "github.com/dalemusser/clubhub/internal/app/features/errors"
	"github.com/dalemusser/clubhub/internal/app/store/audit"
	messagestore "github.com/dalemusser/clubhub/internal/app/store/messages"
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/app/system/realtime"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/dalemusser/clubhub/internal/testutil"
	"go.uber.org/zap"
)

type env struct {
	router http.Handler
	fx     *testutil.Fixtures
	store  *messagestore.Store
	pub    *testutil.Publisher
	audit  *testutil.AuditRecorder
}

func setup(t *testing.T) *env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	sm, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	store := messagestore.New(db)
	pub := &testutil.Publisher{}
	auditLog, rec := testutil.NewAuditLogger()
	h := comms.NewHandler(store, pub, auditLog, uierrors.NewErrorLogger(logger), logger)
	return &env{router: comms.Routes(h, sm), fx: testutil.NewFixtures(t, db), store: store, pub: pub, audit: rec}
}

func (e *env) do(t *testing.T, actor models.User, method, path string, body any) *testutil.ResponseRecorder {
	t.Helper()
	rec := testutil.NewRecorder()
	e.router.ServeHTTP(rec, testutil.WithUser(testutil.JSONRequest(t, method, path, body), actor))
	return rec
}

func TestPostAndList(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	ava := e.fx.CreateUser(ctx, "Ava", "ava@madisonstudent.org", models.RoleStudent, models.StatusNone)

	rec := e.do(t, ava, "POST", "/general", map[string]string{"text": "<script>x</script>gg <b>wp</b>"})
	rec.AssertStatus(t, http.StatusCreated)
	var msg models.Message
	rec.DecodeJSON(t, &msg)
	if strings.Contains(msg.Text, "<") || !strings.Contains(msg.Text, "gg") {
		t.Errorf("text not sanitized: %q", msg.Text)
	}
	if msg.AuthorID != ava.ID || msg.AuthorRole != models.RoleStudent {
		t.Errorf("author: got %+v", msg)
	}
	if !e.pub.Has(realtime.CollMessages, realtime.OpInsert) {
		t.Error("expected a messages insert event")
	}

	rec = e.do(t, ava, "GET", "/general", nil)
	rec.AssertStatus(t, http.StatusOK)
	var body struct {
		Messages []models.Message `json:"messages"`
	}
	rec.DecodeJSON(t, &body)
	if len(body.Messages) != 1 || body.Messages[0].ID != msg.ID {
		t.Errorf("list: got %+v", body.Messages)
	}
}

func TestPost_Announcements(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for _, role := range []models.Role{models.RoleGuest, models.RoleStudent, models.RolePlayer} {
		u := e.fx.CreateUser(ctx, "Member", role.String()+"@madisonstudent.org", role, models.StatusNone)
		rec := e.do(t, u, "POST", "/announcements", map[string]string{"text": "hello"})
		rec.AssertStatus(t, http.StatusForbidden)
		rec.AssertContains(t, comms.AnnouncementsDenied)
	}
	if !e.audit.Has(audit.EventPermissionDenied) {
		t.Error("expected permission_denied audit events")
	}

	msgs, err := e.store.ListByChannel(ctx, models.ChannelAnnouncements, 0)
	if err != nil {
		t.Fatalf("ListByChannel: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("denied posts were written: %d", len(msgs))
	}

	for _, role := range []models.Role{models.RoleStaff, models.RoleCoach, models.RoleAdmin} {
		u := e.fx.CreateUser(ctx, "Lead", role.String()+"@madison.k12.in.us", role, models.StatusNone)
		e.do(t, u, "POST", "/announcements", map[string]string{"text": "Practice moved"}).AssertStatus(t, http.StatusCreated)
	}
}

func TestPost_Validation(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	ava := e.fx.CreateUser(ctx, "Ava", "ava@madisonstudent.org", models.RoleStudent, models.StatusNone)

	e.do(t, ava, "POST", "/random", map[string]string{"text": "hi"}).AssertStatus(t, http.StatusNotFound)
	e.do(t, ava, "POST", "/general", map[string]string{"text": "   "}).AssertStatus(t, http.StatusUnprocessableEntity)
	e.do(t, ava, "POST", "/general", map[string]string{"text": "<img src=x>"}).AssertStatus(t, http.StatusUnprocessableEntity)
	e.do(t, ava, "GET", "/general?limit=abc", nil).AssertStatus(t, http.StatusBadRequest)
}

func TestDelete(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	ava := e.fx.CreateUser(ctx, "Ava", "ava@madisonstudent.org", models.RoleStudent, models.StatusNone)
	coach := e.fx.CreateUser(ctx, "Coach", "c@madison.k12.in.us", models.RoleCoach, models.StatusNone)
	msg := e.fx.CreateMessage(ctx, models.ChannelGeneral, "oops", ava)

	// Authors without DeleteAnyMessage can't delete, even their own.
	e.do(t, ava, "DELETE", "/messages/"+msg.ID.Hex(), nil).AssertStatus(t, http.StatusForbidden)

	e.do(t, coach, "DELETE", "/messages/"+msg.ID.Hex(), nil).AssertStatus(t, http.StatusNoContent)
	e.do(t, coach, "DELETE", "/messages/"+msg.ID.Hex(), nil).AssertStatus(t, http.StatusNotFound)

	if !e.audit.Has(audit.EventMessageDeleted) {
		t.Error("expected message_deleted audit event")
	}
	if !e.pub.Has(realtime.CollMessages, realtime.OpDelete) {
		t.Error("expected a messages delete event")
	}
}

func TestChannel_SignedOut(t *testing.T) {
	e := setup(t)
	rec := testutil.NewRecorder()
	e.router.ServeHTTP(rec, testutil.JSONRequest(t, "GET", "/general", nil))
	rec.AssertStatus(t, http.StatusUnauthorized)
}
