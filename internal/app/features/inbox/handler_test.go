package inbox_test

import (
	"net/http"
	"sync"
	"testing"
	"time"

	uierrors "github.com/dalemusser/clubhub/internal/app/features/errors"
	"github.com/dalemusser/clubhub/internal/app/features/inbox"
	userstore "github.com/dalemusser/clubhub/internal/app/store/users"
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/app/system/workflow"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/dalemusser/clubhub/internal/testutil"
	"go.uber.org/zap"
)

func setup(t *testing.T) (http.Handler, *userstore.MemStore) {
	t.Helper()
	logger := zap.NewNop()
	sm, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	profiles := userstore.NewMemStore()
	svc := workflow.New(profiles, nil, nil, logger)
	return inbox.Routes(inbox.NewHandler(svc, uierrors.NewErrorLogger(logger), logger), sm), profiles
}

func put(p *userstore.MemStore, name string, role models.Role, st models.ApplicationStatus) models.User {
	return p.Put(models.User{PrincipalID: "g-" + name, DisplayName: name, Role: role, ApplicationStatus: st})
}

func post(t *testing.T, h http.Handler, actor models.User, path string) *testutil.ResponseRecorder {
	t.Helper()
	rec := testutil.NewRecorder()
	h.ServeHTTP(rec, testutil.WithUser(testutil.JSONRequest(t, "POST", path, nil), actor))
	return rec
}

func TestServeList(t *testing.T) {
	router, profiles := setup(t)
	coach := put(profiles, "Coach", models.RoleCoach, models.StatusNone)
	put(profiles, "Ava", models.RoleStudent, models.StatusSubmitted)
	put(profiles, "Ben", models.RoleStudent, models.StatusTryout)
	put(profiles, "Cal", models.RoleStudent, models.StatusNone)
	put(profiles, "Dee", models.RolePlayer, models.StatusApproved)

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.WithUser(testutil.JSONRequest(t, "GET", "/", nil), coach))
	rec.AssertStatus(t, http.StatusOK)

	var body struct {
		Submitted []models.User `json:"submitted"`
		Tryout    []models.User `json:"tryout"`
	}
	rec.DecodeJSON(t, &body)
	if len(body.Submitted) != 1 || body.Submitted[0].DisplayName != "Ava" {
		t.Errorf("submitted: got %+v", body.Submitted)
	}
	if len(body.Tryout) != 1 || body.Tryout[0].DisplayName != "Ben" {
		t.Errorf("tryout: got %+v", body.Tryout)
	}
}

func TestInbox_ForbiddenForNonReviewers(t *testing.T) {
	router, profiles := setup(t)
	applicant := put(profiles, "Ava", models.RoleStudent, models.StatusSubmitted)

	for _, role := range []models.Role{models.RoleGuest, models.RoleStudent, models.RolePlayer, models.RoleStaff} {
		actor := put(profiles, "actor-"+string(role), role, models.StatusNone)

		rec := testutil.NewRecorder()
		router.ServeHTTP(rec, testutil.WithUser(testutil.JSONRequest(t, "GET", "/", nil), actor))
		rec.AssertStatus(t, http.StatusForbidden)

		rec = post(t, router, actor, "/"+applicant.ID.Hex()+"/tryout")
		rec.AssertStatus(t, http.StatusForbidden)
	}

	got, _ := profiles.GetByID(t.Context(), applicant.ID)
	if got.Status() != models.StatusSubmitted {
		t.Errorf("status changed to %q by a non-reviewer", got.Status())
	}
}

func TestTryoutThenApprove(t *testing.T) {
	router, profiles := setup(t)
	coach := put(profiles, "Coach", models.RoleCoach, models.StatusNone)
	ava := put(profiles, "Ava", models.RoleStudent, models.StatusSubmitted)

	// Approve before tryout is rejected.
	post(t, router, coach, "/"+ava.ID.Hex()+"/approve").AssertStatus(t, http.StatusConflict)

	rec := post(t, router, coach, "/"+ava.ID.Hex()+"/tryout")
	rec.AssertStatus(t, http.StatusOK)
	var u models.User
	rec.DecodeJSON(t, &u)
	if u.ApplicationStatus != models.StatusTryout || u.Role != models.RoleStudent {
		t.Errorf("after tryout: got %s/%s", u.ApplicationStatus, u.Role)
	}

	rec = post(t, router, coach, "/"+ava.ID.Hex()+"/approve")
	rec.AssertStatus(t, http.StatusOK)
	rec.DecodeJSON(t, &u)
	if u.ApplicationStatus != models.StatusApproved || u.Role != models.RolePlayer {
		t.Errorf("after approve: got %s/%s, want approved/player", u.ApplicationStatus, u.Role)
	}

	// No second approval.
	post(t, router, coach, "/"+ava.ID.Hex()+"/approve").AssertStatus(t, http.StatusConflict)
}

func TestTransition_BadAndUnknownIDs(t *testing.T) {
	router, profiles := setup(t)
	admin := put(profiles, "Admin", models.RoleAdmin, models.StatusNone)

	post(t, router, admin, "/not-an-id/tryout").AssertStatus(t, http.StatusBadRequest)
	post(t, router, admin, "/507f1f77bcf86cd799439011/approve").AssertStatus(t, http.StatusNotFound)
}

func TestApprove_ConcurrentSingleWinner(t *testing.T) {
	router, profiles := setup(t)
	coach := put(profiles, "Coach", models.RoleCoach, models.StatusNone)
	ava := put(profiles, "Ava", models.RoleStudent, models.StatusTryout)

	const n = 10
	codes := make([]int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = post(t, router, coach, "/"+ava.ID.Hex()+"/approve").Code
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, c := range codes {
		switch c {
		case http.StatusOK:
			ok++
		case http.StatusConflict:
		default:
			t.Errorf("unexpected status %d", c)
		}
	}
	if ok != 1 {
		t.Errorf("successful approvals: got %d, want 1", ok)
	}
}
