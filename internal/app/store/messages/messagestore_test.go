package messagestore_test

import (
	"errors"
	"fmt"
	"testing"

	messagestore "github.com/dalemusser/clubhub/internal/app/store/messages"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/dalemusser/clubhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_CreateAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := messagestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	author := primitive.NewObjectID()
	m, err := store.Create(ctx, models.Message{
		Channel:    models.ChannelGeneral,
		Text:       "gg everyone",
		AuthorID:   author,
		AuthorName: "Ava",
		AuthorRole: models.RolePlayer,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if m.ID.IsZero() || m.CreatedAt.IsZero() {
		t.Fatal("expected ID and CreatedAt to be set")
	}

	got, err := store.GetByID(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Text != "gg everyone" || got.AuthorID != author {
		t.Errorf("got %+v", got)
	}
}

func TestStore_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := messagestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.GetByID(ctx, primitive.NewObjectID()); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestStore_ListByChannel(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := messagestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	author := fixtures.CreateUser(ctx, "Ava", "ava@madisonstudent.org", models.RolePlayer, models.StatusApproved)
	for i := 0; i < 5; i++ {
		fixtures.CreateMessage(ctx, models.ChannelGeneral, fmt.Sprintf("msg %d", i), author)
	}
	fixtures.CreateMessage(ctx, models.ChannelMinecraft, "other channel", author)

	all, err := store.ListByChannel(ctx, models.ChannelGeneral, 0)
	if err != nil {
		t.Fatalf("ListByChannel failed: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("expected 5 messages, got %d", len(all))
	}
	if all[0].Text != "msg 0" || all[4].Text != "msg 4" {
		t.Errorf("order: first=%q last=%q, want oldest first", all[0].Text, all[4].Text)
	}

	recent, err := store.ListByChannel(ctx, models.ChannelGeneral, 2)
	if err != nil {
		t.Fatalf("ListByChannel failed: %v", err)
	}
	if len(recent) != 2 || recent[0].Text != "msg 3" || recent[1].Text != "msg 4" {
		t.Errorf("limited: got %v", recent)
	}
}

func TestStore_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := messagestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	author := fixtures.CreateUser(ctx, "Kim", "kim@madison.k12.in.us", models.RoleCoach, models.StatusNone)
	m := fixtures.CreateMessage(ctx, models.ChannelAnnouncements, "Practice moved", author)

	if err := store.Delete(ctx, m.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Delete(ctx, m.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("second delete: got %v, want ErrNotFound", err)
	}
}
