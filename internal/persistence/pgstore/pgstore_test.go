package pgstore

import (
	"context"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/content-store/internal/model"
	"github.com/Adithya-Monish-Kumar-K/content-store/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/content-store/pkg/postgres"
)

// skipIfNoPostgres connects using the default config with CS_POSTGRES_*
// overrides, skipping when nothing is listening.
func skipIfNoPostgres(t *testing.T) *postgres.Client {
	t.Helper()
	if os.Getenv("CS_POSTGRES_TESTS") == "" {
		t.Skip("set CS_POSTGRES_TESTS=1 to run against a live database")
	}
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}
	db, err := postgres.New(cfg.Postgres)
	if err != nil {
		t.Skipf("postgres not available: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSaveLoadRoundTrip(t *testing.T) {
	db := skipIfNoPostgres(t)
	ctx := context.Background()
	s := New(db, 5*time.Second)
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	want := model.Snapshot{
		Users: []model.User{
			{ID: 1, Username: "alice", Email: "a@example.com", Password: "x"},
			{ID: 2, Username: "bob", Email: "b@example.com", Password: "y"},
		},
		Posts: []model.Post{
			{ID: 9, OwnerID: 2, Caption: "later id, first slot", LikeCount: 1},
			{ID: 4, OwnerID: 1, Caption: "restored", MediaRef: "m.png"},
		},
		Comments: []model.Comment{{ID: 1, PostID: 9, AuthorID: 1, Text: "hi"}},
		Likes:    []model.Like{{PostID: 9, UserID: 1}},
	}
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip:\n got %+v\nwant %+v", got, want)
	}

	if err := s.Append(ctx, "User alice logged in."); err != nil {
		t.Fatalf("Append: %v", err)
	}
	lines, err := s.ActivityLines(ctx, 1)
	if err != nil || len(lines) != 1 || lines[0] != "User alice logged in." {
		t.Fatalf("ActivityLines = %q, %v", lines, err)
	}
}
