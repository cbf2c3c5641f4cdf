package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/content-store/internal/activity"
	"github.com/Adithya-Monish-Kumar-K/content-store/internal/persistence/filestore"
	"github.com/Adithya-Monish-Kumar-K/content-store/pkg/config"
)

// TestFileBackedSession runs a session against the real file backend with
// the aggregator as event sink, then reopens from disk.
func TestFileBackedSession(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default().Store
	cfg.DataDir = t.TempDir()
	files := filestore.New(cfg)
	agg := activity.NewAggregator(5, nil)

	s := openStore(t, Options{Persister: files, ActivityLog: files, Events: agg})
	alice := mustUser(t, s, "alice")
	bob := mustUser(t, s, "bob")
	p1 := mustPost(t, s, alice, "first")
	p2 := mustPost(t, s, alice, "second")
	if _, err := s.Login(ctx, "alice", "pw-alice"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := s.LikePost(ctx, p1, bob); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddComment(ctx, p1, bob, "looks a|b good"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.DeletePost(ctx, p2, alice); err != nil {
		t.Fatal(err)
	}

	posts, err := os.ReadFile(filepath.Join(cfg.DataDir, cfg.PostsFile))
	if err != nil {
		t.Fatal(err)
	}
	if got := string(posts); got != "1|1|first|img/first.jpg|1\n" {
		t.Fatalf("posts file = %q", got)
	}
	log, err := os.ReadFile(filepath.Join(cfg.DataDir, cfg.ActivityLog))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(log), "User alice logged in.") {
		t.Fatalf("activity log = %q", log)
	}

	st := agg.Stats()
	if st.ByType[activity.EventPostCreated] != 2 || st.ByType[activity.EventPostDeleted] != 1 || st.NetLikes != 1 {
		t.Fatalf("aggregated stats = %+v", st)
	}

	reopened := openStore(t, Options{Persister: files})
	if got := reopened.Stats(); got.Users != 2 || got.Posts != 1 || got.Comments != 1 || got.Likes != 1 {
		t.Fatalf("reopened stats = %+v", got)
	}
	id := mustPost(t, reopened, alice, "third")
	if id <= p1 {
		t.Fatalf("new id %d does not exceed loaded max %d", id, p1)
	}
	views := reopened.ListPosts()
	if views[0].Comments[0].Text != "looks a|b good" {
		t.Fatalf("comment text = %q", views[0].Comments[0].Text)
	}
}
