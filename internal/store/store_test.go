package store

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/content-store/internal/activity"
	"github.com/Adithya-Monish-Kumar-K/content-store/internal/model"
	apperrors "github.com/Adithya-Monish-Kumar-K/content-store/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/content-store/pkg/resilience"
)

type memPersister struct {
	mu    sync.Mutex
	snap  model.Snapshot
	saves int
	fail  error
}

func (m *memPersister) Load(ctx context.Context) (model.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap, nil
}

func (m *memPersister) Save(ctx context.Context, snap model.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.saves++
	m.snap = snap
	return nil
}

type memLog struct {
	lines []string
	fail  error
}

func (l *memLog) Append(ctx context.Context, line string) error {
	if l.fail != nil {
		return l.fail
	}
	l.lines = append(l.lines, line)
	return nil
}

type recordingSink struct {
	mu     sync.Mutex
	events []activity.Event
}

func (r *recordingSink) Track(e activity.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

type countingCache struct {
	entries map[[2]uint64][]model.Post
	calls   int
	err     error
}

func (c *countingCache) GetOrCompute(ctx context.Context, fp uint64, k int, compute func() ([]model.Post, error)) ([]model.Post, bool, error) {
	c.calls++
	if c.err != nil {
		return nil, false, c.err
	}
	key := [2]uint64{fp, uint64(k)}
	if v, ok := c.entries[key]; ok {
		return v, true, nil
	}
	v, err := compute()
	if err != nil {
		return nil, false, err
	}
	c.entries[key] = v
	return v, false, nil
}

func fastRetry() resilience.RetryConfig {
	return resilience.RetryConfig{MaxAttempts: 1, InitialDelay: time.Millisecond}
}

func openStore(t *testing.T, opts Options) *Store {
	t.Helper()
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = fastRetry()
	}
	s, err := Open(context.Background(), opts)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

func mustUser(t *testing.T, s *Store, name string) int {
	t.Helper()
	u, err := s.CreateUser(context.Background(), name, name+"@example.com", "pw-"+name)
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", name, err)
	}
	return u.ID
}

func mustPost(t *testing.T, s *Store, owner int, caption string) int {
	t.Helper()
	id, err := s.CreatePost(context.Background(), owner, caption, "img/"+caption+".jpg")
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	return id
}

func TestPostIDsStrictlyIncrease(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, Options{})
	alice := mustUser(t, s, "alice")

	a := mustPost(t, s, alice, "one")
	b := mustPost(t, s, alice, "two")
	if _, err := s.DeletePost(ctx, b, alice); err != nil {
		t.Fatalf("DeletePost: %v", err)
	}
	c := mustPost(t, s, alice, "three")
	if !(a < b && b < c) {
		t.Fatalf("ids not increasing: %d, %d, %d", a, b, c)
	}
}

func TestIDSeedFollowsLoadedMax(t *testing.T) {
	p := &memPersister{snap: model.Snapshot{
		Users: []model.User{{ID: 4, Username: "zed", Email: "z@x", Password: "p"}},
		Posts: []model.Post{{ID: 3, OwnerID: 4, Caption: "a"}, {ID: 11, OwnerID: 4, Caption: "b"}},
	}}
	s := openStore(t, Options{Persister: p})
	id := mustPost(t, s, 4, "next")
	if id != 12 {
		t.Fatalf("new post id = %d, want 12", id)
	}
	if u := mustUser(t, s, "amy"); u != 5 {
		t.Fatalf("new user id = %d, want 5", u)
	}
}

func TestDeleteUndoRestoresPost(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, Options{})
	alice := mustUser(t, s, "alice")
	bob := mustUser(t, s, "bob")
	id := mustPost(t, s, alice, "sunset")
	if _, err := s.LikePost(ctx, id, bob); err != nil {
		t.Fatalf("LikePost: %v", err)
	}
	if _, err := s.LikePost(ctx, id, alice); err != nil {
		t.Fatalf("LikePost: %v", err)
	}
	before, _ := s.FindPost(id)

	removed, err := s.DeletePost(ctx, id, alice)
	if err != nil {
		t.Fatalf("DeletePost: %v", err)
	}
	if _, err := s.FindPost(id); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("deleted post still visible: %v", err)
	}
	if s.Stats().Likes != 0 {
		t.Fatalf("likes of a deleted post should leave the ledger")
	}

	restored, err := s.Undo(ctx, alice)
	if err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if restored != before || removed != before {
		t.Fatalf("restored %+v, want %+v", restored, before)
	}
	after, _ := s.FindPost(id)
	if after != before {
		t.Fatalf("store holds %+v, want %+v", after, before)
	}
	if _, err := s.LikePost(ctx, id, bob); !errors.Is(err, apperrors.ErrAlreadyLiked) {
		t.Fatalf("restored ledger should remember bob's like, got %v", err)
	}
}

func TestUndoIsLIFO(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, Options{})
	alice := mustUser(t, s, "alice")
	ids := []int{mustPost(t, s, alice, "a"), mustPost(t, s, alice, "b"), mustPost(t, s, alice, "c")}
	for _, id := range ids {
		if _, err := s.DeletePost(ctx, id, alice); err != nil {
			t.Fatalf("DeletePost(%d): %v", id, err)
		}
	}
	for i := len(ids) - 1; i >= 0; i-- {
		p, err := s.Undo(ctx, alice)
		if err != nil {
			t.Fatalf("Undo: %v", err)
		}
		if p.ID != ids[i] {
			t.Fatalf("undo returned %d, want %d", p.ID, ids[i])
		}
	}
	if _, err := s.Undo(ctx, alice); !errors.Is(err, apperrors.ErrEmpty) {
		t.Fatalf("Undo on empty stack: got %v, want ErrEmpty", err)
	}
	if s.CanUndo() {
		t.Fatal("CanUndo should be false once drained")
	}
}

func TestUndoLimitDropsOldest(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, Options{UndoLimit: 2})
	alice := mustUser(t, s, "alice")
	for _, c := range []string{"a", "b", "c"} {
		id := mustPost(t, s, alice, c)
		if _, err := s.DeletePost(ctx, id, alice); err != nil {
			t.Fatalf("DeletePost: %v", err)
		}
	}
	if d := s.Stats().UndoDepth; d != 2 {
		t.Fatalf("undo depth = %d, want 2", d)
	}
}

func TestLikeUnlikeRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, Options{})
	alice := mustUser(t, s, "alice")
	id := mustPost(t, s, alice, "cat")

	p, err := s.LikePost(ctx, id, alice)
	if err != nil || p.LikeCount != 1 {
		t.Fatalf("LikePost = %+v, %v", p, err)
	}
	if _, err := s.LikePost(ctx, id, alice); !errors.Is(err, apperrors.ErrAlreadyLiked) {
		t.Fatalf("second like: got %v, want ErrAlreadyLiked", err)
	}
	p, err = s.UnlikePost(ctx, id, alice)
	if err != nil || p.LikeCount != 0 {
		t.Fatalf("UnlikePost = %+v, %v", p, err)
	}
	if _, err := s.UnlikePost(ctx, id, alice); !errors.Is(err, apperrors.ErrNotLiked) {
		t.Fatalf("unlike without like: got %v, want ErrNotLiked", err)
	}
	if p, _ := s.FindPost(id); p.LikeCount != 0 {
		t.Fatalf("like count went to %d", p.LikeCount)
	}
}

func TestUnlikeCheckOrder(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, Options{})
	alice := mustUser(t, s, "alice")
	bob := mustUser(t, s, "bob")
	id := mustPost(t, s, alice, "cat")

	if _, err := s.UnlikePost(ctx, 999, bob); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("missing post: got %v", err)
	}
	// bob has not liked it either, but ownership is checked first.
	if _, err := s.UnlikePost(ctx, id, bob); !errors.Is(err, apperrors.ErrNotOwner) {
		t.Fatalf("non-owner: got %v", err)
	}
}

func TestNonOwnerIsRejected(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, Options{})
	alice := mustUser(t, s, "alice")
	bob := mustUser(t, s, "bob")
	id := mustPost(t, s, alice, "mine")

	if err := s.EditPost(ctx, id, bob, "hijack", ""); !errors.Is(err, apperrors.ErrNotOwner) {
		t.Fatalf("EditPost: got %v", err)
	}
	if _, err := s.DeletePost(ctx, id, bob); !errors.Is(err, apperrors.ErrNotOwner) {
		t.Fatalf("DeletePost: got %v", err)
	}
	if _, err := s.LikePost(ctx, id, bob); err != nil {
		t.Fatalf("anyone may like: %v", err)
	}
	if _, err := s.UnlikePost(ctx, id, bob); !errors.Is(err, apperrors.ErrNotOwner) {
		t.Fatalf("UnlikePost: got %v", err)
	}
	p, _ := s.FindPost(id)
	if p.Caption != "mine" || p.LikeCount != 1 {
		t.Fatalf("post changed by non-owner: %+v", p)
	}
}

func TestEditPost(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, Options{})
	alice := mustUser(t, s, "alice")
	id := mustPost(t, s, alice, "draft")
	if err := s.EditPost(ctx, id, alice, "final", "img/final.png"); err != nil {
		t.Fatalf("EditPost: %v", err)
	}
	p, _ := s.FindPost(id)
	if p.Caption != "final" || p.MediaRef != "img/final.png" {
		t.Fatalf("edit not applied: %+v", p)
	}
	if err := s.EditPost(ctx, id, alice, "a|b", ""); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("pipe in caption: got %v", err)
	}
}

func TestTopLikedThree(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, Options{})
	owner := mustUser(t, s, "owner")
	var fans []int
	for _, n := range []string{"f1", "f2", "f3", "f4", "f5", "f6", "f7", "f8", "f9"} {
		fans = append(fans, mustUser(t, s, n))
	}
	for _, likes := range []int{5, 2, 9, 9, 1} {
		id := mustPost(t, s, owner, "p")
		for _, f := range fans[:likes] {
			if _, err := s.LikePost(ctx, id, f); err != nil {
				t.Fatalf("LikePost: %v", err)
			}
		}
	}
	top, err := s.TopLiked(ctx, 3)
	if err != nil {
		t.Fatalf("TopLiked: %v", err)
	}
	got := []int{top[0].LikeCount, top[1].LikeCount, top[2].LikeCount}
	if !reflect.DeepEqual(got, []int{9, 9, 5}) {
		t.Fatalf("top likes = %v, want [9 9 5]", got)
	}
}

func TestTopLikedUsesCache(t *testing.T) {
	ctx := context.Background()
	cache := &countingCache{entries: make(map[[2]uint64][]model.Post)}
	s := openStore(t, Options{Cache: cache})
	alice := mustUser(t, s, "alice")
	id := mustPost(t, s, alice, "a")
	mustPost(t, s, alice, "b")

	first, _ := s.TopLiked(ctx, 1)
	second, _ := s.TopLiked(ctx, 1)
	if len(cache.entries) != 1 || !reflect.DeepEqual(first, second) {
		t.Fatalf("unchanged content should hit one cache entry, have %d", len(cache.entries))
	}
	if _, err := s.LikePost(ctx, id, alice); err != nil {
		t.Fatal(err)
	}
	third, _ := s.TopLiked(ctx, 1)
	if third[0].ID != id || third[0].LikeCount != 1 {
		t.Fatalf("after like, top = %+v", third[0])
	}
	if len(cache.entries) != 2 {
		t.Fatalf("a like should produce a new cache key")
	}

	cache.err = errors.New("redis down")
	if top, err := s.TopLiked(ctx, 1); err != nil || top[0].ID != id {
		t.Fatalf("cache failure should fall back, got %+v, %v", top, err)
	}
}

func TestSearchByID(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, Options{})
	if _, err := s.SearchByID(1); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("empty store: got %v", err)
	}
	if _, err := s.SearchByIDSorted(1); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("empty store (sorted): got %v", err)
	}

	alice := mustUser(t, s, "alice")
	for i := 1; i <= 7; i++ {
		mustPost(t, s, alice, "p")
	}
	for _, id := range []int{2, 4, 5, 6} {
		if _, err := s.DeletePost(ctx, id, alice); err != nil {
			t.Fatal(err)
		}
	}
	for _, search := range []func(int) (model.Post, error){s.SearchByID, s.SearchByIDSorted} {
		p, err := search(3)
		if err != nil || p.ID != 3 {
			t.Fatalf("search(3) = %+v, %v", p, err)
		}
		if _, err := search(4); !errors.Is(err, apperrors.ErrNotFound) {
			t.Fatalf("search(4): got %v", err)
		}
	}
}

func TestLikeCountQueries(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, Options{})
	alice := mustUser(t, s, "alice")
	bob := mustUser(t, s, "bob")
	a := mustPost(t, s, alice, "a")
	b := mustPost(t, s, bob, "b")
	c := mustPost(t, s, alice, "c")
	for _, id := range []int{a, c} {
		if _, err := s.LikePost(ctx, id, bob); err != nil {
			t.Fatal(err)
		}
	}

	with, err := s.PostsWithLikes(1)
	if err != nil || len(with) != 2 || with[0].ID != a || with[1].ID != c {
		t.Fatalf("PostsWithLikes(1) = %+v, %v", with, err)
	}
	if _, err := s.PostsWithLikes(5); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("PostsWithLikes(5): got %v", err)
	}
	asc := s.PostsAscendingByLikes()
	if asc[0].ID != b || asc[2].LikeCount != 1 {
		t.Fatalf("ascending = %+v", asc)
	}
	desc := s.PostsByLikes()
	if desc[2].ID != b {
		t.Fatalf("descending = %+v", desc)
	}
}

func TestLikeIndexVariants(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, Options{})
	alice := mustUser(t, s, "alice")
	bob := mustUser(t, s, "bob")
	theirs := mustPost(t, s, bob, "theirs")
	mine := mustPost(t, s, alice, "mine")
	for _, id := range []int{theirs, mine} {
		if _, err := s.LikePost(ctx, id, alice); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := s.UnlikeByLikes(ctx, alice, 7); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("no match: got %v", err)
	}
	p, err := s.UnlikeByLikes(ctx, alice, 1)
	if err != nil || p.ID != mine || p.LikeCount != 0 {
		t.Fatalf("UnlikeByLikes = %+v, %v", p, err)
	}
	if _, err := s.DeleteByLikes(ctx, alice, 1); !errors.Is(err, apperrors.ErrNotOwner) {
		t.Fatalf("only bob's post has one like: got %v", err)
	}
	p, err = s.DeleteByLikes(ctx, alice, 0)
	if err != nil || p.ID != mine {
		t.Fatalf("DeleteByLikes = %+v, %v", p, err)
	}
	notes := s.Notifications()
	if last := notes[len(notes)-1]; last != "You deleted post ID 2 (BST)" {
		t.Fatalf("last notification = %q", last)
	}
}

func TestDeleteTopLikedOwned(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, Options{})
	alice := mustUser(t, s, "alice")
	bob := mustUser(t, s, "bob")
	if _, err := s.DeleteTopLikedOwned(ctx, alice); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("no posts: got %v", err)
	}
	mustPost(t, s, alice, "low")
	hi := mustPost(t, s, alice, "high")
	other := mustPost(t, s, bob, "bobs")
	for _, id := range []int{hi, other} {
		s.LikePost(ctx, id, bob)
	}
	s.LikePost(ctx, other, alice)

	p, err := s.DeleteTopLikedOwned(ctx, alice)
	if err != nil || p.ID != hi {
		t.Fatalf("DeleteTopLikedOwned = %+v, %v", p, err)
	}
	if !s.CanUndo() {
		t.Fatal("deletion should be undoable")
	}
}

func TestComments(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, Options{})
	alice := mustUser(t, s, "alice")
	bob := mustUser(t, s, "bob")
	id := mustPost(t, s, alice, "p")

	if _, err := s.AddComment(ctx, 42, bob, "hi"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("unknown post: got %v", err)
	}
	if _, err := s.AddComment(ctx, id, bob, "  "); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("blank text: got %v", err)
	}
	first, _ := s.AddComment(ctx, id, bob, "first")
	second, _ := s.AddComment(ctx, id, alice, "second")
	if second <= first {
		t.Fatalf("comment ids %d, %d", first, second)
	}

	// comments survive deletion and show up again after undo
	s.DeletePost(ctx, id, alice)
	s.Undo(ctx, alice)
	views := s.ListPosts()
	if len(views) != 1 || len(views[0].Comments) != 2 || views[0].Comments[0].Text != "second" {
		t.Fatalf("ListPosts = %+v", views)
	}
}

func TestSignupAndLogin(t *testing.T) {
	ctx := context.Background()
	log := &memLog{}
	sink := &recordingSink{}
	s := openStore(t, Options{ActivityLog: log, Events: sink})
	mustUser(t, s, "alice")

	if _, err := s.CreateUser(ctx, "alice", "a2@x.com", "pw"); !errors.Is(err, apperrors.ErrAlreadyExists) {
		t.Fatalf("duplicate username: got %v", err)
	}
	if _, err := s.CreateUser(ctx, "bad name", "b@x.com", "pw"); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("space in username: got %v", err)
	}
	if _, err := s.Login(ctx, "alice", "wrong"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("bad password: got %v", err)
	}
	sess, err := s.Login(ctx, "alice", "pw-alice")
	if err != nil || sess.UserID != 1 {
		t.Fatalf("Login = %+v, %v", sess, err)
	}
	if len(log.lines) != 1 || log.lines[0] != "User alice logged in." {
		t.Fatalf("activity log = %q", log.lines)
	}
	if len(sink.events) != 2 || sink.events[1].Type != activity.EventUserLogin {
		t.Fatalf("events = %+v", sink.events)
	}

	log.fail = errors.New("disk full")
	sess, err = s.Login(ctx, "alice", "pw-alice")
	if !apperrors.IsPersistence(err) || sess.UserID != 1 {
		t.Fatalf("log failure should still log in: %+v, %v", sess, err)
	}
}

func TestNotificationsText(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, Options{})
	alice := mustUser(t, s, "alice")
	id := mustPost(t, s, alice, "p")
	s.EditPost(ctx, id, alice, "q", "")
	s.LikePost(ctx, id, alice)
	s.UnlikePost(ctx, id, alice)
	s.AddComment(ctx, id, alice, "c")
	s.DeletePost(ctx, id, alice)
	s.Undo(ctx, alice)

	want := []string{
		"You signed up as user ID 1",
		"You created post ID 1",
		"You edited post ID 1",
		"You liked post ID 1",
		"You unliked post ID 1",
		"You commented on post ID 1",
		"You deleted post ID 1",
		"You restored post ID 1",
	}
	if got := s.Notifications(); !reflect.DeepEqual(got, want) {
		t.Fatalf("notifications:\n got %q\nwant %q", got, want)
	}
}

func TestPersistenceFailureKeepsChange(t *testing.T) {
	ctx := context.Background()
	p := &memPersister{}
	s := openStore(t, Options{Persister: p})
	alice := mustUser(t, s, "alice")

	p.fail = errors.New("read-only filesystem")
	id, err := s.CreatePost(ctx, alice, "kept", "")
	if !errors.Is(err, apperrors.ErrPersistence) {
		t.Fatalf("CreatePost: got %v, want ErrPersistence", err)
	}
	if !strings.Contains(err.Error(), "read-only") {
		t.Fatalf("cause lost: %v", err)
	}
	if _, err := s.FindPost(id); err != nil {
		t.Fatalf("post should stay in memory: %v", err)
	}

	p.fail = nil
	if err := s.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if len(p.snap.Posts) != 1 {
		t.Fatalf("flushed snapshot has %d posts", len(p.snap.Posts))
	}
}

func TestReopenRoundTrip(t *testing.T) {
	ctx := context.Background()
	p := &memPersister{}
	s := openStore(t, Options{Persister: p})
	alice := mustUser(t, s, "alice")
	bob := mustUser(t, s, "bob")
	id := mustPost(t, s, alice, "hello")
	s.LikePost(ctx, id, bob)
	s.AddComment(ctx, id, bob, "nice")

	want := s.Snapshot()
	reopened := openStore(t, Options{Persister: p})
	if got := reopened.Snapshot(); !reflect.DeepEqual(got, want) {
		t.Fatalf("reopened snapshot differs:\n got %+v\nwant %+v", got, want)
	}
	if _, err := reopened.LikePost(ctx, id, bob); !errors.Is(err, apperrors.ErrAlreadyLiked) {
		t.Fatalf("ledger not restored: %v", err)
	}
}

func TestDeletedPostIDNotReusedAfterReopen(t *testing.T) {
	ctx := context.Background()
	p := &memPersister{}
	s := openStore(t, Options{Persister: p})
	alice := mustUser(t, s, "alice")
	bob := mustUser(t, s, "bob")
	old := mustPost(t, s, alice, "draft")
	if _, err := s.AddComment(ctx, old, alice, "private note"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.DeletePost(ctx, old, alice); err != nil {
		t.Fatal(err)
	}

	reopened := openStore(t, Options{Persister: p})
	id := mustPost(t, reopened, bob, "fresh")
	if id == old {
		t.Fatalf("new post reused deleted id %d", old)
	}
	if got := reopened.CommentsOn(id); len(got) != 0 {
		t.Fatalf("new post %d inherited comments %+v", id, got)
	}
	views := reopened.ListPosts()
	if len(views) != 1 || len(views[0].Comments) != 0 {
		t.Fatalf("ListPosts = %+v", views)
	}
}

func TestRestoreSkipsDuplicateCommentIDs(t *testing.T) {
	p := &memPersister{snap: model.Snapshot{
		Users: []model.User{{ID: 1, Username: "a", Email: "a@x", Password: "p"}},
		Posts: []model.Post{{ID: 1, OwnerID: 1, Caption: "c"}},
		Comments: []model.Comment{
			{ID: 1, PostID: 1, AuthorID: 1, Text: "first"},
			{ID: 1, PostID: 1, AuthorID: 1, Text: "copy"},
			{ID: 2, PostID: 1, AuthorID: 1, Text: "second"},
		},
	}}
	s := openStore(t, Options{Persister: p})
	got := s.CommentsOn(1)
	if len(got) != 2 || got[0].Text != "first" || got[1].Text != "second" {
		t.Fatalf("comments = %+v", got)
	}
	id, err := s.AddComment(context.Background(), 1, 1, "third")
	if err != nil || id != 3 {
		t.Fatalf("AddComment = %d, %v", id, err)
	}
	seen := make(map[int]bool)
	for _, c := range s.Snapshot().Comments {
		if seen[c.ID] {
			t.Fatalf("snapshot repeats comment id %d", c.ID)
		}
		seen[c.ID] = true
	}
}

func TestDeleteByLikesSkipsOthersAmongEqualCounts(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, Options{})
	alice := mustUser(t, s, "alice")
	bob := mustUser(t, s, "bob")
	carol := mustUser(t, s, "carol")
	// Like tree by insertion: b1(2) root, b2(1) left, b3(2) right, a4(2)
	// below b3. Skipping b1 exercises the two-child delete.
	b1 := mustPost(t, s, bob, "b1")
	b2 := mustPost(t, s, bob, "b2")
	b3 := mustPost(t, s, bob, "b3")
	a4 := mustPost(t, s, alice, "a4")
	for _, id := range []int{b1, b3, a4} {
		for _, u := range []int{alice, carol} {
			if _, err := s.LikePost(ctx, id, u); err != nil {
				t.Fatal(err)
			}
		}
	}
	if _, err := s.LikePost(ctx, b2, carol); err != nil {
		t.Fatal(err)
	}

	p, err := s.DeleteByLikes(ctx, alice, 2)
	if err != nil || p.ID != a4 {
		t.Fatalf("DeleteByLikes = %+v, %v", p, err)
	}
	if _, err := s.DeleteByLikes(ctx, alice, 2); !errors.Is(err, apperrors.ErrNotOwner) {
		t.Fatalf("remaining two-like posts are bob's: got %v", err)
	}
	if got := len(s.ListPosts()); got != 3 {
		t.Fatalf("posts left = %d, want 3", got)
	}
}

func TestRestoreRaisesCountToLedger(t *testing.T) {
	p := &memPersister{snap: model.Snapshot{
		Users: []model.User{{ID: 1, Username: "a", Email: "a@x", Password: "p"}, {ID: 2, Username: "b", Email: "b@x", Password: "p"}},
		Posts: []model.Post{{ID: 1, OwnerID: 1, Caption: "c", LikeCount: 0}, {ID: 2, OwnerID: 1, Caption: "d", LikeCount: -4}},
		Likes: []model.Like{{PostID: 1, UserID: 1}, {PostID: 1, UserID: 2}, {PostID: 9, UserID: 1}},
	}}
	s := openStore(t, Options{Persister: p})
	if got, _ := s.FindPost(1); got.LikeCount != 2 {
		t.Fatalf("post 1 likes = %d, want 2", got.LikeCount)
	}
	if got, _ := s.FindPost(2); got.LikeCount != 0 {
		t.Fatalf("negative count should clamp to 0, got %d", got.LikeCount)
	}
	if s.Stats().Likes != 2 {
		t.Fatalf("likes on missing posts should be dropped")
	}
}

func TestConcurrentLikes(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, Options{})
	owner := mustUser(t, s, "owner")
	id := mustPost(t, s, owner, "viral")
	var users []int
	for i := 0; i < 20; i++ {
		users = append(users, mustUser(t, s, "u"+string(rune('a'+i))))
	}
	var wg sync.WaitGroup
	for _, u := range users {
		wg.Add(1)
		go func(u int) {
			defer wg.Done()
			s.LikePost(ctx, id, u)
		}(u)
	}
	wg.Wait()
	if p, _ := s.FindPost(id); p.LikeCount != len(users) {
		t.Fatalf("like count = %d, want %d", p.LikeCount, len(users))
	}
}
