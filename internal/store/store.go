// Package store is the authoritative in-memory collection of users, posts,
// and comments. Every mutator runs under one lock, applies its side effects
// (undo push, notification, like ledger, activity event) atomically, and
// rewrites the persistent snapshot before returning.
//
// A failed snapshot write does not undo the in-memory change. The mutator
// returns its normal result together with an error matching
// apperrors.ErrPersistence so callers can warn and carry on.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/content-store/internal/activity"
	"github.com/Adithya-Monish-Kumar-K/content-store/internal/ledger"
	"github.com/Adithya-Monish-Kumar-K/content-store/internal/model"
	"github.com/Adithya-Monish-Kumar-K/content-store/internal/notify"
	"github.com/Adithya-Monish-Kumar-K/content-store/internal/undo"
	apperrors "github.com/Adithya-Monish-Kumar-K/content-store/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/content-store/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/content-store/pkg/resilience"
)

// Persister loads and saves the whole store. Load on a fresh backend
// returns an empty snapshot, not an error.
type Persister interface {
	Load(ctx context.Context) (model.Snapshot, error)
	Save(ctx context.Context, snap model.Snapshot) error
}

// ActivityLog receives one line per login.
type ActivityLog interface {
	Append(ctx context.Context, line string) error
}

// RankCache may serve top-K results computed earlier for identical content.
type RankCache interface {
	GetOrCompute(ctx context.Context, fingerprint uint64, k int, compute func() ([]model.Post, error)) ([]model.Post, bool, error)
}

// Options wires the store's collaborators. Every field is optional.
type Options struct {
	UndoLimit         int
	NotificationLimit int
	Persister         Persister
	ActivityLog       ActivityLog
	Events            activity.Sink
	Cache             RankCache
	Metrics           *metrics.Metrics
	Retry             resilience.RetryConfig
}

// Session identifies the logged-in user. Obtain one from Login and pass its
// UserID to mutators; dropping it is logging out.
type Session struct {
	UserID   int
	Username string
}

type Store struct {
	mu sync.RWMutex

	users     []model.User
	userSlot  map[int]int
	nameIndex map[string]int

	// posts keeps insertion order; postSlot maps id to index in posts.
	posts    []model.Post
	postSlot map[int]int

	comments []model.Comment

	likes *ledger.Ledger
	undo  *undo.Stack
	notes *notify.Queue

	lastUserID    int
	lastPostID    int
	lastCommentID int

	persister Persister
	actlog    ActivityLog
	events    activity.Sink
	cache     RankCache
	metrics   *metrics.Metrics
	retry     resilience.RetryConfig
	logger    *slog.Logger
}

// Open builds a store and loads its contents from opts.Persister.
func Open(ctx context.Context, opts Options) (*Store, error) {
	s := &Store{
		userSlot:  make(map[int]int),
		nameIndex: make(map[string]int),
		postSlot:  make(map[int]int),
		likes:     ledger.New(),
		undo:      undo.New(opts.UndoLimit),
		notes:     notify.New(opts.NotificationLimit),
		persister: opts.Persister,
		actlog:    opts.ActivityLog,
		events:    opts.Events,
		cache:     opts.Cache,
		metrics:   opts.Metrics,
		retry:     opts.Retry,
		logger:    slog.Default().With("component", "store"),
	}
	if s.persister == nil {
		return s, nil
	}
	snap, err := s.persister.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading store: %w", err)
	}
	s.restore(snap)
	s.logger.Info("store loaded",
		"users", len(s.users),
		"posts", len(s.posts),
		"comments", len(s.comments),
		"likes", s.likes.Len(),
		"last_post_id", s.lastPostID,
	)
	s.publishSizes()
	return s, nil
}

// restore installs snap. Records with duplicate ids are skipped.
func (s *Store) restore(snap model.Snapshot) {
	for _, u := range snap.Users {
		if _, dup := s.userSlot[u.ID]; dup {
			s.logger.Warn("skipping duplicate user id", "user_id", u.ID)
			continue
		}
		if _, dup := s.nameIndex[u.Username]; dup {
			s.logger.Warn("skipping duplicate username", "username", u.Username)
			continue
		}
		s.addUser(u)
	}
	for _, p := range snap.Posts {
		if _, dup := s.postSlot[p.ID]; dup {
			s.logger.Warn("skipping duplicate post id", "post_id", p.ID)
			continue
		}
		if p.LikeCount < 0 {
			p.LikeCount = 0
		}
		s.appendPost(p)
		s.lastPostID = max(s.lastPostID, p.ID)
	}
	// Comments outlive their post, so their post ids also seed the counter.
	// Otherwise a new post could take a deleted post's id and its comments.
	seenComment := make(map[int]bool, len(snap.Comments))
	for _, c := range snap.Comments {
		if seenComment[c.ID] {
			s.logger.Warn("skipping duplicate comment id", "comment_id", c.ID)
			continue
		}
		seenComment[c.ID] = true
		s.comments = append(s.comments, c)
		s.lastCommentID = max(s.lastCommentID, c.ID)
		s.lastPostID = max(s.lastPostID, c.PostID)
	}
	for _, l := range snap.Likes {
		if _, ok := s.postSlot[l.PostID]; !ok {
			continue
		}
		_ = s.likes.Add(l.PostID, l.UserID)
	}
	for i := range s.posts {
		if n := s.likes.Count(s.posts[i].ID); n > s.posts[i].LikeCount {
			s.logger.Warn("like count below ledger size, raising",
				"post_id", s.posts[i].ID, "like_count", s.posts[i].LikeCount, "ledger", n)
			s.posts[i].LikeCount = n
		}
	}
}

func (s *Store) addUser(u model.User) {
	s.userSlot[u.ID] = len(s.users)
	s.nameIndex[u.Username] = u.ID
	s.users = append(s.users, u)
	s.lastUserID = max(s.lastUserID, u.ID)
}

func (s *Store) appendPost(p model.Post) {
	s.postSlot[p.ID] = len(s.posts)
	s.posts = append(s.posts, p)
}

// removePost drops the post at slot i and returns it.
func (s *Store) removePost(i int) model.Post {
	p := s.posts[i]
	copy(s.posts[i:], s.posts[i+1:])
	s.posts[len(s.posts)-1] = model.Post{}
	s.posts = s.posts[:len(s.posts)-1]
	delete(s.postSlot, p.ID)
	for j := i; j < len(s.posts); j++ {
		s.postSlot[s.posts[j].ID] = j
	}
	return p
}

// lookupPost returns the slot of postID or ErrNotFound. Caller holds mu.
func (s *Store) lookupPost(postID int) (int, error) {
	i, ok := s.postSlot[postID]
	if !ok {
		return -1, apperrors.Newf(apperrors.ErrNotFound, "post %d", postID)
	}
	return i, nil
}

// ownedPost returns the slot of postID if actorID owns it.
func (s *Store) ownedPost(postID, actorID int) (int, error) {
	i, err := s.lookupPost(postID)
	if err != nil {
		return -1, err
	}
	if s.posts[i].OwnerID != actorID {
		return -1, apperrors.Newf(apperrors.ErrNotOwner, "post %d belongs to user %d", postID, s.posts[i].OwnerID)
	}
	return i, nil
}

func (s *Store) requireUser(userID int) error {
	if _, ok := s.userSlot[userID]; !ok {
		return apperrors.Newf(apperrors.ErrNotFound, "user %d", userID)
	}
	return nil
}

// snapshotLocked copies the persistent state. Caller holds mu.
func (s *Store) snapshotLocked() model.Snapshot {
	snap := model.Snapshot{
		Users:    make([]model.User, len(s.users)),
		Posts:    make([]model.Post, len(s.posts)),
		Comments: make([]model.Comment, len(s.comments)),
		Likes:    s.likes.All(),
	}
	copy(snap.Users, s.users)
	copy(snap.Posts, s.posts)
	copy(snap.Comments, s.comments)
	return snap
}

// Snapshot returns a copy of everything that is persisted.
func (s *Store) Snapshot() model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// persistLocked rewrites the snapshot. Caller holds the write lock.
func (s *Store) persistLocked(ctx context.Context) error {
	s.publishSizes()
	if s.persister == nil {
		return nil
	}
	snap := s.snapshotLocked()
	err := resilience.Retry(ctx, "store-save", s.retry, func() error {
		return s.persister.Save(ctx, snap)
	})
	s.metrics.PersistWrite(err)
	if err != nil {
		s.logger.Error("snapshot write failed, change kept in memory only", "error", err)
		return apperrors.Persistence(err)
	}
	return nil
}

// Flush writes the current state without changing it.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(ctx)
}

func (s *Store) publishSizes() {
	s.metrics.SetSizes(len(s.users), len(s.posts), len(s.comments), s.likes.Len(), s.undo.Len(), s.notes.Len())
}

func (s *Store) track(e activity.Event) {
	if s.events == nil {
		return
	}
	e.Timestamp = time.Now().UTC()
	s.events.Track(e)
}

func (s *Store) observe(op string, start time.Time, errp *error) {
	s.metrics.ObserveOp(op, outcome(*errp), time.Since(start))
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, apperrors.ErrPersistence):
		return "unsaved"
	case errors.Is(err, apperrors.ErrNotFound):
		return "not_found"
	case errors.Is(err, apperrors.ErrNotOwner):
		return "not_owner"
	case errors.Is(err, apperrors.ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, apperrors.ErrAlreadyLiked):
		return "already_liked"
	case errors.Is(err, apperrors.ErrNotLiked):
		return "not_liked"
	case errors.Is(err, apperrors.ErrEmpty):
		return "empty"
	case errors.Is(err, apperrors.ErrInvalidInput):
		return "invalid_input"
	default:
		return "error"
	}
}

// Notifications returns the feed, oldest first.
func (s *Store) Notifications() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.notes.View()
}

// Stats summarises the store's size.
type Stats struct {
	Users         int `json:"users"`
	Posts         int `json:"posts"`
	Comments      int `json:"comments"`
	Likes         int `json:"likes"`
	UndoDepth     int `json:"undo_depth"`
	Notifications int `json:"notifications"`
	LastPostID    int `json:"last_post_id"`
}

func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		Users:         len(s.users),
		Posts:         len(s.posts),
		Comments:      len(s.comments),
		Likes:         s.likes.Len(),
		UndoDepth:     s.undo.Len(),
		Notifications: s.notes.Len(),
		LastPostID:    s.lastPostID,
	}
}
