package store

import (
	"context"
	"time"

	"github.com/Adithya-Monish-Kumar-K/content-store/internal/activity"
	"github.com/Adithya-Monish-Kumar-K/content-store/internal/model"
	"github.com/Adithya-Monish-Kumar-K/content-store/internal/undo"
	apperrors "github.com/Adithya-Monish-Kumar-K/content-store/pkg/errors"
)

// CreatePost appends a post owned by ownerID and returns its id. Ids come
// from a counter seeded with the highest id seen at load, so they only grow.
func (s *Store) CreatePost(ctx context.Context, ownerID int, caption, media string) (id int, err error) {
	defer s.observe("create_post", time.Now(), &err)
	if err := validatePost(caption, media); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireUser(ownerID); err != nil {
		return 0, err
	}
	s.lastPostID++
	p := model.Post{ID: s.lastPostID, OwnerID: ownerID, Caption: caption, MediaRef: media}
	s.appendPost(p)
	s.notes.Enqueuef("You created post ID %d", p.ID)
	s.track(activity.Event{Type: activity.EventPostCreated, ActorID: ownerID, PostID: p.ID})
	return p.ID, s.persistLocked(ctx)
}

// EditPost replaces caption and media of a post the actor owns.
func (s *Store) EditPost(ctx context.Context, postID, actorID int, caption, media string) (err error) {
	defer s.observe("edit_post", time.Now(), &err)
	if err := validatePost(caption, media); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.ownedPost(postID, actorID)
	if err != nil {
		return err
	}
	s.posts[i].Caption = caption
	s.posts[i].MediaRef = media
	s.notes.Enqueuef("You edited post ID %d", postID)
	s.track(activity.Event{Type: activity.EventPostEdited, ActorID: actorID, PostID: postID})
	return s.persistLocked(ctx)
}

// DeletePost removes a post the actor owns and pushes it, with its likes,
// onto the undo stack. Comments on the post are kept.
func (s *Store) DeletePost(ctx context.Context, postID, actorID int) (p model.Post, err error) {
	defer s.observe("delete_post", time.Now(), &err)
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.ownedPost(postID, actorID)
	if err != nil {
		return model.Post{}, err
	}
	return s.deleteLocked(ctx, i, actorID, "")
}

// deleteLocked removes the post at slot i. suffix is appended to the
// notification text.
func (s *Store) deleteLocked(ctx context.Context, i, actorID int, suffix string) (model.Post, error) {
	p := s.removePost(i)
	likers := s.likes.Detach(p.ID)
	if evicted := s.undo.Push(undo.Entry{Post: p, Likers: likers}); evicted {
		s.logger.Warn("undo stack full, oldest deletion discarded")
	}
	s.notes.Enqueuef("You deleted post ID %d%s", p.ID, suffix)
	s.track(activity.Event{Type: activity.EventPostDeleted, ActorID: actorID, PostID: p.ID, LikeCount: p.LikeCount})
	s.logger.Info("post deleted", "post_id", p.ID, "actor_id", actorID, "undo_depth", s.undo.Len())
	return p, s.persistLocked(ctx)
}

// Undo restores the most recently deleted post exactly as it was, likes
// included. The post goes back at the end of the listing order.
func (s *Store) Undo(ctx context.Context, actorID int) (p model.Post, err error) {
	defer s.observe("undo", time.Now(), &err)
	s.mu.Lock()
	defer s.mu.Unlock()
	if top, ok := s.undo.Peek(); ok {
		if _, clash := s.postSlot[top.Post.ID]; clash {
			return model.Post{}, apperrors.Newf(apperrors.ErrAlreadyExists, "post %d already exists", top.Post.ID)
		}
	}
	entry, err := s.undo.Pop()
	if err != nil {
		return model.Post{}, err
	}
	s.appendPost(entry.Post)
	s.likes.Attach(entry.Post.ID, entry.Likers)
	s.notes.Enqueuef("You restored post ID %d", entry.Post.ID)
	s.track(activity.Event{Type: activity.EventPostRestored, ActorID: actorID, PostID: entry.Post.ID, LikeCount: entry.Post.LikeCount})
	return entry.Post, s.persistLocked(ctx)
}

// CanUndo reports whether a deletion is waiting to be restored.
func (s *Store) CanUndo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.undo.IsEmpty()
}

// FindPost looks a post up by id.
func (s *Store) FindPost(postID int) (model.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, err := s.lookupPost(postID)
	if err != nil {
		return model.Post{}, err
	}
	return s.posts[i], nil
}

// ListPosts returns every post in insertion order with its comments,
// newest comment first.
func (s *Store) ListPosts() []model.PostView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byPost := make(map[int][]model.Comment)
	for i := len(s.comments) - 1; i >= 0; i-- {
		c := s.comments[i]
		byPost[c.PostID] = append(byPost[c.PostID], c)
	}
	out := make([]model.PostView, len(s.posts))
	for i, p := range s.posts {
		out[i] = model.PostView{Post: p, Comments: byPost[p.ID]}
	}
	return out
}

// ListPostsByOwner returns ownerID's posts in insertion order.
func (s *Store) ListPostsByOwner(ownerID int) []model.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ownedByLocked(ownerID)
}

func (s *Store) ownedByLocked(ownerID int) []model.Post {
	var out []model.Post
	for _, p := range s.posts {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	return out
}

// PostsByUsername resolves username and lists that user's posts.
func (s *Store) PostsByUsername(username string) ([]model.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.nameIndex[username]
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrNotFound, "user %q", username)
	}
	return s.ownedByLocked(id), nil
}
