package store

import (
	"context"
	"time"

	"github.com/Adithya-Monish-Kumar-K/content-store/internal/activity"
	"github.com/Adithya-Monish-Kumar-K/content-store/internal/index"
	"github.com/Adithya-Monish-Kumar-K/content-store/internal/model"
	apperrors "github.com/Adithya-Monish-Kumar-K/content-store/pkg/errors"
)

// LikePost records actorID's like on postID. Any user may like any post,
// once.
func (s *Store) LikePost(ctx context.Context, postID, actorID int) (p model.Post, err error) {
	defer s.observe("like_post", time.Now(), &err)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireUser(actorID); err != nil {
		return model.Post{}, err
	}
	i, err := s.lookupPost(postID)
	if err != nil {
		return model.Post{}, err
	}
	if err := s.likes.Add(postID, actorID); err != nil {
		return model.Post{}, err
	}
	s.posts[i].LikeCount++
	s.notes.Enqueuef("You liked post ID %d", postID)
	s.track(activity.Event{Type: activity.EventPostLiked, ActorID: actorID, PostID: postID, LikeCount: s.posts[i].LikeCount})
	return s.posts[i], s.persistLocked(ctx)
}

// UnlikePost withdraws the owner's like from their own post. Checks run in
// order: the post exists, the actor owns it, the actor has liked it.
func (s *Store) UnlikePost(ctx context.Context, postID, actorID int) (p model.Post, err error) {
	defer s.observe("unlike_post", time.Now(), &err)
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.ownedPost(postID, actorID)
	if err != nil {
		return model.Post{}, err
	}
	return s.unlikeLocked(ctx, i, actorID, "")
}

func (s *Store) unlikeLocked(ctx context.Context, i, actorID int, suffix string) (model.Post, error) {
	postID := s.posts[i].ID
	if err := s.likes.Remove(postID, actorID); err != nil {
		return model.Post{}, err
	}
	if s.posts[i].LikeCount > 0 {
		s.posts[i].LikeCount--
	}
	s.notes.Enqueuef("You unliked post ID %d%s", postID, suffix)
	s.track(activity.Event{Type: activity.EventPostUnliked, ActorID: actorID, PostID: postID, LikeCount: s.posts[i].LikeCount})
	return s.posts[i], s.persistLocked(ctx)
}

// UnlikeByLikes unlikes the actor's first own post, in like-index order,
// whose count equals likes.
func (s *Store) UnlikeByLikes(ctx context.Context, actorID, likes int) (p model.Post, err error) {
	defer s.observe("unlike_by_likes", time.Now(), &err)
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.ownedWithLikesLocked(actorID, likes)
	if err != nil {
		return model.Post{}, err
	}
	return s.unlikeLocked(ctx, i, actorID, " (BST)")
}

// DeleteByLikes deletes the actor's first own post, in like-index order,
// whose count equals likes.
func (s *Store) DeleteByLikes(ctx context.Context, actorID, likes int) (p model.Post, err error) {
	defer s.observe("delete_by_likes", time.Now(), &err)
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.ownedWithLikesLocked(actorID, likes)
	if err != nil {
		return model.Post{}, err
	}
	return s.deleteLocked(ctx, i, actorID, " (BST)")
}

// ownedWithLikesLocked searches a like-count tree for likes and returns the
// slot of the first match owned by actorID. Matches that all belong to
// someone else report ErrNotOwner.
func (s *Store) ownedWithLikesLocked(actorID, likes int) (int, error) {
	tree := index.BuildByLikes(s.posts)
	found := false
	for {
		e, ok := tree.Search(likes)
		if !ok {
			break
		}
		found = true
		i := s.postSlot[e.PostID]
		if s.posts[i].OwnerID == actorID {
			return i, nil
		}
		// Someone else's post: unlink it so the next search reaches the
		// following equal key.
		tree.Delete(likes)
	}
	if !found {
		return -1, apperrors.Newf(apperrors.ErrNotFound, "no post with %d likes", likes)
	}
	return -1, apperrors.Newf(apperrors.ErrNotOwner, "no post of yours has %d likes", likes)
}
