package store

import (
	"context"
	"time"

	"github.com/Adithya-Monish-Kumar-K/content-store/internal/index"
	"github.com/Adithya-Monish-Kumar-K/content-store/internal/model"
	"github.com/Adithya-Monish-Kumar-K/content-store/internal/ranking"
	apperrors "github.com/Adithya-Monish-Kumar-K/content-store/pkg/errors"
)

// SearchByID finds a post through a binary search tree built over the
// current posts.
func (s *Store) SearchByID(postID int) (model.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.posts) == 0 {
		return model.Post{}, apperrors.New(apperrors.ErrNotFound, "no posts")
	}
	e, ok := index.BuildByID(s.posts).Search(postID)
	if !ok {
		return model.Post{}, apperrors.Newf(apperrors.ErrNotFound, "post %d", postID)
	}
	return s.posts[s.postSlot[e.PostID]], nil
}

// SearchByIDSorted answers the same question by sorting a copy by id and
// binary searching it.
func (s *Store) SearchByIDSorted(postID int) (model.Post, error) {
	s.mu.RLock()
	sorted := make([]model.Post, len(s.posts))
	copy(sorted, s.posts)
	s.mu.RUnlock()

	if len(sorted) == 0 {
		return model.Post{}, apperrors.New(apperrors.ErrNotFound, "no posts")
	}
	index.ExchangeSortByID(sorted)
	i, ok := index.BinarySearchByID(sorted, postID)
	if !ok {
		return model.Post{}, apperrors.Newf(apperrors.ErrNotFound, "post %d", postID)
	}
	return sorted[i], nil
}

// TopLiked returns up to k posts with the most likes. When a ranking cache
// is configured, results for unchanged content are served from it; a cache
// failure falls back to computing in place.
func (s *Store) TopLiked(ctx context.Context, k int) (top []model.Post, err error) {
	defer s.observe("top_liked", time.Now(), &err)
	if k <= 0 {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, "k must be positive, got %d", k)
	}
	s.mu.RLock()
	posts := make([]model.Post, len(s.posts))
	copy(posts, s.posts)
	s.mu.RUnlock()

	compute := func() ([]model.Post, error) {
		return ranking.TopK(posts, k), nil
	}
	if s.cache == nil {
		return compute()
	}
	top, hit, err := s.cache.GetOrCompute(ctx, ranking.Fingerprint(posts), k, compute)
	if err != nil {
		s.logger.Warn("ranking cache failed, computing directly", "error", err)
		return compute()
	}
	s.metrics.RankCache(hit)
	return top, nil
}

// PostsByLikes returns every post ordered by like count, highest first.
func (s *Store) PostsByLikes() []model.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ranking.SortedByLikes(s.posts)
}

// PostsWithLikes returns the posts whose like count equals likes, in
// insertion order.
func (s *Store) PostsWithLikes(likes int) ([]model.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matches := index.BuildByLikes(s.posts).SearchAll(likes)
	if len(matches) == 0 {
		return nil, apperrors.Newf(apperrors.ErrNotFound, "no post with %d likes", likes)
	}
	out := make([]model.Post, len(matches))
	for i, e := range matches {
		out[i] = s.posts[s.postSlot[e.PostID]]
	}
	return out, nil
}

// PostsAscendingByLikes walks the like-count tree in order.
func (s *Store) PostsAscendingByLikes() []model.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := index.BuildByLikes(s.posts).InOrder()
	out := make([]model.Post, len(entries))
	for i, e := range entries {
		out[i] = s.posts[s.postSlot[e.PostID]]
	}
	return out
}

// DeleteTopLikedOwned deletes the actor's most liked post, found by scanning
// the descending like order. The deletion is undoable like any other.
func (s *Store) DeleteTopLikedOwned(ctx context.Context, actorID int) (p model.Post, err error) {
	defer s.observe("delete_top_liked", time.Now(), &err)
	s.mu.Lock()
	defer s.mu.Unlock()
	best, ok := ranking.HighestOwnedBy(s.posts, actorID)
	if !ok {
		return model.Post{}, apperrors.New(apperrors.ErrNotFound, "you have no posts")
	}
	return s.deleteLocked(ctx, s.postSlot[best.ID], actorID, "")
}
