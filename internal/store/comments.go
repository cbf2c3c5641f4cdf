package store

import (
	"context"
	"time"

	"github.com/Adithya-Monish-Kumar-K/content-store/internal/activity"
	"github.com/Adithya-Monish-Kumar-K/content-store/internal/model"
)

// AddComment attaches a comment to a live post and returns its id.
func (s *Store) AddComment(ctx context.Context, postID, authorID int, text string) (id int, err error) {
	defer s.observe("add_comment", time.Now(), &err)
	if err := validateComment(text); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireUser(authorID); err != nil {
		return 0, err
	}
	if _, err := s.lookupPost(postID); err != nil {
		return 0, err
	}
	s.lastCommentID++
	c := model.Comment{ID: s.lastCommentID, PostID: postID, AuthorID: authorID, Text: text}
	s.comments = append(s.comments, c)
	s.notes.Enqueuef("You commented on post ID %d", postID)
	s.track(activity.Event{Type: activity.EventCommentAdded, ActorID: authorID, PostID: postID, CommentID: c.ID})
	return c.ID, s.persistLocked(ctx)
}

// CommentsOn returns the comments on postID, newest first.
func (s *Store) CommentsOn(postID int) []model.Comment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Comment
	for i := len(s.comments) - 1; i >= 0; i-- {
		if s.comments[i].PostID == postID {
			out = append(out, s.comments[i])
		}
	}
	return out
}
