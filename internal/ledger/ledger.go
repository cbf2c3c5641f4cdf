// Package ledger records which users liked which posts. It is the source of
// truth for at-most-one-like-per-user.
package ledger

import (
	"sort"

	"github.com/Adithya-Monish-Kumar-K/content-store/internal/model"
	apperrors "github.com/Adithya-Monish-Kumar-K/content-store/pkg/errors"
)

// Ledger maps post id to the set of users who liked it. It is not safe for
// concurrent use; the store serializes access.
type Ledger struct {
	likes map[int]map[int]struct{}
	total int
}

func New() *Ledger {
	return &Ledger{likes: make(map[int]map[int]struct{})}
}

// Add records a like. It returns ErrAlreadyLiked if the pair exists.
func (l *Ledger) Add(postID, userID int) error {
	users, ok := l.likes[postID]
	if !ok {
		users = make(map[int]struct{})
		l.likes[postID] = users
	}
	if _, dup := users[userID]; dup {
		return apperrors.Newf(apperrors.ErrAlreadyLiked, "user %d already liked post %d", userID, postID)
	}
	users[userID] = struct{}{}
	l.total++
	return nil
}

// Remove deletes a like. It returns ErrNotLiked if the pair is absent.
func (l *Ledger) Remove(postID, userID int) error {
	users := l.likes[postID]
	if _, ok := users[userID]; !ok {
		return apperrors.Newf(apperrors.ErrNotLiked, "user %d has not liked post %d", userID, postID)
	}
	delete(users, userID)
	if len(users) == 0 {
		delete(l.likes, postID)
	}
	l.total--
	return nil
}

func (l *Ledger) Has(postID, userID int) bool {
	_, ok := l.likes[postID][userID]
	return ok
}

func (l *Ledger) Count(postID int) int {
	return len(l.likes[postID])
}

func (l *Ledger) Len() int {
	return l.total
}

// Detach removes every like on postID and returns the user ids, ascending.
func (l *Ledger) Detach(postID int) []int {
	users := l.likes[postID]
	if len(users) == 0 {
		return nil
	}
	ids := make([]int, 0, len(users))
	for id := range users {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	delete(l.likes, postID)
	l.total -= len(ids)
	return ids
}

// Attach restores likes previously returned by Detach.
func (l *Ledger) Attach(postID int, userIDs []int) {
	for _, id := range userIDs {
		_ = l.Add(postID, id)
	}
}

// All returns every like ordered by post id, then user id.
func (l *Ledger) All() []model.Like {
	out := make([]model.Like, 0, l.total)
	posts := make([]int, 0, len(l.likes))
	for pid := range l.likes {
		posts = append(posts, pid)
	}
	sort.Ints(posts)
	for _, pid := range posts {
		users := make([]int, 0, len(l.likes[pid]))
		for uid := range l.likes[pid] {
			users = append(users, uid)
		}
		sort.Ints(users)
		for _, uid := range users {
			out = append(out, model.Like{PostID: pid, UserID: uid})
		}
	}
	return out
}
