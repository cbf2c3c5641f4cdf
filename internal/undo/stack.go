// Package undo holds deleted posts so the most recent deletion can be
// restored.
package undo

import (
	"github.com/Adithya-Monish-Kumar-K/content-store/internal/model"
	apperrors "github.com/Adithya-Monish-Kumar-K/content-store/pkg/errors"
)

// Entry is a deleted post together with the users who had liked it.
type Entry struct {
	Post   model.Post
	Likers []int
}

// Stack is a LIFO of entries. With a positive limit, pushing onto a full
// stack discards the oldest entry.
type Stack struct {
	entries []Entry
	limit   int
}

func New(limit int) *Stack {
	if limit < 0 {
		limit = 0
	}
	return &Stack{limit: limit}
}

// Push adds e on top. It reports whether an old entry was evicted.
func (s *Stack) Push(e Entry) (evicted bool) {
	if s.limit > 0 && len(s.entries) == s.limit {
		copy(s.entries, s.entries[1:])
		s.entries = s.entries[:len(s.entries)-1]
		evicted = true
	}
	s.entries = append(s.entries, e)
	return evicted
}

// Pop removes and returns the newest entry, or ErrEmpty.
func (s *Stack) Pop() (Entry, error) {
	if len(s.entries) == 0 {
		return Entry{}, apperrors.New(apperrors.ErrEmpty, "undo stack is empty")
	}
	top := s.entries[len(s.entries)-1]
	s.entries[len(s.entries)-1] = Entry{}
	s.entries = s.entries[:len(s.entries)-1]
	return top, nil
}

// Peek returns the newest entry without removing it.
func (s *Stack) Peek() (Entry, bool) {
	if len(s.entries) == 0 {
		return Entry{}, false
	}
	return s.entries[len(s.entries)-1], true
}

func (s *Stack) IsEmpty() bool { return len(s.entries) == 0 }

func (s *Stack) Len() int { return len(s.entries) }
