package ledger

import (
	"errors"
	"testing"

	apperrors "github.com/Adithya-Monish-Kumar-K/content-store/pkg/errors"
)

func TestAddRejectsSecondLike(t *testing.T) {
	l := New()
	if err := l.Add(1, 10); err != nil {
		t.Fatalf("first like: %v", err)
	}
	if err := l.Add(1, 10); !errors.Is(err, apperrors.ErrAlreadyLiked) {
		t.Fatalf("expected ErrAlreadyLiked, got %v", err)
	}
	if l.Count(1) != 1 || l.Len() != 1 {
		t.Errorf("count=%d len=%d, want 1/1", l.Count(1), l.Len())
	}
}

func TestRemoveWithoutLike(t *testing.T) {
	l := New()
	if err := l.Remove(3, 10); !errors.Is(err, apperrors.ErrNotLiked) {
		t.Fatalf("expected ErrNotLiked, got %v", err)
	}
	_ = l.Add(3, 10)
	if err := l.Remove(3, 10); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if l.Has(3, 10) || l.Len() != 0 {
		t.Error("like still present after remove")
	}
}

func TestDetachAttachRoundTrip(t *testing.T) {
	l := New()
	_ = l.Add(5, 3)
	_ = l.Add(5, 1)
	_ = l.Add(6, 2)

	users := l.Detach(5)
	if len(users) != 2 || users[0] != 1 || users[1] != 3 {
		t.Fatalf("Detach = %v", users)
	}
	if l.Count(5) != 0 || l.Len() != 1 {
		t.Fatalf("detach left likes behind: count=%d len=%d", l.Count(5), l.Len())
	}

	l.Attach(5, users)
	all := l.All()
	if len(all) != 3 || all[0].PostID != 5 || all[0].UserID != 1 || all[2].PostID != 6 {
		t.Errorf("All = %+v", all)
	}
}
