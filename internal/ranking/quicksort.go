package ranking

import "github.com/Adithya-Monish-Kumar-K/content-store/internal/model"

// QuickSortByLikes sorts posts by descending like count in place. It uses
// the middle element as pivot and an explicit stack of ranges, always
// handling the smaller side first so the stack stays O(log n).
func QuickSortByLikes(posts []model.Post) {
	type span struct{ lo, hi int }
	stack := []span{{0, len(posts) - 1}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if s.lo >= s.hi {
			continue
		}
		i, j := s.lo, s.hi
		pivot := posts[s.lo+(s.hi-s.lo)/2].LikeCount
		for i <= j {
			for posts[i].LikeCount > pivot {
				i++
			}
			for posts[j].LikeCount < pivot {
				j--
			}
			if i <= j {
				posts[i], posts[j] = posts[j], posts[i]
				i++
				j--
			}
		}
		left, right := span{s.lo, j}, span{i, s.hi}
		if left.hi-left.lo > right.hi-right.lo {
			stack = append(stack, left, right)
		} else {
			stack = append(stack, right, left)
		}
	}
}

// SortedByLikes returns a sorted copy, leaving posts untouched.
func SortedByLikes(posts []model.Post) []model.Post {
	out := make([]model.Post, len(posts))
	copy(out, posts)
	QuickSortByLikes(out)
	return out
}

// HighestOwnedBy returns the owner's post with the most likes, scanning the
// descending view for the first match.
func HighestOwnedBy(posts []model.Post, ownerID int) (model.Post, bool) {
	for _, p := range SortedByLikes(posts) {
		if p.OwnerID == ownerID {
			return p, true
		}
	}
	return model.Post{}, false
}
