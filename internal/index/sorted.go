package index

import "github.com/Adithya-Monish-Kumar-K/content-store/internal/model"

// ExchangeSortByID sorts posts by ascending id in place with adjacent
// swaps. Quadratic, and stops early once a pass makes no swap.
func ExchangeSortByID(posts []model.Post) {
	n := len(posts)
	for i := 0; i < n-1; i++ {
		swapped := false
		for j := 0; j < n-i-1; j++ {
			if posts[j].ID > posts[j+1].ID {
				posts[j], posts[j+1] = posts[j+1], posts[j]
				swapped = true
			}
		}
		if !swapped {
			return
		}
	}
}

// BinarySearchByID finds id in posts sorted by ascending id. Exact match
// only.
func BinarySearchByID(sorted []model.Post, id int) (int, bool) {
	lo, hi := 0, len(sorted)-1
	for lo <= hi {
		mid := lo + (hi-lo)/2
		switch {
		case sorted[mid].ID == id:
			return mid, true
		case sorted[mid].ID < id:
			lo = mid + 1
		default:
			hi = mid - 1
		}
	}
	return -1, false
}
