// Package ranking orders posts by popularity. The max-heap answers top-K
// queries; the quicksort view backs "sorted by likes" listings.
package ranking

import (
	"container/heap"

	"github.com/Adithya-Monish-Kumar-K/content-store/internal/model"
)

// Heap is a max-heap of posts keyed by like count. Build it, pop what you
// need, then drop it.
type Heap struct {
	h postHeap
}

// Build copies posts and heapifies them in O(n).
func Build(posts []model.Post) *Heap {
	h := make(postHeap, len(posts))
	copy(h, posts)
	heap.Init(&h)
	return &Heap{h: h}
}

func (p *Heap) Len() int { return p.h.Len() }

// ExtractMax removes and returns the post with the most likes.
func (p *Heap) ExtractMax() (model.Post, bool) {
	if p.h.Len() == 0 {
		return model.Post{}, false
	}
	return heap.Pop(&p.h).(model.Post), true
}

// TopK returns up to k posts with the highest like counts, best first. The
// order among equal counts is unspecified.
func TopK(posts []model.Post, k int) []model.Post {
	if k <= 0 {
		return nil
	}
	h := Build(posts)
	out := make([]model.Post, 0, min(k, h.Len()))
	for len(out) < k {
		p, ok := h.ExtractMax()
		if !ok {
			break
		}
		out = append(out, p)
	}
	return out
}

type postHeap []model.Post

func (h postHeap) Len() int { return len(h) }

func (h postHeap) Less(i, j int) bool { return h[i].LikeCount > h[j].LikeCount }

func (h postHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *postHeap) Push(x interface{}) {
	*h = append(*h, x.(model.Post))
}

func (h *postHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
