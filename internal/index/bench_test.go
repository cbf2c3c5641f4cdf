package index

import (
	"math/rand"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/content-store/internal/model"
)

func benchPosts(n int) []model.Post {
	r := rand.New(rand.NewSource(1))
	posts := make([]model.Post, n)
	for i, id := range r.Perm(n) {
		posts[i] = model.Post{ID: id + 1, LikeCount: r.Intn(100)}
	}
	return posts
}

// BenchmarkBuildByID measures building the id tree the way SearchByID does
// on every call.
func BenchmarkBuildByID(b *testing.B) {
	posts := benchPosts(10000)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = BuildByID(posts)
	}
}

// BenchmarkSearchAllByLikes measures equality lookups on a tree with many
// duplicate keys.
func BenchmarkSearchAllByLikes(b *testing.B) {
	t := BuildByLikes(benchPosts(10000))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = t.SearchAll(i % 100)
	}
}

func BenchmarkExchangeSortByID(b *testing.B) {
	src := benchPosts(1000)
	buf := make([]model.Post, len(src))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		copy(buf, src)
		ExchangeSortByID(buf)
	}
}
