package activity

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/content-store/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/content-store/pkg/metrics"
)

type Stats struct {
	TotalEvents     int64               `json:"total_events"`
	ByType          map[EventType]int64 `json:"by_type"`
	NetLikes        int64               `json:"net_likes"`
	TopPosts        []PostCount         `json:"top_posts"`
	TopActors       []ActorCount        `json:"top_actors"`
	EventsPerMinute float64             `json:"events_per_minute"`
	LastEventAt     *time.Time          `json:"last_event_at,omitempty"`
}

// PostCount is a post's net likes as seen in the event stream.
type PostCount struct {
	PostID   int   `json:"post_id"`
	NetLikes int64 `json:"net_likes"`
}

type ActorCount struct {
	ActorID int   `json:"actor_id"`
	Events  int64 `json:"events"`
}

// Aggregator folds activity events into running totals.
type Aggregator struct {
	mu        sync.RWMutex
	total     int64
	byType    map[EventType]int64
	postLikes map[int]int64
	actors    map[int]int64
	lastEvent time.Time
	startTime time.Time
	topN      int

	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewAggregator(topN int, m *metrics.Metrics) *Aggregator {
	if topN <= 0 {
		topN = 10
	}
	return &Aggregator{
		byType:    make(map[EventType]int64),
		postLikes: make(map[int]int64),
		actors:    make(map[int]int64),
		startTime: time.Now(),
		topN:      topN,
		metrics:   m,
		logger:    slog.Default().With("component", "activity-aggregator"),
	}
}

// Track records e directly, so the aggregator can also sit in-process as
// the store's event sink.
func (a *Aggregator) Track(e Event) {
	a.Record(e)
}

func (a *Aggregator) Record(e Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.total++
	a.byType[e.Type]++
	if e.ActorID != 0 {
		a.actors[e.ActorID]++
	}
	switch e.Type {
	case EventPostLiked:
		a.postLikes[e.PostID]++
	case EventPostUnliked:
		a.postLikes[e.PostID]--
	case EventPostDeleted:
		delete(a.postLikes, e.PostID)
	case EventPostRestored:
		a.postLikes[e.PostID] = int64(e.LikeCount)
	}
	if e.Timestamp.After(a.lastEvent) {
		a.lastEvent = e.Timestamp
	}
	a.metrics.ActivityConsumed(string(e.Type))
}

// HandleMessage decodes a Kafka message into an Event and records it.
// Undecodable messages are logged and acknowledged so they do not block
// the partition.
func (a *Aggregator) HandleMessage() kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		e, err := kafka.DecodeJSON[Event](value)
		if err != nil {
			a.logger.Error("failed to decode activity event", "error", err)
			return nil
		}
		if e.Type == "" {
			a.logger.Warn("activity event without type", "key", string(key))
			return nil
		}
		a.Record(e)
		return nil
	}
}

func (a *Aggregator) Stats() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := Stats{
		TotalEvents: a.total,
		ByType:      make(map[EventType]int64, len(a.byType)),
		NetLikes:    a.byType[EventPostLiked] - a.byType[EventPostUnliked],
	}
	for t, n := range a.byType {
		stats.ByType[t] = n
	}

	posts := make([]PostCount, 0, len(a.postLikes))
	for id, n := range a.postLikes {
		posts = append(posts, PostCount{PostID: id, NetLikes: n})
	}
	sort.Slice(posts, func(i, j int) bool {
		if posts[i].NetLikes != posts[j].NetLikes {
			return posts[i].NetLikes > posts[j].NetLikes
		}
		return posts[i].PostID < posts[j].PostID
	})
	if len(posts) > a.topN {
		posts = posts[:a.topN]
	}
	stats.TopPosts = posts

	actors := make([]ActorCount, 0, len(a.actors))
	for id, n := range a.actors {
		actors = append(actors, ActorCount{ActorID: id, Events: n})
	}
	sort.Slice(actors, func(i, j int) bool {
		if actors[i].Events != actors[j].Events {
			return actors[i].Events > actors[j].Events
		}
		return actors[i].ActorID < actors[j].ActorID
	})
	if len(actors) > a.topN {
		actors = actors[:a.topN]
	}
	stats.TopActors = actors

	if elapsed := time.Since(a.startTime).Minutes(); elapsed > 0 {
		stats.EventsPerMinute = float64(a.total) / elapsed
	}
	if !a.lastEvent.IsZero() {
		last := a.lastEvent
		stats.LastEventAt = &last
	}
	return stats
}
