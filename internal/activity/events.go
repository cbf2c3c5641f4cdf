package activity

import "time"

type EventType string

const (
	EventUserSignup   EventType = "user_signup"
	EventUserLogin    EventType = "user_login"
	EventPostCreated  EventType = "post_created"
	EventPostEdited   EventType = "post_edited"
	EventPostDeleted  EventType = "post_deleted"
	EventPostRestored EventType = "post_restored"
	EventPostLiked    EventType = "post_liked"
	EventPostUnliked  EventType = "post_unliked"
	EventCommentAdded EventType = "comment_added"
)

type Event struct {
	Type      EventType `json:"type"`
	ActorID   int       `json:"actor_id"`
	Username  string    `json:"username,omitempty"`
	PostID    int       `json:"post_id,omitempty"`
	CommentID int       `json:"comment_id,omitempty"`
	LikeCount int       `json:"like_count,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Sink accepts events without blocking the caller.
type Sink interface {
	Track(event Event)
}
