// Package model contains the records shared by the store, its indexes, and
// the persistence adapters.
package model

// User is created on signup and never changes afterwards.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"-"`
}

// Post is owned by exactly one user. LikeCount never drops below zero.
type Post struct {
	ID        int    `json:"id"`
	OwnerID   int    `json:"owner_id"`
	Caption   string `json:"caption"`
	MediaRef  string `json:"media_ref"`
	LikeCount int    `json:"like_count"`
}

// Comment references the post it was written on. The reference is not
// removed when the post is deleted.
type Comment struct {
	ID       int    `json:"id"`
	PostID   int    `json:"post_id"`
	AuthorID int    `json:"author_id"`
	Text     string `json:"text"`
}

// Like records that UserID liked PostID.
type Like struct {
	PostID int `json:"post_id"`
	UserID int `json:"user_id"`
}

// PostView pairs a post with its comments, newest comment first.
type PostView struct {
	Post     Post      `json:"post"`
	Comments []Comment `json:"comments"`
}

// Snapshot is the full persistent state of a store.
type Snapshot struct {
	Users    []User
	Posts    []Post
	Comments []Comment
	Likes    []Like
}
