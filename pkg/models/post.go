package models

import (
	"time"
)

// Post is a piece of user content. Author is the owner's username and is
// filled in by list queries.
type Post struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"-"`
	Author    string    `json:"user"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Like marks a post as liked by a user. Unique per (UserID, PostID).
type Like struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	PostID    int64     `json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}
