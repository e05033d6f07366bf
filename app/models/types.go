package models

import "time"

// Status is the publication state of a post.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Author is the user a post is attributed to. User storage lives outside
// this application; only the reference is kept.
type Author struct {
	ID       int    `json:"id" validate:"gte=0"`
	Username string `json:"username" validate:"required,max=150"`
}

// Post represents a blog post with its tags and comments.
type Post struct {
	ID       int        `json:"id" validate:"gte=0"`
	Title    string     `json:"title" validate:"required,max=250"`
	Slug     string     `json:"slug" validate:"required,max=250,slug"`
	Author   Author     `json:"author"`
	Body     string     `json:"body" validate:"required"`
	Publish  time.Time  `json:"publish"`
	Created  time.Time  `json:"created"`
	Updated  time.Time  `json:"updated"`
	Status   Status     `json:"status" validate:"required,oneof=draft published"`
	Tags     []*Tag     `json:"tags,omitempty" validate:"-"`
	Comments []*Comment `json:"comments,omitempty" validate:"-"`
}

// Comment represents a reader comment on a blog post.
type Comment struct {
	ID      int       `json:"id" validate:"gte=0"`
	PostID  int       `json:"post_id" validate:"required,gt=0"`
	Name    string    `json:"name" validate:"required,max=80"`
	Email   string    `json:"email" validate:"required,email"`
	Body    string    `json:"body" validate:"required"`
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
	Active  bool      `json:"active"`
}

// Tag is a label shared between posts.
type Tag struct {
	ID   int    `json:"id" validate:"gte=0"`
	Name string `json:"name" validate:"required,max=100"`
	Slug string `json:"slug" validate:"required,max=100,slug"`
}
