package models

import (
	"errors"
	"time"
)

// NewComment returns an active comment for the given post.
func NewComment(postID int, name, email, body string) *Comment {
	return &Comment{
		PostID: postID,
		Name:   name,
		Email:  email,
		Body:   body,
		Active: true,
	}
}

// Validate checks if the comment meets all validation requirements
func (c *Comment) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	if c.Created.IsZero() {
		return errors.New("created cannot be zero")
	}

	return nil
}

// BeforeCreate sets up any necessary fields before creation
func (c *Comment) BeforeCreate() {
	now := time.Now()
	if c.Created.IsZero() {
		c.Created = now
	}
	c.Updated = now
}

// BeforeSave refreshes the updated timestamp.
func (c *Comment) BeforeSave() {
	c.Updated = time.Now()
}

// SetPost attaches the comment to its parent post
func (c *Comment) SetPost(post *Post) error {
	if post == nil {
		return errors.New("post cannot be nil")
	}

	c.PostID = post.ID
	return nil
}
