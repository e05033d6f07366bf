package models

import (
	"errors"
	"fmt"
	"time"
)

// Validate checks if the post meets all validation requirements
func (p *Post) Validate() error {
	if err := validate.Struct(p); err != nil {
		return err
	}

	if p.Created.IsZero() {
		return errors.New("created cannot be zero")
	}
	if p.Publish.IsZero() {
		return errors.New("publish cannot be zero")
	}

	return nil
}

// BeforeCreate fills in the defaults a new post starts with.
func (p *Post) BeforeCreate() {
	now := time.Now()
	if p.Created.IsZero() {
		p.Created = now
	}
	if p.Publish.IsZero() {
		p.Publish = now
	}
	if p.Status == "" {
		p.Status = StatusDraft
	}
	if p.Slug == "" {
		p.Slug = Slugify(p.Title)
	}
	p.Updated = now
}

// BeforeSave refreshes the updated timestamp; it runs on every mutation.
func (p *Post) BeforeSave() {
	p.Updated = time.Now()
}

// IsPublished reports whether the post is visible to readers.
func (p *Post) IsPublished() bool {
	return p.Status == StatusPublished
}

// PublishDate returns the calendar date (yyyy-mm-dd) of the publish
// timestamp in loc. A nil loc means UTC.
func (p *Post) PublishDate(loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return p.Publish.In(loc).Format("2006-01-02")
}

// AbsoluteURL returns the canonical path of the post's detail page,
// built from the publish date as currently localised.
func (p *Post) AbsoluteURL() string {
	return fmt.Sprintf("/blog/%d/%d/%d/%s/",
		p.Publish.Year(), int(p.Publish.Month()), p.Publish.Day(), p.Slug)
}

// HasTag reports whether the post carries a tag with the given slug.
func (p *Post) HasTag(slug string) bool {
	for _, t := range p.Tags {
		if t.Slug == slug {
			return true
		}
	}
	return false
}

// TagNames returns the names of the post's tags in order.
func (p *Post) TagNames() []string {
	names := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		names = append(names, t.Name)
	}
	return names
}

// AddComment adds a comment to the post
func (p *Post) AddComment(comment *Comment) error {
	if comment == nil {
		return errors.New("comment cannot be nil")
	}

	comment.PostID = p.ID
	p.Comments = append(p.Comments, comment)
	return nil
}
