// Package fixtures loads posts, their tags and comments from YAML.
//
//	posts:
//	  - title: Who was Django Reinhardt?
//	    author: admin
//	    status: published
//	    publish: 2024-01-02T10:00:00Z
//	    tags: [music, jazz]
//	    body: |
//	      ...
//	    comments:
//	      - name: Ann
//	        email: ann@example.com
//	        body: Great post!
package fixtures

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"blog/app/models"
	"blog/app/services"

	"gopkg.in/yaml.v3"
)

type File struct {
	Posts []Post `yaml:"posts"`
}

type Post struct {
	Title    string    `yaml:"title"`
	Slug     string    `yaml:"slug"`
	Author   string    `yaml:"author"`
	Body     string    `yaml:"body"`
	Status   string    `yaml:"status"`
	Publish  time.Time `yaml:"publish"`
	Tags     []string  `yaml:"tags"`
	Comments []Comment `yaml:"comments"`
}

type Comment struct {
	Name   string `yaml:"name"`
	Email  string `yaml:"email"`
	Body   string `yaml:"body"`
	Active *bool  `yaml:"active"`
}

// Parse decodes a fixture document. Unknown keys are rejected.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse fixtures: %w", err)
	}
	return &f, nil
}

// ParseFile reads fixtures from path.
func ParseFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return Parse(fh)
}

// Result counts what Apply created.
type Result struct {
	Posts    int
	Comments int
}

// Apply creates every post and comment through the services, so the same
// validation, slug and indexing rules apply as for any other write.
func (f *File) Apply(ctx context.Context, posts *services.PostService, comments *services.CommentService) (Result, error) {
	var res Result
	for i, fp := range f.Posts {
		author := fp.Author
		if author == "" {
			author = "admin"
		}
		post, err := posts.Create(ctx, &models.Post{
			Title:   fp.Title,
			Slug:    fp.Slug,
			Author:  models.Author{Username: author},
			Body:    fp.Body,
			Status:  models.Status(fp.Status),
			Publish: fp.Publish,
		}, fp.Tags)
		if err != nil {
			return res, fmt.Errorf("post %d (%q): %w", i+1, fp.Title, err)
		}
		res.Posts++

		for j, fc := range fp.Comments {
			c := models.NewComment(post.ID, fc.Name, fc.Email, fc.Body)
			if fc.Active != nil {
				c.Active = *fc.Active
			}
			if err := comments.Create(ctx, c); err != nil {
				return res, fmt.Errorf("post %q comment %d: %w", fp.Title, j+1, err)
			}
			res.Comments++
		}
	}
	return res, nil
}
