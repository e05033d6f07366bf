package models

import "strings"

// NewTag builds a tag from a user supplied name.
func NewTag(name string) *Tag {
	name = strings.TrimSpace(name)
	return &Tag{Name: name, Slug: Slugify(name)}
}

// Validate checks the tag's name and slug.
func (t *Tag) Validate() error {
	return validate.Struct(t)
}

// ParseTagNames splits a comma separated tag list, dropping blanks and
// duplicates (by slug) while keeping the first spelling seen.
func ParseTagNames(s string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(s, ",") {
		name := strings.TrimSpace(part)
		slug := Slugify(name)
		if slug == "" || seen[slug] {
			continue
		}
		seen[slug] = true
		names = append(names, name)
	}
	return names
}
