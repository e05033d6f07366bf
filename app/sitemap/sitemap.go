// Package sitemap renders the sitemaps.org XML document for published posts.
package sitemap

import (
	"encoding/xml"
	"io"
	"strings"

	"blog/app/models"
)

const (
	Namespace  = "http://www.sitemaps.org/schemas/sitemap/0.9"
	ChangeFreq = "weekly"
	Priority   = "0.9"
)

type URL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

type URLSet struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	URLs    []URL    `xml:"url"`
}

// Build lists posts under baseURL. Callers pass only published posts.
func Build(baseURL string, posts []*models.Post) *URLSet {
	baseURL = strings.TrimRight(baseURL, "/")
	set := &URLSet{Xmlns: Namespace, URLs: make([]URL, 0, len(posts))}
	for _, p := range posts {
		set.URLs = append(set.URLs, URL{
			Loc:        baseURL + p.AbsoluteURL(),
			LastMod:    p.Updated.Format("2006-01-02"),
			ChangeFreq: ChangeFreq,
			Priority:   Priority,
		})
	}
	return set
}

// WriteTo writes the document with its XML declaration.
func (s *URLSet) WriteTo(w io.Writer) (int64, error) {
	body, err := xml.MarshalIndent(s, "", "  ")
	if err != nil {
		return 0, err
	}
	n, err := io.WriteString(w, xml.Header)
	if err != nil {
		return int64(n), err
	}
	m, err := w.Write(append(body, '\n'))
	return int64(n + m), err
}
