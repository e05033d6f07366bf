// Package views holds the HTML templates and static assets, embedded in
// the binary.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/yuin/goldmark"
)

//go:embed templates static
var files embed.FS

// pages maps each page to the template files it is parsed from; every
// page is rendered through the "layout" template.
var pages = map[string][]string{
	"list":   {"templates/layout.html", "templates/posts/list.html", "templates/shared/pagination.html"},
	"detail": {"templates/layout.html", "templates/posts/detail.html", "templates/shared/comments.html"},
	"share":  {"templates/layout.html", "templates/posts/share.html"},
	"search": {"templates/layout.html", "templates/posts/search.html"},
}

var md = goldmark.New()

// Markdown renders Markdown source to HTML. Raw HTML in the source is
// not passed through.
func Markdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(buf.String())
}

// TruncateWords keeps the first n words of s, marking the cut with "…".
func TruncateWords(n int, s string) string {
	words := strings.Fields(s)
	if len(words) <= n {
		return s
	}
	return strings.Join(words[:n], " ") + " …"
}

// Linebreaks escapes s and turns blank-line separated blocks into
// paragraphs and single newlines into <br>.
func Linebreaks(s string) template.HTML {
	s = strings.ReplaceAll(strings.TrimSpace(s), "\r\n", "\n")
	var b strings.Builder
	for _, para := range strings.Split(s, "\n\n") {
		if strings.TrimSpace(para) == "" {
			continue
		}
		lines := strings.Split(para, "\n")
		for i := range lines {
			lines[i] = template.HTMLEscapeString(lines[i])
		}
		b.WriteString("<p>" + strings.Join(lines, "<br>") + "</p>\n")
	}
	return template.HTML(b.String())
}

func formatDate(t time.Time) string {
	return t.Format("Jan. 2, 2006, 3:04 PM")
}

var funcs = template.FuncMap{
	"markdown":      Markdown,
	"truncatewords": TruncateWords,
	"linebreaks":    Linebreaks,
	"date":          formatDate,
	"inc":           func(i int) int { return i + 1 },
}

// Renderer executes the page templates.
type Renderer struct {
	templates map[string]*template.Template
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	return Load(files)
}

// Load parses the page templates from fsys.
func Load(fsys fs.FS) (*Renderer, error) {
	r := &Renderer{templates: make(map[string]*template.Template, len(pages))}
	for name, paths := range pages {
		t, err := template.New(name).Funcs(funcs).ParseFS(fsys, paths...)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s templates: %w", name, err)
		}
		r.templates[name] = t
	}
	return r, nil
}

// Render executes page into w. Output is buffered so a template error
// never leaves a half-written page.
func (r *Renderer) Render(w io.Writer, page string, data any) error {
	t, ok := r.templates[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("template %s: %w", page, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// Static returns the static asset tree, rooted so that "css/blog.css"
// resolves.
func Static() fs.FS {
	sub, err := fs.Sub(files, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
