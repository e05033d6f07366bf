package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"blog/app/mailer"
	"blog/app/models"
	"blog/app/repositories"
	"blog/app/search"
	"blog/app/services"
	"blog/app/views"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// logBuffer is written by server goroutines while tests read it.
type logBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *logBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *logBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type testServer struct {
	*httptest.Server
	posts  *services.PostService
	outbox *mailer.Outbox
	logs   *logBuffer
}

// setupTestServer runs the full router against an in-memory Badger store
// and bleve index.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	store, err := repositories.OpenBadgerStore("", time.UTC)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	index, err := search.NewMemIndex()
	require.NoError(t, err)
	t.Cleanup(func() { index.Close() })

	renderer, err := views.New()
	require.NoError(t, err)

	logs := &logBuffer{}
	logger := slog.New(slog.NewTextHandler(logs, nil))

	posts := services.NewPostService(store, index, services.WithLogger(logger))
	outbox := mailer.NewOutbox()
	router := Setup(Deps{
		Posts:    posts,
		Comments: services.NewCommentService(store, logger),
		Share:    services.NewShareService(posts, outbox, "blog@example.com", "http://blog.test", logger),
		Views:    renderer,
		BaseURL:  "http://blog.test",
		Logger:   logger,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, posts: posts, outbox: outbox, logs: logs}
}

func (s *testServer) seed(t *testing.T) []*models.Post {
	t.Helper()
	ctx := context.Background()
	var created []*models.Post
	for i, seed := range []struct {
		title  string
		status models.Status
		tags   []string
	}{
		{"Getting started with Go", models.StatusPublished, []string{"go"}},
		{"Concurrency patterns", models.StatusPublished, []string{"go", "concurrency"}},
		{"Channels in depth", models.StatusPublished, []string{"go", "concurrency"}},
		{"Writing tests", models.StatusPublished, []string{"testing"}},
		{"Unreleased thoughts", models.StatusDraft, []string{"go"}},
	} {
		p, err := s.posts.Create(ctx, &models.Post{
			Title:   seed.title,
			Body:    "All about " + strings.ToLower(seed.title) + ".",
			Author:  models.Author{ID: 1, Username: "admin"},
			Status:  seed.status,
			Publish: time.Date(2024, 1, 1+i, 10, 0, 0, 0, time.UTC),
		}, seed.tags)
		require.NoError(t, err)
		created = append(created, p)
	}
	return created
}

func (s *testServer) client() *http.Client {
	return &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
}

func (s *testServer) get(t *testing.T, path string, header ...string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, s.URL+path, nil)
	require.NoError(t, err)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	resp, err := s.client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func (s *testServer) post(t *testing.T, path string, values url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := s.client().PostForm(s.URL+path, values)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestRootRedirects(t *testing.T) {
	s := setupTestServer(t)
	resp, _ := s.get(t, "/")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/blog/", resp.Header.Get("Location"))
}

func TestWebRoutes(t *testing.T) {
	s := setupTestServer(t)
	posts := s.seed(t)

	tests := []struct {
		name     string
		path     string
		status   int
		contains []string
		excludes []string
	}{
		{"list", "/blog/", http.StatusOK, []string{"Writing tests", "Channels in depth", "Concurrency patterns", "Page 1 of 2."}, []string{"Unreleased thoughts", "Getting started"}},
		{"second page", "/blog/?page=2", http.StatusOK, []string{"Getting started with Go", "Page 2 of 2."}, nil},
		{"junk page", "/blog/?page=x", http.StatusOK, []string{"Page 1 of 2."}, nil},
		{"huge page", "/blog/?page=50", http.StatusOK, []string{"Page 2 of 2."}, nil},
		{"tag", "/blog/tag/concurrency/", http.StatusOK, []string{"Channels in depth", "Concurrency patterns"}, []string{"Writing tests"}},
		{"unknown tag", "/blog/tag/cobol/", http.StatusNotFound, nil, nil},
		{"detail", posts[1].AbsoluteURL(), http.StatusOK, []string{"Concurrency patterns", "Similar posts", "Channels in depth"}, []string{"Unreleased thoughts"}},
		{"draft detail", posts[4].AbsoluteURL(), http.StatusNotFound, nil, nil},
		{"wrong date", "/blog/2023/1/2/concurrency-patterns/", http.StatusNotFound, nil, nil},
		{"share form", fmt.Sprintf("/blog/%d/share/", posts[0].ID), http.StatusOK, []string{"Getting started with Go"}, nil},
		{"search", "/blog/search/?query=channels", http.StatusOK, []string{"Found 1 result", "Channels in depth"}, nil},
		{"static", "/static/css/blog.css", http.StatusOK, []string{"#sidebar"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := s.get(t, tt.path)
			assert.Equal(t, tt.status, resp.StatusCode)
			for _, want := range tt.contains {
				assert.Contains(t, body, want)
			}
			for _, unwanted := range tt.excludes {
				assert.NotContains(t, body, unwanted)
			}
			assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
		})
	}
}

func TestCommentFlow(t *testing.T) {
	s := setupTestServer(t)
	posts := s.seed(t)
	path := posts[0].AbsoluteURL()

	resp, body := s.post(t, path, url.Values{"name": {"Ann"}, "email": {"ann@example.com"}, "body": {"Thanks!"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Your comment has been added.")

	_, body = s.get(t, path)
	assert.Contains(t, body, "1 comment")
	assert.Contains(t, body, "Thanks!")

	_, body = s.get(t, posts[1].AbsoluteURL())
	assert.Contains(t, body, "0 comments")
}

func TestShareFlow(t *testing.T) {
	s := setupTestServer(t)
	posts := s.seed(t)

	resp, body := s.post(t, fmt.Sprintf("/blog/%d/share/", posts[0].ID), url.Values{
		"name": {"Ann"}, "email": {"ann@example.com"}, "to": {"bob@example.com"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "E-mail successfully sent")

	sent := s.outbox.Messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "Read Getting started with Go at http://blog.test/blog/2024/1/1/getting-started-with-go/\n\nAnn's comments: ", sent[0].Body)
}

func TestAPIRoutes(t *testing.T) {
	s := setupTestServer(t)
	posts := s.seed(t)

	t.Run("list", func(t *testing.T) {
		resp, body := s.get(t, "/api/posts")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
		var page struct {
			Items []models.Post `json:"items"`
			Count int           `json:"count"`
		}
		require.NoError(t, json.Unmarshal([]byte(body), &page))
		assert.Equal(t, 4, page.Count)
		assert.Len(t, page.Items, 3)
	})

	t.Run("tag", func(t *testing.T) {
		resp, body := s.get(t, "/api/posts/tag/testing")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "Writing tests")

		resp, body = s.get(t, "/api/posts/tag/nope")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.JSONEq(t, `{"error":"Not found"}`, body)
	})

	t.Run("detail", func(t *testing.T) {
		resp, body := s.get(t, "/api/posts/2024/1/3/channels-in-depth")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var data struct {
			Post    models.Post   `json:"post"`
			Similar []models.Post `json:"similar"`
		}
		require.NoError(t, json.Unmarshal([]byte(body), &data))
		assert.Equal(t, posts[2].ID, data.Post.ID)
		require.Len(t, data.Similar, 2)
		assert.Equal(t, "Concurrency patterns", data.Similar[0].Title)
		assert.Equal(t, "Getting started with Go", data.Similar[1].Title)
	})

	t.Run("accept header on web route", func(t *testing.T) {
		resp, body := s.get(t, "/blog/", "Accept", "application/json")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, `"num_pages":2`)
	})

	t.Run("search", func(t *testing.T) {
		resp, body := s.get(t, "/api/search?query=unreleased")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"query":"unreleased","results":[]}`, body)
	})

	t.Run("comments", func(t *testing.T) {
		resp, err := http.Post(fmt.Sprintf("%s/api/posts/%d/comments", s.URL, posts[3].ID), "application/json",
			strings.NewReader(`{"name":"Ann","email":"ann@example.com","body":"Nice"}`))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		_, body := s.get(t, fmt.Sprintf("/api/posts/%d/comments", posts[3].ID))
		assert.Contains(t, body, `"name":"Ann"`)
	})
}

func TestSitemapRoute(t *testing.T) {
	s := setupTestServer(t)
	s.seed(t)

	resp, body := s.get(t, "/sitemap.xml")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 4, strings.Count(body, "<url>"))
	assert.Contains(t, body, "<loc>http://blog.test/blog/2024/1/2/concurrency-patterns/</loc>")
	assert.NotContains(t, body, "unreleased-thoughts")

	etag := resp.Header.Get("ETag")
	require.NotEmpty(t, etag)
	resp, _ = s.get(t, "/sitemap.xml", "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, resp.StatusCode)
}

func TestRequestsAreLogged(t *testing.T) {
	s := setupTestServer(t)
	s.get(t, "/blog/")
	assert.Eventually(t, func() bool {
		logs := s.logs.String()
		return strings.Contains(logs, "path=/blog/") && strings.Contains(logs, "status=200")
	}, time.Second, 10*time.Millisecond)
}
