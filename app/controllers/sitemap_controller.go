package controllers

import (
	"log/slog"
	"net/http"

	"blog/app/services"
	"blog/app/sitemap"
)

// SitemapController serves /sitemap.xml.
type SitemapController struct {
	base
	posts   *services.PostService
	baseURL string
}

func NewSitemapController(posts *services.PostService, baseURL string, logger *slog.Logger) *SitemapController {
	if logger == nil {
		logger = slog.Default()
	}
	return &SitemapController{base: base{logger: logger}, posts: posts, baseURL: baseURL}
}

// Sitemap lists every published post.
func (sc *SitemapController) Sitemap(w http.ResponseWriter, r *http.Request) {
	posts, err := sc.posts.Published(r.Context())
	if err != nil {
		sc.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	if _, err := sitemap.Build(sc.baseURL, posts).WriteTo(w); err != nil {
		sc.logger.Error("failed to write sitemap", "error", err)
	}
}
