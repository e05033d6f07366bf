// Package routes wires controllers and middleware into the application
// router.
package routes

import (
	"log/slog"
	"net/http"

	"blog/app/controllers"
	"blog/app/middleware"
	"blog/app/services"
	"blog/app/views"

	"github.com/gorilla/mux"
)

// Deps is everything the router needs.
type Deps struct {
	Posts    *services.PostService
	Comments *services.CommentService
	Share    *services.ShareService
	Views    *views.Renderer
	BaseURL  string
	Logger   *slog.Logger
}

// Setup defines the application's routes and returns a router.
func Setup(d Deps) *mux.Router {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := mux.NewRouter()

	// Apply global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recoverer(logger))
	router.Use(middleware.Compress)

	postController := controllers.NewPostController(d.Posts, d.Comments, d.Share, d.Views, logger)
	commentController := controllers.NewCommentController(d.Posts, d.Comments, logger)
	sitemapController := controllers.NewSitemapController(d.Posts, d.BaseURL, logger)

	// Serve static files
	router.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServerFS(views.Static())))

	router.Handle("/", http.RedirectHandler("/blog/", http.StatusFound)).Methods("GET")
	router.Handle("/sitemap.xml", middleware.ETag(http.HandlerFunc(sitemapController.Sitemap))).Methods("GET")

	// Blog web endpoints
	blog := router.PathPrefix("/blog").Subrouter()
	blog.HandleFunc("/", postController.List).Methods("GET")
	blog.HandleFunc("/tag/{tag}/", postController.List).Methods("GET")
	blog.HandleFunc("/search/", postController.Search).Methods("GET")
	blog.HandleFunc("/{year:[0-9]{4}}/{month:[0-9]{1,2}}/{day:[0-9]{1,2}}/{slug}/", postController.Detail).Methods("GET", "POST")
	blog.HandleFunc("/{id:[0-9]+}/share/", postController.Share).Methods("GET", "POST")

	// API routes with JSON content type
	api := router.PathPrefix("/api").Subrouter()
	api.Use(middleware.ContentTypeJSON)

	apiPosts := api.PathPrefix("/posts").Subrouter()
	apiPosts.HandleFunc("", postController.List).Methods("GET")
	apiPosts.HandleFunc("/tag/{tag}", postController.List).Methods("GET")
	apiPosts.HandleFunc("/{year:[0-9]{4}}/{month:[0-9]{1,2}}/{day:[0-9]{1,2}}/{slug}", postController.Detail).Methods("GET", "POST")
	apiPosts.HandleFunc("/{id:[0-9]+}/share", postController.Share).Methods("POST")
	apiPosts.HandleFunc("/{id:[0-9]+}/comments", commentController.Index).Methods("GET")
	apiPosts.HandleFunc("/{id:[0-9]+}/comments", commentController.Create).Methods("POST")
	api.HandleFunc("/search", postController.Search).Methods("GET")

	return router
}
