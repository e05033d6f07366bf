package controllers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"blog/app/forms"
	"blog/app/services"

	"github.com/gorilla/mux"
)

// CommentController serves the comment JSON API of published posts.
type CommentController struct {
	base
	posts    *services.PostService
	comments *services.CommentService
}

// NewCommentController creates a new CommentController
func NewCommentController(posts *services.PostService, comments *services.CommentService, logger *slog.Logger) *CommentController {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommentController{
		base:     base{logger: logger},
		posts:    posts,
		comments: comments,
	}
}

// Index lists the active comments of a post
func (cc *CommentController) Index(w http.ResponseWriter, r *http.Request) {
	postID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		sendError(w, r, "Invalid post ID", http.StatusBadRequest)
		return
	}
	if _, err := cc.posts.GetPublished(r.Context(), postID); err != nil {
		cc.fail(w, r, err)
		return
	}

	comments, err := cc.comments.Active(r.Context(), postID)
	if err != nil {
		cc.fail(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, comments)
}

// Create adds a comment to a post from a JSON body
func (cc *CommentController) Create(w http.ResponseWriter, r *http.Request) {
	postID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		sendError(w, r, "Invalid post ID", http.StatusBadRequest)
		return
	}
	post, err := cc.posts.GetPublished(r.Context(), postID)
	if err != nil {
		cc.fail(w, r, err)
		return
	}

	var form forms.CommentForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		sendError(w, r, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	comment, err := cc.comments.Add(r.Context(), post, form)
	if err != nil {
		cc.fail(w, r, err)
		return
	}
	sendJSON(w, http.StatusCreated, comment)
}
