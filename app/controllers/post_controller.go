package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"blog/app/forms"
	"blog/app/models"
	"blog/app/services"
	"blog/app/views"

	"github.com/gorilla/mux"
)

// PostController handles HTTP requests for blog posts
type PostController struct {
	base
	posts    *services.PostService
	comments *services.CommentService
	share    *services.ShareService
}

// NewPostController creates a new PostController
func NewPostController(posts *services.PostService, comments *services.CommentService, share *services.ShareService, renderer *views.Renderer, logger *slog.Logger) *PostController {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostController{
		base:     base{views: renderer, logger: logger},
		posts:    posts,
		comments: comments,
		share:    share,
	}
}

type listPage struct {
	Page *services.Page[*models.Post]
	Tag  *models.Tag
}

// List handles the paginated post listing, optionally for one tag.
func (pc *PostController) List(w http.ResponseWriter, r *http.Request) {
	page, err := pc.posts.List(r.Context(), mux.Vars(r)["tag"], r.URL.Query().Get("page"))
	if err != nil {
		pc.fail(w, r, err)
		return
	}

	if isAPI(r) {
		sendJSON(w, http.StatusOK, page)
		return
	}
	pc.render(w, r, http.StatusOK, "list", listPage{Page: page.Page, Tag: page.Tag})
}

type detailPage struct {
	Post       *models.Post           `json:"post"`
	Similar    []*models.Post         `json:"similar"`
	Comments   []*models.Comment      `json:"comments"`
	NewComment *models.Comment        `json:"new_comment,omitempty"`
	Form       forms.CommentForm      `json:"-"`
	Errors     *forms.ValidationError `json:"-"`
}

func (pc *PostController) loadDetail(r *http.Request) (*detailPage, error) {
	vars := mux.Vars(r)
	year, _ := strconv.Atoi(vars["year"])
	month, _ := strconv.Atoi(vars["month"])
	day, _ := strconv.Atoi(vars["day"])

	post, err := pc.posts.Detail(r.Context(), year, month, day, vars["slug"])
	if err != nil {
		return nil, err
	}
	similar, err := pc.posts.Similar(r.Context(), post)
	if err != nil {
		return nil, err
	}
	return &detailPage{Post: post, Similar: similar}, nil
}

// Detail shows a single published post with its comments and similar
// posts. A POST adds a comment and shows the page again.
func (pc *PostController) Detail(w http.ResponseWriter, r *http.Request) {
	data, err := pc.loadDetail(r)
	if err != nil {
		pc.fail(w, r, err)
		return
	}

	status := http.StatusOK
	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			sendError(w, r, "Failed to parse form: "+err.Error(), http.StatusBadRequest)
			return
		}
		data.Form = forms.ParseCommentForm(r.PostForm)
		comment, err := pc.comments.Add(r.Context(), data.Post, data.Form)
		if verr, ok := forms.AsValidationError(err); ok {
			if isAPI(r) {
				pc.fail(w, r, verr)
				return
			}
			data.Errors = verr
		} else if err != nil {
			pc.fail(w, r, err)
			return
		} else {
			data.NewComment = comment
			data.Form = forms.CommentForm{}
			status = http.StatusCreated
		}
	}

	data.Comments, err = pc.comments.Active(r.Context(), data.Post.ID)
	if err != nil {
		pc.fail(w, r, err)
		return
	}

	if isAPI(r) {
		sendJSON(w, status, data)
		return
	}
	// The page is re-rendered after a comment rather than redirected.
	pc.render(w, r, http.StatusOK, "detail", data)
}

type sharePage struct {
	Post   *models.Post
	Form   forms.EmailPostForm
	Errors *forms.ValidationError
	Sent   bool
}

// Share shows the recommend-by-email form for a published post and sends
// it on POST.
func (pc *PostController) Share(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		sendError(w, r, "Invalid post ID", http.StatusBadRequest)
		return
	}
	post, err := pc.share.Post(r.Context(), id)
	if err != nil {
		pc.fail(w, r, err)
		return
	}

	data := sharePage{Post: post}
	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			sendError(w, r, "Failed to parse form: "+err.Error(), http.StatusBadRequest)
			return
		}
		data.Form = forms.ParseEmailPostForm(r.PostForm)
		msg, err := pc.share.Share(r.Context(), id, data.Form)
		verr, invalid := forms.AsValidationError(err)
		switch {
		case invalid && !isAPI(r):
			data.Errors = verr
		case err != nil:
			pc.fail(w, r, err)
			return
		case isAPI(r):
			sendJSON(w, http.StatusOK, map[string]any{"sent": true, "message": msg})
			return
		default:
			data.Sent = true
		}
	}

	if isAPI(r) {
		sendJSON(w, http.StatusOK, map[string]any{"post": post})
		return
	}
	pc.render(w, r, http.StatusOK, "share", data)
}

type searchPage struct {
	Form     forms.SearchForm        `json:"-"`
	Query    string                  `json:"query"`
	Searched bool                    `json:"-"`
	Results  []services.SearchResult `json:"results"`
	Errors   *forms.ValidationError  `json:"-"`
}

// Search runs a full-text search when the query parameter is present.
func (pc *PostController) Search(w http.ResponseWriter, r *http.Request) {
	form, present := forms.ParseSearchForm(r.URL.Query())
	data := searchPage{Form: form, Query: form.Query, Results: []services.SearchResult{}}

	if present || isAPI(r) {
		err := form.Validate()
		var verr *forms.ValidationError
		if errors.As(err, &verr) {
			if isAPI(r) {
				pc.fail(w, r, verr)
				return
			}
			data.Errors = verr
		} else {
			results, err := pc.posts.Search(r.Context(), form.Query)
			if err != nil {
				pc.fail(w, r, err)
				return
			}
			if results != nil {
				data.Results = results
			}
			data.Searched = true
		}
	}

	if isAPI(r) {
		sendJSON(w, http.StatusOK, data)
		return
	}
	pc.render(w, r, http.StatusOK, "search", data)
}
