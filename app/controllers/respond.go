package controllers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"blog/app/forms"
	"blog/app/mailer"
	"blog/app/repositories"
	"blog/app/views"
)

// isAPI reports whether the client wants JSON rather than HTML.
func isAPI(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api") ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}

func sendJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func sendError(w http.ResponseWriter, r *http.Request, message string, status int) {
	if isAPI(r) {
		sendJSON(w, status, map[string]string{"error": message})
		return
	}
	http.Error(w, message, status)
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	var verr *forms.ValidationError
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repositories.ErrDuplicateSlug):
		return http.StatusConflict
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, mailer.ErrDelivery):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// base carries what every controller needs to answer a request.
type base struct {
	views  *views.Renderer
	logger *slog.Logger
}

// fail answers with the status matching err. Server-side failures are
// logged and their details kept from the client.
func (b *base) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	var verr *forms.ValidationError
	switch {
	case status == http.StatusNotFound:
		sendError(w, r, "Not found", status)
	case status == http.StatusUnprocessableEntity && errors.As(err, &verr) && isAPI(r):
		sendJSON(w, status, map[string]any{"error": "invalid form", "fields": verr.Fields})
	case status >= http.StatusInternalServerError:
		b.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
		sendError(w, r, http.StatusText(status), status)
	default:
		sendError(w, r, err.Error(), status)
	}
}

// render writes an HTML page with the given status.
func (b *base) render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	var buf strings.Builder
	if err := b.views.Render(&buf, page, data); err != nil {
		b.logger.Error("template error", "page", page, "error", err)
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(status)
	w.Write([]byte(buf.String()))
}
