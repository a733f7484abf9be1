package http

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"

	"github.com/coursehub/wishlist/internal/domain"
	"github.com/coursehub/wishlist/internal/service"
	"github.com/coursehub/wishlist/internal/view"
	"github.com/coursehub/wishlist/pkg/httputil"
	"github.com/coursehub/wishlist/pkg/validator"
)

//go:embed templates/wishlist.html static/wishlist.css
var assets embed.FS

type pageData struct {
	Locale string
	Page   view.Page
}

// PageHandler serves the server-rendered wishlist page. Dialog actions are
// plain form posts that redirect back to the page.
type PageHandler struct {
	views    *view.Registry
	tmpl     *template.Template
	minifier *minify.M
	css      []byte
	logger   *slog.Logger
}

// NewPageHandler parses the embedded template and minifies the stylesheet.
func NewPageHandler(views *view.Registry, logger *slog.Logger) (*PageHandler, error) {
	tmpl, err := template.ParseFS(assets, "templates/wishlist.html")
	if err != nil {
		return nil, fmt.Errorf("parse wishlist template: %w", err)
	}

	m := minify.New()
	m.AddFunc("text/html", html.Minify)
	m.AddFunc("text/css", css.Minify)

	raw, err := assets.ReadFile("static/wishlist.css")
	if err != nil {
		return nil, fmt.Errorf("read stylesheet: %w", err)
	}
	styles, err := m.Bytes("text/css", raw)
	if err != nil {
		logger.Warn("failed to minify stylesheet, serving original", slog.String("error", err.Error()))
		styles = raw
	}

	return &PageHandler{
		views:    views,
		tmpl:     tmpl,
		minifier: m,
		css:      styles,
		logger:   logger,
	}, nil
}

// Show handles GET /wishlist?locale=xx
func (h *PageHandler) Show(w http.ResponseWriter, r *http.Request) {
	locale := r.URL.Query().Get("locale")
	v, err := h.views.Attach(r.Context(), userIDFromContext(r.Context()), locale)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	var buf bytes.Buffer
	if err := h.tmpl.Execute(&buf, pageData{Locale: locale, Page: v.Render()}); err != nil {
		httputil.WriteError(w, r, fmt.Errorf("render wishlist page: %w", err), h.logger)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := h.minifier.Minify("text/html", w, &buf); err != nil {
		h.logger.WarnContext(r.Context(), "minify wishlist page", slog.String("error", err.Error()))
	}
}

// Open handles POST /wishlist/dialog
func (h *PageHandler) Open(w http.ResponseWriter, r *http.Request) {
	id := domain.CourseID(r.PostFormValue("course_id"))
	if err := service.ValidateCourseID(id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if err := validator.Validate(CourseRequest{CourseID: id}); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	h.act(w, r, func(v *view.View) error {
		v.OpenDialog(id)
		return nil
	})
}

// Cancel handles POST /wishlist/dialog/cancel
func (h *PageHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(v *view.View) error {
		v.CloseDialog()
		return nil
	})
}

// Confirm handles POST /wishlist/dialog/confirm
func (h *PageHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(v *view.View) error {
		return v.ConfirmDelete(r.Context())
	})
}

// Stylesheet handles GET /static/wishlist.css
func (h *PageHandler) Stylesheet(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(h.css)
}

func (h *PageHandler) act(w http.ResponseWriter, r *http.Request, fn func(*view.View) error) {
	locale := r.URL.Query().Get("locale")
	v, err := h.views.Attach(r.Context(), userIDFromContext(r.Context()), locale)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if err := fn(v); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	target := "/wishlist"
	if locale != "" {
		target += "?locale=" + url.QueryEscape(locale)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
