package web

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/yuin/goldmark"

	"github.com/hpungsan/easel/internal/canvas"
	"github.com/hpungsan/easel/internal/draft"
	"github.com/hpungsan/easel/internal/errors"
	"github.com/hpungsan/easel/internal/ops"
)

// PageData contains common fields used across all page templates.
type PageData struct {
	Title   string
	Version string
	Project string
}

// ListPageData is the template data for the draft list page.
type ListPageData struct {
	PageData
	Items       []draft.Summary
	Pagination  ops.Pagination
	ContentType string
	LatestOnly  bool
	Deleted     bool
}

// DetailPageData is the template data for the draft detail page.
type DetailPageData struct {
	PageData
	Draft        *ops.DraftOutput
	Preview      Preview
	RenderedHTML template.HTML
}

// HistoryPageData is the template data for the version history page.
type HistoryPageData struct {
	PageData
	History *ops.HistoryOutput
	Current string
}

// ErrorPageData is the template data for the error page.
type ErrorPageData struct {
	PageData
	StatusCode int
	Message    string
}

// Preview is a canvas laid out for the SVG preview. Nodes are in paint
// order (ascending zIndex) so later nodes draw on top.
type Preview struct {
	Width  float64
	Height float64
	Nodes  []canvas.Node
}

func newPreview(doc *canvas.Document) Preview {
	if doc == nil {
		return Preview{Width: canvas.DefaultWidth, Height: canvas.DefaultHeight}
	}
	nodes := canvas.ReadingOrder(doc)
	slices.SortStableFunc(nodes, func(a, b canvas.Node) int { return a.ZIndex - b.ZIndex })
	return Preview{Width: doc.Width, Height: doc.Height, Nodes: nodes}
}

// Renderer manages template parsing and rendering.
type Renderer struct {
	templates map[string]*template.Template
	version   string
	logger    *log.Logger
}

// NewRenderer parses the layout and page templates from templateFS.
func NewRenderer(templateFS fs.FS, version string, logger *log.Logger) *Renderer {
	funcMap := template.FuncMap{
		"add":        func(a, b int) int { return a + b },
		"sub":        func(a, b int) int { return a - b },
		"formatTime": formatTime,
		"deref":      deref,
		"hasValue":   hasValue,
	}

	layout := template.Must(template.New("layout").Funcs(funcMap).ParseFS(templateFS, "layout.html"))

	pages := map[string]string{
		"list":    "list.html",
		"detail":  "detail.html",
		"history": "history.html",
		"error":   "error.html",
	}

	templates := make(map[string]*template.Template, len(pages))
	for name, file := range pages {
		t := template.Must(layout.Clone())
		template.Must(t.ParseFS(templateFS, file))
		templates[name] = t
	}

	return &Renderer{templates: templates, version: version, logger: logger}
}

func (r *Renderer) renderPage(w http.ResponseWriter, req *http.Request, name string, data any) {
	r.renderPageStatus(w, req, http.StatusOK, name, data)
}

// renderPageStatus renders a page with the given status. HTMX requests get
// only the "content" block.
func (r *Renderer) renderPageStatus(w http.ResponseWriter, req *http.Request, status int, name string, data any) {
	t, ok := r.templates[name]
	if !ok {
		r.logger.Error("template not found", "name", name)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	block := "layout"
	if req != nil && isHTMX(req) {
		block = "content"
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, block, data); err != nil {
		r.logger.Error("template execution failed", "name", name, "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// renderError writes err as JSON for API callers and as an error page
// otherwise. INTERNAL messages are logged, never shown.
func (r *Renderer) renderError(w http.ResponseWriter, req *http.Request, err error) {
	var eErr *errors.EaselError
	if !stderrors.As(err, &eErr) {
		eErr = errors.NewInternal(err)
	}
	message := eErr.Message
	if eErr.Code == errors.ErrInternal {
		r.logger.Error("request failed", "path", req.URL.Path, "err", eErr.Message)
		message = "an internal error occurred"
	}

	if isHTMX(req) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(eErr.Status)
		fmt.Fprintf(w, `<div class="error-message">%s</div>`, template.HTMLEscapeString(message))
		return
	}

	if wantsJSON(req) {
		body := map[string]any{
			"code":    eErr.Code,
			"message": message,
			"status":  eErr.Status,
		}
		if eErr.Code != errors.ErrInternal && eErr.Details != nil {
			body["details"] = eErr.Details
		}
		renderJSON(w, eErr.Status, map[string]any{"error": body})
		return
	}

	r.renderPageStatus(w, req, eErr.Status, "error", ErrorPageData{
		PageData:   PageData{Title: fmt.Sprintf("Error %d", eErr.Status), Version: r.version},
		StatusCode: eErr.Status,
		Message:    message,
	})
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

func wantsJSON(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/") || strings.Contains(r.Header.Get("Accept"), "application/json")
}

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// renderMarkdown converts Markdown to HTML with goldmark. Raw HTML in the
// source is dropped by goldmark's default (unsafe off) renderer.
func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

// formatTime formats a Unix timestamp as "2006-01-02 15:04" UTC.
func formatTime(unix int64) string {
	return time.Unix(unix, 0).UTC().Format("2006-01-02 15:04")
}

// deref dereferences a pointer, returning the zero value if nil.
func deref(v any) any {
	if v == nil {
		return ""
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return reflect.Zero(rv.Type().Elem()).Interface()
		}
		return rv.Elem().Interface()
	}
	return v
}

// hasValue reports whether v is a non-nil pointer or a non-pointer value.
func hasValue(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		return !rv.IsNil()
	}
	return true
}
