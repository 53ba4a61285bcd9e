package web

import (
	"database/sql"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hpungsan/easel/internal/config"
	"github.com/hpungsan/easel/internal/errors"
	"github.com/hpungsan/easel/internal/ops"
)

// Handlers contains HTTP route handlers for the web UI and JSON API.
type Handlers struct {
	db       *sql.DB
	cfg      *config.Config
	renderer *Renderer
}

// HandleList handles GET /drafts, the drafts of one project.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	project := q.Get("project")
	if project == "" {
		project = "default"
	}

	input := ops.ListInput{
		Project:        project,
		ContentType:    q.Get("content_type"),
		LatestOnly:     parseBoolParam(r, "latest_only"),
		Limit:          parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset:         parseIntParam(r, "offset", 0),
		IncludeDeleted: parseBoolParam(r, "include_deleted"),
	}

	result, err := ops.List(r.Context(), h.db, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, r, "list", ListPageData{
		PageData: PageData{
			Title:   "Drafts",
			Version: h.renderer.version,
			Project: project,
		},
		Items:       result.Items,
		Pagination:  result.Pagination,
		ContentType: input.ContentType,
		LatestOnly:  input.LatestOnly,
		Deleted:     input.IncludeDeleted,
	})
}

// HandleDetail handles GET /drafts/{id}.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	d, err := ops.Fetch(r.Context(), h.db, ops.FetchInput{
		ID:             chi.URLParam(r, "id"),
		IncludeCanvas:  true,
		IncludeDeleted: parseBoolParam(r, "include_deleted"),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, r, "detail", DetailPageData{
		PageData: PageData{
			Title:   d.Title,
			Version: h.renderer.version,
			Project: d.Project,
		},
		Draft:        d,
		Preview:      newPreview(d.Canvas),
		RenderedHTML: renderMarkdown(d.ExportText),
	})
}

// HandleHistory handles GET /drafts/{id}/history.
func (h *Handlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	result, err := ops.History(r.Context(), h.db, ops.HistoryInput{
		ID:             id,
		IncludeDeleted: parseBoolParam(r, "include_deleted"),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, r, "history", HistoryPageData{
		PageData: PageData{
			Title:   "History",
			Version: h.renderer.version,
			Project: result.Project,
		},
		History: result,
		Current: id,
	})
}

// HandleDelete handles DELETE /drafts/{id} and its form fallback
// POST /drafts/{id}/delete.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	current, err := ops.Fetch(r.Context(), h.db, ops.FetchInput{ID: id})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	result, err := ops.Delete(r.Context(), h.db, ops.DeleteInput{ID: id})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	target := "/drafts?" + url.Values{"project": {current.ProjectNorm}}.Encode()
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusOK)
		return
	}
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// HandlePurge handles POST /drafts/purge, permanently deleting soft-deleted
// drafts.
func (h *Handlers) HandlePurge(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	if r.FormValue("confirm") != "true" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("confirm parameter must be \"true\""))
		return
	}

	input := ops.PurgeInput{Project: ptrString(r.FormValue("project"))}
	if days := r.FormValue("older_than_days"); days != "" {
		d, err := strconv.Atoi(days)
		if err != nil {
			h.renderer.renderError(w, r, errors.NewInvalidRequest("older_than_days must be an integer"))
			return
		}
		input.OlderThanDays = &d
	}

	result, err := ops.Purge(r.Context(), h.db, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`<div class="purge-result">` + template.HTMLEscapeString(result.Message) + `</div>`))
		return
	}
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	params := url.Values{"include_deleted": {"true"}}
	if input.Project != nil {
		params.Set("project", strings.TrimSpace(*input.Project))
	}
	target := "/drafts?" + params.Encode()
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// parseBoolParam parses a boolean query parameter.
func parseBoolParam(r *http.Request, name string) bool {
	s := r.URL.Query().Get(name)
	return s == "true" || s == "1"
}

// ptrString returns a pointer to s if non-blank, nil otherwise.
func ptrString(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func notFoundRoute(r *http.Request) error {
	return &errors.EaselError{
		Code:    errors.ErrNotFound,
		Status:  http.StatusNotFound,
		Message: "page not found: " + r.URL.Path,
	}
}
