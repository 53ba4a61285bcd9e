package web

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hpungsan/easel/internal/canvas"
	"github.com/hpungsan/easel/internal/convert"
	"github.com/hpungsan/easel/internal/draft"
	"github.com/hpungsan/easel/internal/errors"
	"github.com/hpungsan/easel/internal/ops"
)

// maxBodyBytes caps API request bodies.
const maxBodyBytes = 8 << 20

// CreateDraftRequest is the body of POST /api/projects/{project}/drafts.
type CreateDraftRequest struct {
	ContentType string           `json:"content_type" validate:"required,oneof=article social"`
	Title       string           `json:"title" validate:"required,max=255"`
	Canvas      *canvas.Document `json:"canvas" validate:"required"`
	ExportText  *string          `json:"export_text,omitempty"`
	UpdatedBy   *string          `json:"updated_by,omitempty"`
}

// UpdateDraftRequest is the body of PUT /api/drafts/{id}.
type UpdateDraftRequest struct {
	ExpectedVersion   int              `json:"expected_version" validate:"required,min=1"`
	Title             *string          `json:"title,omitempty" validate:"omitempty,max=255"`
	Canvas            *canvas.Document `json:"canvas,omitempty"`
	ExportText        *string          `json:"export_text,omitempty"`
	UpdatedBy         *string          `json:"updated_by,omitempty"`
	SaveAsNewVersion  bool             `json:"save_as_new_version,omitempty"`
	RollbackToVersion *int             `json:"rollback_to_version,omitempty" validate:"omitempty,min=1"`
}

// ConvertRequest is the body of POST /api/convert.
type ConvertRequest struct {
	From        string                 `json:"from" validate:"required,oneof=blocks markdown source"`
	ContentType string                 `json:"content_type,omitempty" validate:"omitempty,oneof=article social"`
	Title       string                 `json:"title,omitempty"`
	Blocks      []convert.ContentBlock `json:"blocks,omitempty"`
	Hashtags    []string               `json:"hashtags,omitempty"`
	Text        string                 `json:"text,omitempty"`
	Mode        string                 `json:"mode,omitempty" validate:"omitempty,oneof=json markdown"`
}

// RenderRequest is the body of POST /api/render.
type RenderRequest struct {
	Canvas *canvas.Document `json:"canvas" validate:"required"`
	Format string           `json:"format,omitempty" validate:"omitempty,oneof=text markdown html"`
}

// APIListDrafts handles GET /api/projects/{project}/drafts.
func (h *Handlers) APIListDrafts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := ops.List(r.Context(), h.db, ops.ListInput{
		Project:        chi.URLParam(r, "project"),
		ContentType:    q.Get("content_type"),
		LineageID:      q.Get("lineage_id"),
		LatestOnly:     parseBoolParam(r, "latest_only"),
		Limit:          parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset:         parseIntParam(r, "offset", 0),
		IncludeDeleted: parseBoolParam(r, "include_deleted"),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// APICreateDraft handles POST /api/projects/{project}/drafts.
func (h *Handlers) APICreateDraft(w http.ResponseWriter, r *http.Request) {
	var req CreateDraftRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	req.ContentType = strings.ToLower(strings.TrimSpace(req.ContentType))
	if err := validateRequest(&req); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	result, err := ops.Create(r.Context(), h.db, h.cfg, ops.CreateInput{
		Project:     chi.URLParam(r, "project"),
		ContentType: draft.ContentType(req.ContentType),
		Title:       req.Title,
		Canvas:      req.Canvas,
		ExportText:  req.ExportText,
		UpdatedBy:   req.UpdatedBy,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/drafts/"+result.ID)
	renderJSON(w, http.StatusCreated, result)
}

// APIGetDraft handles GET /api/drafts/{id}. The canvas is included unless
// include_canvas=false.
func (h *Handlers) APIGetDraft(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Fetch(r.Context(), h.db, ops.FetchInput{
		ID:             chi.URLParam(r, "id"),
		IncludeCanvas:  r.URL.Query().Get("include_canvas") != "false",
		IncludeDeleted: parseBoolParam(r, "include_deleted"),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// APIUpdateDraft handles PUT /api/drafts/{id}.
func (h *Handlers) APIUpdateDraft(w http.ResponseWriter, r *http.Request) {
	var req UpdateDraftRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if err := validateRequest(&req); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	result, err := ops.Update(r.Context(), h.db, h.cfg, ops.UpdateInput{
		ID:                chi.URLParam(r, "id"),
		ExpectedVersion:   req.ExpectedVersion,
		Title:             req.Title,
		Canvas:            req.Canvas,
		ExportText:        req.ExportText,
		UpdatedBy:         req.UpdatedBy,
		SaveAsNewVersion:  req.SaveAsNewVersion,
		RollbackToVersion: req.RollbackToVersion,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// APIDeleteDraft handles DELETE /api/drafts/{id}.
func (h *Handlers) APIDeleteDraft(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Delete(r.Context(), h.db, ops.DeleteInput{ID: chi.URLParam(r, "id")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// APIExportDraft handles GET /api/drafts/{id}/export?format=. With
// raw=true the rendering is the response body.
func (h *Handlers) APIExportDraft(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Export(r.Context(), h.db, h.cfg, ops.ExportInput{
		ID:     chi.URLParam(r, "id"),
		Format: r.URL.Query().Get("format"),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if !parseBoolParam(r, "raw") {
		renderJSON(w, http.StatusOK, result)
		return
	}
	w.Header().Set("Content-Type", contentTypeFor(result.Format))
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, result.Content)
}

// APIDraftHistory handles GET /api/drafts/{id}/history.
func (h *Handlers) APIDraftHistory(w http.ResponseWriter, r *http.Request) {
	result, err := ops.History(r.Context(), h.db, ops.HistoryInput{
		ID:             chi.URLParam(r, "id"),
		IncludeDeleted: parseBoolParam(r, "include_deleted"),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// APIConvert handles POST /api/convert.
func (h *Handlers) APIConvert(w http.ResponseWriter, r *http.Request) {
	var req ConvertRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	req.From = strings.ToLower(strings.TrimSpace(req.From))
	req.ContentType = strings.ToLower(strings.TrimSpace(req.ContentType))
	req.Mode = strings.ToLower(strings.TrimSpace(req.Mode))
	if err := validateRequest(&req); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	result, err := ops.Convert(ops.ConvertInput{
		From:        ops.ConvertFrom(req.From),
		ContentType: draft.ContentType(req.ContentType),
		Title:       req.Title,
		Blocks:      req.Blocks,
		Hashtags:    req.Hashtags,
		Text:        req.Text,
		Mode:        convert.SourceMode(req.Mode),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// APIRender handles POST /api/render.
func (h *Handlers) APIRender(w http.ResponseWriter, r *http.Request) {
	var req RenderRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	req.Format = strings.ToLower(strings.TrimSpace(req.Format))
	if err := validateRequest(&req); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	result, err := ops.Render(ops.RenderInput{Canvas: req.Canvas, Format: req.Format})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// decodeBody reads a single JSON object into v. Unknown fields and
// trailing data are rejected.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return errors.NewInvalidRequest(fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
		}
		return errors.NewInvalidRequest(fmt.Sprintf("invalid JSON body: %v", err))
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.NewInvalidRequest("invalid JSON body: unexpected data after object")
	}
	return nil
}

func contentTypeFor(f convert.Format) string {
	switch f {
	case convert.FormatHTML:
		return "text/html; charset=utf-8"
	case convert.FormatMarkdown:
		return "text/markdown; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}
