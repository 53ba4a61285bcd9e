package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/easel/internal/canvas"
	"github.com/hpungsan/easel/internal/config"
	"github.com/hpungsan/easel/internal/draft"
	"github.com/hpungsan/easel/internal/errors"
	"github.com/hpungsan/easel/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db  *sql.DB
	cfg *config.Config
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *sql.DB, cfg *config.Config) *Handlers {
	return &Handlers{db: db, cfg: cfg}
}

// CreateRequest represents the arguments for draft_create.
type CreateRequest struct {
	Project     string           `json:"project,omitempty"`
	ContentType string           `json:"content_type"`
	Title       string           `json:"title"`
	Canvas      *canvas.Document `json:"canvas"`
	ExportText  *string          `json:"export_text,omitempty"`
	UpdatedBy   *string          `json:"updated_by,omitempty"`
}

// FetchRequest represents the arguments for draft_fetch.
type FetchRequest struct {
	ID             string `json:"id"`
	IncludeCanvas  *bool  `json:"include_canvas,omitempty"`
	IncludeDeleted bool   `json:"include_deleted,omitempty"`
}

// ListRequest represents the arguments for draft_list.
type ListRequest struct {
	Project        string `json:"project,omitempty"`
	ContentType    string `json:"content_type,omitempty"`
	LineageID      string `json:"lineage_id,omitempty"`
	LatestOnly     bool   `json:"latest_only,omitempty"`
	Limit          int    `json:"limit,omitempty"`
	Offset         int    `json:"offset,omitempty"`
	IncludeDeleted bool   `json:"include_deleted,omitempty"`
}

// HistoryRequest represents the arguments for draft_history.
type HistoryRequest struct {
	ID             string `json:"id,omitempty"`
	Project        string `json:"project,omitempty"`
	LineageID      string `json:"lineage_id,omitempty"`
	IncludeDeleted bool   `json:"include_deleted,omitempty"`
}

// UpdateRequest represents the arguments for draft_update.
type UpdateRequest struct {
	ID                string           `json:"id"`
	ExpectedVersion   int              `json:"expected_version"`
	Title             *string          `json:"title,omitempty"`
	Canvas            *canvas.Document `json:"canvas,omitempty"`
	ExportText        *string          `json:"export_text,omitempty"`
	UpdatedBy         *string          `json:"updated_by,omitempty"`
	SaveAsNewVersion  bool             `json:"save_as_new_version,omitempty"`
	RollbackToVersion *int             `json:"rollback_to_version,omitempty"`
}

// DeleteRequest represents the arguments for draft_delete.
type DeleteRequest struct {
	ID string `json:"id"`
}

// ExportRequest represents the arguments for draft_export.
type ExportRequest struct {
	ID     string `json:"id"`
	Format string `json:"format,omitempty"`
	Path   string `json:"path,omitempty"`
}

// ImportRequest represents the arguments for draft_import.
type ImportRequest struct {
	Path        string   `json:"path"`
	Project     string   `json:"project,omitempty"`
	ContentType string   `json:"content_type,omitempty"`
	Title       string   `json:"title,omitempty"`
	Hashtags    []string `json:"hashtags,omitempty"`
	UpdatedBy   *string  `json:"updated_by,omitempty"`
}

// BackupRequest represents the arguments for draft_backup.
type BackupRequest struct {
	Path           string  `json:"path,omitempty"`
	Project        *string `json:"project,omitempty"`
	IncludeDeleted bool    `json:"include_deleted,omitempty"`
}

// RestoreRequest represents the arguments for draft_restore.
type RestoreRequest struct {
	Path string `json:"path"`
	Mode string `json:"mode,omitempty"`
}

// PurgeRequest represents the arguments for draft_purge.
type PurgeRequest struct {
	Project       *string `json:"project,omitempty"`
	OlderThanDays *int    `json:"older_than_days,omitempty"`
}

// HandleCreate handles the draft_create tool call.
func (h *Handlers) HandleCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CreateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Create(ctx, h.db, h.cfg, ops.CreateInput{
		Project:     input.Project,
		ContentType: draft.ContentType(strings.ToLower(input.ContentType)),
		Title:       input.Title,
		Canvas:      input.Canvas,
		ExportText:  input.ExportText,
		UpdatedBy:   input.UpdatedBy,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleFetch handles the draft_fetch tool call.
func (h *Handlers) HandleFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FetchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	includeCanvas := input.IncludeCanvas == nil || *input.IncludeCanvas
	result, err := ops.Fetch(ctx, h.db, ops.FetchInput{
		ID:             input.ID,
		IncludeCanvas:  includeCanvas,
		IncludeDeleted: input.IncludeDeleted,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleList handles the draft_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.List(ctx, h.db, ops.ListInput(input))
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleHistory handles the draft_history tool call.
func (h *Handlers) HandleHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[HistoryRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.History(ctx, h.db, ops.HistoryInput(input))
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleUpdate handles the draft_update tool call.
func (h *Handlers) HandleUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[UpdateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Update(ctx, h.db, h.cfg, ops.UpdateInput(input))
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleDelete handles the draft_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DeleteRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Delete(ctx, h.db, ops.DeleteInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleExport handles the draft_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Export(ctx, h.db, h.cfg, ops.ExportInput(input))
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleImport handles the draft_import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Import(ctx, h.db, h.cfg, ops.ImportInput{
		Path:        input.Path,
		Project:     input.Project,
		ContentType: draft.ContentType(strings.ToLower(input.ContentType)),
		Title:       input.Title,
		Hashtags:    input.Hashtags,
		UpdatedBy:   input.UpdatedBy,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleBackup handles the draft_backup tool call.
func (h *Handlers) HandleBackup(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[BackupRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Backup(ctx, h.db, h.cfg, ops.BackupInput(input))
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleRestore handles the draft_restore tool call.
func (h *Handlers) HandleRestore(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RestoreRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Restore(ctx, h.db, h.cfg, ops.RestoreInput{
		Path: input.Path,
		Mode: ops.RestoreMode(strings.ToLower(input.Mode)),
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandlePurge handles the draft_purge tool call.
func (h *Handlers) HandlePurge(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PurgeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Purge(ctx, h.db, ops.PurgeInput(input))
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleConvert handles the canvas_convert tool call.
func (h *Handlers) HandleConvert(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ops.ConvertInput](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Convert(input)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleRender handles the canvas_export tool call.
func (h *Handlers) HandleRender(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ops.RenderInput](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Render(input)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// errorResult creates an MCP error result with IsError set. INTERNAL errors
// never carry details, which may hold paths or SQL.
func errorResult(err error) *mcp.CallToolResult {
	errorObj := map[string]any{
		"code":    errors.ErrInternal,
		"message": "an internal error occurred",
		"status":  500,
	}

	var eErr *errors.EaselError
	if stderrors.As(err, &eErr) {
		message := eErr.Message
		// Keep any context a caller wrapped around the error
		if full := err.Error(); full != eErr.Error() {
			message = strings.TrimSuffix(full, eErr.Error()) + eErr.Message
		}
		errorObj["code"] = eErr.Code
		errorObj["message"] = message
		errorObj["status"] = eErr.Status
		if eErr.Code != errors.ErrInternal && eErr.Details != nil {
			errorObj["details"] = eErr.Details
		}
	}

	content, _ := json.Marshal(map[string]any{"error": errorObj})
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
