package ops

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hpungsan/easel/internal/canvas"
	"github.com/hpungsan/easel/internal/config"
	"github.com/hpungsan/easel/internal/draft"
	"github.com/hpungsan/easel/internal/errors"
)

// Pagination limits
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// DefaultProject is used when a caller omits the project.
const DefaultProject = "default"

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// DraftOutput is the public view of a draft. Canvas is omitted unless asked for.
type DraftOutput struct {
	ID          string            `json:"id"`
	Project     string            `json:"project"`
	ProjectNorm string            `json:"project_norm"`
	LineageID   string            `json:"lineage_id"`
	ContentType draft.ContentType `json:"content_type"`
	Title       string            `json:"title"`
	Canvas      *canvas.Document  `json:"canvas,omitempty"`
	ExportText  string            `json:"export_text"`
	Version     int               `json:"version"`
	UpdatedBy   *string           `json:"updated_by,omitempty"`
	CreatedAt   int64             `json:"created_at"`
	UpdatedAt   int64             `json:"updated_at"`
	DeletedAt   *int64            `json:"deleted_at,omitempty"`
}

func toOutput(d *draft.Draft, includeCanvas bool) *DraftOutput {
	out := &DraftOutput{
		ID:          d.ID,
		Project:     d.ProjectRaw,
		ProjectNorm: d.ProjectNorm,
		LineageID:   d.LineageID,
		ContentType: d.ContentType,
		Title:       d.Title,
		ExportText:  d.ExportText,
		Version:     d.Version,
		UpdatedBy:   d.UpdatedBy,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
		DeletedAt:   d.DeletedAt,
	}
	if includeCanvas {
		out.Canvas = d.Canvas
	}
	return out
}

// normalizeProject defaults an empty project and returns raw and normalized forms.
func normalizeProject(project string) (string, string) {
	if strings.TrimSpace(project) == "" {
		project = DefaultProject
	}
	return project, draft.Normalize(project)
}

// normalizeTitle trims a title and enforces 1..MaxTitleChars characters.
func normalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", errors.NewInvalidRequest("title is required")
	}
	if n := draft.CountChars(title); n > draft.MaxTitleChars {
		return "", errors.NewInvalidRequest(fmt.Sprintf("title must be at most %d characters (got %d)", draft.MaxTitleChars, n))
	}
	return title, nil
}

// checkCanvas validates a canvas supplied by a caller and enforces the
// configured size limit on its serialized form.
func checkCanvas(cfg *config.Config, doc *canvas.Document) error {
	if doc == nil {
		return errors.NewInvalidRequest("canvas is required")
	}
	if err := canvas.Validate(doc); err != nil {
		return errors.NewInvalidRequest(fmt.Sprintf("invalid canvas: %v", err))
	}
	if cfg == nil || cfg.DraftMaxBytes <= 0 {
		return nil
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return errors.NewInternal(err)
	}
	if len(data) > cfg.DraftMaxBytes {
		return errors.NewDraftTooLarge(cfg.DraftMaxBytes, len(data))
	}
	return nil
}

// cleanOptionalString trims s and maps blank values to nil.
func cleanOptionalString(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// generateULID generates a new draft id.
func generateULID() (string, error) {
	return canvas.NewULID()
}

// newLineageID returns a random UUID shared by every version of a new draft.
func newLineageID() string {
	return uuid.NewString()
}
