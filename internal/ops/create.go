package ops

import (
	"context"
	"time"

	"github.com/hpungsan/easel/internal/canvas"
	"github.com/hpungsan/easel/internal/config"
	"github.com/hpungsan/easel/internal/convert"
	"github.com/hpungsan/easel/internal/db"
	"github.com/hpungsan/easel/internal/draft"
	"github.com/hpungsan/easel/internal/errors"
)

// CreateInput contains parameters for the Create operation.
type CreateInput struct {
	Project     string // default: "default"
	ContentType draft.ContentType
	Title       string
	Canvas      *canvas.Document
	ExportText  *string // default: Markdown export of Canvas
	UpdatedBy   *string
}

// CreateOutput contains the result of the Create operation.
type CreateOutput struct {
	ID        string `json:"id"`
	LineageID string `json:"lineage_id"`
	Version   int    `json:"version"`
}

// Create stores version 1 of a new draft lineage.
func Create(ctx context.Context, database db.Querier, cfg *config.Config, input CreateInput) (*CreateOutput, error) {
	if !input.ContentType.Valid() {
		return nil, errors.NewInvalidRequest("content_type must be one of: article, social")
	}
	title, err := normalizeTitle(input.Title)
	if err != nil {
		return nil, err
	}
	if err := checkCanvas(cfg, input.Canvas); err != nil {
		return nil, err
	}

	doc := input.Canvas.Clone()
	if doc.Metadata.SourceType == "" {
		doc.Metadata.SourceType = input.ContentType.SourceType()
	}

	exportText := convert.ToMarkdown(doc)
	if input.ExportText != nil {
		exportText = *input.ExportText
	}

	id, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	projectRaw, projectNorm := normalizeProject(input.Project)
	now := time.Now().Unix()

	d := &draft.Draft{
		ID:          id,
		ProjectRaw:  projectRaw,
		ProjectNorm: projectNorm,
		LineageID:   newLineageID(),
		ContentType: input.ContentType,
		Title:       title,
		Canvas:      doc,
		ExportText:  exportText,
		Version:     1,
		UpdatedBy:   cleanOptionalString(input.UpdatedBy),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := db.Insert(ctx, database, d); err != nil {
		return nil, err
	}

	return &CreateOutput{ID: d.ID, LineageID: d.LineageID, Version: d.Version}, nil
}
