package ops

import (
	"context"
	"strings"

	"github.com/hpungsan/easel/internal/db"
	"github.com/hpungsan/easel/internal/draft"
	"github.com/hpungsan/easel/internal/errors"
)

// ListInput contains parameters for the List operation.
type ListInput struct {
	Project        string // default: "default"
	ContentType    string // optional: article or social
	LineageID      string // optional
	LatestOnly     bool   // only the head version of each lineage
	Limit          int    // default: 20, max: 100
	Offset         int
	IncludeDeleted bool
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Items      []draft.Summary `json:"items"`
	Pagination Pagination      `json:"pagination"`
	Sort       string          `json:"sort"`
}

// List retrieves draft summaries for a project, newest first.
func List(ctx context.Context, database db.Querier, input ListInput) (*ListOutput, error) {
	_, projectNorm := normalizeProject(input.Project)

	contentType := strings.ToLower(strings.TrimSpace(input.ContentType))
	if contentType != "" && !draft.ContentType(contentType).Valid() {
		return nil, errors.NewInvalidRequest("content_type must be one of: article, social")
	}

	limit := input.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	offset := max(input.Offset, 0)

	summaries, total, err := db.ListByProject(ctx, database, db.ListFilters{
		ProjectNorm:    projectNorm,
		ContentType:    contentType,
		LineageID:      strings.TrimSpace(input.LineageID),
		LatestOnly:     input.LatestOnly,
		IncludeDeleted: input.IncludeDeleted,
	}, limit, offset)
	if err != nil {
		return nil, err
	}

	return &ListOutput{
		Items: summaries,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(summaries) < total,
			Total:   total,
		},
		Sort: "updated_at_desc",
	}, nil
}

// HistoryInput addresses a lineage either through any of its drafts (ID) or
// directly by project and lineage id.
type HistoryInput struct {
	ID             string
	Project        string
	LineageID      string
	IncludeDeleted bool
}

// HistoryOutput lists every version of a lineage, oldest first.
type HistoryOutput struct {
	Project     string          `json:"project"`
	LineageID   string          `json:"lineage_id"`
	HeadVersion int             `json:"head_version"`
	Items       []draft.Summary `json:"items"`
}

// History returns the version history of a draft lineage.
func History(ctx context.Context, database db.Querier, input HistoryInput) (*HistoryOutput, error) {
	id := strings.TrimSpace(input.ID)
	lineageID := strings.TrimSpace(input.LineageID)
	if id != "" && lineageID != "" {
		return nil, errors.NewInvalidRequest("specify either id or lineage_id, not both")
	}

	var projectNorm string
	switch {
	case id != "":
		d, err := db.GetByID(ctx, database, id, true)
		if err != nil {
			return nil, err
		}
		projectNorm, lineageID = d.ProjectNorm, d.LineageID
	case lineageID != "":
		_, projectNorm = normalizeProject(input.Project)
	default:
		return nil, errors.NewInvalidRequest("must specify either id or lineage_id")
	}

	items, err := db.ListLineage(ctx, database, projectNorm, lineageID, input.IncludeDeleted)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, errors.NewNotFound(lineageID)
	}

	out := &HistoryOutput{
		Project:   items[0].Project,
		LineageID: lineageID,
		Items:     items,
	}
	for _, s := range items {
		if s.DeletedAt == nil {
			out.HeadVersion = max(out.HeadVersion, s.Version)
		}
	}
	return out, nil
}
