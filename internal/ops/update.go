package ops

import (
	"context"
	"strings"
	"time"

	"github.com/hpungsan/easel/internal/canvas"
	"github.com/hpungsan/easel/internal/config"
	"github.com/hpungsan/easel/internal/convert"
	"github.com/hpungsan/easel/internal/db"
	"github.com/hpungsan/easel/internal/draft"
	"github.com/hpungsan/easel/internal/errors"
)

// UpdateMode reports how an update was stored.
type UpdateMode string

const (
	UpdateInPlace    UpdateMode = "in_place"
	UpdateNewVersion UpdateMode = "new_version"
	UpdateRollback   UpdateMode = "rollback"
)

// UpdateInput contains parameters for the Update operation.
type UpdateInput struct {
	ID              string
	ExpectedVersion int // required; must equal the lineage head version

	// Editable fields (nil = don't change)
	Title      *string
	Canvas     *canvas.Document
	ExportText *string // default when Canvas changes: Markdown export of the new canvas
	UpdatedBy  *string

	// SaveAsNewVersion keeps the current row and inserts the result as a new
	// version of the same lineage.
	SaveAsNewVersion bool

	// RollbackToVersion copies title, canvas and export text from that
	// version into a new version. Editable fields other than UpdatedBy are ignored.
	RollbackToVersion *int
}

// UpdateOutput contains the result of the Update operation.
type UpdateOutput struct {
	ID              string     `json:"id"`
	LineageID       string     `json:"lineage_id"`
	Version         int        `json:"version"`
	PreviousVersion int        `json:"previous_version"`
	Mode            UpdateMode `json:"mode"`
}

// Update saves a change to a draft under optimistic concurrency control.
// The caller's ExpectedVersion must match the lineage head; otherwise a
// VERSION_CONFLICT carrying the latest draft is returned.
func Update(ctx context.Context, database db.Querier, cfg *config.Config, input UpdateInput) (*UpdateOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	if input.ExpectedVersion < 1 {
		return nil, errors.NewInvalidRequest("expected_version is required and must be at least 1")
	}
	if input.RollbackToVersion != nil && *input.RollbackToVersion < 1 {
		return nil, errors.NewInvalidRequest("rollback_to_version must be at least 1")
	}
	hasEdits := input.Title != nil || input.Canvas != nil || input.ExportText != nil
	if !hasEdits && input.RollbackToVersion == nil && !input.SaveAsNewVersion {
		return nil, errors.NewInvalidRequest("at least one editable field must be provided")
	}

	current, err := db.GetByID(ctx, database, id, false)
	if err != nil {
		return nil, err
	}
	head, err := db.GetHead(ctx, database, current.ProjectNorm, current.LineageID)
	if err != nil {
		return nil, err
	}
	if head.ID != current.ID || head.Version != input.ExpectedVersion {
		return nil, errors.NewVersionConflict(input.ExpectedVersion, head.Version, toOutput(head, true))
	}

	next, err := db.NextVersion(ctx, database, current.ProjectNorm, current.LineageID)
	if err != nil {
		return nil, err
	}
	updatedBy := cleanOptionalString(input.UpdatedBy)

	if input.RollbackToVersion != nil {
		source, err := db.GetVersion(ctx, database, current.ProjectNorm, current.LineageID, *input.RollbackToVersion)
		if err != nil {
			return nil, err
		}
		d := newVersionOf(current, next, updatedBy)
		d.Title = source.Title
		d.Canvas = source.Canvas
		d.ExportText = source.ExportText
		if err := insertVersion(ctx, database, d, input.ExpectedVersion); err != nil {
			return nil, err
		}
		return &UpdateOutput{
			ID: d.ID, LineageID: d.LineageID, Version: d.Version,
			PreviousVersion: current.Version, Mode: UpdateRollback,
		}, nil
	}

	updated := *current
	if err := applyEdits(cfg, &updated, input); err != nil {
		return nil, err
	}

	if input.SaveAsNewVersion {
		d := newVersionOf(&updated, next, updatedBy)
		if err := insertVersion(ctx, database, d, input.ExpectedVersion); err != nil {
			return nil, err
		}
		return &UpdateOutput{
			ID: d.ID, LineageID: d.LineageID, Version: d.Version,
			PreviousVersion: current.Version, Mode: UpdateNewVersion,
		}, nil
	}

	updated.Version = next
	updated.UpdatedBy = updatedBy
	if err := db.UpdateInPlace(ctx, database, &updated, input.ExpectedVersion); err != nil {
		if err == db.ErrStaleVersion || err == db.ErrUniqueConstraint {
			return nil, conflictWithLatest(ctx, database, current, input.ExpectedVersion)
		}
		return nil, err
	}
	return &UpdateOutput{
		ID: updated.ID, LineageID: updated.LineageID, Version: updated.Version,
		PreviousVersion: current.Version, Mode: UpdateInPlace,
	}, nil
}

// applyEdits validates and applies the editable fields of input to d.
func applyEdits(cfg *config.Config, d *draft.Draft, input UpdateInput) error {
	if input.Title != nil {
		title, err := normalizeTitle(*input.Title)
		if err != nil {
			return err
		}
		d.Title = title
	}
	if input.Canvas != nil {
		if err := checkCanvas(cfg, input.Canvas); err != nil {
			return err
		}
		doc := input.Canvas.Clone()
		if doc.Metadata.SourceType == "" {
			doc.Metadata.SourceType = d.ContentType.SourceType()
		}
		d.Canvas = doc
		if input.ExportText == nil {
			d.ExportText = convert.ToMarkdown(doc)
		}
	}
	if input.ExportText != nil {
		d.ExportText = *input.ExportText
	}
	return nil
}

// newVersionOf copies base into a fresh row for the given version.
func newVersionOf(base *draft.Draft, version int, updatedBy *string) *draft.Draft {
	now := time.Now().Unix()
	d := *base
	d.ID = ""
	d.Version = version
	d.UpdatedBy = updatedBy
	d.CreatedAt = now
	d.UpdatedAt = now
	d.DeletedAt = nil
	return &d
}

// insertVersion assigns an id and inserts d. A unique violation means
// another writer took the version number first.
func insertVersion(ctx context.Context, database db.Querier, d *draft.Draft, expected int) error {
	id, err := generateULID()
	if err != nil {
		return errors.NewInternal(err)
	}
	d.ID = id
	if err := db.Insert(ctx, database, d); err != nil {
		if err == db.ErrUniqueConstraint {
			return conflictWithLatest(ctx, database, d, expected)
		}
		return err
	}
	return nil
}

// conflictWithLatest builds a VERSION_CONFLICT using the lineage head as it
// is now.
func conflictWithLatest(ctx context.Context, database db.Querier, d *draft.Draft, expected int) error {
	head, err := db.GetHead(ctx, database, d.ProjectNorm, d.LineageID)
	if err != nil {
		return err
	}
	return errors.NewVersionConflict(expected, head.Version, toOutput(head, true))
}
