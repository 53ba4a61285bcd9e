package ops

import (
	"context"
	"fmt"

	"github.com/hpungsan/easel/internal/db"
	"github.com/hpungsan/easel/internal/errors"
)

// PurgeInput contains parameters for the Purge operation.
type PurgeInput struct {
	Project       *string // optional filter by project
	OlderThanDays *int    // optional, only purge if deleted_at < (now - N days)
}

// PurgeOutput contains the result of the Purge operation.
type PurgeOutput struct {
	Purged  int    `json:"purged"`
	Message string `json:"message"`
}

// Purge permanently deletes soft-deleted drafts.
func Purge(ctx context.Context, database db.Querier, input PurgeInput) (*PurgeOutput, error) {
	if input.OlderThanDays != nil && *input.OlderThanDays < 0 {
		return nil, errors.NewInvalidRequest("older_than_days must not be negative")
	}

	var projectNorm *string
	if input.Project != nil {
		_, norm := normalizeProject(*input.Project)
		projectNorm = &norm
	}

	count, err := db.PurgeDeleted(ctx, database, projectNorm, input.OlderThanDays)
	if err != nil {
		return nil, err
	}

	return &PurgeOutput{
		Purged:  count,
		Message: formatPurgeMessage(count, input.Project, input.OlderThanDays),
	}, nil
}

// formatPurgeMessage creates a human-readable message for the purge result.
func formatPurgeMessage(count int, project *string, olderThanDays *int) string {
	if count == 0 {
		return "No deleted drafts to purge"
	}

	word := "draft"
	if count > 1 {
		word = "drafts"
	}
	msg := fmt.Sprintf("Permanently deleted %d %s", count, word)

	if project != nil {
		msg += fmt.Sprintf(" from project %q", *project)
	}
	if olderThanDays != nil {
		msg += fmt.Sprintf(" (deleted more than %d days ago)", *olderThanDays)
	}
	return msg
}
