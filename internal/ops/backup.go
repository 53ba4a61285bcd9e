package ops

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/hpungsan/easel/internal/config"
	"github.com/hpungsan/easel/internal/db"
	"github.com/hpungsan/easel/internal/draft"
	"github.com/hpungsan/easel/internal/errors"
)

// BackupInput contains parameters for the Backup operation.
type BackupInput struct {
	Path           string  // optional, default: ~/.easel/exports/<project>-<timestamp>.jsonl
	Project        *string // optional filter by project
	IncludeDeleted bool
}

// BackupOutput contains the result of the Backup operation.
type BackupOutput struct {
	Path       string `json:"path"`
	Count      int    `json:"count"`
	ExportedAt int64  `json:"exported_at"`
}

// BackupHeader is the first line of a backup file.
type BackupHeader struct {
	EaselBackup   bool   `json:"_easel_backup"`
	SchemaVersion string `json:"schema_version"`
	ExportedAt    int64  `json:"exported_at"`
}

// Backup streams drafts, every version of every lineage, to a JSONL file.
func Backup(ctx context.Context, database db.Querier, cfg *config.Config, input BackupInput) (*BackupOutput, error) {
	now := time.Now()
	exportedAt := now.Unix()

	var projectNorm *string
	name := "all"
	if input.Project != nil {
		_, norm := normalizeProject(*input.Project)
		projectNorm = &norm
		name = norm
	}

	path := input.Path
	if path == "" {
		var err error
		if path, err = defaultFilePath(name, ".jsonl", now); err != nil {
			return nil, err
		}
	}
	// Default paths are validated too; the project name is user input
	if err := ValidatePath(path, PathCheckWrite, backupExtensions, cfg); err != nil {
		return nil, err
	}

	count := 0
	err := writeFileAtomic(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		header := BackupHeader{EaselBackup: true, SchemaVersion: draft.BackupSchemaVersion, ExportedAt: exportedAt}
		if err := enc.Encode(header); err != nil {
			return err
		}

		rows, err := db.StreamForBackup(ctx, database, projectNorm, input.IncludeDeleted)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			select {
			case <-ctx.Done():
				return errors.NewCancelled("backup")
			default:
			}

			d, err := db.ScanDraftFromRows(rows)
			if err != nil {
				return err
			}
			if err := enc.Encode(draft.ToBackupRecord(d)); err != nil {
				return err
			}
			count++
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return &BackupOutput{Path: path, Count: count, ExportedAt: exportedAt}, nil
}
