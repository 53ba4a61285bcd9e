package ops

import (
	"bufio"
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/hpungsan/easel/internal/canvas"
	"github.com/hpungsan/easel/internal/config"
	"github.com/hpungsan/easel/internal/db"
	"github.com/hpungsan/easel/internal/draft"
	"github.com/hpungsan/easel/internal/errors"
)

// RestoreMode controls collision behavior during restore.
type RestoreMode string

const (
	RestoreModeError   RestoreMode = "error"   // all-or-nothing; abort on first collision
	RestoreModeReplace RestoreMode = "replace" // overwrite drafts with the same id
	RestoreModeSkip    RestoreMode = "skip"    // keep existing drafts
)

// RestoreInput contains parameters for the Restore operation.
type RestoreInput struct {
	Path string
	Mode RestoreMode // default: error
}

// RestoreOutput contains the result of the Restore operation.
type RestoreOutput struct {
	Restored int            `json:"restored"`
	Skipped  int            `json:"skipped"`
	Errors   []RestoreError `json:"errors"`
}

// RestoreError describes one line that was not restored.
type RestoreError struct {
	Line    int    `json:"line"`
	ID      string `json:"id,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type restoreLine struct {
	line   int
	record draft.BackupRecord
}

// Restore loads drafts from a backup file written by Backup.
func Restore(ctx context.Context, database *sql.DB, cfg *config.Config, input RestoreInput) (*RestoreOutput, error) {
	if input.Mode == "" {
		input.Mode = RestoreModeError
	}
	switch input.Mode {
	case RestoreModeError, RestoreModeReplace, RestoreModeSkip:
	default:
		return nil, errors.NewInvalidRequest("mode must be one of: error, replace, skip")
	}
	if err := ValidatePath(input.Path, PathCheckRead, backupExtensions, cfg); err != nil {
		return nil, err
	}

	file, err := openFileNoFollowRead(input.Path)
	if err != nil {
		if _, ok := err.(*errors.EaselError); ok {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open backup file: %w", err))
	}
	defer file.Close()

	lines, problems := parseBackup(bufio.NewScanner(file))

	out := &RestoreOutput{Errors: []RestoreError{}}
	if input.Mode == RestoreModeError {
		if len(problems) > 0 {
			out.Errors = problems
			return out, nil
		}
		return restoreAtomic(ctx, database, lines)
	}

	out.Errors = append(out.Errors, problems...)
	out.Skipped = len(problems)
	for _, l := range lines {
		select {
		case <-ctx.Done():
			return nil, errors.NewCancelled("restore")
		default:
		}

		d := l.record.ToDraft()
		if input.Mode == RestoreModeSkip {
			_, err := db.GetByID(ctx, database, d.ID, true)
			if err == nil {
				out.Skipped++
				continue
			}
			if !errors.Is(err, errors.ErrNotFound) {
				return nil, err
			}
			err = db.Insert(ctx, database, d)
			if err == db.ErrUniqueConstraint {
				out.Skipped++
				out.Errors = append(out.Errors, versionCollision(l))
				continue
			}
			if err != nil {
				return nil, err
			}
			out.Restored++
			continue
		}

		err := db.Upsert(ctx, database, d)
		if err == db.ErrUniqueConstraint {
			out.Skipped++
			out.Errors = append(out.Errors, versionCollision(l))
			continue
		}
		if err != nil {
			return nil, err
		}
		out.Restored++
	}
	return out, nil
}

// restoreAtomic inserts every record in one transaction and rolls back on
// the first collision.
func restoreAtomic(ctx context.Context, database *sql.DB, lines []restoreLine) (*RestoreOutput, error) {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer tx.Rollback() //nolint:errcheck

	out := &RestoreOutput{Errors: []RestoreError{}}
	for _, l := range lines {
		err := db.Insert(ctx, tx, l.record.ToDraft())
		if err == db.ErrUniqueConstraint {
			out.Restored = 0
			out.Errors = append(out.Errors, RestoreError{
				Line:    l.line,
				ID:      l.record.ID,
				Code:    "COLLISION",
				Message: fmt.Sprintf("draft %q or version %d of lineage %q already exists", l.record.ID, l.record.Version, l.record.LineageID),
			})
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out.Restored++
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

func versionCollision(l restoreLine) RestoreError {
	return RestoreError{
		Line:    l.line,
		ID:      l.record.ID,
		Code:    "VERSION_COLLISION",
		Message: fmt.Sprintf("version %d of lineage %q already exists under another id", l.record.Version, l.record.LineageID),
	}
}

// parseBackup reads JSONL lines, skipping the header and blank lines.
func parseBackup(scanner *bufio.Scanner) ([]restoreLine, []RestoreError) {
	var lines []restoreLine
	var problems []RestoreError
	scanner.Buffer(make([]byte, 0, 64*1024), maxReadBytes)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var record draft.BackupRecord
		if err := json.Unmarshal(raw, &record); err != nil {
			problems = append(problems, RestoreError{
				Line:    lineNum,
				Code:    "PARSE_ERROR",
				Message: fmt.Sprintf("invalid JSON: %v", err),
			})
			continue
		}
		if record.EaselBackup {
			continue
		}
		if msg := checkRecord(&record); msg != "" {
			problems = append(problems, RestoreError{
				Line:    lineNum,
				ID:      record.ID,
				Code:    "INVALID_RECORD",
				Message: msg,
			})
			continue
		}
		lines = append(lines, restoreLine{line: lineNum, record: record})
	}

	if err := scanner.Err(); err != nil {
		problems = append(problems, RestoreError{
			Line:    lineNum,
			Code:    "READ_ERROR",
			Message: fmt.Sprintf("failed to read file: %v", err),
		})
	}
	return lines, problems
}

// checkRecord returns why a backup record cannot be restored, or "".
func checkRecord(r *draft.BackupRecord) string {
	switch {
	case r.ID == "":
		return "missing id field"
	case r.ProjectRaw == "":
		return "missing project_raw field"
	case r.LineageID == "":
		return "missing lineage_id field"
	case !r.ContentType.Valid():
		return fmt.Sprintf("invalid content_type %q", r.ContentType)
	case r.Version < 1:
		return "version must be at least 1"
	case r.Canvas == nil:
		return "missing canvas field"
	}
	if err := canvas.Validate(r.Canvas); err != nil {
		return fmt.Sprintf("invalid canvas: %v", err)
	}
	return ""
}
