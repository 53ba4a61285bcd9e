package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/hpungsan/easel/internal/canvas"
	"github.com/hpungsan/easel/internal/draft"
	"github.com/hpungsan/easel/internal/errors"
)

// ErrUniqueConstraint is returned when an insert violates a UNIQUE constraint.
var ErrUniqueConstraint = &errors.EaselError{
	Code:    "UNIQUE_CONSTRAINT",
	Status:  409,
	Message: "unique constraint violation",
}

// ErrStaleVersion is returned by UpdateInPlace when the row no longer has the
// expected version.
var ErrStaleVersion = &errors.EaselError{
	Code:    errors.ErrVersionConflict,
	Status:  409,
	Message: "draft changed since it was read",
}

// Querier is satisfied by *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const draftColumns = `id, project_raw, project_norm, lineage_id, content_type,
	title, canvas_json, export_text, version, updated_by,
	created_at, updated_at, deleted_at`

const summaryColumns = `id, project_raw, project_norm, lineage_id, content_type,
	title, version, COALESCE(json_array_length(canvas_json, '$.nodes'), 0), updated_by,
	created_at, updated_at, deleted_at`

// Insert stores a new draft version. DeletedAt is kept so restored backups
// round-trip.
func Insert(ctx context.Context, q Querier, d *draft.Draft) error {
	canvasJSON, err := encodeCanvas(d.Canvas)
	if err != nil {
		return err
	}

	query := `INSERT INTO drafts (` + draftColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = q.ExecContext(ctx, query,
		d.ID, d.ProjectRaw, d.ProjectNorm, d.LineageID, string(d.ContentType),
		d.Title, canvasJSON, d.ExportText, d.Version, toNullString(d.UpdatedBy),
		d.CreatedAt, d.UpdatedAt, toNullInt64(d.DeletedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUniqueConstraint
		}
		return errors.NewInternal(err)
	}
	return nil
}

// Upsert inserts d or, when a draft with the same id exists, overwrites every
// column of it.
func Upsert(ctx context.Context, q Querier, d *draft.Draft) error {
	canvasJSON, err := encodeCanvas(d.Canvas)
	if err != nil {
		return err
	}

	query := `INSERT INTO drafts (` + draftColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			project_raw = excluded.project_raw,
			project_norm = excluded.project_norm,
			lineage_id = excluded.lineage_id,
			content_type = excluded.content_type,
			title = excluded.title,
			canvas_json = excluded.canvas_json,
			export_text = excluded.export_text,
			version = excluded.version,
			updated_by = excluded.updated_by,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at`

	_, err = q.ExecContext(ctx, query,
		d.ID, d.ProjectRaw, d.ProjectNorm, d.LineageID, string(d.ContentType),
		d.Title, canvasJSON, d.ExportText, d.Version, toNullString(d.UpdatedBy),
		d.CreatedAt, d.UpdatedAt, toNullInt64(d.DeletedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUniqueConstraint
		}
		return errors.NewInternal(err)
	}
	return nil
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// GetByID retrieves a draft by its ULID.
// If includeDeleted is false, soft-deleted drafts are excluded.
func GetByID(ctx context.Context, q Querier, id string, includeDeleted bool) (*draft.Draft, error) {
	query := `SELECT ` + draftColumns + ` FROM drafts WHERE id = ?`
	if !includeDeleted {
		query += " AND deleted_at IS NULL"
	}

	d, err := scanDraft(q.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return d, nil
}

// GetHead returns the highest active version of a lineage.
func GetHead(ctx context.Context, q Querier, projectNorm, lineageID string) (*draft.Draft, error) {
	query := `SELECT ` + draftColumns + ` FROM drafts
		WHERE project_norm = ? AND lineage_id = ? AND deleted_at IS NULL
		ORDER BY version DESC LIMIT 1`

	d, err := scanDraft(q.QueryRowContext(ctx, query, projectNorm, lineageID))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(lineageID)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return d, nil
}

// GetVersion returns one active version of a lineage.
func GetVersion(ctx context.Context, q Querier, projectNorm, lineageID string, version int) (*draft.Draft, error) {
	query := `SELECT ` + draftColumns + ` FROM drafts
		WHERE project_norm = ? AND lineage_id = ? AND version = ? AND deleted_at IS NULL`

	d, err := scanDraft(q.QueryRowContext(ctx, query, projectNorm, lineageID, version))
	if err == sql.ErrNoRows {
		return nil, errors.NewVersionNotFound(lineageID, version)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return d, nil
}

// NextVersion returns the version number the next save of a lineage must
// use. Soft-deleted rows still count so the unique index is never hit.
func NextVersion(ctx context.Context, q Querier, projectNorm, lineageID string) (int, error) {
	var current int
	err := q.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM drafts WHERE project_norm = ? AND lineage_id = ?`,
		projectNorm, lineageID,
	).Scan(&current)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return current + 1, nil
}

// ListFilters narrows ListByProject. Empty strings match everything.
type ListFilters struct {
	ProjectNorm    string
	ContentType    string
	LineageID      string
	LatestOnly     bool
	IncludeDeleted bool
}

// ListByProject returns draft summaries newest first along with the total
// number of matching drafts.
func ListByProject(ctx context.Context, q Querier, filters ListFilters, limit, offset int) ([]draft.Summary, int, error) {
	where := []string{"project_norm = ?"}
	args := []any{filters.ProjectNorm}

	if filters.ContentType != "" {
		where = append(where, "content_type = ?")
		args = append(args, filters.ContentType)
	}
	if filters.LineageID != "" {
		where = append(where, "lineage_id = ?")
		args = append(args, filters.LineageID)
	}
	if !filters.IncludeDeleted {
		where = append(where, "deleted_at IS NULL")
	}
	if filters.LatestOnly {
		where = append(where, `version = (
			SELECT MAX(h.version) FROM drafts h
			WHERE h.project_norm = drafts.project_norm
			  AND h.lineage_id = drafts.lineage_id
			  AND h.deleted_at IS NULL)`)
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM drafts WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	query := `SELECT ` + summaryColumns + ` FROM drafts WHERE ` + clause + `
		ORDER BY updated_at DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := q.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	defer rows.Close()

	summaries, err := scanSummaries(rows)
	if err != nil {
		return nil, 0, err
	}
	return summaries, total, nil
}

// ListLineage returns every version of a lineage, oldest first.
func ListLineage(ctx context.Context, q Querier, projectNorm, lineageID string, includeDeleted bool) ([]draft.Summary, error) {
	query := `SELECT ` + summaryColumns + ` FROM drafts
		WHERE project_norm = ? AND lineage_id = ?`
	if !includeDeleted {
		query += " AND deleted_at IS NULL"
	}
	query += " ORDER BY version ASC"

	rows, err := q.QueryContext(ctx, query, projectNorm, lineageID)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	return scanSummaries(rows)
}

// UpdateInPlace rewrites the content of draft d.ID, moving it from
// expectedVersion to d.Version. Returns ErrStaleVersion if the row is no
// longer at expectedVersion.
func UpdateInPlace(ctx context.Context, q Querier, d *draft.Draft, expectedVersion int) error {
	canvasJSON, err := encodeCanvas(d.Canvas)
	if err != nil {
		return err
	}

	now := time.Now().Unix()
	query := `
		UPDATE drafts
		SET title = ?, canvas_json = ?, export_text = ?, version = ?,
			updated_by = ?, updated_at = ?
		WHERE id = ? AND version = ? AND deleted_at IS NULL
	`
	result, err := q.ExecContext(ctx, query,
		d.Title, canvasJSON, d.ExportText, d.Version,
		toNullString(d.UpdatedBy), now,
		d.ID, expectedVersion,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUniqueConstraint
		}
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return ErrStaleVersion
	}

	d.UpdatedAt = now
	return nil
}

// SoftDelete marks a draft as deleted by setting deleted_at.
func SoftDelete(ctx context.Context, q Querier, id string) error {
	result, err := q.ExecContext(ctx,
		`UPDATE drafts SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`,
		time.Now().Unix(), id,
	)
	if err != nil {
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(id)
	}
	return nil
}

// PurgeDeleted permanently removes soft-deleted drafts, optionally limited to
// one project and to drafts deleted more than olderThanDays ago.
func PurgeDeleted(ctx context.Context, q Querier, projectNorm *string, olderThanDays *int) (int, error) {
	query := `DELETE FROM drafts WHERE deleted_at IS NOT NULL`
	var args []any

	if projectNorm != nil {
		query += " AND project_norm = ?"
		args = append(args, *projectNorm)
	}
	if olderThanDays != nil {
		cutoff := time.Now().Add(-time.Duration(*olderThanDays) * 24 * time.Hour).Unix()
		query += " AND deleted_at < ?"
		args = append(args, cutoff)
	}

	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return int(n), nil
}

// StreamForBackup returns rows of full drafts ordered by creation time. The
// caller must close the rows and decode them with ScanDraftFromRows.
func StreamForBackup(ctx context.Context, q Querier, projectNorm *string, includeDeleted bool) (*sql.Rows, error) {
	query := `SELECT ` + draftColumns + ` FROM drafts WHERE 1=1`
	var args []any

	if projectNorm != nil {
		query += " AND project_norm = ?"
		args = append(args, *projectNorm)
	}
	if !includeDeleted {
		query += " AND deleted_at IS NULL"
	}
	query += " ORDER BY created_at ASC, id ASC"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return rows, nil
}

// ScanDraftFromRows scans the current row of a StreamForBackup result.
func ScanDraftFromRows(rows *sql.Rows) (*draft.Draft, error) {
	return scanDraft(rows)
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanDraft scans a single row into a Draft, decoding the canvas JSON.
func scanDraft(row scanner) (*draft.Draft, error) {
	var (
		d           draft.Draft
		contentType string
		canvasJSON  string
		updatedBy   sql.NullString
		deletedAt   sql.NullInt64
	)

	err := row.Scan(
		&d.ID, &d.ProjectRaw, &d.ProjectNorm, &d.LineageID, &contentType,
		&d.Title, &canvasJSON, &d.ExportText, &d.Version, &updatedBy,
		&d.CreatedAt, &d.UpdatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	d.ContentType = draft.ContentType(contentType)
	d.UpdatedBy = fromNullString(updatedBy)
	d.DeletedAt = fromNullInt64(deletedAt)

	var doc canvas.Document
	if err := json.Unmarshal([]byte(canvasJSON), &doc); err != nil {
		return nil, err
	}
	d.Canvas = &doc

	return &d, nil
}

// scanSummaries drains rows selected with summaryColumns.
func scanSummaries(rows *sql.Rows) ([]draft.Summary, error) {
	summaries := []draft.Summary{}
	for rows.Next() {
		var (
			s           draft.Summary
			contentType string
			updatedBy   sql.NullString
			deletedAt   sql.NullInt64
		)
		err := rows.Scan(
			&s.ID, &s.Project, &s.ProjectNorm, &s.LineageID, &contentType,
			&s.Title, &s.Version, &s.Nodes, &updatedBy,
			&s.CreatedAt, &s.UpdatedAt, &deletedAt,
		)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		s.ContentType = draft.ContentType(contentType)
		s.UpdatedBy = fromNullString(updatedBy)
		s.DeletedAt = fromNullInt64(deletedAt)
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return summaries, nil
}

// encodeCanvas serializes a canvas for the canvas_json column.
func encodeCanvas(doc *canvas.Document) (string, error) {
	if doc == nil {
		return "", errors.NewInvalidRequest("canvas is required")
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return "", errors.NewInternal(err)
	}
	return string(data), nil
}

// toNullString converts a *string to sql.NullString.
func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// fromNullString converts a sql.NullString to *string.
func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func toNullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func fromNullInt64(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	return &n.Int64
}
