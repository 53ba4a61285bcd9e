package draft

import "github.com/hpungsan/easel/internal/canvas"

// BackupSchemaVersion is written to the header line of every backup file.
const BackupSchemaVersion = "1.0"

// BackupRecord is one line of a JSONL backup file. The first line is a
// header with EaselBackup set and no draft fields.
type BackupRecord struct {
	EaselBackup   bool   `json:"_easel_backup,omitempty"`
	SchemaVersion string `json:"schema_version,omitempty"`
	ExportedAt    int64  `json:"exported_at,omitempty"`

	ID          string           `json:"id"`
	ProjectRaw  string           `json:"project_raw"`
	ProjectNorm string           `json:"project_norm"` // recomputed on restore
	LineageID   string           `json:"lineage_id"`
	ContentType ContentType      `json:"content_type"`
	Title       string           `json:"title"`
	Canvas      *canvas.Document `json:"canvas"`
	ExportText  string           `json:"export_text"`
	Version     int              `json:"version"`
	UpdatedBy   *string          `json:"updated_by"`
	CreatedAt   int64            `json:"created_at"`
	UpdatedAt   int64            `json:"updated_at"`
	DeletedAt   *int64           `json:"deleted_at"`
}

// ToDraft converts a backup line back into a draft, recomputing the
// normalized project.
func (r *BackupRecord) ToDraft() *Draft {
	return &Draft{
		ID:          r.ID,
		ProjectRaw:  r.ProjectRaw,
		ProjectNorm: Normalize(r.ProjectRaw),
		LineageID:   r.LineageID,
		ContentType: r.ContentType,
		Title:       r.Title,
		Canvas:      r.Canvas,
		ExportText:  r.ExportText,
		Version:     r.Version,
		UpdatedBy:   r.UpdatedBy,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		DeletedAt:   r.DeletedAt,
	}
}

// ToBackupRecord converts a draft to its backup line.
func ToBackupRecord(d *Draft) *BackupRecord {
	return &BackupRecord{
		ID:          d.ID,
		ProjectRaw:  d.ProjectRaw,
		ProjectNorm: d.ProjectNorm,
		LineageID:   d.LineageID,
		ContentType: d.ContentType,
		Title:       d.Title,
		Canvas:      d.Canvas,
		ExportText:  d.ExportText,
		Version:     d.Version,
		UpdatedBy:   d.UpdatedBy,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
		DeletedAt:   d.DeletedAt,
	}
}
