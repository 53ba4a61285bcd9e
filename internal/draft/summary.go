package draft

// Summary is a draft without its canvas or export text. Used by list and
// history to keep responses small.
type Summary struct {
	ID          string      `json:"id"`
	Project     string      `json:"project"`
	ProjectNorm string      `json:"project_norm"`
	LineageID   string      `json:"lineage_id"`
	ContentType ContentType `json:"content_type"`
	Title       string      `json:"title"`
	Version     int         `json:"version"`
	Nodes       int         `json:"nodes"`
	UpdatedBy   *string     `json:"updated_by,omitempty"`
	CreatedAt   int64       `json:"created_at"`
	UpdatedAt   int64       `json:"updated_at"`
	DeletedAt   *int64      `json:"deleted_at,omitempty"`
}

// ToSummary strips the canvas and export text.
func (d *Draft) ToSummary() Summary {
	nodes := 0
	if d.Canvas != nil {
		nodes = len(d.Canvas.Nodes)
	}
	return Summary{
		ID:          d.ID,
		Project:     d.ProjectRaw,
		ProjectNorm: d.ProjectNorm,
		LineageID:   d.LineageID,
		ContentType: d.ContentType,
		Title:       d.Title,
		Version:     d.Version,
		Nodes:       nodes,
		UpdatedBy:   d.UpdatedBy,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
		DeletedAt:   d.DeletedAt,
	}
}
