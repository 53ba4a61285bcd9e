package draft

import "github.com/hpungsan/easel/internal/canvas"

// ContentType is the kind of content a draft holds.
type ContentType string

const (
	ContentArticle ContentType = "article"
	ContentSocial  ContentType = "social"
)

// Valid reports whether t is a known content type.
func (t ContentType) Valid() bool {
	return t == ContentArticle || t == ContentSocial
}

// SourceType maps the content type onto the canvas metadata tag.
func (t ContentType) SourceType() canvas.SourceType {
	if t == ContentSocial {
		return canvas.SourceSocial
	}
	return canvas.SourceArticle
}

// MaxTitleChars bounds a trimmed draft title.
const MaxTitleChars = 255

// Draft is one version of a canvas draft. Drafts sharing a LineageID form
// the version history of a single piece of content.
type Draft struct {
	// ID is a ULID that uniquely identifies this version
	ID string

	// ProjectRaw is the project name as provided by the user
	ProjectRaw string

	// ProjectNorm is the normalized project (lowercased, trimmed, collapsed spaces)
	ProjectNorm string

	// LineageID is a UUID shared by every version of the same draft
	LineageID string

	ContentType ContentType
	Title       string

	// Canvas is the layout document; stored as JSON
	Canvas *canvas.Document

	// ExportText is the plain export saved alongside the canvas
	ExportText string

	// Version starts at 1 and increases by one per saved change
	Version int

	// UpdatedBy names who saved this version (nullable)
	UpdatedBy *string

	CreatedAt int64
	UpdatedAt int64

	// DeletedAt is the Unix timestamp for soft delete (nullable)
	DeletedAt *int64
}
