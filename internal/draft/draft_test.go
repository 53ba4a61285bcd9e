package draft

import (
	"testing"

	"github.com/hpungsan/easel/internal/canvas"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple lowercase", "Spring Launch", "spring launch"},
		{"trim whitespace", "  acme  ", "acme"},
		{"collapse internal whitespace", "acme    blog", "acme blog"},
		{"tabs and newlines", "acme\t\n  blog", "acme blog"},
		{"empty string", "", ""},
		{"only whitespace", "   \t\n   ", ""},
		{"unicode characters", "  CAFÉ   Ölü  ", "café ölü"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.input)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCountChars(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"hello", 5},
		{"", 0},
		{"café", 4},
		{"日本語", 3},
	}
	for _, tt := range tests {
		if got := CountChars(tt.input); got != tt.want {
			t.Errorf("CountChars(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestContentType(t *testing.T) {
	if !ContentArticle.Valid() || !ContentSocial.Valid() {
		t.Error("known content types should be valid")
	}
	if ContentType("newsletter").Valid() || ContentType("").Valid() {
		t.Error("unknown content types should be invalid")
	}
	if ContentSocial.SourceType() != canvas.SourceSocial {
		t.Errorf("SourceType = %q", ContentSocial.SourceType())
	}
	if ContentArticle.SourceType() != canvas.SourceArticle {
		t.Errorf("SourceType = %q", ContentArticle.SourceType())
	}
}

func TestToSummary(t *testing.T) {
	by := "writer"
	d := &Draft{
		ID:          "01J",
		ProjectRaw:  "Acme Blog",
		ProjectNorm: "acme blog",
		LineageID:   "lin",
		ContentType: ContentArticle,
		Title:       "Hello",
		Canvas:      &canvas.Document{Nodes: make([]canvas.Node, 3)},
		ExportText:  "body",
		Version:     2,
		UpdatedBy:   &by,
		CreatedAt:   10,
		UpdatedAt:   20,
	}

	s := d.ToSummary()
	if s.Project != "Acme Blog" || s.Nodes != 3 || s.Version != 2 || s.UpdatedBy != &by {
		t.Errorf("unexpected summary: %+v", s)
	}

	d.Canvas = nil
	if got := d.ToSummary().Nodes; got != 0 {
		t.Errorf("Nodes = %d, want 0 for nil canvas", got)
	}
}

func TestBackupRecord_RecomputesNorm(t *testing.T) {
	r := &BackupRecord{
		ID:          "01J",
		ProjectRaw:  "  Acme   Blog ",
		ProjectNorm: "stale",
		LineageID:   "lin",
		ContentType: ContentSocial,
		Version:     4,
	}

	d := r.ToDraft()
	if d.ProjectNorm != "acme blog" {
		t.Errorf("ProjectNorm = %q, want %q", d.ProjectNorm, "acme blog")
	}

	back := ToBackupRecord(d)
	if back.EaselBackup {
		t.Error("draft records must not carry the header flag")
	}
	if back.Version != 4 || back.LineageID != "lin" || back.ProjectNorm != "acme blog" {
		t.Errorf("unexpected record: %+v", back)
	}
}
