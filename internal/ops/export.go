package ops

import (
	"context"
	"io"
	"strings"

	"github.com/hpungsan/easel/internal/config"
	"github.com/hpungsan/easel/internal/convert"
	"github.com/hpungsan/easel/internal/db"
	"github.com/hpungsan/easel/internal/errors"
)

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	ID     string
	Format string // text, markdown or html; default from config
	Path   string // optional; when set the rendering is written there
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	ID      string         `json:"id"`
	Format  convert.Format `json:"format"`
	Content string         `json:"content,omitempty"`
	Path    string         `json:"path,omitempty"`
	Bytes   int            `json:"bytes"`
}

// Export renders a draft's canvas in reading order. Without a path the
// content is returned; with one it is written atomically and only the path
// is returned.
func Export(ctx context.Context, database db.Querier, cfg *config.Config, input ExportInput) (*ExportOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	name := input.Format
	if strings.TrimSpace(name) == "" && cfg != nil {
		name = cfg.DefaultExportFormat
	}
	format, err := convert.ParseFormat(name)
	if err != nil {
		return nil, err
	}

	d, err := db.GetByID(ctx, database, id, false)
	if err != nil {
		return nil, err
	}
	content, err := convert.Export(d.Canvas, format)
	if err != nil {
		return nil, err
	}

	out := &ExportOutput{ID: d.ID, Format: format, Bytes: len(content)}
	if input.Path == "" {
		out.Content = content
		return out, nil
	}

	if err := ValidatePath(input.Path, PathCheckWrite, []string{format.Extension()}, cfg); err != nil {
		return nil, err
	}
	err = writeFileAtomic(input.Path, func(w io.Writer) error {
		_, err := io.WriteString(w, content)
		return err
	})
	if err != nil {
		return nil, err
	}
	out.Path = input.Path
	return out, nil
}
