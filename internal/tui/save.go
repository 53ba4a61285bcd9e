package tui

import (
	"context"
	"database/sql"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hpungsan/easel/internal/canvas"
	"github.com/hpungsan/easel/internal/config"
	"github.com/hpungsan/easel/internal/ops"
)

// DraftSaver returns a SaveFunc that updates draft id in place, tracking the
// head version across saves. A concurrent edit surfaces as the
// VERSION_CONFLICT from ops.Update.
func DraftSaver(database *sql.DB, cfg *config.Config, id string, version int, updatedBy *string) SaveFunc {
	return func(ctx context.Context, doc *canvas.Document) (int, error) {
		out, err := ops.Update(ctx, database, cfg, ops.UpdateInput{
			ID:              id,
			ExpectedVersion: version,
			Canvas:          doc,
			UpdatedBy:       updatedBy,
		})
		if err != nil {
			return 0, err
		}
		id, version = out.ID, out.Version
		return out.Version, nil
	}
}

// Run starts the full-screen editor and blocks until the user quits. It
// returns the final model so callers can inspect unsaved state.
func Run(m *Model) (*Model, error) {
	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return nil, err
	}
	return final.(*Model), nil
}
