package ops

import (
	"context"
	"strings"

	"github.com/hpungsan/easel/internal/db"
	"github.com/hpungsan/easel/internal/errors"
)

// FetchInput contains parameters for the Fetch operation.
type FetchInput struct {
	ID             string
	IncludeCanvas  bool
	IncludeDeleted bool
}

// Fetch retrieves one draft version by id.
func Fetch(ctx context.Context, database db.Querier, input FetchInput) (*DraftOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	d, err := db.GetByID(ctx, database, id, input.IncludeDeleted)
	if err != nil {
		return nil, err
	}
	return toOutput(d, input.IncludeCanvas), nil
}
