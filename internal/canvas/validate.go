package canvas

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the document against the schema: required ids, the closed
// node type and edge kind sets, non-negative geometry, unique node ids, and
// edges that reference existing nodes.
func Validate(d *Document) error {
	if d == nil {
		return stderrors.New("document is required")
	}
	if err := validate.Struct(d); err != nil {
		return formatValidationError(err)
	}

	seen := make(map[string]bool, len(d.Nodes))
	for _, n := range d.Nodes {
		if seen[n.ID] {
			return fmt.Errorf("duplicate node id %q", n.ID)
		}
		seen[n.ID] = true
	}
	for _, e := range d.Edges {
		if !seen[e.From] {
			return fmt.Errorf("edge %q references unknown node %q", e.ID, e.From)
		}
		if !seen[e.To] {
			return fmt.Errorf("edge %q references unknown node %q", e.ID, e.To)
		}
	}
	return nil
}

// formatValidationError joins field errors into a single readable message.
func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, formatFieldError(e))
	}
	return stderrors.New(strings.Join(msgs, "; "))
}

func formatFieldError(e validator.FieldError) string {
	field := strings.TrimPrefix(e.Namespace(), "Document.")
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, e.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
