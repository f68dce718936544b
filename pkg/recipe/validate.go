package recipe

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is safe for concurrent use and caches struct metadata.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(validateIngredientNode, IngredientNode{})
	return v
}

// validateIngredientNode enforces the shape of each variant. Children of a
// section are reached through the dive tag on Ingredients.
func validateIngredientNode(sl validator.StructLevel) {
	n := sl.Current().Interface().(IngredientNode)
	switch n.Kind {
	case KindLeaf:
		if strings.TrimSpace(n.Text) == "" {
			sl.ReportError(n.Text, "Text", "text", "required", "")
		}
		if len(n.Ingredients) > 0 {
			sl.ReportError(n.Ingredients, "Ingredients", "ingredients", "excluded_with", "Text")
		}
	case KindSection:
		if strings.TrimSpace(n.SectionTitle) == "" {
			sl.ReportError(n.SectionTitle, "SectionTitle", "sectionTitle", "required", "")
		}
		if len(n.Ingredients) == 0 {
			sl.ReportError(n.Ingredients, "Ingredients", "ingredients", "min", "1")
		}
	default:
		sl.ReportError(n.Kind, "Kind", "kind", "oneof", "leaf section")
	}
}

// Validate checks r against the Recipe invariants: a title, at least one
// ingredient and one instruction, well-formed ingredient nodes and positive
// optional counts.
func Validate(r *Recipe) error {
	if r == nil {
		return fmt.Errorf("%w: nil recipe", ErrSchemaViolation)
	}
	err := validate.Struct(r)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, e.Namespace()+" "+formatValidationError(e))
	}
	return fmt.Errorf("%w: %s", ErrSchemaViolation, strings.Join(msgs, "; "))
}

// formatValidationError creates a human-readable error message.
func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must have at least %s entries", e.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", e.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", e.Param())
	case "excluded_with":
		return "is not allowed on an ingredient line"
	default:
		return fmt.Sprintf("failed validation '%s'", e.Tag())
	}
}
