package larder

import (
	"context"
	"errors"

	"github.com/jmylchreest/larder/pkg/extractor"
	"github.com/jmylchreest/larder/pkg/recipe"
)

// Stage errors wrapped at the pipeline boundary.
// Check with errors.Is(err, larder.ErrFetch).
var (
	// ErrFetch indicates the page could not be retrieved.
	ErrFetch = errors.New("fetch failed")
	// ErrEngine indicates the completion engine failed or answered empty.
	ErrEngine = errors.New("extraction engine failed")
)

// Reasons an extraction yields no recipe.
const (
	ReasonFetchFailed       = "fetch_failed"
	ReasonEngineFailed      = "engine_failed"
	ReasonMalformedResponse = "malformed_response"
	ReasonNoRecipe          = "no_recipe"
	ReasonSchemaViolation   = "schema_violation"
	ReasonCancelled         = "cancelled"
	ReasonUnknown           = "unknown"
)

// Reason classifies err into a stable label. A nil error has no reason.
// Cancellation wins over the stage that was interrupted.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ReasonCancelled
	case errors.Is(err, ErrFetch):
		return ReasonFetchFailed
	case errors.Is(err, ErrEngine), errors.Is(err, extractor.ErrEngine), errors.Is(err, extractor.ErrEmptyCompletion):
		return ReasonEngineFailed
	case errors.Is(err, recipe.ErrNoRecipe):
		return ReasonNoRecipe
	case errors.Is(err, recipe.ErrMalformedResponse):
		return ReasonMalformedResponse
	case errors.Is(err, recipe.ErrSchemaViolation):
		return ReasonSchemaViolation
	default:
		return ReasonUnknown
	}
}
