package jwks

import (
	"context"

	"github.com/veltio/go-jwks-auth/core"
)

// Static is a key source backed by a fixed in-memory key set. It never
// fetches anything, which makes it the natural source for tests and for
// deployments that pin their trusted keys.
type Static struct {
	set    Set
	adjust Adjuster
}

// NewStatic builds a Static key source. A nil adjuster means the default
// validation policy is used unchanged.
func NewStatic(set Set, adjust Adjuster) *Static {
	if adjust == nil {
		adjust = IdentityAdjuster
	}
	return &Static{set: set, adjust: adjust}
}

// Keys returns a copy of the configured key set.
func (s *Static) Keys(context.Context) (Set, error) {
	return s.set.Clone(), nil
}

// AdjustValidation applies the configured policy adjuster.
func (s *Static) AdjustValidation(v core.Validation) core.Validation {
	return s.adjust(v)
}
