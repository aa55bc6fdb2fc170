package store

import (
	"context"

	"github.com/salusdesk/salus/internal/log"
)

// Resolver maps selected store ids to live provider handles, silently
// dropping ids with no existing handle. A descriptor without a handle is an
// expected state (store registered but not yet created in the provider), so
// a failed lookup removes the id from the active set instead of failing the
// request.
type Resolver struct {
	registry HandleRegistry
	logger   log.Logger
}

// NewResolver creates a Resolver backed by the given handle registry.
func NewResolver(registry HandleRegistry, logger log.Logger) *Resolver {
	return &Resolver{registry: registry, logger: logger}
}

// Resolve returns the handles for the ids that exist in the provider,
// preserving input order. An empty result is valid: the caller proceeds to
// generation with no retrieval tool attached.
func (r *Resolver) Resolve(ctx context.Context, ids []string) []Handle {
	handles := make([]Handle, 0, len(ids))
	for _, id := range ids {
		h, ok, err := r.registry.Lookup(ctx, id)
		if err != nil {
			r.logger.Warn("handle lookup failed, dropping store", "store", id, "error", err)
			continue
		}
		if !ok {
			r.logger.Warn("store not materialized, dropping", "store", id)
			continue
		}
		handles = append(handles, h)
	}
	return handles
}
