// Package selector decides which content stores are relevant to a query by
// delegating to an external classification capability and validating its
// answer locally.
//
// The classifier's output is never trusted: unknown ids are dropped,
// duplicates collapsed, and an empty or failed classification falls back to
// the configured default store. Selection therefore never fails; at worst
// it degrades to the default, which keeps the pipeline available when the
// classification capability is down, at the cost of routing precision.
package selector

import (
	"context"
	"time"

	"github.com/salusdesk/salus/internal/log"
	"github.com/salusdesk/salus/internal/store"
)

// Selector validates classifier output against the catalog.
type Selector struct {
	classifier store.Classifier
	defaultID  string
	timeout    time.Duration
	logger     log.Logger
}

// New creates a Selector. defaultID must be a core catalog id (enforced by
// config validation at startup). timeout bounds the classification call.
func New(classifier store.Classifier, defaultID string, timeout time.Duration, logger log.Logger) *Selector {
	return &Selector{
		classifier: classifier,
		defaultID:  defaultID,
		timeout:    timeout,
		logger:     logger,
	}
}

// Select returns the ordered, deduplicated set of store ids relevant to
// query. Exactly one classification call is made, with no retries: a
// transient failure is recovered by the fallback policy, not propagated.
func (s *Selector) Select(ctx context.Context, query string, catalog []store.Descriptor) []string {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	sel, err := s.classifier.Classify(ctx, query, catalog)
	if err != nil {
		s.logger.Warn("store classification failed, falling back to default",
			"default", s.defaultID, "error", err)
		return []string{s.defaultID}
	}

	valid := filterKnown(sel.Stores, catalog)
	if len(valid) == 0 {
		s.logger.Warn("store classification returned nothing usable, falling back to default",
			"default", s.defaultID, "returned", sel.Stores)
		return []string{s.defaultID}
	}

	s.logger.Info("stores selected", "stores", valid, "reason", sel.Reason)
	return valid
}

// filterKnown drops ids not present in the catalog (hallucination guard)
// and deduplicates while preserving first-seen order.
func filterKnown(ids []string, catalog []store.Descriptor) []string {
	known := make(map[string]struct{}, len(catalog))
	for _, d := range catalog {
		known[d.ID] = struct{}{}
	}

	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
