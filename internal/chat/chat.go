// Package chat composes the full question-answering pipeline: catalog
// snapshot, store selection, handle resolution, one retrieval-augmented
// generation call, and grounding extraction.
//
// Data flows strictly left to right per request; no component holds
// request-scoped mutable state. The only branch is the forced-domain
// override, which bypasses selection entirely.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/salusdesk/salus/internal/catalog"
	"github.com/salusdesk/salus/internal/grounding"
	"github.com/salusdesk/salus/internal/log"
	"github.com/salusdesk/salus/internal/retrieval"
	"github.com/salusdesk/salus/internal/selector"
	"github.com/salusdesk/salus/internal/store"
)

// ErrValidation indicates a malformed request that never reaches retrieval.
var ErrValidation = errors.New("invalid chat request")

// Request is the client-facing chat contract. Domain, when set, forces a
// single store and skips automatic selection. ConversationID is opaque and
// unused by the pipeline; the client owns history.
type Request struct {
	Message        string `json:"message"`
	Domain         string `json:"domain,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	Language       string `json:"language,omitempty"`
}

// Response is the grounded answer. StoresUsed reflects stores that were
// actually part of the retrieval call, never aspirational selections that
// failed to resolve. The forced-domain path is the exception: it echoes the
// forced id regardless of resolution.
type Response struct {
	Response   string             `json:"response"`
	Sources    []grounding.Source `json:"sources"`
	Links      []grounding.Link   `json:"links"`
	StoresUsed []string           `json:"stores_used"`
	Domain     *string            `json:"domain"`
}

// Orchestrator is the pipeline entry point.
type Orchestrator struct {
	catalog      *catalog.Catalog
	selector     *selector.Selector
	resolver     *store.Resolver
	retrieval    *retrieval.Orchestrator
	extractor    *grounding.Extractor
	allowEnglish bool
	logger       log.Logger
}

// New wires the pipeline components into an Orchestrator.
func New(
	cat *catalog.Catalog,
	sel *selector.Selector,
	res *store.Resolver,
	ret *retrieval.Orchestrator,
	ext *grounding.Extractor,
	allowEnglish bool,
	logger log.Logger,
) *Orchestrator {
	return &Orchestrator{
		catalog:      cat,
		selector:     sel,
		resolver:     res,
		retrieval:    ret,
		extractor:    ext,
		allowEnglish: allowEnglish,
		logger:       logger,
	}
}

// Handle answers one request. It returns ErrValidation for malformed input
// and retrieval.ErrRetrieval when no answer could be generated; every other
// failure mode is recovered internally into a degraded-but-valid response.
func (o *Orchestrator) Handle(ctx context.Context, req Request) (Response, error) {
	if strings.TrimSpace(req.Message) == "" {
		return Response{}, fmt.Errorf("%w: message is required", ErrValidation)
	}

	lang := normalizeLanguage(strings.ToLower(strings.TrimSpace(req.Language)), o.allowEnglish)

	var (
		selected []string
		forced   bool
	)
	if req.Domain != "" {
		selected = []string{req.Domain}
		forced = true
		o.logger.Info("forced domain", "domain", req.Domain)
	} else {
		selected = o.selector.Select(ctx, req.Message, o.catalog.List(ctx))
	}

	handles := o.resolver.Resolve(ctx, selected)

	raw, err := o.retrieval.Answer(ctx, req.Message, handles, systemInstruction(lang))
	if err != nil {
		return Response{}, err
	}

	sources, links := o.extractor.Extract(raw)

	storesUsed := make([]string, 0, len(handles))
	var domain *string
	if forced {
		// The forced id is echoed even when it did not resolve.
		storesUsed = append(storesUsed, req.Domain)
		domain = &req.Domain
	} else {
		for _, h := range handles {
			storesUsed = append(storesUsed, h.ID)
		}
	}

	o.logger.Info("chat handled",
		"stores_used", storesUsed,
		"sources", len(sources),
		"links", len(links),
		"forced", forced,
	)

	return Response{
		Response:   raw.Text,
		Sources:    sources,
		Links:      links,
		StoresUsed: storesUsed,
		Domain:     domain,
	}, nil
}
