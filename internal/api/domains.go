package api

import (
	"context"
	"net/http"

	"github.com/salusdesk/salus/internal/catalog"
	"github.com/salusdesk/salus/internal/chat"
	"github.com/salusdesk/salus/internal/gemini"
	"github.com/salusdesk/salus/internal/log"
)

// StoreLister reports provider-side store state. *admin.Manager implements
// it; nil disables document counts.
type StoreLister interface {
	ListStores(ctx context.Context) ([]gemini.StoreInfo, error)
}

// Domain is one routable topic as exposed to clients.
type Domain struct {
	ID            string `json:"id"`
	Description   string `json:"description"`
	DocumentCount int    `json:"document_count"`
}

type domainsHandler struct {
	catalog *catalog.Catalog
	lister  StoreLister
	logger  log.Logger
}

// list returns the routable domains. GET /api/v1/domains.
func (h *domainsHandler) list(w http.ResponseWriter, r *http.Request) {
	counts := h.documentCounts(r.Context())

	descriptors := h.catalog.List(r.Context())
	domains := make([]Domain, 0, len(descriptors))
	for _, d := range descriptors {
		domains = append(domains, Domain{
			ID:            d.ID,
			Description:   d.Description,
			DocumentCount: counts[d.ID],
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"domains": domains}, h.logger)
}

// documentCounts degrades to zero counts when the provider is unreachable;
// the catalog itself stays serveable.
func (h *domainsHandler) documentCounts(ctx context.Context) map[string]int {
	if h.lister == nil {
		return nil
	}
	stores, err := h.lister.ListStores(ctx)
	if err != nil {
		h.logger.Warn("listing provider stores", "error", err)
		return nil
	}
	counts := make(map[string]int, len(stores))
	for _, s := range stores {
		counts[s.ID] = s.DocumentCount
	}
	return counts
}

type welcomeHandler struct {
	allowEnglish bool
	logger       log.Logger
}

// greet returns the greeting and starter suggestions shown before the
// first question. GET /api/v1/welcome?lang=it|en.
func (h *welcomeHandler) greet(w http.ResponseWriter, r *http.Request) {
	message, suggestions, lang := chat.WelcomeMessage(r.URL.Query().Get("lang"), h.allowEnglish)
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     message,
		"suggestions": suggestions,
		"language":    lang,
	}, h.logger)
}
