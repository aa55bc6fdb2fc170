package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/salusdesk/salus/internal/catalog"
	"github.com/salusdesk/salus/internal/gemini"
	"github.com/salusdesk/salus/internal/log"
	"github.com/salusdesk/salus/internal/store"
)

// StoreAdmin is the administration surface the API exposes.
// *admin.Manager implements it.
type StoreAdmin interface {
	CreateStore(ctx context.Context, id, description string) (store.Handle, error)
	DeleteStore(ctx context.Context, id string) error
	ListStores(ctx context.Context) ([]gemini.StoreInfo, error)
	ListDocuments(ctx context.Context, id string) ([]gemini.DocumentInfo, error)
	DeleteDocument(ctx context.Context, docName string) error
}

// PageIngestor ingests a single web page into a store.
// *ingest.Ingestor implements it.
type PageIngestor interface {
	Page(ctx context.Context, storeID, pageURL string) (string, error)
}

type adminHandler struct {
	admin    StoreAdmin
	ingestor PageIngestor
	logger   log.Logger
}

type createStoreRequest struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

// createStore provisions a store. POST /api/v1/admin/stores.
func (h *adminHandler) createStore(w http.ResponseWriter, r *http.Request) {
	var req createStoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body", h.logger)
		return
	}

	handle, err := h.admin.CreateStore(r.Context(), req.ID, req.Description)
	switch {
	case errors.Is(err, catalog.ErrInvalidDescriptor):
		writeError(w, http.StatusBadRequest, "invalid_descriptor", err.Error(), h.logger)
		return
	case errors.Is(err, catalog.ErrCoreConflict):
		writeError(w, http.StatusConflict, "core_conflict", err.Error(), h.logger)
		return
	case err != nil:
		h.logger.Error("creating store", "store", req.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "creating store failed", h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": handle.ID, "name": handle.Name}, h.logger)
}

// deleteStore removes a store. DELETE /api/v1/admin/stores/{id}.
func (h *adminHandler) deleteStore(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.admin.DeleteStore(r.Context(), id); err != nil {
		h.logger.Error("deleting store", "store", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "deleting store failed", h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// listStores lists provider stores. GET /api/v1/admin/stores.
func (h *adminHandler) listStores(w http.ResponseWriter, r *http.Request) {
	stores, err := h.admin.ListStores(r.Context())
	if err != nil {
		h.logger.Error("listing stores", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "listing stores failed", h.logger)
		return
	}
	if stores == nil {
		stores = []gemini.StoreInfo{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"stores": stores}, h.logger)
}

// listDocuments lists one store's documents.
// GET /api/v1/admin/stores/{id}/documents.
func (h *adminHandler) listDocuments(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	docs, err := h.admin.ListDocuments(r.Context(), id)
	if err != nil {
		h.logger.Error("listing documents", "store", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "listing documents failed", h.logger)
		return
	}
	if docs == nil {
		docs = []gemini.DocumentInfo{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs}, h.logger)
}

// deleteDocument removes one document by provider resource name.
// DELETE /api/v1/admin/stores/{id}/documents/{doc...}.
func (h *adminHandler) deleteDocument(w http.ResponseWriter, r *http.Request) {
	docName := r.PathValue("doc")
	if docName == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "document name is required", h.logger)
		return
	}
	if err := h.admin.DeleteDocument(r.Context(), docName); err != nil {
		h.logger.Error("deleting document", "document", docName, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "deleting document failed", h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type ingestPageRequest struct {
	URL string `json:"url"`
}

// ingestPage pulls one web page into a store.
// POST /api/v1/admin/stores/{id}/pages.
func (h *adminHandler) ingestPage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req ingestPageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body", h.logger)
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "url is required", h.logger)
		return
	}

	docID, err := h.ingestor.Page(r.Context(), id, req.URL)
	if err != nil {
		h.logger.Error("ingesting page", "store", id, "url", req.URL, "error", err)
		writeError(w, http.StatusBadGateway, "ingest_failed", "fetching or indexing the page failed", h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"document_id": docID, "url": req.URL}, h.logger)
}
