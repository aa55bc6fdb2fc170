// Package admin implements the store administration surface: lifecycle of
// provider stores and the documents inside them. This is deliberately thin
// CRUD over the provider API plus catalog bookkeeping; the chat pipeline
// never calls it.
package admin

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/salusdesk/salus/internal/catalog"
	"github.com/salusdesk/salus/internal/gemini"
	"github.com/salusdesk/salus/internal/grounding"
	"github.com/salusdesk/salus/internal/log"
	"github.com/salusdesk/salus/internal/store"
)

// Provider is the provider-side store API the manager drives.
// *gemini.Client implements it.
type Provider interface {
	CreateStore(ctx context.Context, id string) (store.Handle, error)
	DeleteStore(ctx context.Context, id string) error
	ListStores(ctx context.Context) ([]gemini.StoreInfo, error)
	ListDocuments(ctx context.Context, id string) ([]gemini.DocumentInfo, error)
	DeleteDocument(ctx context.Context, docName string) error
	UploadDocument(ctx context.Context, id, path string, metadata map[string]string) error
}

// Manager coordinates provider store CRUD with the catalog registry.
type Manager struct {
	provider Provider
	catalog  *catalog.Catalog
	logger   log.Logger
}

// NewManager creates a Manager.
func NewManager(provider Provider, cat *catalog.Catalog, logger log.Logger) *Manager {
	return &Manager{provider: provider, catalog: cat, logger: logger}
}

// CreateStore materializes a store and, for non-core ids, registers its
// descriptor so the selector can route to it. Core ids skip registration
// (their descriptions are fixed).
func (m *Manager) CreateStore(ctx context.Context, id, description string) (store.Handle, error) {
	if !m.catalog.IsCore(id) {
		if err := m.catalog.Register(ctx, id, description); err != nil {
			return store.Handle{}, err
		}
	}
	return m.provider.CreateStore(ctx, id)
}

// DeleteStore removes the provider store and, for extras, its descriptor.
func (m *Manager) DeleteStore(ctx context.Context, id string) error {
	if err := m.provider.DeleteStore(ctx, id); err != nil {
		return err
	}
	if !m.catalog.IsCore(id) {
		return m.catalog.Deregister(ctx, id)
	}
	return nil
}

// ListStores returns the provider-side stores of this deployment.
func (m *Manager) ListStores(ctx context.Context) ([]gemini.StoreInfo, error) {
	return m.provider.ListStores(ctx)
}

// ListDocuments lists the documents of one store.
func (m *Manager) ListDocuments(ctx context.Context, id string) ([]gemini.DocumentInfo, error) {
	return m.provider.ListDocuments(ctx, id)
}

// DeleteDocument removes one document by provider resource name.
func (m *Manager) DeleteDocument(ctx context.Context, docName string) error {
	return m.provider.DeleteDocument(ctx, docName)
}

// UploadOptions tunes one document upload.
type UploadOptions struct {
	// Title overrides the display title (defaults to the file name).
	Title string

	// SourceType is "website" or "attachment" (default attachment).
	SourceType string

	// URL is the canonical page url for website-sourced content.
	URL string

	// DocumentID is the stable citation id for attachments; generated
	// when empty.
	DocumentID string
}

// UploadFile uploads a local file into a store, replacing any existing
// document with the same file name so re-ingestion stays idempotent.
func (m *Manager) UploadFile(ctx context.Context, id, path string, opts UploadOptions) (string, error) {
	fileName := filepath.Base(path)

	sourceType := opts.SourceType
	if sourceType == "" {
		sourceType = grounding.SourceTypeAttachment
	}
	docID := opts.DocumentID
	if sourceType == grounding.SourceTypeAttachment && docID == "" {
		docID = uuid.NewString()
	}
	title := opts.Title
	if title == "" {
		title = fileName
	}

	if err := m.replaceExisting(ctx, id, fileName); err != nil {
		return "", err
	}

	metadata := map[string]string{
		"title":       title,
		"file_name":   fileName,
		"domain":      id,
		"source_type": sourceType,
		"url":         opts.URL,
		"document_id": docID,
	}
	if err := m.provider.UploadDocument(ctx, id, path, metadata); err != nil {
		return "", err
	}

	m.logger.Info("document ingested",
		"store", id, "file", fileName, "source_type", sourceType)
	return docID, nil
}

// replaceExisting deletes documents carrying the same file name.
// Listing failures abort the upload; individual delete failures are logged
// and skipped so one stale document cannot block re-ingestion.
func (m *Manager) replaceExisting(ctx context.Context, id, fileName string) error {
	docs, err := m.provider.ListDocuments(ctx, id)
	if err != nil {
		return fmt.Errorf("checking for existing documents: %w", err)
	}
	for _, doc := range docs {
		if doc.DisplayName != fileName && doc.Metadata["file_name"] != fileName {
			continue
		}
		m.logger.Info("replacing existing document", "store", id, "document", doc.Name)
		if err := m.provider.DeleteDocument(ctx, doc.Name); err != nil {
			m.logger.Warn("deleting existing document failed", "document", doc.Name, "error", err)
		}
	}
	return nil
}
