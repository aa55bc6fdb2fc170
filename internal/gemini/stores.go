package gemini

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/salusdesk/salus/internal/store"
)

// uploadPollInterval is the pause between indexing-operation polls.
const uploadPollInterval = 3 * time.Second

// StoreInfo is the provider-side view of one namespaced store.
type StoreInfo struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	DisplayName   string `json:"display_name"`
	DocumentCount int    `json:"document_count"`
}

// DocumentInfo describes one document inside a store.
type DocumentInfo struct {
	Name        string            `json:"name"`
	DisplayName string            `json:"display_name"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Lookup resolves a catalog id to its live store handle by scanning the
// provider's store list for the namespaced display name. Implements
// store.HandleRegistry.
func (c *Client) Lookup(ctx context.Context, id string) (store.Handle, bool, error) {
	target := c.displayName(id)

	fss, err := c.listAllStores(ctx)
	if err != nil {
		return store.Handle{}, false, err
	}
	for _, fs := range fss {
		if fs.DisplayName == target {
			return store.Handle{ID: id, Name: fs.Name}, true, nil
		}
	}
	return store.Handle{}, false, nil
}

// CreateStore materializes the provider store for a catalog id,
// returning the existing handle if it was already created.
func (c *Client) CreateStore(ctx context.Context, id string) (store.Handle, error) {
	if h, ok, err := c.Lookup(ctx, id); err != nil {
		return store.Handle{}, err
	} else if ok {
		c.logger.Info("store already exists", "store", id)
		return h, nil
	}

	fs, err := c.genai.FileSearchStores.Create(ctx, &genai.CreateFileSearchStoreConfig{
		DisplayName: c.displayName(id),
	})
	if err != nil {
		return store.Handle{}, fmt.Errorf("creating store %q: %w", id, err)
	}
	c.logger.Info("store created", "store", id, "name", fs.Name)
	return store.Handle{ID: id, Name: fs.Name}, nil
}

// DeleteStore removes the provider store for id, including its documents.
// Deleting a store that does not exist is a no-op.
func (c *Client) DeleteStore(ctx context.Context, id string) error {
	h, ok, err := c.Lookup(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	if err := c.genai.FileSearchStores.Delete(ctx, h.Name, &genai.DeleteFileSearchStoreConfig{Force: genai.Ptr(true)}); err != nil {
		return fmt.Errorf("deleting store %q: %w", id, err)
	}
	c.logger.Info("store deleted", "store", id)
	return nil
}

// ListStores returns all stores in this deployment's namespace with their
// document counts. Count failures degrade to zero rather than failing the
// listing.
func (c *Client) ListStores(ctx context.Context) ([]StoreInfo, error) {
	fss, err := c.listAllStores(ctx)
	if err != nil {
		return nil, err
	}

	var out []StoreInfo
	for _, fs := range fss {
		id, ok := c.idFromDisplayName(fs.DisplayName)
		if !ok {
			continue
		}
		count := 0
		if docs, err := c.ListDocuments(ctx, id); err == nil {
			count = len(docs)
		} else {
			c.logger.Warn("counting documents failed", "store", id, "error", err)
		}
		out = append(out, StoreInfo{
			ID:            id,
			Name:          fs.Name,
			DisplayName:   fs.DisplayName,
			DocumentCount: count,
		})
	}
	return out, nil
}

// ListDocuments lists the documents of a store with their custom metadata.
func (c *Client) ListDocuments(ctx context.Context, id string) ([]DocumentInfo, error) {
	h, ok, err := c.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var out []DocumentInfo
	page, err := c.genai.FileSearchStores.Documents.List(ctx, h.Name, nil)
	for {
		if err != nil {
			if errors.Is(err, genai.ErrPageDone) {
				break
			}
			return nil, fmt.Errorf("listing documents of %q: %w", id, err)
		}
		for _, doc := range page.Items {
			md := make(map[string]string, len(doc.CustomMetadata))
			for _, m := range doc.CustomMetadata {
				md[m.Key] = m.StringValue
			}
			out = append(out, DocumentInfo{
				Name:        doc.Name,
				DisplayName: doc.DisplayName,
				Metadata:    md,
			})
		}
		page, err = page.Next(ctx)
	}
	return out, nil
}

// DeleteDocument removes one document by provider resource name.
func (c *Client) DeleteDocument(ctx context.Context, docName string) error {
	if err := c.genai.FileSearchStores.Documents.Delete(ctx, docName, &genai.DeleteDocumentConfig{Force: genai.Ptr(true)}); err != nil {
		return fmt.Errorf("deleting document %q: %w", docName, err)
	}
	c.logger.Info("document deleted", "document", docName)
	return nil
}

// UploadDocument uploads and indexes a local file into a store, attaching
// the given custom metadata. Blocks until indexing completes.
func (c *Client) UploadDocument(ctx context.Context, id, path string, metadata map[string]string) error {
	h, ok, err := c.Lookup(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("store %q not materialized, create it first", id)
	}

	var custom []*genai.CustomMetadata
	for k, v := range metadata {
		if v == "" {
			continue
		}
		custom = append(custom, &genai.CustomMetadata{Key: k, StringValue: v})
	}

	cfg := &genai.UploadToFileSearchStoreConfig{
		DisplayName:    metadata["title"],
		CustomMetadata: custom,
	}
	op, err := c.genai.FileSearchStores.UploadToFileSearchStoreFromPath(ctx, path, h.Name, cfg)
	if err != nil {
		return fmt.Errorf("uploading %q to store %q: %w", path, id, err)
	}

	// Indexing is asynchronous; poll until the operation completes.
	for !op.Done {
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for indexing of %q: %w", path, ctx.Err())
		case <-time.After(uploadPollInterval):
		}
		op, err = c.genai.Operations.GetUploadToFileSearchStoreOperation(ctx, op, nil)
		if err != nil {
			return fmt.Errorf("polling indexing of %q: %w", path, err)
		}
	}

	c.logger.Info("document uploaded", "store", id, "path", path)
	return nil
}

// listAllStores pages through every provider store.
func (c *Client) listAllStores(ctx context.Context) ([]*genai.FileSearchStore, error) {
	var out []*genai.FileSearchStore
	page, err := c.genai.FileSearchStores.List(ctx, nil)
	for {
		if err != nil {
			if errors.Is(err, genai.ErrPageDone) {
				return out, nil
			}
			return nil, fmt.Errorf("listing stores: %w", err)
		}
		out = append(out, page.Items...)
		page, err = page.Next(ctx)
	}
}
