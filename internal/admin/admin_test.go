package admin

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salusdesk/salus/internal/catalog"
	"github.com/salusdesk/salus/internal/config"
	"github.com/salusdesk/salus/internal/gemini"
	"github.com/salusdesk/salus/internal/grounding"
	"github.com/salusdesk/salus/internal/log"
	"github.com/salusdesk/salus/internal/store"
)

type fakeProvider struct {
	stores    []gemini.StoreInfo
	documents map[string][]gemini.DocumentInfo

	created  []string
	deleted  []string
	uploads  []upload
	docsGone []string

	listDocsErr error
	uploadErr   error
	deleteErr   error
}

type upload struct {
	store    string
	path     string
	metadata map[string]string
}

func (f *fakeProvider) CreateStore(_ context.Context, id string) (store.Handle, error) {
	f.created = append(f.created, id)
	return store.Handle{ID: id, Name: "fileSearchStores/" + id}, nil
}

func (f *fakeProvider) DeleteStore(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeProvider) ListStores(context.Context) ([]gemini.StoreInfo, error) {
	return f.stores, nil
}

func (f *fakeProvider) ListDocuments(_ context.Context, id string) ([]gemini.DocumentInfo, error) {
	if f.listDocsErr != nil {
		return nil, f.listDocsErr
	}
	return f.documents[id], nil
}

func (f *fakeProvider) DeleteDocument(_ context.Context, docName string) error {
	f.docsGone = append(f.docsGone, docName)
	return f.deleteErr
}

func (f *fakeProvider) UploadDocument(_ context.Context, id, path string, metadata map[string]string) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.uploads = append(f.uploads, upload{store: id, path: path, metadata: metadata})
	return nil
}

func newTestManager(t *testing.T, provider *fakeProvider) (*Manager, *catalog.Catalog) {
	t.Helper()

	reg, err := catalog.OpenRegistry(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = reg.Close() })

	cat, err := catalog.New(config.CoreStores, reg, log.NewNop())
	require.NoError(t, err)

	return NewManager(provider, cat, log.NewNop()), cat
}

func TestCreateStoreRegistersExtra(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{}
	m, cat := newTestManager(t, provider)

	h, err := m.CreateStore(context.Background(), "vaccinations", "Campagne vaccinali e calendari.")
	require.NoError(t, err)
	assert.Equal(t, "vaccinations", h.ID)
	assert.Equal(t, []string{"vaccinations"}, provider.created)
	assert.True(t, cat.Contains(context.Background(), "vaccinations"))
}

func TestCreateStoreCoreSkipsRegistration(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{}
	m, cat := newTestManager(t, provider)

	_, err := m.CreateStore(context.Background(), "hours", "ignored")
	require.NoError(t, err)
	assert.Equal(t, []string{"hours"}, provider.created)

	// The core descriptor stays untouched.
	for _, d := range cat.List(context.Background()) {
		if d.ID == "hours" {
			assert.NotEqual(t, "ignored", d.Description)
		}
	}
}

func TestCreateStoreRejectsCoreCollisionViaRegister(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{}
	m, _ := newTestManager(t, provider)

	_, err := m.CreateStore(context.Background(), "  ", "desc")
	require.Error(t, err)
	assert.Empty(t, provider.created)
}

func TestDeleteStoreDeregistersExtra(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{}
	m, cat := newTestManager(t, provider)

	_, err := m.CreateStore(context.Background(), "news", "Novita e avvisi.")
	require.NoError(t, err)
	require.True(t, cat.Contains(context.Background(), "news"))

	require.NoError(t, m.DeleteStore(context.Background(), "news"))
	assert.Equal(t, []string{"news"}, provider.deleted)
	assert.False(t, cat.Contains(context.Background(), "news"))
}

func TestDeleteStoreCoreKeepsDescriptor(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{}
	m, cat := newTestManager(t, provider)

	require.NoError(t, m.DeleteStore(context.Background(), "hours"))
	assert.True(t, cat.Contains(context.Background(), "hours"))
}

func TestUploadFileDefaults(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{}
	m, _ := newTestManager(t, provider)

	path := filepath.Join(t.TempDir(), "orari.pdf")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	docID, err := m.UploadFile(context.Background(), "hours", path, UploadOptions{})
	require.NoError(t, err)
	require.NotEmpty(t, docID)

	require.Len(t, provider.uploads, 1)
	md := provider.uploads[0].metadata
	assert.Equal(t, "orari.pdf", md["title"])
	assert.Equal(t, "orari.pdf", md["file_name"])
	assert.Equal(t, "hours", md["domain"])
	assert.Equal(t, grounding.SourceTypeAttachment, md["source_type"])
	assert.Equal(t, docID, md["document_id"])
	assert.Empty(t, md["url"])
}

func TestUploadFileWebsiteKeepsURL(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{}
	m, _ := newTestManager(t, provider)

	docID, err := m.UploadFile(context.Background(), "locations", "/tmp/page.md", UploadOptions{
		Title:      "Sedi e distretti",
		SourceType: grounding.SourceTypeWebsite,
		URL:        "https://example.org/sedi",
	})
	require.NoError(t, err)
	assert.Empty(t, docID)

	require.Len(t, provider.uploads, 1)
	md := provider.uploads[0].metadata
	assert.Equal(t, "Sedi e distretti", md["title"])
	assert.Equal(t, grounding.SourceTypeWebsite, md["source_type"])
	assert.Equal(t, "https://example.org/sedi", md["url"])
	assert.Empty(t, md["document_id"])
}

func TestUploadFileReplacesSameFileName(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{
		documents: map[string][]gemini.DocumentInfo{
			"hours": {
				{Name: "fileSearchStores/hours/documents/old", DisplayName: "orari.pdf"},
				{Name: "fileSearchStores/hours/documents/other", DisplayName: "altro.pdf"},
			},
		},
	}
	m, _ := newTestManager(t, provider)

	_, err := m.UploadFile(context.Background(), "hours", "/tmp/orari.pdf", UploadOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"fileSearchStores/hours/documents/old"}, provider.docsGone)
	require.Len(t, provider.uploads, 1)
}

func TestUploadFileListFailureAborts(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{listDocsErr: errors.New("boom")}
	m, _ := newTestManager(t, provider)

	_, err := m.UploadFile(context.Background(), "hours", "/tmp/orari.pdf", UploadOptions{})
	require.Error(t, err)
	assert.Empty(t, provider.uploads)
}

func TestUploadFileDeleteFailureDoesNotBlock(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{
		documents: map[string][]gemini.DocumentInfo{
			"hours": {{Name: "fileSearchStores/hours/documents/old", DisplayName: "orari.pdf"}},
		},
		deleteErr: errors.New("stale"),
	}
	m, _ := newTestManager(t, provider)

	_, err := m.UploadFile(context.Background(), "hours", "/tmp/orari.pdf", UploadOptions{})
	require.NoError(t, err)
	require.Len(t, provider.uploads, 1)
}
