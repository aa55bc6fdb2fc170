package grounding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salusdesk/salus/internal/log"
	"github.com/salusdesk/salus/internal/store"
	"github.com/salusdesk/salus/internal/testutil"
)

func extract(chunks ...store.Chunk) ([]Source, []Link) {
	e := NewExtractor(5, log.NewNop())
	return e.Extract(store.RawResult{Chunks: chunks})
}

func TestExtract_DedupByURLKeepsFirst(t *testing.T) {
	t.Parallel()

	sources, links := extract(
		testutil.Chunk("orari del punto prelievi", "url", "https://example.it/orari", "title", "Orari"),
		testutil.Chunk("altro passaggio stessa pagina", "url", "https://example.it/orari", "title", "Orari bis"),
		testutil.Chunk("indirizzo ospedale", "url", "https://example.it/sedi", "title", "Sedi"),
	)

	require.Len(t, sources, 2)
	assert.Equal(t, "Orari", sources[0].Title)
	assert.Equal(t, "orari del punto prelievi", sources[0].Snippet)
	assert.Equal(t, "Sedi", sources[1].Title)

	require.Len(t, links, 2)
	assert.Equal(t, "https://example.it/orari", links[0].URL)
}

func TestExtract_DedupIsIdempotent(t *testing.T) {
	t.Parallel()

	chunk := testutil.Chunk("testo", "url", "https://example.it/p", "title", "Pagina")

	sources, links := extract(chunk, chunk)

	assert.Len(t, sources, 1)
	assert.Len(t, links, 1)
}

func TestExtract_BackfillOnlyMissingFields(t *testing.T) {
	t.Parallel()

	sources, links := extract(
		testutil.Chunk("primo", "url", "https://example.it/doc"),
		testutil.Chunk("secondo", "url", "https://example.it/doc",
			"title", "Titolo tardivo", "document_id", "doc-9"),
	)

	require.Len(t, sources, 1)
	// Title was missing on the kept record, so the duplicate fills it.
	assert.Equal(t, "Titolo tardivo", sources[0].Title)
	// Snippet of the first occurrence wins.
	assert.Equal(t, "primo", sources[0].Snippet)

	require.Len(t, links, 1)
	assert.Equal(t, "doc-9", links[0].DocumentID)
}

func TestExtract_DedupKeyPrecedence(t *testing.T) {
	t.Parallel()

	// Same document_id but different urls: url has precedence, so these
	// are two distinct sources.
	sources, _ := extract(
		testutil.Chunk("a", "url", "https://example.it/a", "document_id", "d1"),
		testutil.Chunk("b", "url", "https://example.it/b", "document_id", "d1"),
	)
	assert.Len(t, sources, 2)

	// No url: document_id is the key.
	sources, _ = extract(
		testutil.Chunk("a", "document_id", "d1"),
		testutil.Chunk("b", "document_id", "d1"),
	)
	assert.Len(t, sources, 1)
}

func TestExtract_HashKeyedChunkInSourcesNotLinks(t *testing.T) {
	t.Parallel()

	sources, links := extract(
		testutil.Chunk("118", "title", "Numeri utili"),
	)

	require.Len(t, sources, 1)
	assert.Equal(t, "Numeri utili", sources[0].Title)
	assert.Equal(t, "118", sources[0].Snippet)
	assert.Empty(t, links, "no url or document_id means no link")
}

func TestExtract_ChunkWithNoIdentityDropped(t *testing.T) {
	t.Parallel()

	sources, links := extract(store.Chunk{})

	assert.Empty(t, sources)
	assert.Empty(t, links)
}

func TestExtract_SourceTypeDefaulting(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		chunk store.Chunk
		want  string
	}{
		{
			name:  "absent with url defaults to website",
			chunk: testutil.Chunk("x", "url", "https://x"),
			want:  SourceTypeWebsite,
		},
		{
			name:  "absent with document_id defaults to attachment",
			chunk: testutil.Chunk("x", "document_id", "doc-1"),
			want:  SourceTypeAttachment,
		},
		{
			name:  "explicit value mapped directly",
			chunk: testutil.Chunk("x", "url", "https://x", "source_type", "attachment"),
			want:  SourceTypeAttachment,
		},
		{
			name:  "unrecognized value falls back to defaulting",
			chunk: testutil.Chunk("x", "url", "https://x", "source_type", "carrier_pigeon"),
			want:  SourceTypeWebsite,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, links := extract(tt.chunk)
			require.Len(t, links, 1)
			assert.Equal(t, tt.want, links[0].SourceType)
		})
	}
}

func TestExtract_LinksCapped(t *testing.T) {
	t.Parallel()

	e := NewExtractor(3, log.NewNop())
	var chunks []store.Chunk
	for _, u := range []string{"a", "b", "c", "d", "e", "f"} {
		chunks = append(chunks, testutil.Chunk("s", "url", "https://example.it/"+u))
	}

	sources, links := e.Extract(store.RawResult{Chunks: chunks})

	assert.Len(t, sources, 6, "sources are not capped")
	require.Len(t, links, 3)
	for _, l := range links {
		assert.True(t, l.URL != "" || l.DocumentID != "")
	}
}

func TestExtract_UnusableChunksSkippedWhenBuildingLinks(t *testing.T) {
	t.Parallel()

	sources, links := extract(
		testutil.Chunk("solo testo", "title", "Senza link"),
		testutil.Chunk("con url", "url", "https://example.it/ok"),
	)

	assert.Len(t, sources, 2)
	require.Len(t, links, 1)
	assert.Equal(t, "https://example.it/ok", links[0].URL)
}

func TestExtract_TitlePlaceholders(t *testing.T) {
	t.Parallel()

	sources, _ := extract(
		testutil.Chunk("w", "url", "https://x"),
		testutil.Chunk("a", "document_id", "doc-1"),
	)

	require.Len(t, sources, 2)
	assert.Equal(t, "Pagina web", sources[0].Title)
	assert.Equal(t, "Documento", sources[1].Title)
}

func TestExtract_EmptyResult(t *testing.T) {
	t.Parallel()

	e := NewExtractor(5, log.NewNop())
	sources, links := e.Extract(store.RawResult{Text: "risposta senza grounding"})

	assert.Empty(t, sources)
	assert.Empty(t, links)
}
