// Package grounding normalizes raw grounding chunks into citation lists.
//
// Two lists come out of extraction: sources, a transparency record of every
// citable passage, and links, the stricter user-facing subset that must be
// clickable or referenceable. The lists are filtered independently: a
// chunk whose only identity is a text hash still appears in sources but is
// unusable as a link.
package grounding

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/salusdesk/salus/internal/log"
	"github.com/salusdesk/salus/internal/store"
)

// Source type values carried in chunk metadata.
const (
	SourceTypeWebsite    = "website"
	SourceTypeAttachment = "attachment"
)

// Title placeholders when a chunk carries no title of its own.
const (
	titleWebsite  = "Pagina web"
	titleDocument = "Documento"
	titleGeneric  = "Fonte"
)

// Source is a transparency record: one per surviving chunk after dedup.
type Source struct {
	Title   string `json:"title"`
	URL     string `json:"url,omitempty"`
	Snippet string `json:"snippet"`
}

// Link is a user-facing citation. Exactly one of URL/DocumentID is expected
// per source type; an entry with neither is never produced.
type Link struct {
	Title      string `json:"title"`
	URL        string `json:"url,omitempty"`
	DocumentID string `json:"document_id,omitempty"`
	SourceType string `json:"source_type"`
}

// Extractor deduplicates and ranks grounding chunks.
type Extractor struct {
	maxLinks int
	logger   log.Logger
}

// NewExtractor creates an Extractor capping links at maxLinks.
func NewExtractor(maxLinks int, logger log.Logger) *Extractor {
	return &Extractor{maxLinks: maxLinks, logger: logger}
}

// record is a deduplicated chunk under construction.
type record struct {
	snippet string
	md      map[string]string
}

// Extract turns a raw result into sources and links. Chunk order is the
// provider's own relevance order and is preserved throughout; duplicates
// keep their first occurrence, with later occurrences only backfilling
// metadata fields the kept record is missing.
func (e *Extractor) Extract(raw store.RawResult) ([]Source, []Link) {
	var order []string
	records := make(map[string]*record)

	for _, chunk := range raw.Chunks {
		key, ok := dedupKey(chunk)
		if !ok {
			e.logger.Debug("grounding chunk has no citable identity, dropped")
			continue
		}

		if kept, seen := records[key]; seen {
			backfill(kept, chunk)
			continue
		}

		md := make(map[string]string, len(chunk.Metadata))
		for k, v := range chunk.Metadata {
			if v != "" {
				md[k] = v
			}
		}
		records[key] = &record{snippet: chunk.Snippet, md: md}
		order = append(order, key)
	}

	sources := make([]Source, 0, len(order))
	links := make([]Link, 0, min(len(order), e.maxLinks))

	for _, key := range order {
		rec := records[key]
		st := resolveSourceType(rec)

		sources = append(sources, Source{
			Title:   resolveTitle(rec, st),
			URL:     rec.md["url"],
			Snippet: rec.snippet,
		})

		if len(links) >= e.maxLinks {
			continue
		}
		link, ok := buildLink(rec, st)
		if !ok {
			continue
		}
		links = append(links, link)
	}

	return sources, links
}

// dedupKey derives the identity of a chunk with explicit precedence:
// url, then document_id, then a hash of title+snippet as last resort.
// Keys are namespaced by kind so values from different fields cannot
// collide. A chunk with no identity at all is not citable.
func dedupKey(c store.Chunk) (string, bool) {
	if url := c.Metadata["url"]; url != "" {
		return "u:" + url, true
	}
	if docID := c.Metadata["document_id"]; docID != "" {
		return "d:" + docID, true
	}
	title := c.Metadata["title"]
	if title == "" && c.Snippet == "" {
		return "", false
	}
	sum := sha256.Sum256([]byte(title + "\x00" + c.Snippet))
	return "h:" + hex.EncodeToString(sum[:]), true
}

// backfill copies metadata from a duplicate chunk into the kept record,
// only for fields the kept record is missing. The first occurrence's
// snippet wins unless it was empty.
func backfill(kept *record, dup store.Chunk) {
	for k, v := range dup.Metadata {
		if v == "" {
			continue
		}
		if _, have := kept.md[k]; !have {
			kept.md[k] = v
		}
	}
	if kept.snippet == "" {
		kept.snippet = dup.Snippet
	}
}

// resolveSourceType returns the chunk's source type, applying the default
// rules when the metadata field is absent or unrecognized: website when a
// url is present, attachment when only a document_id is, otherwise unknown
// (empty string).
func resolveSourceType(rec *record) string {
	switch rec.md["source_type"] {
	case SourceTypeWebsite:
		return SourceTypeWebsite
	case SourceTypeAttachment:
		return SourceTypeAttachment
	}
	if rec.md["url"] != "" {
		return SourceTypeWebsite
	}
	if rec.md["document_id"] != "" {
		return SourceTypeAttachment
	}
	return ""
}

func resolveTitle(rec *record, sourceType string) string {
	if t := rec.md["title"]; t != "" {
		return t
	}
	switch sourceType {
	case SourceTypeWebsite:
		return titleWebsite
	case SourceTypeAttachment:
		return titleDocument
	default:
		return titleGeneric
	}
}

// buildLink produces a Link when the record is usable as one: a known
// source type and at least one of url/document_id.
func buildLink(rec *record, sourceType string) (Link, bool) {
	url := rec.md["url"]
	docID := rec.md["document_id"]
	if sourceType == "" || (url == "" && docID == "") {
		return Link{}, false
	}
	return Link{
		Title:      resolveTitle(rec, sourceType),
		URL:        url,
		DocumentID: docID,
		SourceType: sourceType,
	}, true
}
