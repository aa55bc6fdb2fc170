package gemini

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"google.golang.org/genai"

	"github.com/salusdesk/salus/internal/store"
)

const (
	// generateTemperature for grounded answers.
	generateTemperature = float32(0.7)

	// snippetLimit bounds the snippet carried per grounding chunk.
	snippetLimit = 200
)

// Generate runs one retrieval-augmented generation call across all handles.
// With no handles the call is issued without any tool: plain generation.
func (c *Client) Generate(ctx context.Context, message string, handles []store.Handle, systemInstruction string) (store.RawResult, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(generateTemperature),
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
	}

	if len(handles) > 0 {
		names := make([]string, len(handles))
		for i, h := range handles {
			names[i] = h.Name
		}
		cfg.Tools = []*genai.Tool{
			{FileSearch: &genai.FileSearch{FileSearchStoreNames: names}},
		}
		c.logger.Debug("file search tool configured", "stores", len(names))
	}

	resp, err := c.genai.Models.GenerateContent(ctx, c.model, genai.Text(message), cfg)
	if err != nil {
		return store.RawResult{}, fmt.Errorf("generation call: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return store.RawResult{}, fmt.Errorf("generation returned no candidates")
	}

	text := resp.Text()
	if text == "" {
		return store.RawResult{}, fmt.Errorf("generation returned empty text (finish reason: %v)",
			resp.Candidates[0].FinishReason)
	}

	return store.RawResult{
		Text:   text,
		Chunks: groundingChunks(resp.Candidates[0]),
	}, nil
}

// groundingChunks flattens the candidate's grounding metadata into the
// pipeline's chunk shape. Web chunks carry a page url; retrieved-context
// chunks carry either a url or an opaque document reference depending on
// how the source document was ingested.
func groundingChunks(cand *genai.Candidate) []store.Chunk {
	if cand.GroundingMetadata == nil {
		return nil
	}

	var out []store.Chunk
	for _, gc := range cand.GroundingMetadata.GroundingChunks {
		switch {
		case gc.Web != nil:
			out = append(out, store.Chunk{
				Metadata: dropEmpty(map[string]string{
					"title":       gc.Web.Title,
					"url":         gc.Web.URI,
					"source_type": "website",
				}),
			})
		case gc.RetrievedContext != nil:
			rc := gc.RetrievedContext
			md := map[string]string{"title": rc.Title}
			if isHTTPURL(rc.URI) {
				md["url"] = rc.URI
			} else {
				md["document_id"] = rc.URI
			}
			out = append(out, store.Chunk{
				Snippet:  truncate(rc.Text, snippetLimit),
				Metadata: dropEmpty(md),
			})
		}
	}
	return out
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// truncate cuts s at a rune boundary at or below limit bytes, so a
// multibyte character at the boundary is never split into invalid UTF-8.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit] + "..."
}

func dropEmpty(md map[string]string) map[string]string {
	for k, v := range md {
		if v == "" {
			delete(md, k)
		}
	}
	return md
}
