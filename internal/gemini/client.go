// Package gemini adapts the Gemini API to the pipeline's collaborator
// contracts: structured-output classification, File Search grounded
// generation, and store lifecycle administration.
//
// Provider stores are namespaced by display name: catalog id "hours" with
// prefix "salus" lives in the provider as "salus-hours". Nothing outside
// this package imports google.golang.org/genai.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/salusdesk/salus/internal/log"
)

// Config holds the provider settings the adapter needs.
type Config struct {
	APIKey      string
	Model       string
	StorePrefix string
}

// Client wraps the Gemini SDK client.
type Client struct {
	genai  *genai.Client
	model  string
	prefix string
	logger log.Logger
}

// New creates a Client against the Gemini API backend.
func New(ctx context.Context, cfg Config, logger log.Logger) (*Client, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &Client{
		genai:  gc,
		model:  cfg.Model,
		prefix: cfg.StorePrefix,
		logger: logger,
	}, nil
}

// displayName maps a catalog id to the provider store display name.
func (c *Client) displayName(id string) string {
	return c.prefix + "-" + id
}

// idFromDisplayName recovers the catalog id from a prefixed display name.
// Returns ok=false for stores outside this deployment's namespace.
func (c *Client) idFromDisplayName(displayName string) (string, bool) {
	id, found := strings.CutPrefix(displayName, c.prefix+"-")
	if !found || id == "" {
		return "", false
	}
	return id, true
}
