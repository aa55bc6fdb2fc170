package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/salusdesk/salus/internal/store"
)

// classifyTemperature keeps classification near-deterministic.
const classifyTemperature = float32(0.2)

// selectionSchema constrains the classifier to a JSON object with a
// "stores" string array and a free-text "reason".
var selectionSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"stores": {
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		},
		"reason": {Type: genai.TypeString},
	},
	Required: []string{"stores"},
}

// Classify asks the model which stores are relevant to the query.
// The output shape is only loosely guaranteed even with a response schema;
// the caller is responsible for validating the returned ids.
func (c *Client) Classify(ctx context.Context, query string, catalog []store.Descriptor) (store.Selection, error) {
	resp, err := c.genai.Models.GenerateContent(ctx, c.model,
		genai.Text(classifyPrompt(query, catalog)),
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   selectionSchema,
			Temperature:      genai.Ptr(classifyTemperature),
		},
	)
	if err != nil {
		return store.Selection{}, fmt.Errorf("classification call: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return store.Selection{}, fmt.Errorf("classification returned empty response")
	}

	var sel store.Selection
	if err := json.Unmarshal([]byte(text), &sel); err != nil {
		return store.Selection{}, fmt.Errorf("parsing classification output: %w", err)
	}
	return sel, nil
}

// classifyPrompt lists the catalog and asks for the relevant category ids.
func classifyPrompt(query string, catalog []store.Descriptor) string {
	var b strings.Builder
	b.WriteString("Sei un assistente che classifica le domande degli utenti rispetto a categorie di informazioni del sito dell'azienda sanitaria.\n\n")
	b.WriteString("Elenco delle categorie (stores) disponibili:\n")
	for _, d := range catalog {
		fmt.Fprintf(&b, "- %s: %s\n", d.ID, d.Description)
	}
	fmt.Fprintf(&b, "\nDomanda dell'utente: %q\n\n", query)
	b.WriteString("Indica quali categorie sono rilevanti per rispondere alla domanda (puoi sceglierne una o più).\n")
	b.WriteString(`Rispondi SOLO con un JSON valido con chiavi: "stores" (array di id, es. ["hours", "locations"]) e "reason" (breve motivazione in italiano).`)
	return b.String()
}
