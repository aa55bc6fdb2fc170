// Package store defines the domain types and collaborator contracts of the
// retrieval pipeline: store descriptors, provider-side handles, and the
// external capabilities the pipeline depends on (classification, generation,
// handle lookup).
//
// Everything here is provider-agnostic. The Gemini-backed implementations
// live in internal/gemini; tests use the fakes in internal/testutil.
package store

import "context"

// Descriptor identifies a content store to the classifier: a unique id plus
// a natural-language description used only as classifier input.
type Descriptor struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

// Handle is the live provider-side reference to a materialized store.
// A Descriptor may exist with no Handle yet; that is a valid state, not an
// error (the store simply has not been created in the provider).
type Handle struct {
	// ID is the catalog id this handle is bound to.
	ID string

	// Name is the opaque provider resource name (e.g.
	// "fileSearchStores/abc123"). Never interpreted by the pipeline.
	Name string
}

// Selection is the classifier's answer: which store ids are relevant to a
// query. Reason is free text for logs only; the pipeline never acts on it.
type Selection struct {
	Stores []string `json:"stores"`
	Reason string   `json:"reason,omitempty"`
}

// Chunk is one raw grounding record returned by the generation capability.
// Metadata keys of interest: title, url, document_id, source_type, store.
// Any of them may be absent; absence is unknown, never an error.
type Chunk struct {
	Snippet  string
	Metadata map[string]string
}

// RawResult is the unprocessed outcome of one retrieval-augmented
// generation call: answer text plus the grounding chunks behind it.
type RawResult struct {
	Text   string
	Chunks []Chunk
}

// Classifier is the external structured-classification capability.
// Implementations may fail transiently; callers must treat a failure as
// degradation, not as a fatal error.
type Classifier interface {
	Classify(ctx context.Context, query string, catalog []Descriptor) (Selection, error)
}

// Generator is the external retrieval-augmented generation capability.
// An empty handles slice means plain generation with no retrieval tool.
type Generator interface {
	Generate(ctx context.Context, message string, handles []Handle, systemInstruction string) (RawResult, error)
}

// HandleRegistry resolves catalog ids to live provider handles.
type HandleRegistry interface {
	// Lookup returns the handle for id, or ok=false if the store has not
	// been materialized in the provider yet.
	Lookup(ctx context.Context, id string) (Handle, bool, error)
}
