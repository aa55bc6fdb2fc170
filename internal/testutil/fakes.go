// Package testutil provides hand-written fakes for the pipeline's
// collaborator contracts. Fakes over mocks: each records its inputs and
// returns scripted outputs, keeping test intent readable.
package testutil

import (
	"context"

	"github.com/salusdesk/salus/internal/store"
)

// FakeClassifier is a scripted store.Classifier.
type FakeClassifier struct {
	Selection store.Selection
	Err       error

	Calls       int
	LastQuery   string
	LastCatalog []store.Descriptor
}

func (f *FakeClassifier) Classify(_ context.Context, query string, catalog []store.Descriptor) (store.Selection, error) {
	f.Calls++
	f.LastQuery = query
	f.LastCatalog = catalog
	if f.Err != nil {
		return store.Selection{}, f.Err
	}
	return f.Selection, nil
}

// FakeGenerator is a scripted store.Generator. Errs holds per-call errors:
// call n fails with Errs[n] when set, otherwise Result is returned.
type FakeGenerator struct {
	Result store.RawResult
	Errs   []error

	Calls           int
	LastMessage     string
	LastHandles     []store.Handle
	LastInstruction string
}

func (f *FakeGenerator) Generate(_ context.Context, message string, handles []store.Handle, instruction string) (store.RawResult, error) {
	call := f.Calls
	f.Calls++
	f.LastMessage = message
	f.LastHandles = handles
	f.LastInstruction = instruction
	if call < len(f.Errs) && f.Errs[call] != nil {
		return store.RawResult{}, f.Errs[call]
	}
	return f.Result, nil
}

// FakeRegistry is an in-memory store.HandleRegistry.
type FakeRegistry struct {
	Handles map[string]store.Handle
	Err     error
}

func (f *FakeRegistry) Lookup(_ context.Context, id string) (store.Handle, bool, error) {
	if f.Err != nil {
		return store.Handle{}, false, f.Err
	}
	h, ok := f.Handles[id]
	return h, ok, nil
}

// Chunk builds a grounding chunk from a snippet and alternating
// key/value metadata pairs.
func Chunk(snippet string, kv ...string) store.Chunk {
	md := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		md[kv[i]] = kv[i+1]
	}
	return store.Chunk{Snippet: snippet, Metadata: md}
}
