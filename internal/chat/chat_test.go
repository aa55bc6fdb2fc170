package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salusdesk/salus/internal/catalog"
	"github.com/salusdesk/salus/internal/grounding"
	"github.com/salusdesk/salus/internal/log"
	"github.com/salusdesk/salus/internal/retrieval"
	"github.com/salusdesk/salus/internal/selector"
	"github.com/salusdesk/salus/internal/store"
	"github.com/salusdesk/salus/internal/testutil"
)

var testCore = []store.Descriptor{
	{ID: "general_info", Description: "informazioni generali sull'azienda sanitaria, numeri utili"},
	{ID: "hours", Description: "orari di ambulatori e punti prelievo"},
}

type pipeline struct {
	orch       *Orchestrator
	classifier *testutil.FakeClassifier
	generator  *testutil.FakeGenerator
	registry   *testutil.FakeRegistry
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()

	logger := log.NewNop()

	reg, err := catalog.OpenRegistry(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = reg.Close() })

	cat, err := catalog.New(testCore, reg, logger)
	require.NoError(t, err)

	classifier := &testutil.FakeClassifier{
		Selection: store.Selection{Stores: []string{"general_info"}},
	}
	generator := &testutil.FakeGenerator{
		Result: store.RawResult{Text: "risposta"},
	}
	handles := &testutil.FakeRegistry{
		Handles: map[string]store.Handle{
			"general_info": {ID: "general_info", Name: "fileSearchStores/gi"},
			"hours":        {ID: "hours", Name: "fileSearchStores/h"},
		},
	}

	sel := selector.New(classifier, "general_info", time.Second, logger)
	res := store.NewResolver(handles, logger)
	ret := retrieval.New(generator, 5*time.Second, logger)
	ext := grounding.NewExtractor(5, logger)

	return &pipeline{
		orch:       New(cat, sel, res, ret, ext, false, logger),
		classifier: classifier,
		generator:  generator,
		registry:   handles,
	}
}

func TestHandle_EmptyMessageRejected(t *testing.T) {
	t.Parallel()

	p := newPipeline(t)

	_, err := p.orch.Handle(context.Background(), Request{Message: "   "})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Zero(t, p.generator.Calls, "validation failures never reach retrieval")
}

func TestHandle_ForcedDomainSkipsSelector(t *testing.T) {
	t.Parallel()

	p := newPipeline(t)

	resp, err := p.orch.Handle(context.Background(), Request{
		Message: "quali sono gli orari?",
		Domain:  "hours",
	})

	require.NoError(t, err)
	assert.Zero(t, p.classifier.Calls, "forced domain must bypass selection")
	assert.Equal(t, []string{"hours"}, resp.StoresUsed)
	require.NotNil(t, resp.Domain)
	assert.Equal(t, "hours", *resp.Domain)
	require.Len(t, p.generator.LastHandles, 1)
	assert.Equal(t, "fileSearchStores/h", p.generator.LastHandles[0].Name)
}

func TestHandle_ForcedDomainWithoutHandle(t *testing.T) {
	t.Parallel()

	p := newPipeline(t)
	delete(p.registry.Handles, "hours")

	resp, err := p.orch.Handle(context.Background(), Request{
		Message: "quali sono gli orari?",
		Domain:  "hours",
	})

	require.NoError(t, err)
	// The forced id is echoed even though nothing resolved; generation ran
	// with no retrieval tool.
	assert.Equal(t, []string{"hours"}, resp.StoresUsed)
	assert.Empty(t, p.generator.LastHandles)
	assert.Empty(t, resp.Sources)
	assert.Empty(t, resp.Links)
	assert.Equal(t, "risposta", resp.Response)
}

func TestHandle_AutoSelectionFlow(t *testing.T) {
	t.Parallel()

	p := newPipeline(t)
	p.classifier.Selection = store.Selection{Stores: []string{"hours", "general_info"}}

	resp, err := p.orch.Handle(context.Background(), Request{Message: "orari e numeri utili"})

	require.NoError(t, err)
	assert.Equal(t, 1, p.classifier.Calls)
	assert.Equal(t, []string{"hours", "general_info"}, resp.StoresUsed)
	assert.Nil(t, resp.Domain)
	assert.Len(t, p.generator.LastHandles, 2)
}

func TestHandle_StoresUsedReflectsResolutionNotSelection(t *testing.T) {
	t.Parallel()

	p := newPipeline(t)
	p.classifier.Selection = store.Selection{Stores: []string{"hours", "general_info"}}
	delete(p.registry.Handles, "hours")

	resp, err := p.orch.Handle(context.Background(), Request{Message: "domanda"})

	require.NoError(t, err)
	assert.Equal(t, []string{"general_info"}, resp.StoresUsed,
		"unresolved selections must not appear in stores_used")
}

func TestHandle_ClassifierFailureFallsBackToDefault(t *testing.T) {
	t.Parallel()

	p := newPipeline(t)
	p.classifier.Err = errors.New("504 deadline exceeded")

	resp, err := p.orch.Handle(context.Background(), Request{Message: "domanda"})

	require.NoError(t, err)
	assert.Equal(t, []string{"general_info"}, resp.StoresUsed)
}

func TestHandle_RetrievalFailureSurfaces(t *testing.T) {
	t.Parallel()

	p := newPipeline(t)
	p.generator.Errs = []error{
		errors.New("timeout"),
		errors.New("timeout"),
	}

	_, err := p.orch.Handle(context.Background(), Request{Message: "domanda"})

	require.Error(t, err)
	assert.ErrorIs(t, err, retrieval.ErrRetrieval)
	assert.Equal(t, 2, p.generator.Calls)
}

func TestHandle_EmergencyNumberScenario(t *testing.T) {
	t.Parallel()

	p := newPipeline(t)
	p.classifier.Selection = store.Selection{Stores: []string{"general_info"}}
	p.generator.Result = store.RawResult{
		Text: "Per le emergenze chiama il 118.",
		Chunks: []store.Chunk{
			testutil.Chunk("118", "title", "Numeri utili"),
		},
	}

	resp, err := p.orch.Handle(context.Background(), Request{
		Message: "Che numero devo chiamare per le emergenze?",
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"general_info"}, resp.StoresUsed)
	// The chunk's only identity is its text hash: cited in sources,
	// unusable as a link.
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "Numeri utili", resp.Sources[0].Title)
	assert.Empty(t, resp.Links)
}

func TestHandle_LanguageNormalization(t *testing.T) {
	t.Parallel()

	t.Run("english refused when not allowed", func(t *testing.T) {
		t.Parallel()

		p := newPipeline(t)
		_, err := p.orch.Handle(context.Background(), Request{Message: "hi", Language: "en"})
		require.NoError(t, err)
		assert.Contains(t, p.generator.LastInstruction, "Rispondi sempre in italiano")
	})

	t.Run("english honored when allowed", func(t *testing.T) {
		t.Parallel()

		p := newPipeline(t)
		p.orch.allowEnglish = true
		_, err := p.orch.Handle(context.Background(), Request{Message: "hi", Language: "en"})
		require.NoError(t, err)
		assert.Contains(t, p.generator.LastInstruction, "Always respond in English")
	})

	t.Run("unknown language clamps to italian", func(t *testing.T) {
		t.Parallel()

		p := newPipeline(t)
		p.orch.allowEnglish = true
		_, err := p.orch.Handle(context.Background(), Request{Message: "hola", Language: "es"})
		require.NoError(t, err)
		assert.Contains(t, p.generator.LastInstruction, "Rispondi sempre in italiano")
	})
}

func TestHandle_ExtraStoreSelectable(t *testing.T) {
	t.Parallel()

	p := newPipeline(t)

	// Simulate an admin-registered extra store with a live handle.
	reg, err := catalog.OpenRegistry(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = reg.Close() })
	cat, err := catalog.New(testCore, reg, log.NewNop())
	require.NoError(t, err)
	require.NoError(t, cat.Register(context.Background(), "docs", "documenti ufficiali"))
	p.orch.catalog = cat

	p.registry.Handles["docs"] = store.Handle{ID: "docs", Name: "fileSearchStores/d"}
	p.classifier.Selection = store.Selection{Stores: []string{"docs"}}

	resp, err := p.orch.Handle(context.Background(), Request{Message: "dove trovo il bando?"})

	require.NoError(t, err)
	assert.Equal(t, []string{"docs"}, resp.StoresUsed)
}
