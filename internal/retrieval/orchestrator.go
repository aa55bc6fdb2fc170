// Package retrieval builds and executes the retrieval-augmented generation
// call for a request.
//
// One call per request spans all resolved store handles, so the provider
// ranks passages across stores jointly, never one call per store, which
// would force ad-hoc score normalization when merging independently-ranked
// results. An empty handle set degrades to plain generation with no
// retrieval tool.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/salusdesk/salus/internal/log"
	"github.com/salusdesk/salus/internal/store"
)

// ErrRetrieval indicates the generation capability failed after the
// permitted retry. There is no safe local fallback for "no answer could be
// generated": the caller must surface a server error, never fabricate a
// partial answer.
var ErrRetrieval = errors.New("retrieval failed")

// defaultRetryDelay is the pause before the single permitted retry.
const defaultRetryDelay = 500 * time.Millisecond

// Orchestrator executes the generation call with bounded time and exactly
// one retry on transient failure.
type Orchestrator struct {
	generator  store.Generator
	timeout    time.Duration
	retryDelay time.Duration
	logger     log.Logger
}

// New creates an Orchestrator. timeout bounds the whole operation,
// including the retry.
func New(generator store.Generator, timeout time.Duration, logger log.Logger) *Orchestrator {
	return &Orchestrator{
		generator:  generator,
		timeout:    timeout,
		retryDelay: defaultRetryDelay,
		logger:     logger,
	}
}

// Answer runs the generation call across all handles and returns the raw
// result. A transient failure is retried once; any remaining failure is
// wrapped in ErrRetrieval.
func (o *Orchestrator) Answer(ctx context.Context, message string, handles []store.Handle, systemInstruction string) (store.RawResult, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	res, err := o.generator.Generate(ctx, message, handles, systemInstruction)
	if err == nil {
		o.logger.Debug("generation succeeded", "attempts", 1, "elapsed", time.Since(start))
		return res, nil
	}

	if !retryableError(err) {
		return store.RawResult{}, fmt.Errorf("%w: %v", ErrRetrieval, err)
	}

	o.logger.Warn("transient generation failure, retrying once", "error", err)
	select {
	case <-ctx.Done():
		return store.RawResult{}, fmt.Errorf("%w: %v", ErrRetrieval, ctx.Err())
	case <-time.After(o.retryDelay):
	}

	res, err = o.generator.Generate(ctx, message, handles, systemInstruction)
	if err != nil {
		return store.RawResult{}, fmt.Errorf("%w after retry: %v", ErrRetrieval, err)
	}
	o.logger.Debug("generation succeeded", "attempts", 2, "elapsed", time.Since(start))
	return res, nil
}
