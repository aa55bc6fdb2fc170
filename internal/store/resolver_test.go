package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/salusdesk/salus/internal/log"
	"github.com/salusdesk/salus/internal/store"
	"github.com/salusdesk/salus/internal/testutil"
)

func TestResolve_DropsMissingHandlesSilently(t *testing.T) {
	t.Parallel()

	registry := &testutil.FakeRegistry{
		Handles: map[string]store.Handle{
			"general_info": {ID: "general_info", Name: "fileSearchStores/gi"},
			"services":     {ID: "services", Name: "fileSearchStores/sv"},
		},
	}
	r := store.NewResolver(registry, log.NewNop())

	got := r.Resolve(context.Background(), []string{"general_info", "hours", "services"})

	assert.Equal(t, []store.Handle{
		{ID: "general_info", Name: "fileSearchStores/gi"},
		{ID: "services", Name: "fileSearchStores/sv"},
	}, got, "missing handle is dropped, order preserved")
}

func TestResolve_AllMissingYieldsEmptySet(t *testing.T) {
	t.Parallel()

	r := store.NewResolver(&testutil.FakeRegistry{Handles: map[string]store.Handle{}}, log.NewNop())

	got := r.Resolve(context.Background(), []string{"hours"})

	assert.Empty(t, got)
}

func TestResolve_LookupErrorDropsStore(t *testing.T) {
	t.Parallel()

	r := store.NewResolver(&testutil.FakeRegistry{Err: errors.New("provider down")}, log.NewNop())

	got := r.Resolve(context.Background(), []string{"hours", "services"})

	assert.Empty(t, got, "lookup failures degrade, never fail the request")
}
