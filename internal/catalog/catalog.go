// Package catalog maintains the read-mostly view of known content stores:
// a fixed core set frozen at process start plus runtime-registered extras
// persisted in a small SQLite registry.
//
// The chat pipeline only reads the catalog (one snapshot per request);
// mutation happens through the administrative surface.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/salusdesk/salus/internal/log"
	"github.com/salusdesk/salus/internal/store"
)

var (
	// ErrCoreConflict indicates an attempt to register an id that belongs
	// to the immutable core set.
	ErrCoreConflict = errors.New("store id conflicts with core catalog")

	// ErrInvalidDescriptor indicates an empty id or description.
	ErrInvalidDescriptor = errors.New("invalid store descriptor")
)

// Extras is the persistence contract for runtime-registered descriptors.
// *Registry implements it; tests may substitute an in-memory fake.
type Extras interface {
	List(ctx context.Context) ([]store.Descriptor, error)
	Put(ctx context.Context, d store.Descriptor) error
	Delete(ctx context.Context, id string) error
}

// Catalog combines the fixed core descriptors with persisted extras.
type Catalog struct {
	core    []store.Descriptor
	coreIDs map[string]struct{}
	extras  Extras
	logger  log.Logger
}

// New creates a Catalog. The core set must have unique ids and non-empty
// descriptions; it is copied and never modified afterwards.
func New(core []store.Descriptor, extras Extras, logger log.Logger) (*Catalog, error) {
	coreIDs := make(map[string]struct{}, len(core))
	for _, d := range core {
		if strings.TrimSpace(d.ID) == "" || strings.TrimSpace(d.Description) == "" {
			return nil, fmt.Errorf("%w: core entry %q", ErrInvalidDescriptor, d.ID)
		}
		if _, dup := coreIDs[d.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate core id %q", ErrInvalidDescriptor, d.ID)
		}
		coreIDs[d.ID] = struct{}{}
	}

	return &Catalog{
		core:    append([]store.Descriptor(nil), core...),
		coreIDs: coreIDs,
		extras:  extras,
		logger:  logger,
	}, nil
}

// List returns the full catalog snapshot: core entries first in their fixed
// order, then extras in registration order. An extras read failure degrades
// to the core set alone: the pipeline must stay available even if the
// registry file is briefly unreadable.
func (c *Catalog) List(ctx context.Context) []store.Descriptor {
	out := append([]store.Descriptor(nil), c.core...)

	extras, err := c.extras.List(ctx)
	if err != nil {
		c.logger.Warn("listing extra stores failed, serving core catalog only", "error", err)
		return out
	}

	for _, d := range extras {
		if _, isCore := c.coreIDs[d.ID]; isCore {
			// A stale registry row shadowing a core id is ignored;
			// core descriptions are authoritative.
			continue
		}
		out = append(out, d)
	}
	return out
}

// Register adds or updates an extra descriptor. Re-registering the same id
// updates the description idempotently. Core ids cannot be overwritten.
func (c *Catalog) Register(ctx context.Context, id, description string) error {
	id = strings.TrimSpace(id)
	description = strings.TrimSpace(description)
	if id == "" || description == "" {
		return fmt.Errorf("%w: id and description are required", ErrInvalidDescriptor)
	}
	if _, isCore := c.coreIDs[id]; isCore {
		return fmt.Errorf("%w: %q", ErrCoreConflict, id)
	}

	if err := c.extras.Put(ctx, store.Descriptor{ID: id, Description: description}); err != nil {
		return fmt.Errorf("registering store %q: %w", id, err)
	}
	c.logger.Info("store registered", "store", id)
	return nil
}

// Deregister removes an extra descriptor. Core ids cannot be removed;
// deregistering an unknown extra is a no-op.
func (c *Catalog) Deregister(ctx context.Context, id string) error {
	if _, isCore := c.coreIDs[id]; isCore {
		return fmt.Errorf("%w: %q", ErrCoreConflict, id)
	}
	if err := c.extras.Delete(ctx, id); err != nil {
		return fmt.Errorf("deregistering store %q: %w", id, err)
	}
	c.logger.Info("store deregistered", "store", id)
	return nil
}

// IsCore reports whether id belongs to the built-in store set.
func (c *Catalog) IsCore(id string) bool {
	_, ok := c.coreIDs[id]
	return ok
}

// Contains reports whether id is part of the current catalog snapshot.
func (c *Catalog) Contains(ctx context.Context, id string) bool {
	for _, d := range c.List(ctx) {
		if d.ID == id {
			return true
		}
	}
	return false
}
