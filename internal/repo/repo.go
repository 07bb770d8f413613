// Package repo provides the typed load/save façades over the portal's JSON
// documents. Each collection owns exactly one document; no two repositories
// write the same file. Referential integrity across documents (for example a
// parking occupant pointing at a missing apartment) is deliberately not
// enforced here.
package repo

import (
	"context"

	"github.com/sosedi-hub/sosedi/internal/docstore"
)

// Collection wraps one document with a typed default value and optional
// normalization applied before every persist.
type Collection[T any] struct {
	store     *docstore.Store
	name      string
	defaults  func() T
	normalize func(*T)
}

func newCollection[T any](store *docstore.Store, name string, defaults func() T, normalize func(*T)) *Collection[T] {
	return &Collection[T]{
		store:     store,
		name:      name,
		defaults:  defaults,
		normalize: normalize,
	}
}

// Name reports the underlying document name.
func (c *Collection[T]) Name() string {
	return c.name
}

// Load returns the decoded collection, or its default value when the
// document is absent or unreadable. Storage failures never surface; a shape
// mismatch between file and type does.
func (c *Collection[T]) Load(ctx context.Context) (T, error) {
	value := c.defaults()
	found, err := c.store.Load(ctx, c.name, &value)
	if err != nil {
		return c.defaults(), err
	}
	if found && c.normalize != nil {
		c.normalize(&value)
	}
	return value, nil
}

// Save persists the whole collection value through the atomic write path.
// Load followed by Save is not atomic as a pair; use Update when the
// modification must not race with other writers.
func (c *Collection[T]) Save(ctx context.Context, value T) error {
	if c.normalize != nil {
		c.normalize(&value)
	}
	return c.store.Save(ctx, c.name, value)
}

// Update applies fn to the current value while the document lock is held
// across the whole read-modify-write cycle. fn reports whether its changes
// should be persisted. The resulting value is returned either way.
func (c *Collection[T]) Update(ctx context.Context, fn func(*T) (bool, error)) (T, error) {
	value := c.defaults()
	err := c.store.Update(ctx, c.name, &value, func(found bool) (bool, error) {
		if found && c.normalize != nil {
			c.normalize(&value)
		}
		save, err := fn(&value)
		if err != nil || !save {
			return false, err
		}
		if c.normalize != nil {
			c.normalize(&value)
		}
		return true, nil
	})
	if err != nil {
		return c.defaults(), err
	}
	return value, nil
}
