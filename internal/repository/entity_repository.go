package repository

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no entity matches the requested id.
var ErrNotFound = errors.New("entity not found")

// Entity is anything stored in a collection with a stable identifier.
type Entity interface {
	EntityID() string
}

// EntityRepository provides get-all/get-by-id/put/delete over a collection.
type EntityRepository[T Entity] struct {
	col *Collection[T]
}

// NewEntityRepository wraps a collection.
func NewEntityRepository[T Entity](col *Collection[T]) *EntityRepository[T] {
	return &EntityRepository[T]{col: col}
}

// Key returns the backing blob key.
func (r *EntityRepository[T]) Key() string { return r.col.Key() }

// List returns all entities in stored order.
func (r *EntityRepository[T]) List(ctx context.Context) ([]T, error) {
	return r.col.Load(ctx)
}

// Get returns the first entity with id.
func (r *EntityRepository[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	items, err := r.col.Load(ctx)
	if err != nil {
		return zero, err
	}
	for _, item := range items {
		if item.EntityID() == id {
			return item, nil
		}
	}
	return zero, ErrNotFound
}

// Put replaces the entity with the same id or appends it.
func (r *EntityRepository[T]) Put(ctx context.Context, entity T) error {
	return r.col.Update(ctx, func(items []T) ([]T, bool, error) {
		for i := range items {
			if items[i].EntityID() == entity.EntityID() {
				items[i] = entity
				return items, true, nil
			}
		}
		return append(items, entity), true, nil
	})
}

// Delete removes every entity with id.
func (r *EntityRepository[T]) Delete(ctx context.Context, id string) error {
	return r.col.Update(ctx, func(items []T) ([]T, bool, error) {
		kept := items[:0]
		for _, item := range items {
			if item.EntityID() != id {
				kept = append(kept, item)
			}
		}
		if len(kept) == len(items) {
			return nil, false, ErrNotFound
		}
		return kept, true, nil
	})
}

// Replace overwrites the whole collection.
func (r *EntityRepository[T]) Replace(ctx context.Context, items []T) error {
	return r.col.Replace(ctx, items)
}

// Mutate applies fn under the collection lock and writes back when changed.
func (r *EntityRepository[T]) Mutate(ctx context.Context, fn func(items []T) ([]T, bool, error)) error {
	return r.col.Update(ctx, fn)
}
