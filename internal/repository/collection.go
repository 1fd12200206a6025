package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/smart-student-api/pkg/errors"
)

// Collection names within the key space.
const (
	CollectionUsers         = "users"
	CollectionTasks         = "tasks"
	CollectionNotifications = "notifications"
	CollectionComments      = "comments"
	CollectionGenerations   = "generations"
)

// errNotArray marks a blob that is valid JSON but not an array. Reads treat it
// as empty; writes refuse to replace it.
var errNotArray = errors.New("collection blob is not a JSON array")

// CollectionKey builds the blob key for a collection, e.g. smart_student:users.
func CollectionKey(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + ":" + name
}

// Collection is a JSON array stored under one blob key. Writers are
// serialised in-process; separate processes can still overwrite each other.
type Collection[T any] struct {
	store  BlobStore
	key    string
	logger *zap.Logger
	mu     sync.Mutex
}

// NewCollection binds a collection to its key.
func NewCollection[T any](store BlobStore, key string, logger *zap.Logger) *Collection[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collection[T]{store: store, key: key, logger: logger}
}

// Key returns the blob key backing the collection.
func (c *Collection[T]) Key() string { return c.key }

// Load returns every item in stored order. Missing keys yield an empty slice.
// A blob that is not valid JSON is logged and cleared. Elements that cannot
// be decoded are logged and left out.
func (c *Collection[T]) Load(ctx context.Context) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	items, _, err := c.load(ctx)
	if errors.Is(err, errNotArray) {
		return []T{}, nil
	}
	return items, err
}

// Replace overwrites the whole collection.
func (c *Collection[T]) Replace(ctx context.Context, items []T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.save(ctx, items, nil)
}

// Update runs a read-modify-write cycle. fn reports whether it changed
// anything; unchanged collections are not written back. Elements that could
// not be decoded are written back untouched after the updated items.
func (c *Collection[T]) Update(ctx context.Context, fn func(items []T) ([]T, bool, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, undecodable, err := c.load(ctx)
	if err != nil {
		return err
	}
	updated, changed, err := fn(items)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return c.save(ctx, updated, undecodable)
}

func (c *Collection[T]) load(ctx context.Context) ([]T, []json.RawMessage, error) {
	raw, err := c.store.Get(ctx, c.key)
	if err != nil {
		if errors.Is(err, appErrors.ErrBlobMissing) {
			return []T{}, nil, nil
		}
		return nil, nil, err
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []T{}, nil, nil
	}

	if !json.Valid(raw) {
		c.logger.Error("corrupt collection cleared", zap.String("key", c.key))
		if delErr := c.store.Delete(ctx, c.key); delErr != nil {
			return nil, nil, fmt.Errorf("clear corrupt collection %s: %w", c.key, delErr)
		}
		return []T{}, nil, nil
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		c.logger.Error("collection is not an array", zap.String("key", c.key), zap.Error(err))
		return nil, nil, fmt.Errorf("%s: %w", c.key, errNotArray)
	}

	items := make([]T, 0, len(elements))
	var undecodable []json.RawMessage
	for i, element := range elements {
		var item T
		if err := json.Unmarshal(element, &item); err != nil {
			c.logger.Warn("skipping undecodable element", zap.String("key", c.key), zap.Int("index", i), zap.Error(err))
			undecodable = append(undecodable, element)
			continue
		}
		items = append(items, item)
	}
	return items, undecodable, nil
}

func (c *Collection[T]) save(ctx context.Context, items []T, undecodable []json.RawMessage) error {
	elements := make([]json.RawMessage, 0, len(items)+len(undecodable))
	for _, item := range items {
		encoded, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("marshal collection %s: %w", c.key, err)
		}
		elements = append(elements, encoded)
	}
	elements = append(elements, undecodable...)
	payload, err := json.Marshal(elements)
	if err != nil {
		return fmt.Errorf("marshal collection %s: %w", c.key, err)
	}
	return c.store.Put(ctx, c.key, payload)
}
