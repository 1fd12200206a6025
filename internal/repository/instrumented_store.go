package repository

import (
	"context"
	"errors"
	"time"

	appErrors "github.com/noah-isme/smart-student-api/pkg/errors"
)

// StoreObserver receives timings for blob store operations.
type StoreObserver interface {
	ObserveStoreOperation(backend, op string, failed bool, duration time.Duration)
}

// InstrumentedStore reports every call on the wrapped store to an observer.
type InstrumentedStore struct {
	inner    BlobStore
	backend  string
	observer StoreObserver
}

// Instrument wraps store. A nil observer returns store unchanged.
func Instrument(store BlobStore, backend string, observer StoreObserver) BlobStore {
	if observer == nil {
		return store
	}
	return &InstrumentedStore{inner: store, backend: backend, observer: observer}
}

func (s *InstrumentedStore) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	raw, err := s.inner.Get(ctx, key)
	// a missing key is a normal outcome, not a failure
	s.observer.ObserveStoreOperation(s.backend, "get", err != nil && !errors.Is(err, appErrors.ErrBlobMissing), time.Since(start))
	return raw, err
}

func (s *InstrumentedStore) Put(ctx context.Context, key string, value []byte) error {
	start := time.Now()
	err := s.inner.Put(ctx, key, value)
	s.observer.ObserveStoreOperation(s.backend, "put", err != nil, time.Since(start))
	return err
}

func (s *InstrumentedStore) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := s.inner.Delete(ctx, key)
	s.observer.ObserveStoreOperation(s.backend, "delete", err != nil, time.Since(start))
	return err
}
