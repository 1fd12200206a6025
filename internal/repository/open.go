package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/smart-student-api/pkg/cache"
	"github.com/noah-isme/smart-student-api/pkg/config"
	"github.com/noah-isme/smart-student-api/pkg/database"
)

// Backend is an opened blob store together with its lifecycle hooks.
type Backend struct {
	Name  string
	Store BlobStore
	// Raw is the uninstrumented store, for backend specific features.
	Raw   BlobStore
	Ping  func(ctx context.Context) error
	Close func() error
}

// KeyLister is implemented by stores that can enumerate their key space.
type KeyLister interface {
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Open connects the blob store selected by cfg.Store.Driver. PostgreSQL
// schemas are migrated when cfg.Database.AutoMigrate is set.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger, observer StoreObserver) (*Backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	noop := func() error { return nil }

	var backend *Backend
	switch cfg.Store.Driver {
	case "", config.StoreMemory:
		backend = &Backend{
			Name:  config.StoreMemory,
			Raw:   NewMemoryStore(),
			Ping:  func(context.Context) error { return nil },
			Close: noop,
		}
	case config.StoreRedis:
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		store := NewRedisStore(client, logger)
		backend = &Backend{
			Name:  config.StoreRedis,
			Raw:   store,
			Ping:  func(ctx context.Context) error { return client.Ping(ctx).Err() },
			Close: store.Close,
		}
	case config.StorePostgres:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		if cfg.Database.AutoMigrate {
			migrator, err := database.NewMigrator(db.DB, cfg.Database.MigrationsDir)
			if err != nil {
				_ = db.Close()
				return nil, err
			}
			if err := migrator.Up(); err != nil {
				_ = db.Close()
				return nil, err
			}
			logger.Info("blob store schema up to date")
		}
		backend = &Backend{
			Name:  config.StorePostgres,
			Raw:   NewPostgresStore(db),
			Ping:  db.PingContext,
			Close: db.Close,
		}
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	backend.Store = Instrument(backend.Raw, backend.Name, observer)
	logger.Info("blob store ready", zap.String("driver", backend.Name), zap.String("prefix", cfg.Store.KeyPrefix))
	return backend, nil
}
