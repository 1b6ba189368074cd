package commands

import (
	"context"
	"fmt"

	"github.com/filesmanager/backend/internal/cache"
	"github.com/filesmanager/backend/internal/config"
	"github.com/filesmanager/backend/internal/database"
	"github.com/filesmanager/backend/internal/queue"
	"github.com/filesmanager/backend/internal/storage"
	"github.com/filesmanager/backend/internal/store"
	"github.com/filesmanager/backend/internal/store/mongostore"
	"github.com/filesmanager/backend/internal/store/sqlstore"
	"github.com/filesmanager/backend/pkg/logger"
)

// infra holds the connected external services shared by serve and worker.
type infra struct {
	backend store.Backend
	cache   *cache.Cache
	blobs   storage.Blobs
	broker  queue.Broker
}

func openInfra(ctx context.Context, serverCfg *config.Config) (*infra, error) {
	rt := &infra{}

	backend, err := openBackend(ctx, serverCfg.DB)
	if err != nil {
		return nil, err
	}
	rt.backend = backend

	rt.cache = cache.New(serverCfg.Redis)
	if !rt.cache.IsAlive(ctx) {
		logger.Warn("redis_unreachable", map[string]interface{}{"addr": serverCfg.Redis.Addr})
	}

	rt.blobs, err = openBlobs(ctx, serverCfg.Storage)
	if err != nil {
		rt.Close(ctx)
		return nil, err
	}

	switch serverCfg.Queue.Driver {
	case config.QueueDriverMemory:
		rt.broker = queue.NewMemoryBroker(serverCfg.Queue.BufferSize)
	case config.QueueDriverRedis, "":
		rt.broker = queue.NewRedisBroker(rt.cache.Client())
	default:
		rt.Close(ctx)
		return nil, fmt.Errorf("unknown QUEUE_DRIVER %q", serverCfg.Queue.Driver)
	}

	logger.Info("infra_ready", map[string]interface{}{
		"db_driver":      serverCfg.DB.Driver,
		"storage_driver": serverCfg.Storage.Driver,
		"queue_driver":   serverCfg.Queue.Driver,
	})
	return rt, nil
}

func openBackend(ctx context.Context, dbCfg config.DBConfig) (store.Backend, error) {
	switch dbCfg.Driver {
	case config.DBDriverMongo:
		s, err := mongostore.Connect(ctx, dbCfg)
		if err != nil {
			return nil, fmt.Errorf("mongo connection failed: %w", err)
		}
		return s, nil
	case config.DBDriverPostgres, "":
		db, err := database.Connect(dbCfg)
		if err != nil {
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		return sqlstore.New(db), nil
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", dbCfg.Driver)
	}
}

func openBlobs(ctx context.Context, storageCfg config.StorageConfig) (storage.Blobs, error) {
	switch storageCfg.Driver {
	case config.StorageDriverMinIO:
		m, err := storage.NewMinIOStorage(storageCfg.MinIO)
		if err != nil {
			return nil, fmt.Errorf("minio initialization failed: %w", err)
		}
		if err := m.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("failed ensuring minio bucket: %w", err)
		}
		return m, nil
	case config.StorageDriverLocal, "":
		local, err := storage.NewLocalStorage(storageCfg.FolderPath)
		if err != nil {
			return nil, fmt.Errorf("local storage initialization failed: %w", err)
		}
		return local, nil
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", storageCfg.Driver)
	}
}

func (rt *infra) Close(ctx context.Context) {
	if rt.broker != nil {
		_ = rt.broker.Close()
	}
	if rt.cache != nil {
		_ = rt.cache.Close()
	}
	if rt.backend != nil {
		if err := rt.backend.Close(ctx); err != nil {
			logger.Error("backend_close_failed", err, nil)
		}
	}
}
