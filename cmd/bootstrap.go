package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"games-dashboard/cache"
	"games-dashboard/config"
	"games-dashboard/models"
	"games-dashboard/observability"
	"games-dashboard/server"
	"games-dashboard/services"
	"games-dashboard/storage"
	"games-dashboard/utils"
)

// openSource returns the Source named by the data section.
func openSource(ctx context.Context, cfg *config.Config, logger *utils.Logger) (storage.Source, error) {
	switch cfg.Data.Source {
	case config.SourceFiles:
		return storage.NewFileSource(cfg.Data.CatalogPath, cfg.Data.MetadataPath, logger), nil
	case config.SourcePostgres, config.SourceSQLite:
		src, err := storage.OpenSQLSource(ctx, cfg.Data.Source, cfg.Data.DSN,
			cfg.Data.CatalogTable, cfg.Data.MetadataTable, cfg.RetryPolicy(logger), logger)
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		return nil, fmt.Errorf("%w: unknown data source %q", models.ErrConfig, cfg.Data.Source)
	}
}

// loadCatalog reads and cleans the catalog once; every view derives from it.
func loadCatalog(ctx context.Context, cfg *config.Config, logger *utils.Logger) (*models.Catalog, error) {
	start := time.Now()

	src, err := openSource(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	tables, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}

	catalog := services.NewCleaner(logger).Clean(tables)

	observability.CatalogRows.Set(float64(catalog.Len()))
	observability.CatalogLoadDuration.Observe(time.Since(start).Seconds())
	logger.Info("[loader] Catalog ready: %d games, version %s (%v)",
		catalog.Len(), catalog.Version, time.Since(start).Round(time.Millisecond))
	return catalog, nil
}

// newMemo builds the configured memo backend. The returned func releases it.
func newMemo(ctx context.Context, cfg *config.Config, logger *utils.Logger) (cache.Memo, func(), error) {
	noop := func() {}

	switch cfg.Cache.Backend {
	case config.CacheNone:
		return cache.Noop{}, noop, nil
	case config.CacheMemory:
		memo, err := cache.NewLRU(cfg.Cache.Size)
		if err != nil {
			return nil, noop, err
		}
		return memo, noop, nil
	case config.CacheRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.Cache.Redis.Address})
		err := cfg.RetryPolicy(logger).Do(ctx, "redis-ping", func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
		if err != nil {
			_ = client.Close()
			return nil, noop, fmt.Errorf("%w: redis %s: %v", models.ErrIO, cfg.Cache.Redis.Address, err)
		}
		logger.Info("[cache] Using redis memo at %s", cfg.Cache.Redis.Address)
		return cache.NewRedis(client, cfg.Cache.Redis.Prefix, cfg.Cache.Redis.TTL), func() { _ = client.Close() }, nil
	default:
		return nil, noop, fmt.Errorf("%w: unknown cache backend %q", models.ErrConfig, cfg.Cache.Backend)
	}
}

// newDashboard loads the catalog and wraps it with the configured memo.
func newDashboard(ctx context.Context, cfg *config.Config, logger *utils.Logger) (*services.Dashboard, func(), error) {
	catalog, err := loadCatalog(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	memo, release, err := newMemo(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	dashboard, err := services.NewDashboard(catalog, memo, cfg.DashboardOptions(), logger)
	if err != nil {
		release()
		return nil, nil, err
	}
	return dashboard, release, nil
}

func serverOptions(cfg *config.Config) server.Options {
	return server.Options{
		Addr:                cfg.Server.Addr,
		PageSize:            cfg.Dashboard.PageSize,
		DefaultPriceLimit:   cfg.Dashboard.DefaultPriceLimit,
		DefaultReviewsLimit: cfg.Dashboard.DefaultReviewsLimit,
		AccessLog:           true,
	}
}
