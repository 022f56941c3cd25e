package repository

import (
	"context"
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/teenyweeny/urlshortener/internal/config"
	customerrors "github.com/teenyweeny/urlshortener/internal/errors"
)

// OpenDB connects gorm to the SQL database selected by cfg.
func OpenDB(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Store.Driver {
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.Database.Name)
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.Database.DSN)
	default:
		return nil, fmt.Errorf("store driver %q is not an SQL database", cfg.Store.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", customerrors.ErrDatabaseConnection, err)
	}
	return db, nil
}

// Open builds the repository configured in cfg, wrapped in the LRU cache when enabled.
// The returned close function releases the underlying connection.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (LinkRepository, func() error, error) {
	repo, closeFn, err := openBackend(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}

	if cfg.Store.CacheSize > 0 {
		cached, err := NewCachedLinkRepository(repo, cfg.Store.CacheSize, cfg.Store.CacheTTL)
		if err != nil {
			_ = closeFn()
			return nil, nil, err
		}
		repo = cached
	}

	log.Info().
		Str("driver", cfg.Store.Driver).
		Int("cache_size", cfg.Store.CacheSize).
		Dur("cache_ttl", cfg.Store.CacheTTL).
		Msg("link repository ready")
	return repo, closeFn, nil
}

func noopClose() error { return nil }

func openBackend(ctx context.Context, cfg *config.Config, log zerolog.Logger) (LinkRepository, func() error, error) {
	switch cfg.Store.Driver {
	case config.DriverMemory:
		return NewMemoryLinkRepository(), noopClose, nil

	case config.DriverFile:
		repo, err := NewFileLinkRepository(cfg.Store.Path, log)
		if err != nil {
			return nil, nil, err
		}
		return repo, noopClose, nil

	case config.DriverSQLite, config.DriverPostgres:
		db, err := OpenDB(cfg)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get underlying SQL database: %w", err)
		}
		if err := Migrate(db); err != nil {
			sqlDB.Close()
			return nil, nil, err
		}
		return NewLinkRepository(db), sqlDB.Close, nil

	case config.DriverRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, nil, fmt.Errorf("%w: redis %s: %v", customerrors.ErrDatabaseConnection, cfg.Redis.Addr, err)
		}
		return NewRedisLinkRepository(rdb, cfg.Redis.Prefix), rdb.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
