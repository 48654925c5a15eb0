// Package driver picks the repo.Store backend named in the configuration.
package driver

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/owleyes/internal/config"
	"github.com/hamed0406/owleyes/internal/repo"
	"github.com/hamed0406/owleyes/internal/repo/memory"
	"github.com/hamed0406/owleyes/internal/repo/postgres"
	"github.com/hamed0406/owleyes/internal/repo/sqlite"
)

func Open(ctx context.Context, cfg config.Config, log *zap.Logger) (repo.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		log.Info("using in-memory store")
		return memory.New(), nil

	case config.DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("postgres driver requires DATABASE_URL")
		}
		pg, err := postgres.New(ctx, cfg.DatabaseURL, log)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			return nil, multierr.Append(err, pg.Close())
		}
		log.Info("using postgres store")
		return pg, nil

	case config.DriverSQLite:
		st, err := sqlite.Open(ctx, cfg.SQLitePath, log)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return st, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
