// Package bootstrap wires process-level dependencies for the commands.
package bootstrap

import (
	"fmt"

	"qipu/internal/cache"
	"qipu/internal/config"
	"qipu/internal/database"
	"qipu/internal/middleware"
	"qipu/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedCatalog installs the built-in tag catalog after connecting.
	SeedCatalog bool
}

// InitRuntime connects to the database and Redis and optionally seeds the
// tag catalog. A nil Redis client means the cache is unavailable.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if opts.SeedCatalog {
		if err := seed.ApplyTags(db, seed.DefaultCatalog()); err != nil {
			return nil, nil, fmt.Errorf("failed to seed tag catalog: %w", err)
		}
		middleware.Logger.Info("tag catalog seeded")
	}

	return db, r, nil
}
