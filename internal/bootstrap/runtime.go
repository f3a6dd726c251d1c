// Package bootstrap wires the runtime dependencies (database, Redis, demo
// data) for commands that need them outside the HTTP server.
package bootstrap

import (
	"fmt"

	"doneby/internal/cache"
	"doneby/internal/config"
	"doneby/internal/database"
	"doneby/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	SeedDemoVideos bool
}

// InitRuntime connects to DB and Redis and optionally seeds the curated
// demo catalog.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	// May leave a nil client if Redis is unreachable; callers degrade.
	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if opts.SeedDemoVideos {
		if _, err := seed.EnsureDemoVideos(db); err != nil {
			return nil, nil, fmt.Errorf("failed to seed demo catalog: %w", err)
		}
	}

	return db, r, nil
}
