// jobmate-matching-service
//
// Job ingestion and recommendation engine behind the swipe feed.
//   - Pulls the partner XML job feed on a cron schedule (dedup by external id)
//   - Serves the filtered / randomised job catalog
//   - Ranks jobs per user or anonymous session (affinity, recency, geo)
//
// Publishes EVENT_JOBS_SYNCED to Redis after every successful sync when
// REDIS_URL is set.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"jobmate/matching-service/internal/config"
	"jobmate/matching-service/internal/db"
	"jobmate/matching-service/internal/scraper"
	"jobmate/matching-service/internal/storage"
)

const version = "1.0.0"

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:           "matching-service",
	Short:         "Job ingestion and recommendation engine",
	Long:          "matching-service ingests the partner job feed and serves ranked job recommendations.",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	// No subcommand means serve.
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: CONFIG_PATH env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "[matching-service] %v\n", err)
		os.Exit(1)
	}
}

// loadConfig applies --config and loads the layered configuration.
func loadConfig() (*config.Config, error) {
	if cfgPath != "" {
		if err := os.Setenv(config.PathEnvVar, cfgPath); err != nil {
			return nil, err
		}
	}
	return config.Load()
}

func setupLogger(cfg config.LogConfig, dbg bool) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	if dbg {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler).With("service", "matching-service")
}

// openStore connects to Postgres when DATABASE_URL is set, SQLite otherwise,
// and applies the schema.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Store, error) {
	if !cfg.UsePostgres() {
		logger.Info("opening SQLite store", "path", cfg.Database.SQLitePath)
		return storage.NewSQLiteStore(ctx, cfg.Database.SQLitePath)
	}

	logger.Info("connecting to PostgreSQL")
	pool, err := db.NewPostgresPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	store := storage.NewPostgresStore(pool)
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("postgres migrate: %w", err)
	}
	logger.Info("PostgreSQL connected")
	return store, nil
}

// openRedis returns nil when Redis is not configured. A connection failure
// is fatal only when the catalog cache depends on Redis.
func openRedis(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*redis.Client, error) {
	if cfg.Redis.URL == "" {
		return nil, nil
	}
	rdb, err := db.NewRedisClient(ctx, cfg.Redis.URL)
	if err != nil {
		if cfg.Catalog.CacheBackend == "redis" {
			return nil, fmt.Errorf("redis: %w", err)
		}
		logger.Warn("redis unavailable, sync events disabled", "err", err)
		return nil, nil
	}
	logger.Info("Redis connected")
	return rdb, nil
}

func newSyncer(cfg *config.Config, store storage.Store, rdb *redis.Client, logger *slog.Logger) *scraper.Syncer {
	syncer := scraper.NewSyncer(scraper.NewFeedFetcher(cfg.Feed.Timeout, logger), store, cfg.Feed.URL, logger)
	if rdb != nil {
		syncer.SetNotifier(scraper.NewRedisSyncNotifier(rdb))
	}
	return syncer
}
