package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"jobmate/matching-service/internal/catalog"
	"jobmate/matching-service/internal/grpcserver"
	"jobmate/matching-service/internal/httpapi"
	"jobmate/matching-service/internal/recommend"
	"jobmate/matching-service/internal/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP/gRPC servers and the sync scheduler",
	Long:  "Run the HTTP API, the gRPC health service and the feed sync scheduler; blocks until SIGINT/SIGTERM.",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	// ── Config ──────────────────────────────────────────────────────────────
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger := setupLogger(cfg.Log, debug)
	logger.Info("config loaded",
		"feed", cfg.Feed.URL,
		"interval", cfg.Feed.SyncInterval.String(),
		"postgres", cfg.UsePostgres(),
		"cache", cfg.Catalog.CacheBackend,
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Storage ─────────────────────────────────────────────────────────────
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	rdb, err := openRedis(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	}

	// ── Domain ──────────────────────────────────────────────────────────────
	var cache catalog.PoolCache
	if cfg.Catalog.CacheBackend == "redis" {
		cache = catalog.NewRedisPoolCache(rdb, catalog.CacheTTL, logger)
	}
	cat := catalog.New(store, cache, logger,
		catalog.WithBreaker(cfg.Catalog.BreakerFailures, cfg.Catalog.BreakerTimeout))
	engine := recommend.New(store, cat, logger)

	syncer := newSyncer(cfg, store, rdb, logger)
	grpcSrv := grpcserver.New(logger)
	syncer.AddObserver(grpcSrv.ObserveSync)

	sched := scheduler.New(syncer, cfg.Feed.URL, cfg.Feed.SyncInterval, logger)
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}

	// ── Servers ─────────────────────────────────────────────────────────────
	h := httpapi.NewHandler(cat, engine, store, syncer, logger, version)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.HTTPPort,
		Handler:      h.Router(cfg.Server.RateLimit),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 5 * time.Minute, // manual syncs run inline
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("HTTP listening", "addr", srv.Addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	if cfg.Server.GRPCPort != "" {
		lis, err := net.Listen("tcp", ":"+cfg.Server.GRPCPort)
		if err != nil {
			return fmt.Errorf("grpc listen: %w", err)
		}
		go func() {
			if err := grpcSrv.Serve(lis); err != nil {
				errCh <- fmt.Errorf("grpc server: %w", err)
			}
		}()
	}

	// ── Graceful shutdown ───────────────────────────────────────────────────
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err = <-errCh:
		logger.Error("server failed, shutting down", "err", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if serr := srv.Shutdown(shutdownCtx); serr != nil {
		logger.Warn("HTTP shutdown error", "err", serr)
	}
	grpcSrv.Stop()
	stop()
	sched.Stop()

	logger.Info("stopped")
	return err
}
