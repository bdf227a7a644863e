package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

var syncURL string

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one feed sync and print the result",
	Long:  "Fetch the XML feed once, ingest new jobs and print the sync result as JSON.",
	RunE:  runSync,
}

func init() {
	syncCmd.Flags().StringVar(&syncURL, "url", "", "feed URL (default: configured XML_FEED_URL)")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger := setupLogger(cfg.Log, debug)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	res, err := newSyncer(cfg, store, rdb, logger).SyncOnce(ctx, syncURL)
	if err != nil {
		return fmt.Errorf("sync: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
