package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/predictmkt/internal/aggregator"
	"github.com/sawpanic/predictmkt/internal/arbitrage"
	"github.com/sawpanic/predictmkt/internal/cache"
	"github.com/sawpanic/predictmkt/internal/config"
	"github.com/sawpanic/predictmkt/internal/httpapi"
	"github.com/sawpanic/predictmkt/internal/logging"
	"github.com/sawpanic/predictmkt/internal/poller"
	"github.com/sawpanic/predictmkt/internal/venues/venuea"
	"github.com/sawpanic/predictmkt/internal/venues/venueb"
)

const appName = "predictmarket"

func main() {
	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Cross-venue prediction market aggregator",
		Version: "v0.1.0",
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newHealthCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the aggregator HTTP server and venue pollers",
		RunE:  runServe,
	}
}

// newHealthCmd is a one-shot probe, mostly useful for a container
// HEALTHCHECK: it hits a running instance's own /metrics endpoint rather
// than standing up the full stack.
func newHealthCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Probe a running server's /metrics endpoint and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHealthProbe(addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "http://127.0.0.1:8080", "base URL of a running server")
	return cmd
}

func runHealthProbe(addr string) error {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(addr + "/metrics")
	if err != nil {
		return fmt.Errorf("probe failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("probe returned status %d", resp.StatusCode)
	}
	fmt.Println("ok")
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	logging.Init(cfg.LogLevel)
	logger := logging.For("main")

	c := buildCache(logger)
	defer c.Close()

	venueAAdapter := venuea.New(cfg.VenueABaseURL, nil)
	venueBAdapter := venueb.New(cfg.VenueBBaseURL, cfg.VenueBAPIKey, nil)

	arbitrageCfg := arbitrage.Config{
		MinProfitPct:     cfg.Thresholds.MinProfitPct,
		MaxCombinedPrice: cfg.Thresholds.MaxCombinedPrice,
	}
	agg := aggregator.New(c, arbitrageCfg, venueAAdapter, venueBAdapter)

	pollerA := poller.New(venueAAdapter, poller.VenueAInterval, agg, c)
	pollerB := poller.New(venueBAdapter, poller.VenueBInterval, agg, c)
	manager := poller.NewManager(pollerA, pollerB)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	manager.Start(ctx)
	defer manager.Stop()

	httpCfg := httpapi.DefaultConfig(cfg.HTTPHost, cfg.HTTPPort)
	server := httpapi.NewServer(httpCfg, agg, manager)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}

// buildCache wires an optional Redis write-through mirror when
// REDIS_ADDR is set, mirroring the teacher's data/cache.go treatment of
// Redis as an opt-in accelerant rather than a hard dependency.
func buildCache(logger zerolog.Logger) *cache.Cache {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return cache.New()
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	mirror := cache.NewRedisMirror(client, 10*time.Minute)
	logger.Info().Str("redis_addr", addr).Msg("redis mirror enabled")
	return cache.NewWithMirror(mirror)
}
