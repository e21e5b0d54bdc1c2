package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/wiki-recent-changes/pkg/cache"
	"github.com/Sternrassler/wiki-recent-changes/pkg/client"
	"github.com/Sternrassler/wiki-recent-changes/pkg/loader"
	"github.com/Sternrassler/wiki-recent-changes/pkg/logging"
	"github.com/Sternrassler/wiki-recent-changes/pkg/metrics"
	"github.com/Sternrassler/wiki-recent-changes/pkg/pagination"
	"github.com/Sternrassler/wiki-recent-changes/pkg/pipeline"
	"github.com/Sternrassler/wiki-recent-changes/pkg/progress"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "development"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "wikiload",
		Short:        "Load a window of wiki recent changes into DuckDB or SQLite",
		SilenceUsage: true,
		Version:      Version,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := newViper(cmd.Flags())
			if err != nil {
				return err
			}
			cfg, err := loadConfig(v)
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			_, err = run(ctx, cfg)
			return err
		},
	}
	registerFlags(cmd.Flags())
	return cmd
}

// run wires the components for one pass and executes it.
func run(ctx context.Context, cfg config) (*pipeline.Result, error) {
	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: cfg.LogPretty,
		Output: os.Stderr,
	})

	clientCfg := client.DefaultConfig(cfg.UserAgent)
	clientCfg.BaseURL = cfg.APIURL
	clientCfg.Timeout = cfg.Timeout
	clientCfg.Retry.MaxAttempts = cfg.MaxAttempts

	if cfg.RedisURL != "" {
		redisClient, err := connectRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		defer redisClient.Close()
		clientCfg.Cache = cache.NewManager(redisClient, cfg.CacheTTL)
		logger.Info().Str("redis", redisClient.Options().Addr).Dur("ttl", cfg.CacheTTL).Msg("Page cache enabled")
	}

	apiClient, err := client.New(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create api client: %w", err)
	}

	var reporter progress.Reporter = progress.NewLogReporter(logging.NewLogger("progress"))
	if cfg.ProgressBar {
		reporter = progress.NewBarReporter(os.Stderr)
	}
	paginator := pagination.NewPaginator(apiClient, pagination.DefaultConfig()).WithProgress(reporter)

	sink, err := loader.New(loader.Config{Engine: cfg.Engine, Path: cfg.DB})
	if err != nil {
		return nil, err
	}

	result, runErr := pipeline.New(paginator, sink).Run(ctx, pipeline.Config{
		Table:       cfg.Table,
		WindowStart: cfg.Start,
		WindowEnd:   cfg.End,
	})

	if cfg.PushgatewayURL != "" {
		pushMetrics(cfg.PushgatewayURL, logger)
	}

	return result, runErr
}

func connectRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	redisClient := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		redisClient.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
	}
	return redisClient, nil
}

// pushMetrics never fails the run.
func pushMetrics(gatewayURL string, logger zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := metrics.Push(ctx, gatewayURL, metrics.DefaultJob); err != nil {
		logger.Warn().Err(err).Msg("Metrics push failed")
		return
	}
	logger.Debug().Str("gateway", gatewayURL).Msg("Metrics pushed")
}
