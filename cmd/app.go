package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/naka-gawa/talentrank/internal/cache"
	"github.com/naka-gawa/talentrank/internal/collector"
	"github.com/naka-gawa/talentrank/internal/config"
	"github.com/naka-gawa/talentrank/internal/gateway"
	"github.com/naka-gawa/talentrank/internal/logger"
	"github.com/naka-gawa/talentrank/internal/metrics"
	"github.com/naka-gawa/talentrank/internal/quota"
	"github.com/naka-gawa/talentrank/internal/store"
	"github.com/naka-gawa/talentrank/internal/usecase"
)

// app holds the process-wide services. It is built once per command run.
type app struct {
	cfg      *config.Config
	logger   logger.Logger
	metrics  *metrics.Manager
	limiter  *quota.Limiter
	store    store.Store
	analyzer *usecase.Analyzer
}

// newApp loads configuration and wires every dependency.
func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.LogLevel = "debug"
	}

	log, err := logger.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	m := metrics.NewManager()

	tier := quota.Unauthenticated
	if cfg.Authenticated() {
		tier = quota.Authenticated
	}
	limiter := quota.New(tier)
	log.Debug(ctx, "quota tier selected", logger.String("tier", tier.String()), logger.Int("ceiling", limiter.Ceiling()))

	gw, err := gateway.NewGitHubGateway(gateway.Options{
		Token:             cfg.GitHubToken,
		BaseURL:           cfg.GitHubBaseURL,
		GraphQLURL:        cfg.GitHubGraphQLURL,
		MaxRepoPages:      cfg.CollectorMaxRepoPages,
		NetworkSize:       cfg.CollectorNetworkSize,
		RequestsPerSecond: cfg.CollectorRequestsPerSecond,
	}, limiter, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub gateway: %w", err)
	}

	col := collector.New(gw, collector.Config{
		Concurrency: cfg.CollectorConcurrency,
		Window:      time.Duration(cfg.CollectorWindowDays) * 24 * time.Hour,
		Retry: collector.RetryConfig{
			MaxAttempts:   cfg.RetryMaxAttempts,
			InitialDelay:  cfg.RetryInitialDelay,
			MaxDelay:      cfg.RetryMaxDelay,
			BackoffFactor: 2,
			JitterEnabled: true,
		},
	}, log, collector.WithMetrics(m))

	st, err := store.Open(ctx, cfg.StoreDriver, cfg.StoreDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.StoreDriver, err)
	}
	c := cache.New(st, cfg.CacheTTL, cache.WithMetrics(m))

	analyzer := usecase.NewAnalyzer(col, c, usecase.Config{
		NationThreshold: cfg.NationThreshold,
		SearchMaxLimit:  cfg.SearchMaxLimit,
	}, log, usecase.WithMetrics(m), usecase.WithQuota(limiter))

	return &app{
		cfg:      cfg,
		logger:   log,
		metrics:  m,
		limiter:  limiter,
		store:    st,
		analyzer: analyzer,
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn(context.Background(), "failed to close store", logger.Error(err))
	}
}

// writeOutput renders v as indented JSON or, for "yaml", as YAML with the same keys.
func writeOutput(w io.Writer, format string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result to JSON: %w", err)
	}
	switch strings.ToLower(format) {
	case "", "json":
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml", "yml":
		// JSON is a subset of YAML, so decoding it into a node keeps key order.
		var node yaml.Node
		if err := yaml.Unmarshal(data, &node); err != nil {
			return fmt.Errorf("failed to convert result to YAML: %w", err)
		}
		blockStyle(&node)
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(&node); err != nil {
			return fmt.Errorf("failed to marshal result to YAML: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q (want json or yaml)", format)
	}
}

func blockStyle(n *yaml.Node) {
	n.Style &^= yaml.FlowStyle | yaml.DoubleQuotedStyle
	for _, c := range n.Content {
		blockStyle(c)
	}
}
