package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vanshika/geosocial/backend/internal/config"
	"github.com/vanshika/geosocial/backend/internal/graph"
	"github.com/vanshika/geosocial/backend/internal/logging"
	"github.com/vanshika/geosocial/backend/internal/store"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "geosocial",
	Short:         "Merge, sample and analyse location-based social network data",
	Long:          `geosocial merges check-in and friendship CSVs into per-user documents, samples a connected subgraph and reports its average clustering coefficient.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (defaults to $"+config.ConfigFileEnv+")")
}

// loadApp reads configuration and builds the logger shared by every command.
func loadApp(component string) (config.Config, *slog.Logger, error) {
	path := configPath
	if path == "" {
		path = os.Getenv(config.ConfigFileEnv)
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logging.New(cfg.Logging).With("component", component), nil
}

func openStore(ctx context.Context, logger *slog.Logger, cfg config.Config) (*store.Store, func(), error) {
	st, err := store.Open(ctx, store.Config{Path: cfg.Store.Path})
	if err != nil {
		return nil, nil, err
	}
	return st, func() {
		if err := st.Close(); err != nil {
			logger.Warn("closing store failed", "error", err)
		}
	}, nil
}

func buildGraphClient(ctx context.Context, cfg config.Config) (graph.Client, error) {
	if cfg.Graph.URI == "" {
		return nil, graph.ErrMissingURI
	}

	opts := graph.Options{
		URI:            cfg.Graph.URI,
		Database:       cfg.Graph.Database,
		Username:       cfg.Graph.Username,
		Password:       cfg.Graph.Password,
		MaxConnections: cfg.Graph.MaxConnections,
	}
	return graph.NewNeo4jClient(ctx, opts)
}

func closeGraphClient(logger *slog.Logger, client graph.Client) {
	if client == nil {
		return
	}
	if err := client.Close(context.Background()); err != nil {
		logger.Warn("closing graph client failed", "error", err)
	}
}
