package main

import (
	"errors"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vanshika/geosocial/backend/internal/graph"
	"github.com/vanshika/geosocial/backend/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the sampled graph, user documents and clustering stats over HTTP",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, logger, err := loadApp("server")
	if err != nil {
		return err
	}

	st, closeStore, err := openStore(ctx, logger, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	health := server.HealthServices{server.StoreHealthService{Store: st}}
	graphClient, err := buildGraphClient(ctx, cfg)
	switch {
	case errors.Is(err, graph.ErrMissingURI):
		logger.Info("graph database not configured, skipping its health probe")
	case err != nil:
		return err
	default:
		defer closeGraphClient(logger, graphClient)
		health = append(health, server.GraphHealthService{Client: graphClient})
	}

	api := server.NewAPIHandlers(logger, st, server.FileSubgraph{
		Path: filepath.Join(cfg.Pipeline.DataDir, cfg.Pipeline.SampledFile),
	})
	router := server.NewRouter(logger, server.RouterDependencies{
		Health:           health,
		API:              api,
		AllowedOrigins:   server.ParseAllowedOrigins(cfg.HTTP.AllowedOriginsCSV),
		AllowCredentials: true,
	})

	return server.New(logger, cfg.HTTP, router).Run(ctx)
}
