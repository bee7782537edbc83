package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vanshika/geosocial/backend/internal/export"
	"github.com/vanshika/geosocial/backend/internal/repository"
	"github.com/vanshika/geosocial/backend/internal/service"
)

var (
	exportReplace bool
	exportVerify  bool
	exportWorkers int
)

var exportGraphCmd = &cobra.Command{
	Use:   "export-graph",
	Short: "Write the sampled subgraph to Neo4j",
	Long:  `Upsert every sampled user as a :User node and every in-sample connection as a CONNECTS_TO relationship.`,
	RunE:  runExportGraph,
}

func init() {
	rootCmd.AddCommand(exportGraphCmd)

	exportGraphCmd.Flags().BoolVar(&exportReplace, "replace", true, "remove previously exported users first")
	exportGraphCmd.Flags().BoolVar(&exportVerify, "verify", false, "read back each user's neighbours after export")
	exportGraphCmd.Flags().IntVar(&exportWorkers, "workers", 0, "concurrent writers (overrides config)")
}

func runExportGraph(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, logger, err := loadApp("export-graph")
	if err != nil {
		return err
	}

	sampledPath := filepath.Join(cfg.Pipeline.DataDir, cfg.Pipeline.SampledFile)
	sub, err := export.ReadSubgraph(sampledPath)
	if err != nil {
		return fmt.Errorf("read sampled users: %w", err)
	}

	client, err := buildGraphClient(ctx, cfg)
	if err != nil {
		return fmt.Errorf("create graph client: %w", err)
	}
	defer closeGraphClient(logger, client)

	workers := cfg.Pipeline.ExportWorkers
	if exportWorkers > 0 {
		workers = exportWorkers
	}

	repo := repository.New(client)
	exporter := service.NewGraphExporter(repo, workers, logger)
	if err := exporter.Export(ctx, sub, service.ExportOptions{Replace: exportReplace}); err != nil {
		return err
	}
	logger.Info("graph export completed", "users", len(sub.Nodes), "links", len(sub.Links))

	if !exportVerify {
		return nil
	}
	mismatched := 0
	for _, node := range sub.Nodes {
		neighbours, err := repo.FetchNeighbors(ctx, node.UserID)
		if err != nil {
			return err
		}
		if want := distinct(node.Connections); len(neighbours) != want {
			mismatched++
			logger.Warn("neighbour count mismatch", "userId", node.UserID, "want", want, "got", len(neighbours))
		}
	}
	if mismatched > 0 {
		return fmt.Errorf("verify export: %d users differ", mismatched)
	}
	return nil
}

// distinct counts unique ids; repeated connections share one relationship.
func distinct(ids []int64) int {
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	return len(seen)
}
