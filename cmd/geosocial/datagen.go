package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vanshika/geosocial/backend/internal/generator"
)

var (
	genUsers            int
	genMaxCheckIns      int
	genMaxDegree        int
	genEdgelessChance   float64
	genReciprocalChance float64
	genSeed             int64
	genOutputDir        string
	genStdout           bool
)

var datagenCmd = &cobra.Command{
	Use:   "datagen",
	Short: "Generate synthetic check-in and edge CSV files",
	Long:  `Write user_total_checkin.csv and user_edges.csv with users clustered around a few cities.`,
	RunE:  runDatagen,
}

func init() {
	rootCmd.AddCommand(datagenCmd)

	def := generator.DefaultConfig()
	datagenCmd.Flags().IntVar(&genUsers, "users", def.NumUsers, "number of users to generate")
	datagenCmd.Flags().IntVar(&genMaxCheckIns, "max-checkins", def.MaxCheckIns, "maximum check-ins per user")
	datagenCmd.Flags().IntVar(&genMaxDegree, "max-degree", def.MaxDegree, "maximum outgoing edges per user")
	datagenCmd.Flags().Float64Var(&genEdgelessChance, "edgeless-chance", def.EdgelessChance, "probability that a user has no outgoing edges")
	datagenCmd.Flags().Float64Var(&genReciprocalChance, "reciprocal-chance", def.ReciprocalChance, "probability that an edge is mirrored")
	datagenCmd.Flags().Int64Var(&genSeed, "seed", def.Seed, "random seed for deterministic generation")
	datagenCmd.Flags().StringVar(&genOutputDir, "output-dir", "", "directory for the CSV files (defaults to the configured data dir)")
	datagenCmd.Flags().BoolVar(&genStdout, "stdout", false, "write the dataset as JSON to stdout instead of files")
}

func runDatagen(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadApp("datagen")
	if err != nil {
		return err
	}

	gen := generator.New(generator.Config{
		NumUsers:         genUsers,
		MaxCheckIns:      genMaxCheckIns,
		MaxDegree:        genMaxDegree,
		EdgelessChance:   clampProbability(genEdgelessChance),
		ReciprocalChance: clampProbability(genReciprocalChance),
		Seed:             genSeed,
	})
	dataset, err := gen.Generate(cmd.Context())
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	if genStdout {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(dataset)
	}

	dir := genOutputDir
	if dir == "" {
		dir = cfg.Pipeline.DataDir
	}
	if err := generator.WriteDataset(dataset, dir); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}
	logger.Info("dataset written", "dir", dir, "checkIns", len(dataset.CheckIns), "edges", len(dataset.Edges))
	return nil
}

func clampProbability(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
