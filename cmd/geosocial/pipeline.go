package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vanshika/geosocial/backend/internal/pipeline"
	"github.com/vanshika/geosocial/backend/internal/store"
)

var sampleSize int

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Combine check-ins and edges into per-user documents",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withPipeline(cmd, "merge", func(p *pipeline.Pipeline, st *store.Store) error {
			ctx := cmd.Context()
			if _, err := p.Merge(ctx); err != nil {
				return err
			}
			total, err := st.Count(ctx)
			if err != nil {
				return err
			}
			connected, err := st.CountWithConnections(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored %d users, %d with connections\n", total, connected)
			return nil
		})
	},
}

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Draw a connected subgraph from the merged users",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withPipeline(cmd, "sample", func(p *pipeline.Pipeline, _ *store.Store) error {
			_, err := p.Sample(cmd.Context())
			return err
		})
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the average clustering coefficient of the sampled subgraph",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withPipeline(cmd, "report", func(p *pipeline.Pipeline, _ *store.Store) error {
			result, err := p.Report(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Average clustering coefficient: %v\n", result.Average)
			return nil
		})
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Merge, sample and report in one go",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withPipeline(cmd, "run", func(p *pipeline.Pipeline, _ *store.Store) error {
			summary, err := p.Run(cmd.Context())
			if err != nil {
				return err
			}
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(summary)
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{mergeCmd, sampleCmd, reportCmd, runCmd} {
		rootCmd.AddCommand(c)
	}
	for _, c := range []*cobra.Command{sampleCmd, runCmd} {
		c.Flags().IntVar(&sampleSize, "size", 0, "number of users to sample (overrides config)")
	}
}

func withPipeline(cmd *cobra.Command, component string, fn func(*pipeline.Pipeline, *store.Store) error) error {
	cfg, logger, err := loadApp(component)
	if err != nil {
		return err
	}
	if sampleSize > 0 {
		cfg.Pipeline.SampleSize = sampleSize
	}

	st, closeStore, err := openStore(cmd.Context(), logger, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	return fn(pipeline.New(cfg.Pipeline, st, logger), st)
}
