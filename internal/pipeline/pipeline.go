// Package pipeline runs the merge, sample and report stages over files in a
// data directory.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/vanshika/geosocial/backend/internal/config"
	"github.com/vanshika/geosocial/backend/internal/csvio"
	"github.com/vanshika/geosocial/backend/internal/density"
	"github.com/vanshika/geosocial/backend/internal/domain"
	"github.com/vanshika/geosocial/backend/internal/export"
	"github.com/vanshika/geosocial/backend/internal/merge"
	"github.com/vanshika/geosocial/backend/internal/sampler"
)

// UserStore persists merged user documents between stages.
type UserStore interface {
	ReplaceCollection(ctx context.Context, coll *domain.UserCollection) error
	LoadCollection(ctx context.Context) (*domain.UserCollection, error)
}

// RunSummary describes one complete pipeline run.
type RunSummary struct {
	RunID             string  `json:"runId"`
	Users             int     `json:"users"`
	Candidates        int     `json:"candidates"`
	Nodes             int     `json:"nodes"`
	Links             int     `json:"links"`
	Attempts          int     `json:"attempts"`
	AverageClustering float64 `json:"averageClustering"`
}

// Pipeline wires the stages together.
type Pipeline struct {
	cfg     config.PipelineConfig
	store   UserStore
	sampler *sampler.Sampler
	logger  *slog.Logger
	runID   string
}

// New constructs a Pipeline. A nil store keeps merged users in the combined
// JSON document only.
func New(cfg config.PipelineConfig, st UserStore, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	runID := uuid.NewString()
	logger = logger.With("runId", runID)

	return &Pipeline{
		cfg:   cfg,
		store: st,
		sampler: sampler.New(sampler.Options{
			SampleSize:  cfg.SampleSize,
			MaxAttempts: cfg.MaxAttempts,
			Seed:        cfg.Seed,
			Logger:      logger,
		}),
		logger: logger,
		runID:  runID,
	}
}

// RunID identifies this pipeline instance in logs and summaries.
func (p *Pipeline) RunID() string {
	return p.runID
}

// Path resolves a file name inside the configured data directory.
func (p *Pipeline) Path(name string) string {
	return filepath.Join(p.cfg.DataDir, name)
}

// Merge reads the check-in and edge CSV files, combines them per user and
// persists the result to the store and the combined JSON document.
func (p *Pipeline) Merge(ctx context.Context) (*domain.UserCollection, error) {
	checkIns, err := csvio.OpenCheckIns(p.Path(p.cfg.CheckInsFile))
	if err != nil {
		return nil, fmt.Errorf("read check-ins: %w", err)
	}
	edges, err := csvio.OpenEdges(p.Path(p.cfg.EdgesFile))
	if err != nil {
		return nil, fmt.Errorf("read edges: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	coll := merge.Merge(checkIns, edges)
	p.logger.Info("merged user records", "checkIns", len(checkIns), "edges", len(edges), "users", coll.Len())

	if p.store != nil {
		if err := p.store.ReplaceCollection(ctx, coll); err != nil {
			return nil, fmt.Errorf("store users: %w", err)
		}
	}
	if err := export.WriteUsers(p.Path(p.cfg.CombinedFile), coll.Records()); err != nil {
		return nil, fmt.Errorf("write combined users: %w", err)
	}
	return coll, nil
}

// Sample loads the merged users, draws a connected subgraph and writes it to
// the sampled JSON document.
func (p *Pipeline) Sample(ctx context.Context) (domain.Subgraph, error) {
	coll, err := p.load(ctx)
	if err != nil {
		return domain.Subgraph{}, err
	}
	return p.sample(ctx, coll)
}

func (p *Pipeline) sample(ctx context.Context, coll *domain.UserCollection) (domain.Subgraph, error) {
	if err := ctx.Err(); err != nil {
		return domain.Subgraph{}, err
	}
	sub, err := p.sampler.Sample(coll)
	if err != nil {
		return domain.Subgraph{}, err
	}
	p.logger.Info("sampled subgraph", "target", p.sampler.SampleSize(), "nodes", len(sub.Nodes), "links", len(sub.Links), "attempts", sub.Attempts)

	if err := export.WriteSubgraph(p.Path(p.cfg.SampledFile), sub); err != nil {
		return domain.Subgraph{}, fmt.Errorf("write sampled users: %w", err)
	}
	return sub, nil
}

// load prefers the store and falls back to the combined JSON document.
func (p *Pipeline) load(ctx context.Context) (*domain.UserCollection, error) {
	if p.store != nil {
		coll, err := p.store.LoadCollection(ctx)
		if err != nil {
			return nil, fmt.Errorf("load users: %w", err)
		}
		if coll.Len() > 0 {
			return coll, nil
		}
	}
	users, err := export.ReadUsers(p.Path(p.cfg.CombinedFile))
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	return domain.NewUserCollection(users), nil
}

// Report reads the sampled subgraph, computes its clustering coefficient and
// writes the visualization payload.
func (p *Pipeline) Report(ctx context.Context) (domain.ClusteringResult, error) {
	sub, err := export.ReadSubgraph(p.Path(p.cfg.SampledFile))
	if err != nil {
		return domain.ClusteringResult{}, fmt.Errorf("read sampled users: %w", err)
	}
	return p.report(ctx, sub)
}

func (p *Pipeline) report(ctx context.Context, sub domain.Subgraph) (domain.ClusteringResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.ClusteringResult{}, err
	}
	result, err := density.Report(sub.Nodes, sub.Links)
	if err != nil {
		return domain.ClusteringResult{}, err
	}
	p.logger.Info("average clustering coefficient",
		"value", result.Average,
		"vertices", result.Vertices,
		"edges", result.Edges,
		"triangles", result.Triangles,
	)

	if err := export.WriteVisualization(p.Path(p.cfg.GraphFile), export.BuildVisualization(sub)); err != nil {
		return domain.ClusteringResult{}, fmt.Errorf("write graph: %w", err)
	}
	return result, nil
}

// Run executes merge, sample and report in sequence.
func (p *Pipeline) Run(ctx context.Context) (RunSummary, error) {
	summary := RunSummary{RunID: p.runID}

	coll, err := p.Merge(ctx)
	if err != nil {
		return summary, err
	}
	summary.Users = coll.Len()
	summary.Candidates = len(sampler.Candidates(coll))

	sub, err := p.sample(ctx, coll)
	if err != nil {
		return summary, err
	}
	summary.Nodes = len(sub.Nodes)
	summary.Links = len(sub.Links)
	summary.Attempts = sub.Attempts

	result, err := p.report(ctx, sub)
	if err != nil {
		return summary, err
	}
	summary.AverageClustering = result.Average
	return summary, nil
}
