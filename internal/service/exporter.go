package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vanshika/geosocial/backend/internal/domain"
)

// GraphWriter is the persistence contract the exporter needs.
type GraphWriter interface {
	UpsertUser(ctx context.Context, user domain.UserRecord) error
	UpsertConnection(ctx context.Context, link domain.Link, weight int) error
	Clear(ctx context.Context) error
}

// GraphExporter pushes a sampled subgraph into the graph database using a worker pool.
type GraphExporter struct {
	writer GraphWriter
	pool   pool
	logger *slog.Logger
}

// ExportOptions tunes an export run.
type ExportOptions struct {
	// Replace clears previously exported users first.
	Replace bool
}

// NewGraphExporter creates a GraphExporter with the provided concurrency.
func NewGraphExporter(writer GraphWriter, workers int, logger *slog.Logger) *GraphExporter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &GraphExporter{
		writer: writer,
		pool:   newPool(workers),
		logger: logger,
	}
}

// Export writes all nodes, then all links. Links are only written once every
// node succeeded, so relationships never reference half-written users.
// Repeated links are collapsed into one write carrying their count, so no two
// workers merge the same relationship.
func (e *GraphExporter) Export(ctx context.Context, sub domain.Subgraph, opts ExportOptions) error {
	if opts.Replace {
		if err := e.writer.Clear(ctx); err != nil {
			return err
		}
	}

	e.logger.Info("exporting users", "count", len(sub.Nodes), "workers", e.pool.workers)
	if err := e.pool.run(ctx, len(sub.Nodes), func(idx int) error {
		return e.writer.UpsertUser(ctx, sub.Nodes[idx])
	}); err != nil {
		return fmt.Errorf("export users: %w", err)
	}

	links := countLinks(sub.Links)
	e.logger.Info("exporting links", "count", len(links), "raw", len(sub.Links))
	if err := e.pool.run(ctx, len(links), func(idx int) error {
		return e.writer.UpsertConnection(ctx, links[idx].link, links[idx].count)
	}); err != nil {
		return fmt.Errorf("export links: %w", err)
	}
	return nil
}

type linkCount struct {
	link  domain.Link
	count int
}

// countLinks returns each distinct link once, in first-seen order, with the
// number of times it occurs.
func countLinks(links []domain.Link) []linkCount {
	index := make(map[domain.Link]int, len(links))
	out := make([]linkCount, 0, len(links))
	for _, l := range links {
		if i, ok := index[l]; ok {
			out[i].count++
			continue
		}
		index[l] = len(out)
		out = append(out, linkCount{link: l, count: 1})
	}
	return out
}
