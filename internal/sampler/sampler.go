// Package sampler selects a fixed-size, well-connected subset of users and
// restricts their connections to the subset.
package sampler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"github.com/vanshika/geosocial/backend/internal/domain"
)

const (
	// DefaultSampleSize is the number of users kept when no size is configured.
	DefaultSampleSize = 100
	// MaxAttempts bounds the number of random resamples after the stratified pass.
	MaxAttempts = 10
)

// ErrInvalidSampleSize is returned for non-positive sample sizes.
var ErrInvalidSampleSize = errors.New("sample size must be positive")

// Options configures a Sampler.
type Options struct {
	SampleSize  int
	MaxAttempts int
	// Seed drives the random resamples. Zero picks a time-based seed.
	Seed   int64
	Logger *slog.Logger
}

// Sampler draws connected subgraphs from a UserCollection.
//
// The first pass is deterministic: candidates sorted by out-degree are walked
// at a fixed stride. If that pass yields fewer links than nodes, up to
// MaxAttempts uniform draws from the 2*size best-connected candidates follow.
// The last draw is returned even if it is still short of links. Every draw
// filters the users' full connection lists, so a retry can keep links that an
// earlier draw would have pruned.
type Sampler struct {
	sampleSize  int
	maxAttempts int
	rand        *rand.Rand
	logger      *slog.Logger
}

// New returns a Sampler, filling unset options with defaults.
func New(opts Options) *Sampler {
	if opts.SampleSize == 0 {
		opts.SampleSize = DefaultSampleSize
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = MaxAttempts
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Sampler{
		sampleSize:  opts.SampleSize,
		maxAttempts: opts.MaxAttempts,
		rand:        rand.New(rand.NewSource(opts.Seed)),
		logger:      opts.Logger,
	}
}

// SampleSize returns the configured number of nodes per sample.
func (s *Sampler) SampleSize() int {
	return s.sampleSize
}

// Sample selects the subgraph. The collection is not modified; returned nodes
// are copies whose connections only reference other returned nodes.
func (s *Sampler) Sample(coll *domain.UserCollection) (domain.Subgraph, error) {
	n := s.sampleSize
	if n <= 0 {
		return domain.Subgraph{}, ErrInvalidSampleSize
	}

	candidates := Candidates(coll)
	if len(candidates) < n {
		return domain.Subgraph{}, fmt.Errorf("%w: %d candidates with connections, %d requested",
			domain.ErrInsufficientData, len(candidates), n)
	}

	nodes, links := Restrict(Stratified(candidates, n))
	attempts := 1

	for retry := 1; len(links) < n && retry <= s.maxAttempts; retry++ {
		s.logger.Info("not enough links, resampling", "attempt", retry, "links", len(links), "target", n)

		picked, err := s.draw(candidates, n)
		if err != nil {
			return domain.Subgraph{}, err
		}
		nodes, links = Restrict(picked)
		attempts++
	}

	s.logger.Debug("sample complete", "nodes", len(nodes), "links", len(links), "attempts", attempts)
	return domain.Subgraph{Nodes: nodes, Links: links, Attempts: attempts}, nil
}

// draw picks n candidates uniformly without replacement from the top 2*n.
func (s *Sampler) draw(candidates []domain.UserRecord, n int) ([]domain.UserRecord, error) {
	pool := candidates[:min(len(candidates), 2*n)]
	if len(pool) < n {
		return nil, fmt.Errorf("%w: resample pool has %d users, %d requested",
			domain.ErrInsufficientData, len(pool), n)
	}
	perm := s.rand.Perm(len(pool))[:n]
	picked := make([]domain.UserRecord, 0, n)
	for _, idx := range perm {
		picked = append(picked, pool[idx])
	}
	return picked, nil
}

// Candidates returns users with a defined id and at least one connection,
// ordered by connection count descending. Ties keep collection order. An id is
// defined only by a check-in: users known solely as edge sources stay in the
// collection but are never sampled.
func Candidates(coll *domain.UserCollection) []domain.UserRecord {
	var out []domain.UserRecord
	for _, rec := range coll.Records() {
		if !rec.HasID() || rec.CheckInCount() == 0 || len(rec.Connections) == 0 {
			continue
		}
		out = append(out, rec)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return len(out[i].Connections) > len(out[j].Connections)
	})
	return out
}

// Stratified walks candidates at indices 0, step, 2*step, ... with
// step = len(candidates)/n and keeps at most n of them. The tail past
// n*step is never visited.
func Stratified(candidates []domain.UserRecord, n int) []domain.UserRecord {
	if n <= 0 || len(candidates) == 0 {
		return nil
	}
	step := len(candidates) / n
	if step < 1 {
		step = 1
	}
	picked := make([]domain.UserRecord, 0, n)
	for i := 0; i < len(candidates) && len(picked) < n; i += step {
		picked = append(picked, candidates[i])
	}
	return picked
}

// Restrict copies nodes, drops connections to users outside the set and
// returns one link per surviving connection in node-then-connection order.
func Restrict(picked []domain.UserRecord) ([]domain.UserRecord, []domain.Link) {
	ids := make(map[int64]struct{}, len(picked))
	for _, rec := range picked {
		ids[rec.UserID] = struct{}{}
	}

	nodes := make([]domain.UserRecord, 0, len(picked))
	links := []domain.Link{}
	for _, rec := range picked {
		node := rec.Clone()
		kept := make([]int64, 0, len(node.Connections))
		for _, target := range node.Connections {
			if _, ok := ids[target]; !ok {
				continue
			}
			kept = append(kept, target)
			links = append(links, domain.Link{Source: node.UserID, Target: target})
		}
		node.Connections = kept
		nodes = append(nodes, node)
	}
	return nodes, links
}
