// Package density reports the clustering of a sampled subgraph.
package density

import (
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/vanshika/geosocial/backend/internal/domain"
)

// Build returns the undirected simple graph over the sampled users. Link
// direction is dropped; self-loops and repeated links add nothing.
func Build(nodes []domain.UserRecord, links []domain.Link) *simple.UndirectedGraph {
	g := simple.NewUndirectedGraph()
	for _, n := range nodes {
		if g.Node(n.UserID) == nil {
			g.AddNode(simple.Node(n.UserID))
		}
	}
	for _, l := range links {
		if l.Source == l.Target {
			continue
		}
		g.SetEdge(simple.Edge{F: simple.Node(l.Source), T: simple.Node(l.Target)})
	}
	return g
}

// Report computes the local clustering coefficient of every vertex and
// their mean. Vertices with fewer than two neighbours score zero.
func Report(nodes []domain.UserRecord, links []domain.Link) (domain.ClusteringResult, error) {
	return Analyze(Build(nodes, links))
}

// AverageClustering returns only the mean coefficient.
func AverageClustering(nodes []domain.UserRecord, links []domain.Link) (float64, error) {
	res, err := Report(nodes, links)
	if err != nil {
		return 0, err
	}
	return res.Average, nil
}

// Analyze runs the clustering report over an existing undirected graph.
func Analyze(g graph.Undirected) (domain.ClusteringResult, error) {
	vertices := graph.NodesOf(g.Nodes())
	if len(vertices) == 0 {
		return domain.ClusteringResult{}, domain.ErrEmptyGraph
	}
	sort.Slice(vertices, func(i, j int) bool { return vertices[i].ID() < vertices[j].ID() })

	coefficients := make(map[int64]float64, len(vertices))
	var sum float64
	var closed, degrees int
	for _, u := range vertices {
		neighbours := graph.NodesOf(g.From(u.ID()))
		k := len(neighbours)
		degrees += k

		triangles := 0
		for i := 0; i < k; i++ {
			for j := i + 1; j < k; j++ {
				if g.HasEdgeBetween(neighbours[i].ID(), neighbours[j].ID()) {
					triangles++
				}
			}
		}
		closed += triangles

		var c float64
		if k >= 2 {
			c = float64(triangles) / float64(k*(k-1)/2)
		}
		coefficients[u.ID()] = c
		sum += c
	}

	return domain.ClusteringResult{
		Average:      sum / float64(len(vertices)),
		Coefficients: coefficients,
		Vertices:     len(vertices),
		Edges:        degrees / 2,
		Triangles:    closed / 3,
	}, nil
}
