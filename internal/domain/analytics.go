package domain

// NodeStats summarises a sampled user for visualization.
type NodeStats struct {
	UserID               int64
	CheckInDurationHours float64
	CheckInFrequency     int
	Degree               int
}

// ClusteringResult is the density report over a sampled subgraph.
type ClusteringResult struct {
	Average      float64
	Coefficients map[int64]float64
	Vertices     int
	Edges        int
	Triangles    int
}
