package domain

// Link is a directed edge between two users that both belong to a sample.
type Link struct {
	Source int64 `json:"source"`
	Target int64 `json:"target"`
}

// Subgraph is the output of the sampler. Node connections are already
// restricted to ids present in Nodes.
type Subgraph struct {
	Nodes []UserRecord
	Links []Link
	// Attempts counts sampling passes, the stratified pass included.
	Attempts int
}

// NodeIDs returns the ids of the sampled nodes in order.
func (s Subgraph) NodeIDs() []int64 {
	ids := make([]int64, 0, len(s.Nodes))
	for _, n := range s.Nodes {
		ids = append(ids, n.UserID)
	}
	return ids
}
