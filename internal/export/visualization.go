package export

import (
	"math"
	"sort"
	"time"

	"github.com/vanshika/geosocial/backend/internal/domain"
)

// VizNode is a node of the force-directed view.
type VizNode struct {
	ID               int64    `json:"id"`
	Connections      []int64  `json:"connections"`
	CheckInTimes     []string `json:"check_in_time"`
	CheckInDuration  float64  `json:"check_in_duration"`
	CheckInFrequency int      `json:"check_in_frequency"`
}

// VizLink is a directed link sized by its source's degree.
type VizLink struct {
	Source int64 `json:"source"`
	Target int64 `json:"target"`
	Size   int   `json:"size"`
}

// Visualization is the payload consumed by the graph front-end.
type Visualization struct {
	Nodes []VizNode `json:"nodes"`
	Links []VizLink `json:"links"`
}

// BuildVisualization derives per-node check-in statistics and sized links.
func BuildVisualization(sub domain.Subgraph) Visualization {
	viz := Visualization{
		Nodes: make([]VizNode, 0, len(sub.Nodes)),
		Links: make([]VizLink, 0, len(sub.Links)),
	}
	degree := make(map[int64]int, len(sub.Nodes))
	for _, n := range sub.Nodes {
		stats := Stats(n)
		degree[n.UserID] = stats.Degree
		viz.Nodes = append(viz.Nodes, VizNode{
			ID:               n.UserID,
			Connections:      nonNil(n.Connections),
			CheckInTimes:     nonNil(n.CheckInTimes),
			CheckInDuration:  stats.CheckInDurationHours,
			CheckInFrequency: stats.CheckInFrequency,
		})
	}
	for _, l := range sub.Links {
		viz.Links = append(viz.Links, VizLink{Source: l.Source, Target: l.Target, Size: degree[l.Source]})
	}
	return viz
}

// Stats summarises one user's check-in activity. Duration is the span between
// the earliest and latest parseable check-in, in whole minutes, expressed in
// hours and rounded to two decimals.
func Stats(rec domain.UserRecord) domain.NodeStats {
	return domain.NodeStats{
		UserID:               rec.UserID,
		CheckInDurationHours: checkInDurationHours(rec.CheckInTimes),
		CheckInFrequency:     len(rec.CheckInTimes),
		Degree:               len(rec.Connections),
	}
}

func checkInDurationHours(raw []string) float64 {
	times := make([]time.Time, 0, len(raw))
	for _, s := range raw {
		ts, err := time.Parse(time.RFC3339, s)
		if err != nil {
			continue
		}
		times = append(times, ts)
	}
	if len(times) < 2 {
		return 0
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	minutes := math.Floor(times[len(times)-1].Sub(times[0]).Minutes())
	return math.Round(minutes/60*100) / 100
}

// Filter marks nodes that pass either threshold, mirroring the front-end
// sliders, and keeps links whose endpoints both pass.
func Filter(viz Visualization, maxDuration float64, maxFrequency int) Visualization {
	passed := make(map[int64]struct{}, len(viz.Nodes))
	out := Visualization{Nodes: []VizNode{}, Links: []VizLink{}}
	for _, n := range viz.Nodes {
		if n.CheckInDuration <= maxDuration || n.CheckInFrequency <= maxFrequency {
			passed[n.ID] = struct{}{}
			out.Nodes = append(out.Nodes, n)
		}
	}
	for _, l := range viz.Links {
		_, src := passed[l.Source]
		_, dst := passed[l.Target]
		if src && dst {
			out.Links = append(out.Links, l)
		}
	}
	return out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
