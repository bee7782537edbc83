package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/vanshika/geosocial/backend/internal/domain"
	"github.com/vanshika/geosocial/backend/internal/export"
	"github.com/vanshika/geosocial/backend/internal/graph"
)

// Repository writes sampled users and their links to the graph database.
type Repository struct {
	client graph.Client
}

// New instantiates a Repository backed by the supplied graph client.
func New(client graph.Client) *Repository {
	return &Repository{client: client}
}

const upsertUserCypher = `
MERGE (u:User {userId: $userId})
SET u += $props
`

const upsertConnectionCypher = `
MERGE (s:User {userId: $source})
MERGE (t:User {userId: $target})
MERGE (s)-[r:CONNECTS_TO]->(t)
SET r.weight = $weight
`

const fetchNeighborsCypher = `
MATCH (:User {userId: $userId})-[:CONNECTS_TO]->(t:User)
RETURN t.userId AS target
ORDER BY target
`

const clearSampleCypher = `
MATCH (u:User)
DETACH DELETE u
`

// UpsertUser ensures a user node exists with the latest check-in summary.
func (r *Repository) UpsertUser(ctx context.Context, user domain.UserRecord) error {
	if !user.HasID() {
		return errors.New("user id is required")
	}

	params := map[string]any{
		"userId": user.UserID,
		"props":  userProperties(user),
	}
	if _, err := r.client.ExecuteWrite(ctx, upsertUserCypher, params); err != nil {
		return fmt.Errorf("upsert user %d: %w", user.UserID, err)
	}
	return nil
}

// UpsertConnection merges a CONNECTS_TO relationship and sets its weight to
// the number of times the link occurs in the sample. Re-exporting the same
// sample leaves the weight unchanged.
func (r *Repository) UpsertConnection(ctx context.Context, link domain.Link, weight int) error {
	if weight < 1 {
		weight = 1
	}
	params := map[string]any{
		"source": link.Source,
		"target": link.Target,
		"weight": weight,
	}
	if _, err := r.client.ExecuteWrite(ctx, upsertConnectionCypher, params); err != nil {
		return fmt.Errorf("upsert connection %d->%d: %w", link.Source, link.Target, err)
	}
	return nil
}

// FetchNeighbors returns the ids a user connects to, ascending.
func (r *Repository) FetchNeighbors(ctx context.Context, userID int64) ([]int64, error) {
	res, err := r.client.ExecuteRead(ctx, fetchNeighborsCypher, map[string]any{"userId": userID})
	if err != nil {
		return nil, fmt.Errorf("fetch neighbors of %d: %w", userID, err)
	}
	out := make([]int64, 0, len(res.Records))
	for _, rec := range res.Records {
		id, ok := rec.Int64("target")
		if !ok {
			return nil, fmt.Errorf("fetch neighbors of %d: unexpected target %T", userID, rec["target"])
		}
		out = append(out, id)
	}
	return out, nil
}

// Clear removes every User node, so a new sample replaces the previous one.
func (r *Repository) Clear(ctx context.Context) error {
	if _, err := r.client.ExecuteWrite(ctx, clearSampleCypher, nil); err != nil {
		return fmt.Errorf("clear users: %w", err)
	}
	return nil
}

func userProperties(user domain.UserRecord) map[string]any {
	stats := export.Stats(user)
	props := map[string]any{
		"checkInCount":    stats.CheckInFrequency,
		"checkInDuration": stats.CheckInDurationHours,
		"connectionCount": stats.Degree,
		"locationIds":     user.LocationIDs,
	}
	if n := len(user.Locations); n > 0 {
		props["latitude"] = user.Locations[n-1].Latitude
		props["longitude"] = user.Locations[n-1].Longitude
	}
	return props
}
