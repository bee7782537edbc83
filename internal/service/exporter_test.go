package service

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/geosocial/backend/internal/domain"
	"github.com/vanshika/geosocial/backend/internal/graph"
	"github.com/vanshika/geosocial/backend/internal/repository"
)

func sampleSubgraph() domain.Subgraph {
	return domain.Subgraph{
		Nodes: []domain.UserRecord{
			{UserID: 1, Connections: []int64{2}},
			{UserID: 2, Connections: []int64{3}},
			{UserID: 3, Connections: []int64{1}},
		},
		Links: []domain.Link{{Source: 1, Target: 2}, {Source: 2, Target: 3}, {Source: 3, Target: 1}},
	}
}

func TestGraphExporter_WritesUsersThenLinks(t *testing.T) {
	mem := graph.NewMemoryClient()
	exporter := NewGraphExporter(repository.New(mem), 2, nil)

	require.NoError(t, exporter.Export(context.Background(), sampleSubgraph(), ExportOptions{Replace: true}))

	calls := mem.WriteCalls()
	require.Len(t, calls, 7)

	var users []int64
	for _, c := range calls[1:4] {
		id, ok := c.Params["userId"].(int64)
		require.True(t, ok)
		users = append(users, id)
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
	assert.Equal(t, []int64{1, 2, 3}, users)

	for _, c := range calls[4:] {
		assert.Contains(t, c.Params, "source")
	}
}

func TestGraphExporter_CollapsesRepeatedLinks(t *testing.T) {
	mem := graph.NewMemoryClient()
	sub := domain.Subgraph{
		Nodes: []domain.UserRecord{{UserID: 1, Connections: []int64{2, 2}}, {UserID: 2, Connections: []int64{1}}},
		Links: []domain.Link{{Source: 1, Target: 2}, {Source: 1, Target: 2}, {Source: 2, Target: 1}},
	}

	exporter := NewGraphExporter(repository.New(mem), 4, nil)
	require.NoError(t, exporter.Export(context.Background(), sub, ExportOptions{}))
	require.NoError(t, exporter.Export(context.Background(), sub, ExportOptions{}))

	weights := map[[2]int64][]any{}
	for _, c := range mem.WriteCalls() {
		if _, ok := c.Params["source"]; !ok {
			continue
		}
		key := [2]int64{c.Params["source"].(int64), c.Params["target"].(int64)}
		weights[key] = append(weights[key], c.Params["weight"])
	}
	assert.Equal(t, map[[2]int64][]any{
		{1, 2}: {2, 2},
		{2, 1}: {1, 1},
	}, weights)
}

func TestCountLinks_KeepsFirstSeenOrder(t *testing.T) {
	got := countLinks([]domain.Link{{Source: 3, Target: 1}, {Source: 1, Target: 2}, {Source: 3, Target: 1}})
	assert.Equal(t, []linkCount{
		{link: domain.Link{Source: 3, Target: 1}, count: 2},
		{link: domain.Link{Source: 1, Target: 2}, count: 1},
	}, got)
}

func TestGraphExporter_StopsBeforeLinksOnUserFailure(t *testing.T) {
	boom := errors.New("write rejected")
	mem := graph.NewMemoryClient().FailWhen(func(q graph.ExecutedQuery) error {
		if q.Params["userId"] == int64(2) {
			return boom
		}
		return nil
	})
	exporter := NewGraphExporter(repository.New(mem), 3, nil)

	err := exporter.Export(context.Background(), sampleSubgraph(), ExportOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var taskErr *TaskError
	require.True(t, errors.As(err, &taskErr))
	assert.Len(t, taskErr.Errors, 1)

	for _, c := range mem.WriteCalls() {
		assert.NotContains(t, c.Params, "source")
	}
}

func TestGraphExporter_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exporter := NewGraphExporter(repository.New(graph.NewMemoryClient()), 1, nil)
	err := exporter.Export(ctx, sampleSubgraph(), ExportOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTaskError_Message(t *testing.T) {
	var te TaskError
	assert.Nil(t, te.asError())

	te.append(errors.New("a"))
	assert.Equal(t, "a", te.Error())

	te.append(nil)
	te.append(errors.New("b"))
	assert.Equal(t, "multiple errors: a; b", te.Error())
}
