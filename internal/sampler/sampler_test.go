package sampler

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/geosocial/backend/internal/domain"
	"github.com/vanshika/geosocial/backend/internal/merge"
)

func triangleCollection() *domain.UserCollection {
	return merge.Merge(
		[]domain.CheckInRow{
			{User: 1, CheckInTime: "2010-10-19T23:55:27Z"},
			{User: 2, CheckInTime: "2010-10-18T22:17:43Z"},
			{User: 3, CheckInTime: "2010-10-17T23:42:03Z"},
			{User: 1, CheckInTime: "2010-10-17T19:26:05Z"},
			{User: 2, CheckInTime: "2010-10-16T18:50:42Z"},
		},
		[]domain.EdgeRow{
			{UserSource: 1, UserTarget: 2},
			{UserSource: 2, UserTarget: 3},
			{UserSource: 3, UserTarget: 1},
		},
	)
}

// checkedIn returns a user with one check-in and the given connections.
func checkedIn(id int64, connections ...int64) domain.UserRecord {
	return domain.UserRecord{
		UserID:       id,
		CheckInTimes: []string{"2010-10-19T23:55:27Z"},
		Locations:    []domain.Location{{Latitude: 30.2359091167, Longitude: -97.7951395833}},
		LocationIDs:  []int64{22847},
		Connections:  connections,
	}
}

func TestSample_TriangleInOnePass(t *testing.T) {
	s := New(Options{SampleSize: 3, Seed: 1})

	sub, err := s.Sample(triangleCollection())
	require.NoError(t, err)

	assert.Equal(t, 1, sub.Attempts)
	assert.Equal(t, []int64{1, 2, 3}, sub.NodeIDs())
	assert.Equal(t, []domain.Link{{Source: 1, Target: 2}, {Source: 2, Target: 3}, {Source: 3, Target: 1}}, sub.Links)
}

func TestSample_InsufficientCandidates(t *testing.T) {
	coll := merge.Merge(
		[]domain.CheckInRow{{User: 1}, {User: 2}, {User: 3}},
		[]domain.EdgeRow{{UserSource: 1, UserTarget: 2}},
	)
	s := New(Options{SampleSize: 2, Seed: 1})

	sub, err := s.Sample(coll)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInsufficientData))
	assert.Empty(t, sub.Nodes)
	assert.Empty(t, sub.Links)
}

func TestSample_InvalidSize(t *testing.T) {
	_, err := New(Options{SampleSize: -1}).Sample(triangleCollection())
	assert.ErrorIs(t, err, ErrInvalidSampleSize)
}

func TestCandidates_FiltersAndSortsStable(t *testing.T) {
	coll := domain.NewUserCollection([]domain.UserRecord{
		checkedIn(10, 1),
		checkedIn(11),
		checkedIn(12, 1, 2, 3),
		checkedIn(0, 1, 2, 3, 4),
		{UserID: 15, Connections: []int64{1, 2, 3, 4, 5}},
		checkedIn(13, 5),
		checkedIn(14, 1, 2, 3),
	})

	got := Candidates(coll)
	ids := make([]int64, 0, len(got))
	for _, rec := range got {
		ids = append(ids, rec.UserID)
	}
	assert.Equal(t, []int64{12, 14, 10, 13}, ids)
}

func TestSample_EdgeOnlySourcesAreNotCandidates(t *testing.T) {
	coll := merge.Merge(
		[]domain.CheckInRow{
			{User: 1, CheckInTime: "2010-10-19T23:55:27Z"},
			{User: 2, CheckInTime: "2010-10-18T22:17:43Z"},
		},
		[]domain.EdgeRow{
			{UserSource: 1, UserTarget: 2},
			{UserSource: 2, UserTarget: 1},
			{UserSource: 9, UserTarget: 1},
			{UserSource: 9, UserTarget: 2},
		},
	)

	_, retained := coll.Get(9)
	require.True(t, retained, "merge keeps the edge-only source")

	ids := []int64{}
	for _, rec := range Candidates(coll) {
		ids = append(ids, rec.UserID)
	}
	assert.Equal(t, []int64{1, 2}, ids)

	_, err := New(Options{SampleSize: 3, Seed: 1}).Sample(coll)
	assert.ErrorIs(t, err, domain.ErrInsufficientData)
}

func TestStratified_WalksAtStride(t *testing.T) {
	var candidates []domain.UserRecord
	for i := int64(1); i <= 10; i++ {
		candidates = append(candidates, domain.UserRecord{UserID: i})
	}

	picked := Stratified(candidates, 3)
	ids := []int64{}
	for _, rec := range picked {
		ids = append(ids, rec.UserID)
	}
	// step = 10/3 = 3; index 9 is never reached once three are picked.
	assert.Equal(t, []int64{1, 4, 7}, ids)

	assert.Len(t, Stratified(candidates, 10), 10)
	assert.Nil(t, Stratified(candidates, 0))
}

func TestRestrict_DropsOutsideTargetsAndKeepsDuplicates(t *testing.T) {
	picked := []domain.UserRecord{
		{UserID: 1, Connections: []int64{2, 99, 2}},
		{UserID: 2, Connections: []int64{98}},
	}

	nodes, links := Restrict(picked)
	assert.Equal(t, []int64{2, 2}, nodes[0].Connections)
	assert.Empty(t, nodes[1].Connections)
	assert.Equal(t, []domain.Link{{Source: 1, Target: 2}, {Source: 1, Target: 2}}, links)
	assert.Equal(t, []int64{2, 99, 2}, picked[0].Connections, "input untouched")
}

func TestSample_ExhaustedRetriesReturnShortResult(t *testing.T) {
	// Every connection points outside the collection, so no sample can keep a link.
	coll := domain.NewUserCollection([]domain.UserRecord{
		checkedIn(1, 100),
		checkedIn(2, 101),
		checkedIn(3, 102),
		checkedIn(4, 103),
	})
	s := New(Options{SampleSize: 2, Seed: 7})

	sub, err := s.Sample(coll)
	require.NoError(t, err)
	assert.Equal(t, MaxAttempts+1, sub.Attempts)
	assert.Len(t, sub.Nodes, 2)
	assert.Empty(t, sub.Links)
}

func TestSample_DoesNotMutateCollection(t *testing.T) {
	coll := domain.NewUserCollection([]domain.UserRecord{
		checkedIn(1, 2, 50),
		checkedIn(2, 1, 51),
		checkedIn(3, 52),
	})

	_, err := New(Options{SampleSize: 2, Seed: 3}).Sample(coll)
	require.NoError(t, err)

	rec, _ := coll.Get(1)
	assert.Equal(t, []int64{2, 50}, rec.Connections)
}

func TestSample_FirstPassIsDeterministic(t *testing.T) {
	// Everyone follows everyone, so the stratified pass always has enough links.
	var records []domain.UserRecord
	for u := int64(1); u <= 12; u++ {
		var conns []int64
		for v := int64(1); v <= 12; v++ {
			if v != u {
				conns = append(conns, v)
			}
		}
		records = append(records, checkedIn(u, conns...))
	}
	coll := domain.NewUserCollection(records)

	a, errA := New(Options{SampleSize: 5, Seed: 1}).Sample(coll)
	b, errB := New(Options{SampleSize: 5, Seed: 2}).Sample(coll)
	require.NoError(t, errA)
	require.NoError(t, errB)

	require.Equal(t, 1, a.Attempts)
	require.Equal(t, 1, b.Attempts)
	assert.Equal(t, []int64{1, 3, 5, 7, 9}, a.NodeIDs())
	assert.Equal(t, a.NodeIDs(), b.NodeIDs())
	assert.Equal(t, a.Links, b.Links)
	assert.Len(t, a.Links, 20)
}

func TestSample_RetriesDrawFromTopCandidates(t *testing.T) {
	// User i has i connections, all outside the collection, so every pass is
	// short of links and all retries run.
	var records []domain.UserRecord
	for u := int64(1); u <= 20; u++ {
		var conns []int64
		for k := int64(0); k < u; k++ {
			conns = append(conns, 1000+u*100+k)
		}
		records = append(records, checkedIn(u, conns...))
	}
	coll := domain.NewUserCollection(records)

	for seed := int64(1); seed <= 20; seed++ {
		sub, err := New(Options{SampleSize: 3, Seed: seed}).Sample(coll)
		require.NoError(t, err)
		require.Equal(t, MaxAttempts+1, sub.Attempts)
		require.Len(t, sub.Nodes, 3)
		for _, id := range sub.NodeIDs() {
			assert.GreaterOrEqual(t, id, int64(15), "seed %d drew user %d outside the top six", seed, id)
		}
	}
}

func TestSampleProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("sample stays within size and links stay inside the sample", prop.ForAll(
		func(seed int64, users, size int) bool {
			coll := randomCollection(rand.New(rand.NewSource(seed)), users)
			sub, err := New(Options{SampleSize: size, Seed: seed}).Sample(coll)
			if err != nil {
				return errors.Is(err, domain.ErrInsufficientData) && len(Candidates(coll)) < size
			}
			if len(sub.Nodes) > size {
				return false
			}
			ids := make(map[int64]struct{}, len(sub.Nodes))
			for _, n := range sub.Nodes {
				ids[n.UserID] = struct{}{}
			}
			for _, l := range sub.Links {
				if _, ok := ids[l.Source]; !ok {
					return false
				}
				if _, ok := ids[l.Target]; !ok {
					return false
				}
			}
			for _, n := range sub.Nodes {
				for _, c := range n.Connections {
					if _, ok := ids[c]; !ok {
						return false
					}
				}
			}
			return true
		},
		gen.Int64Range(1, 1<<40),
		gen.IntRange(1, 80),
		gen.IntRange(1, 15),
	))

	retried := 0
	properties.Property("resampled nodes come from the top 2*size candidates", prop.ForAll(
		func(seed int64, users, size int) bool {
			coll := randomCollection(rand.New(rand.NewSource(seed)), users)
			sub, err := New(Options{SampleSize: size, Seed: seed}).Sample(coll)
			if err != nil || sub.Attempts == 1 {
				return true
			}
			retried++
			candidates := Candidates(coll)
			top := make(map[int64]struct{})
			for _, rec := range candidates[:min(len(candidates), 2*size)] {
				top[rec.UserID] = struct{}{}
			}
			for _, n := range sub.Nodes {
				if _, ok := top[n.UserID]; !ok {
					return false
				}
			}
			return len(sub.Nodes) == size
		},
		gen.Int64Range(1, 1<<40),
		gen.IntRange(5, 80),
		gen.IntRange(2, 15),
	))

	properties.TestingRun(t)
	assert.Positive(t, retried, "no generated case exercised a resample")
}

// randomCollection builds a sparse directed graph where some users have no
// out-edges and some edges point at unknown ids.
func randomCollection(r *rand.Rand, users int) *domain.UserCollection {
	b := merge.NewBuilder()
	for u := 1; u <= users; u++ {
		b.AddCheckIn(domain.CheckInRow{User: int64(u), CheckInTime: "2010-10-19T23:55:27Z"})
		degree := r.Intn(6)
		for i := 0; i < degree; i++ {
			target := int64(r.Intn(users+10) + 1)
			b.AddEdge(domain.EdgeRow{UserSource: int64(u), UserTarget: target})
		}
	}
	return b.Build()
}
