package generator

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/vanshika/geosocial/backend/internal/domain"
)

// Dataset contains generated check-in and edge rows.
type Dataset struct {
	CheckIns []domain.CheckInRow `json:"checkIns"`
	Edges    []domain.EdgeRow    `json:"edges"`
}

// Generator produces synthetic location-based social network data.
type Generator struct {
	cfg    Config
	rand   *rand.Rand
	cities []city
	start  time.Time
}

type city struct {
	name      string
	latitude  float64
	longitude float64
}

// New returns a configured Generator instance.
func New(cfg Config) *Generator {
	def := DefaultConfig()
	if cfg.NumUsers <= 0 {
		cfg.NumUsers = def.NumUsers
	}
	if cfg.MaxCheckIns <= 0 {
		cfg.MaxCheckIns = def.MaxCheckIns
	}
	if cfg.MaxDegree <= 0 {
		cfg.MaxDegree = def.MaxDegree
	}
	if cfg.EdgelessChance < 0 {
		cfg.EdgelessChance = def.EdgelessChance
	}
	if cfg.ReciprocalChance < 0 {
		cfg.ReciprocalChance = def.ReciprocalChance
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	return &Generator{
		cfg:    cfg,
		rand:   rand.New(rand.NewSource(cfg.Seed)),
		cities: defaultCities(),
		start:  time.Date(2009, time.February, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Generate synthesises check-ins and a directed social graph. It respects
// context cancellation. Users are numbered from 1.
func (g *Generator) Generate(ctx context.Context) (Dataset, error) {
	var ds Dataset
	home := make([]city, g.cfg.NumUsers+1)

	for u := 1; u <= g.cfg.NumUsers; u++ {
		if err := ctx.Err(); err != nil {
			return Dataset{}, err
		}
		home[u] = g.cities[g.rand.Intn(len(g.cities))]
		ds.CheckIns = append(ds.CheckIns, g.checkIns(int64(u), home[u])...)
	}

	seen := make(map[domain.EdgeRow]struct{})
	addEdge := func(from, to int64) {
		e := domain.EdgeRow{UserSource: from, UserTarget: to}
		if from == to {
			return
		}
		if _, ok := seen[e]; ok {
			return
		}
		seen[e] = struct{}{}
		ds.Edges = append(ds.Edges, e)
	}

	for u := 1; u <= g.cfg.NumUsers; u++ {
		if err := ctx.Err(); err != nil {
			return Dataset{}, err
		}
		if g.rand.Float64() < g.cfg.EdgelessChance {
			continue
		}
		for i := 0; i < g.degree(); i++ {
			v := g.friend(u, home)
			addEdge(int64(u), int64(v))
			if g.rand.Float64() < g.cfg.ReciprocalChance {
				addEdge(int64(v), int64(u))
			}
		}
	}

	return ds, nil
}

// degree draws from a truncated Pareto so a few users dominate connection counts.
func (g *Generator) degree() int {
	d := int(math.Floor(1 / math.Pow(1-g.rand.Float64(), 1/1.5)))
	if d > g.cfg.MaxDegree {
		d = g.cfg.MaxDegree
	}
	if d < 1 {
		d = 1
	}
	return d
}

// friend prefers users from the same home city, which yields triangles.
func (g *Generator) friend(u int, home []city) int {
	for tries := 0; tries < 8; tries++ {
		v := 1 + g.rand.Intn(g.cfg.NumUsers)
		if v != u && home[v].name == home[u].name {
			return v
		}
	}
	return 1 + g.rand.Intn(g.cfg.NumUsers)
}

func (g *Generator) checkIns(user int64, c city) []domain.CheckInRow {
	n := 1 + g.rand.Intn(g.cfg.MaxCheckIns)
	rows := make([]domain.CheckInRow, 0, n)
	ts := g.start.Add(time.Duration(g.rand.Intn(500*24)) * time.Hour)
	for i := 0; i < n; i++ {
		ts = ts.Add(time.Duration(g.rand.Intn(72*60)) * time.Minute)
		venue := g.rand.Intn(500)
		rows = append(rows, domain.CheckInRow{
			User:        user,
			CheckInTime: ts.Format(time.RFC3339),
			Latitude:    c.latitude + g.rand.NormFloat64()*0.05,
			Longitude:   c.longitude + g.rand.NormFloat64()*0.05,
			LocationID:  c.locationBase() + int64(venue),
		})
	}
	// Source datasets list a user's check-ins newest first.
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows
}

func (c city) locationBase() int64 {
	var h int64
	for _, r := range c.name {
		h = h*31 + int64(r)
	}
	if h < 0 {
		h = -h
	}
	return (h % 1000) * 1000
}

func defaultCities() []city {
	return []city{
		{name: "Austin", latitude: 30.2672, longitude: -97.7431},
		{name: "San Francisco", latitude: 37.7749, longitude: -122.4194},
		{name: "New York", latitude: 40.7128, longitude: -74.0060},
		{name: "Stockholm", latitude: 59.3293, longitude: 18.0686},
		{name: "Seoul", latitude: 37.5665, longitude: 126.9780},
		{name: "Dallas", latitude: 32.7767, longitude: -96.7970},
	}
}
