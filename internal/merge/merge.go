// Package merge folds raw check-in and edge rows into one document per user.
package merge

import "github.com/vanshika/geosocial/backend/internal/domain"

// Builder accumulates rows and produces an immutable UserCollection.
// A Builder is not safe for concurrent use.
type Builder struct {
	records map[int64]*domain.UserRecord
	order   []int64
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{records: make(map[int64]*domain.UserRecord)}
}

func (b *Builder) record(id int64) *domain.UserRecord {
	rec, ok := b.records[id]
	if !ok {
		rec = &domain.UserRecord{
			UserID:       id,
			CheckInTimes: []string{},
			Locations:    []domain.Location{},
			LocationIDs:  []int64{},
			Connections:  []int64{},
		}
		b.records[id] = rec
		b.order = append(b.order, id)
	}
	return rec
}

// AddCheckIn appends one check-in event to the row's user.
func (b *Builder) AddCheckIn(row domain.CheckInRow) {
	rec := b.record(row.User)
	rec.CheckInTimes = append(rec.CheckInTimes, row.CheckInTime)
	rec.Locations = append(rec.Locations, domain.Location{
		Latitude:  row.Latitude,
		Longitude: row.Longitude,
	})
	rec.LocationIDs = append(rec.LocationIDs, row.LocationID)
}

// AddEdge appends the target to the source user's connections. The target
// does not get a record of its own.
func (b *Builder) AddEdge(row domain.EdgeRow) {
	rec := b.record(row.UserSource)
	rec.Connections = append(rec.Connections, row.UserTarget)
}

// Len returns the number of users seen so far.
func (b *Builder) Len() int {
	return len(b.order)
}

// Build returns the merged collection. The Builder may keep receiving rows
// afterwards without affecting collections already built.
func (b *Builder) Build() *domain.UserCollection {
	records := make([]domain.UserRecord, 0, len(b.order))
	for _, id := range b.order {
		records = append(records, *b.records[id])
	}
	return domain.NewUserCollection(records)
}

// Merge is a shorthand that feeds all check-ins and then all edges through a Builder.
func Merge(checkIns []domain.CheckInRow, edges []domain.EdgeRow) *domain.UserCollection {
	b := NewBuilder()
	for _, row := range checkIns {
		b.AddCheckIn(row)
	}
	for _, row := range edges {
		b.AddEdge(row)
	}
	return b.Build()
}
