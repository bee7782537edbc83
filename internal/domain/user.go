package domain

// Location is a single check-in coordinate.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// UserRecord is the merged per-user document. CheckInTimes, Locations and
// LocationIDs are index-aligned, one entry per check-in event.
type UserRecord struct {
	UserID       int64      `json:"user_id"`
	CheckInTimes []string   `json:"check_in_time"`
	Locations    []Location `json:"location"`
	LocationIDs  []int64    `json:"location_id"`
	Connections  []int64    `json:"connections"`
}

// HasID reports whether the record carries a usable identifier. A zero id is
// treated as absent, which is also what a document without user_id decodes to.
func (u UserRecord) HasID() bool {
	return u.UserID != 0
}

// CheckInCount returns the number of check-in events on the record.
func (u UserRecord) CheckInCount() int {
	return len(u.CheckInTimes)
}

// Clone returns a deep copy so callers can rewrite connections freely.
func (u UserRecord) Clone() UserRecord {
	return UserRecord{
		UserID:       u.UserID,
		CheckInTimes: cloneSlice(u.CheckInTimes),
		Locations:    cloneSlice(u.Locations),
		LocationIDs:  cloneSlice(u.LocationIDs),
		Connections:  cloneSlice(u.Connections),
	}
}

// cloneSlice keeps nil as nil and empty as empty so documents encode the same way.
func cloneSlice[T any](src []T) []T {
	if src == nil {
		return nil
	}
	dst := make([]T, len(src))
	copy(dst, src)
	return dst
}

// UserCollection maps user ids to merged records. It is read-only once built;
// accessors hand out copies.
type UserCollection struct {
	records map[int64]UserRecord
	order   []int64
}

// NewUserCollection assembles a collection from records in the given order.
// Later records with a repeated id replace earlier ones but keep the first position.
func NewUserCollection(records []UserRecord) *UserCollection {
	c := &UserCollection{
		records: make(map[int64]UserRecord, len(records)),
		order:   make([]int64, 0, len(records)),
	}
	for _, rec := range records {
		if _, seen := c.records[rec.UserID]; !seen {
			c.order = append(c.order, rec.UserID)
		}
		c.records[rec.UserID] = rec.Clone()
	}
	return c
}

// Len returns the number of records.
func (c *UserCollection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}

// Get returns a copy of the record for id.
func (c *UserCollection) Get(id int64) (UserRecord, bool) {
	if c == nil {
		return UserRecord{}, false
	}
	rec, ok := c.records[id]
	if !ok {
		return UserRecord{}, false
	}
	return rec.Clone(), true
}

// IDs returns user ids in first-seen order.
func (c *UserCollection) IDs() []int64 {
	if c == nil {
		return nil
	}
	return append([]int64(nil), c.order...)
}

// Records returns copies of all records in first-seen order.
func (c *UserCollection) Records() []UserRecord {
	if c == nil {
		return nil
	}
	out := make([]UserRecord, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.records[id].Clone())
	}
	return out
}
