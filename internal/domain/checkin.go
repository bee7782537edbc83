package domain

// CheckInRow is one raw check-in event.
type CheckInRow struct {
	User        int64
	CheckInTime string
	Latitude    float64
	Longitude   float64
	LocationID  int64
}

// EdgeRow is one directed social edge.
type EdgeRow struct {
	UserSource int64
	UserTarget int64
}
