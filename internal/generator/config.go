package generator

// Config drives the synthetic check-in generator.
type Config struct {
	NumUsers int
	// MaxCheckIns bounds check-ins per user; each user gets 1..MaxCheckIns.
	MaxCheckIns int
	// MaxDegree bounds outgoing edges of the best-connected users.
	MaxDegree int
	// EdgelessChance is the probability that a user has no outgoing edges.
	EdgelessChance float64
	// ReciprocalChance is the probability that an edge is mirrored.
	ReciprocalChance float64
	Seed             int64
}

// DefaultConfig returns settings that produce a dataset comfortably above the
// default sample size.
func DefaultConfig() Config {
	return Config{
		NumUsers:         1000,
		MaxCheckIns:      40,
		MaxDegree:        60,
		EdgelessChance:   0.2,
		ReciprocalChance: 0.6,
		Seed:             42,
	}
}
