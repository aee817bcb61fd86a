package config

// DomainConfig holds all configurable business rules and constraints
type DomainConfig struct {
	// Graph constraints
	MaxTopicsPerGraph  int
	MinTopicsOnCreate  int
	MinTopicsOnAdd     int
	MaxGraphNameLength int

	// Topic constraints
	MaxLabelLength int

	// Related-topics query
	DefaultRelatedLimit int
	MaxRelatedLimit     int

	// Edge constraints
	MinScore       float64
	MaxScore       float64
	ScorePrecision int // decimal places kept when an edge is persisted

	// Relationship generation
	ParallelPairThreshold int // label count above which pair scoring is sharded
	MaxScoringWorkers     int
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		MaxTopicsPerGraph:  1000,
		MinTopicsOnCreate:  2,
		MinTopicsOnAdd:     1,
		MaxGraphNameLength: 255,

		MaxLabelLength: 80,

		DefaultRelatedLimit: 10,
		MaxRelatedLimit:     50,

		MinScore:       0.0,
		MaxScore:       1.0,
		ScorePrecision: 4,

		ParallelPairThreshold: 256,
		MaxScoringWorkers:     8,
	}
}

// ClampRelatedLimit applies the default and upper bound to a requested limit
func (c *DomainConfig) ClampRelatedLimit(limit int) int {
	if limit <= 0 {
		return c.DefaultRelatedLimit
	}
	if limit > c.MaxRelatedLimit {
		return c.MaxRelatedLimit
	}
	return limit
}
