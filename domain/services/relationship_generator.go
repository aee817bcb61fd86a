package services

import (
	"math"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/jorge6242/graph-builder-api/pkg/errors"
)

// EdgeCandidate is a scored label pair produced before topic identities exist.
// Generated candidates always satisfy LabelA <= LabelB.
type EdgeCandidate struct {
	LabelA string  `json:"labelA" yaml:"labelA"`
	LabelB string  `json:"labelB" yaml:"labelB"`
	Score  float64 `json:"score" yaml:"score"`
}

// CanonicalLabelPair orders two normalized labels lexicographically.
// This is the label-level orientation; identifier orientation happens later,
// once topics have IDs (see CanonicalIdentifierPair).
func CanonicalLabelPair(a, b string) (string, string) {
	if a <= b {
		return a, b
	}
	return b, a
}

const (
	defaultParallelThreshold = 256
	defaultMaxWorkers        = 8
)

// GeneratorOption configures a RelationshipGenerator
type GeneratorOption func(*RelationshipGenerator)

// WithParallelThreshold sets the label count from which pair scoring is sharded
// across workers. Zero or negative disables sharding.
func WithParallelThreshold(n int) GeneratorOption {
	return func(g *RelationshipGenerator) {
		g.parallelThreshold = n
	}
}

// WithMaxWorkers bounds the number of concurrent scoring workers
func WithMaxWorkers(n int) GeneratorOption {
	return func(g *RelationshipGenerator) {
		if n > 0 {
			g.maxWorkers = n
		}
	}
}

// RelationshipGenerator drives a similarity strategy over every unordered pair
// of a label set and keeps the pairs that reach the threshold.
type RelationshipGenerator struct {
	registry          *StrategyRegistry
	parallelThreshold int
	maxWorkers        int
}

// NewRelationshipGenerator creates a generator backed by the given registry
func NewRelationshipGenerator(registry *StrategyRegistry, opts ...GeneratorOption) *RelationshipGenerator {
	if registry == nil {
		registry = NewDefaultStrategyRegistry()
	}

	g := &RelationshipGenerator{
		registry:          registry,
		parallelThreshold: defaultParallelThreshold,
		maxWorkers:        defaultMaxWorkers,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Registry returns the strategy registry the generator dispatches on
func (g *RelationshipGenerator) Registry() *StrategyRegistry {
	return g.registry
}

// Generate scores every pair {i, j}, i < j, of labels with the named strategy
// and returns the pairs whose score is >= threshold, each in canonical label
// order. labels are expected to be unique normalized labels. Candidates come
// back in row-major pair order whether or not scoring ran in parallel.
func (g *RelationshipGenerator) Generate(labels []string, strategyName string, threshold float64) ([]EdgeCandidate, error) {
	// Resolve and validate before any pairwise work
	strategy, err := g.registry.Get(strategyName)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return nil, apperrors.InvalidInput("threshold %v outside [0,1]", threshold)
	}

	n := len(labels)
	if n < 2 {
		return []EdgeCandidate{}, nil
	}

	tokens := make([]TokenSet, n)
	for i, label := range labels {
		tokens[i] = Tokenize(label)
	}

	if g.parallelThreshold <= 0 || n < g.parallelThreshold || g.maxWorkers <= 1 {
		candidates := make([]EdgeCandidate, 0)
		for i := 0; i < n-1; i++ {
			candidates = append(candidates, scoreRow(strategy, labels, tokens, i, threshold)...)
		}
		return candidates, nil
	}

	// Rows are independent; each worker writes only its own slot
	rows := make([][]EdgeCandidate, n-1)
	var group errgroup.Group
	group.SetLimit(g.maxWorkers)
	for i := 0; i < n-1; i++ {
		group.Go(func() error {
			rows[i] = scoreRow(strategy, labels, tokens, i, threshold)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, row := range rows {
		total += len(row)
	}
	candidates := make([]EdgeCandidate, 0, total)
	for _, row := range rows {
		candidates = append(candidates, row...)
	}
	return candidates, nil
}

// scoreRow scores label i against every label j > i
func scoreRow(strategy SimilarityStrategy, labels []string, tokens []TokenSet, i int, threshold float64) []EdgeCandidate {
	var row []EdgeCandidate
	for j := i + 1; j < len(labels); j++ {
		score := strategy.Score(tokens[i], tokens[j])
		if score < threshold {
			continue
		}
		a, b := CanonicalLabelPair(labels[i], labels[j])
		row = append(row, EdgeCandidate{LabelA: a, LabelB: b, Score: score})
	}
	return row
}
