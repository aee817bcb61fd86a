package services

import (
	"sort"
	"sync"

	apperrors "github.com/jorge6242/graph-builder-api/pkg/errors"
)

// DefaultStrategyName is the strategy used when a caller does not pick one
const DefaultStrategyName = "keyword_jaccard"

// SimilarityStrategy scores how related two labels are from their token sets.
// Implementations must be pure, symmetric and return a value in [0,1].
type SimilarityStrategy interface {
	// Name is the key the strategy is registered under and stored on edges
	Name() string

	// Score returns the similarity of two token sets in [0,1]
	Score(a, b TokenSet) float64
}

// StrategyRegistry resolves similarity strategies by name
type StrategyRegistry struct {
	mu         sync.RWMutex
	strategies map[string]SimilarityStrategy
}

// NewStrategyRegistry creates an empty registry
func NewStrategyRegistry() *StrategyRegistry {
	return &StrategyRegistry{
		strategies: make(map[string]SimilarityStrategy),
	}
}

// NewDefaultStrategyRegistry creates a registry holding the built-in strategies
func NewDefaultStrategyRegistry() *StrategyRegistry {
	registry := NewStrategyRegistry()
	registry.Register(NewKeywordJaccardStrategy())
	return registry
}

// Register adds or replaces a strategy under its name
func (r *StrategyRegistry) Register(strategy SimilarityStrategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[strategy.Name()] = strategy
}

// Get resolves a strategy, failing with UNKNOWN_STRATEGY for unregistered names
func (r *StrategyRegistry) Get(name string) (SimilarityStrategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	strategy, ok := r.strategies[name]
	if !ok {
		return nil, apperrors.UnknownStrategy(name)
	}
	return strategy, nil
}

// Names lists the registered strategy names in sorted order
func (r *StrategyRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// KeywordJaccardStrategy scores label pairs by the Jaccard index of their keywords
type KeywordJaccardStrategy struct{}

// NewKeywordJaccardStrategy creates the keyword Jaccard strategy
func NewKeywordJaccardStrategy() *KeywordJaccardStrategy {
	return &KeywordJaccardStrategy{}
}

// Name implements SimilarityStrategy
func (s *KeywordJaccardStrategy) Name() string {
	return DefaultStrategyName
}

// Score calculates |A ∩ B| / |A ∪ B|. Two empty sets score 0: contentless
// labels are never considered related.
func (s *KeywordJaccardStrategy) Score(a, b TokenSet) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0.0
	}

	// Iterate over the smaller set
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}

	intersection := 0
	for token := range small {
		if large.Has(token) {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}
