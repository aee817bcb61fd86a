package services

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jorge6242/graph-builder-api/pkg/errors"
)

func TestKeywordJaccardScore(t *testing.T) {
	strategy := NewKeywordJaccardStrategy()

	tests := []struct {
		name string
		a    TokenSet
		b    TokenSet
		want float64
	}{
		{name: "both empty", a: NewTokenSet(), b: NewTokenSet(), want: 0},
		{name: "one empty", a: NewTokenSet("pr"), b: NewTokenSet(), want: 0},
		{name: "identical", a: NewTokenSet("digital", "pr"), b: NewTokenSet("pr", "digital"), want: 1},
		{name: "disjoint", a: NewTokenSet("ai"), b: NewTokenSet("artificial", "intelligence"), want: 0},
		{name: "one shared of three", a: NewTokenSet("digital", "pr"), b: NewTokenSet("pr", "strategy"), want: 1.0 / 3.0},
		{name: "subset", a: NewTokenSet("seo"), b: NewTokenSet("seo", "audit"), want: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := strategy.Score(tt.a, tt.b)
			assert.InDelta(t, tt.want, got, 1e-12)
			assert.Equal(t, got, strategy.Score(tt.b, tt.a), "score must be symmetric")
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		})
	}
}

type constantStrategy struct {
	name  string
	score float64
}

func (s constantStrategy) Name() string { return s.name }

func (s constantStrategy) Score(_, _ TokenSet) float64 { return s.score }

func TestStrategyRegistry(t *testing.T) {
	t.Run("default registry has keyword_jaccard", func(t *testing.T) {
		registry := NewDefaultStrategyRegistry()

		strategy, err := registry.Get(DefaultStrategyName)
		require.NoError(t, err)
		assert.Equal(t, "keyword_jaccard", strategy.Name())
		assert.Equal(t, []string{"keyword_jaccard"}, registry.Names())
	})

	t.Run("unknown strategy names the value", func(t *testing.T) {
		registry := NewDefaultStrategyRegistry()

		_, err := registry.Get("cosine")
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrUnknownStrategy))
		assert.True(t, apperrors.IsValidation(err))
		assert.Contains(t, err.Error(), "cosine")
	})

	t.Run("register adds strategies by name", func(t *testing.T) {
		registry := NewDefaultStrategyRegistry()
		registry.Register(constantStrategy{name: "always", score: 1})

		strategy, err := registry.Get("always")
		require.NoError(t, err)
		assert.Equal(t, 1.0, strategy.Score(nil, nil))
		assert.Equal(t, []string{"always", "keyword_jaccard"}, registry.Names())
	})

	t.Run("concurrent access", func(t *testing.T) {
		registry := NewStrategyRegistry()

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				registry.Register(NewKeywordJaccardStrategy())
			}()
			go func() {
				defer wg.Done()
				_, _ = registry.Get(DefaultStrategyName)
				_ = registry.Names()
			}()
		}
		wg.Wait()

		_, err := registry.Get(DefaultStrategyName)
		assert.NoError(t, err)
	})
}
