package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jorge6242/graph-builder-api/pkg/errors"
)

// countingStrategy records how many pairs it was asked to score
type countingStrategy struct {
	calls int
}

func (s *countingStrategy) Name() string { return "counting" }

func (s *countingStrategy) Score(a, b TokenSet) float64 {
	s.calls++
	return NewKeywordJaccardStrategy().Score(a, b)
}

func TestCanonicalLabelPair(t *testing.T) {
	a, b := CanonicalLabelPair("seo", "digital pr")
	assert.Equal(t, "digital pr", a)
	assert.Equal(t, "seo", b)

	a, b = CanonicalLabelPair("ai", "ml")
	assert.Equal(t, "ai", a)
	assert.Equal(t, "ml", b)
}

func TestRelationshipGeneratorGenerate(t *testing.T) {
	tests := []struct {
		name      string
		labels    []string
		threshold float64
		want      []EdgeCandidate
	}{
		{
			name:      "no shared keywords",
			labels:    []string{"ai", "artificial intelligence"},
			threshold: 0.1,
			want:      []EdgeCandidate{},
		},
		{
			name:      "one shared keyword",
			labels:    []string{"digital pr", "pr strategy"},
			threshold: 0.1,
			want:      []EdgeCandidate{{LabelA: "digital pr", LabelB: "pr strategy", Score: 1.0 / 3.0}},
		},
		{
			name:      "labels canonicalized regardless of input order",
			labels:    []string{"pr strategy", "digital pr"},
			threshold: 0.1,
			want:      []EdgeCandidate{{LabelA: "digital pr", LabelB: "pr strategy", Score: 1.0 / 3.0}},
		},
		{
			name:      "threshold is inclusive",
			labels:    []string{"seo", "seo audit"},
			threshold: 0.5,
			want:      []EdgeCandidate{{LabelA: "seo", LabelB: "seo audit", Score: 0.5}},
		},
		{
			name:      "below threshold dropped",
			labels:    []string{"seo", "seo audit"},
			threshold: 0.51,
			want:      []EdgeCandidate{},
		},
		{
			name:      "zero threshold keeps every pair",
			labels:    []string{"a", "b", "c"},
			threshold: 0,
			want: []EdgeCandidate{
				{LabelA: "a", LabelB: "b", Score: 0},
				{LabelA: "a", LabelB: "c", Score: 0},
				{LabelA: "b", LabelB: "c", Score: 0},
			},
		},
		{
			name:      "single label",
			labels:    []string{"seo"},
			threshold: 0.1,
			want:      []EdgeCandidate{},
		},
		{
			name:      "no labels",
			labels:    nil,
			threshold: 0.1,
			want:      []EdgeCandidate{},
		},
	}

	generator := NewRelationshipGenerator(NewDefaultStrategyRegistry())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := generator.Generate(tt.labels, DefaultStrategyName, tt.threshold)
			require.NoError(t, err)
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.Equal(t, tt.want[i].LabelA, got[i].LabelA)
				assert.Equal(t, tt.want[i].LabelB, got[i].LabelB)
				assert.InDelta(t, tt.want[i].Score, got[i].Score, 1e-12)
			}
		})
	}
}

func TestRelationshipGeneratorInvariants(t *testing.T) {
	labels := []string{"digital pr", "pr strategy", "seo", "seo audit", "content marketing", "marketing strategy", "link building"}
	generator := NewRelationshipGenerator(nil)

	candidates, err := generator.Generate(labels, DefaultStrategyName, 0.1)
	require.NoError(t, err)
	require.NotEmpty(t, candidates)

	seen := make(map[string]bool)
	for _, c := range candidates {
		assert.LessOrEqual(t, c.LabelA, c.LabelB)
		assert.GreaterOrEqual(t, c.Score, 0.1)
		assert.LessOrEqual(t, c.Score, 1.0)

		key := c.LabelA + "|" + c.LabelB
		assert.False(t, seen[key], "pair %s emitted twice", key)
		seen[key] = true
	}
}

func TestRelationshipGeneratorUnknownStrategy(t *testing.T) {
	counting := &countingStrategy{}
	registry := NewDefaultStrategyRegistry()
	registry.Register(counting)
	generator := NewRelationshipGenerator(registry)

	_, err := generator.Generate([]string{"a b", "b c", "c d"}, "nope", 0.1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnknownStrategy))
	assert.Equal(t, 0, counting.calls)

	// Single labels still need a valid strategy
	_, err = generator.Generate([]string{"a"}, "nope", 0.1)
	assert.True(t, errors.Is(err, apperrors.ErrUnknownStrategy))

	candidates, err := generator.Generate([]string{"a b", "b c", "c d"}, "counting", 0.1)
	require.NoError(t, err)
	assert.Equal(t, 3, counting.calls)
	assert.Len(t, candidates, 2)
}

func TestRelationshipGeneratorInvalidThreshold(t *testing.T) {
	generator := NewRelationshipGenerator(nil)

	for _, threshold := range []float64{-0.1, 1.5} {
		_, err := generator.Generate([]string{"a", "b"}, DefaultStrategyName, threshold)
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	}
}

func TestRelationshipGeneratorParallelMatchesSequential(t *testing.T) {
	words := []string{"digital", "pr", "seo", "content", "marketing", "strategy", "link", "audit", "brand", "social"}
	labels := make([]string, 0, 300)
	for i := 0; len(labels) < 300; i++ {
		label := fmt.Sprintf("%s %s %d", words[i%len(words)], words[(i*7+3)%len(words)], i%13)
		labels = append(labels, label)
	}
	labels = Deduplicate(labels)

	sequential := NewRelationshipGenerator(nil, WithParallelThreshold(0))
	parallel := NewRelationshipGenerator(nil, WithParallelThreshold(16), WithMaxWorkers(4))

	want, err := sequential.Generate(labels, DefaultStrategyName, 0.2)
	require.NoError(t, err)
	got, err := parallel.Generate(labels, DefaultStrategyName, 0.2)
	require.NoError(t, err)

	assert.NotEmpty(t, want)
	assert.Equal(t, want, got)
}
