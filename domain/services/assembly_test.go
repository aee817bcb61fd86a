package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jorge6242/graph-builder-api/domain/core/entities"
	apperrors "github.com/jorge6242/graph-builder-api/pkg/errors"
)

func TestCanonicalIdentifierPair(t *testing.T) {
	low := "0b5a1c6e-9f55-4c1e-8a57-3f4d2a9b1c00"
	high := "f3d1e7a2-1b44-4b7c-9c3e-7e2a5d6c8b11"

	a, b := CanonicalIdentifierPair(high, low)
	assert.Equal(t, low, a)
	assert.Equal(t, high, b)

	a, b = CanonicalIdentifierPair(low, high)
	assert.Equal(t, low, a)
	assert.Equal(t, high, b)
}

func TestResolveCandidates(t *testing.T) {
	// Label order and identifier order disagree on purpose
	index := map[string]*entities.Topic{
		"digital pr":  {ID: "ffffffff-0000-4000-8000-000000000001", NormalizedLabel: "digital pr"},
		"pr strategy": {ID: "00000000-0000-4000-8000-000000000002", NormalizedLabel: "pr strategy"},
	}
	candidates := []EdgeCandidate{{LabelA: "digital pr", LabelB: "pr strategy", Score: 1.0 / 3.0}}

	pairs, err := ResolveCandidates(candidates, index)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, "00000000-0000-4000-8000-000000000002", pairs[0].SourceTopicID)
	assert.Equal(t, "ffffffff-0000-4000-8000-000000000001", pairs[0].TargetTopicID)
	assert.Less(t, pairs[0].SourceTopicID, pairs[0].TargetTopicID)
	assert.InDelta(t, 1.0/3.0, pairs[0].Score, 1e-12)
}

func TestResolveCandidatesUnknownLabel(t *testing.T) {
	index := map[string]*entities.Topic{
		"seo": {ID: "00000000-0000-4000-8000-000000000001"},
	}

	_, err := ResolveCandidates([]EdgeCandidate{{LabelA: "missing", LabelB: "seo"}}, index)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvariantViolation))
	assert.True(t, apperrors.IsInternal(err))
}

func TestTouchesAny(t *testing.T) {
	fresh := map[string]struct{}{"seo": {}}

	assert.True(t, TouchesAny(EdgeCandidate{LabelA: "audit", LabelB: "seo"}, fresh))
	assert.True(t, TouchesAny(EdgeCandidate{LabelA: "seo", LabelB: "tools"}, fresh))
	assert.False(t, TouchesAny(EdgeCandidate{LabelA: "audit", LabelB: "tools"}, fresh))
}

func TestRoundScore(t *testing.T) {
	tests := []struct {
		name      string
		score     float64
		precision int
		want      float64
	}{
		{name: "one third", score: 1.0 / 3.0, precision: 4, want: 0.3333},
		{name: "two thirds", score: 2.0 / 3.0, precision: 4, want: 0.6667},
		{name: "exact", score: 0.5, precision: 4, want: 0.5},
		{name: "one", score: 1, precision: 4, want: 1},
		{name: "unrounded", score: 0.123456, precision: -1, want: 0.123456},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, RoundScore(tt.score, tt.precision), 1e-12)
		})
	}
}
