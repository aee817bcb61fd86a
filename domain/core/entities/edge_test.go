package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEdge(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		source  string
		target  string
		score   float64
		wantErr bool
	}{
		{name: "ordered endpoints", source: "a", target: "b", score: 0.5},
		{name: "reversed endpoints", source: "b", target: "a", score: 0.5, wantErr: true},
		{name: "self loop", source: "a", target: "a", score: 0.5, wantErr: true},
		{name: "score above one", source: "a", target: "b", score: 1.01, wantErr: true},
		{name: "negative score", source: "a", target: "b", score: -0.1, wantErr: true},
		{name: "zero score", source: "a", target: "b", score: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			edge, err := NewEdge("e1", "g1", tt.source, tt.target, tt.score, "keyword_jaccard", now)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, edge)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.score, edge.Score)
		})
	}
}

func TestEdgeOtherEnd(t *testing.T) {
	edge := &Edge{SourceTopicID: "a", TargetTopicID: "b"}

	assert.Equal(t, "b", edge.OtherEnd("a"))
	assert.Equal(t, "a", edge.OtherEnd("b"))
	assert.True(t, edge.Touches("a"))
	assert.True(t, edge.Touches("b"))
	assert.False(t, edge.Touches("c"))
}

func TestNewTopicLabelLength(t *testing.T) {
	long := make([]rune, MaxLabelLength+1)
	for i := range long {
		long[i] = 'x'
	}

	_, err := NewTopic("t1", "g1", string(long), "x", time.Now())
	assert.Error(t, err)

	topic, err := NewTopic("t1", "g1", "Digital PR", "digital pr", time.Now())
	require.NoError(t, err)
	assert.Equal(t, "digital pr", topic.NormalizedLabel)
}

func TestNewGraphName(t *testing.T) {
	name := "PR Topics Graph"
	graph, err := NewGraph("g1", &name, time.Now())
	require.NoError(t, err)
	assert.Equal(t, name, graph.DisplayName())

	unnamed, err := NewGraph("g2", nil, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "", unnamed.DisplayName())
}
