package entities

import (
	"fmt"
	"time"
)

// Edge is an undirected, scored relationship between two topics of one graph.
// It is stored in a single orientation: SourceTopicID < TargetTopicID.
type Edge struct {
	ID            string    `json:"id"`
	GraphID       string    `json:"graphId"`
	SourceTopicID string    `json:"source"`
	TargetTopicID string    `json:"target"`
	Score         float64   `json:"score"`
	Strategy      string    `json:"strategy"`
	CreatedAt     time.Time `json:"createdAt"`
}

// NewEdge creates an edge record. The endpoints must already be in canonical
// identifier order.
func NewEdge(id, graphID, sourceTopicID, targetTopicID string, score float64, strategy string, now time.Time) (*Edge, error) {
	if id == "" || graphID == "" {
		return nil, fmt.Errorf("edge and graph ids are required")
	}
	if sourceTopicID >= targetTopicID {
		return nil, fmt.Errorf("edge endpoints out of order: %s >= %s", sourceTopicID, targetTopicID)
	}
	if score < 0 || score > 1 {
		return nil, fmt.Errorf("edge score %v outside [0,1]", score)
	}
	if strategy == "" {
		return nil, fmt.Errorf("edge strategy is required")
	}
	return &Edge{
		ID:            id,
		GraphID:       graphID,
		SourceTopicID: sourceTopicID,
		TargetTopicID: targetTopicID,
		Score:         score,
		Strategy:      strategy,
		CreatedAt:     now,
	}, nil
}

// Touches reports whether topicID is one of the edge endpoints
func (e *Edge) Touches(topicID string) bool {
	return e.SourceTopicID == topicID || e.TargetTopicID == topicID
}

// OtherEnd returns the endpoint opposite to topicID
func (e *Edge) OtherEnd(topicID string) string {
	if e.SourceTopicID == topicID {
		return e.TargetTopicID
	}
	return e.SourceTopicID
}
