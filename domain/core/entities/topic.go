package entities

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// MaxLabelLength is the longest label (and normalized label) a topic may carry
const MaxLabelLength = 80

// Topic is a node in a knowledge graph
type Topic struct {
	ID              string    `json:"id"`
	GraphID         string    `json:"graphId"`
	Label           string    `json:"label"`
	NormalizedLabel string    `json:"normalizedLabel"`
	CreatedAt       time.Time `json:"createdAt"`
}

// NewTopic creates a topic. The caller supplies the normalized label so the
// entity stays independent of the normalization rules.
func NewTopic(id, graphID, label, normalizedLabel string, now time.Time) (*Topic, error) {
	if id == "" {
		return nil, fmt.Errorf("topic id is required")
	}
	if graphID == "" {
		return nil, fmt.Errorf("topic graph id is required")
	}
	if utf8.RuneCountInString(label) > MaxLabelLength {
		return nil, fmt.Errorf("topic label exceeds %d characters", MaxLabelLength)
	}
	if utf8.RuneCountInString(normalizedLabel) > MaxLabelLength {
		return nil, fmt.Errorf("normalized label exceeds %d characters", MaxLabelLength)
	}
	return &Topic{
		ID:              id,
		GraphID:         graphID,
		Label:           label,
		NormalizedLabel: normalizedLabel,
		CreatedAt:       now,
	}, nil
}
