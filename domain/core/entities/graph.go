package entities

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// MaxGraphNameLength is the longest name a graph may carry
const MaxGraphNameLength = 255

// Graph owns a collection of topics and the edges between them
type Graph struct {
	ID        string    `json:"id"`
	Name      *string   `json:"name,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewGraph creates a graph record with an optional name
func NewGraph(id string, name *string, now time.Time) (*Graph, error) {
	if id == "" {
		return nil, fmt.Errorf("graph id is required")
	}
	if name != nil && utf8.RuneCountInString(*name) > MaxGraphNameLength {
		return nil, fmt.Errorf("graph name exceeds %d characters", MaxGraphNameLength)
	}
	return &Graph{
		ID:        id,
		Name:      name,
		CreatedAt: now,
	}, nil
}

// DisplayName returns the graph name or an empty string when unnamed
func (g *Graph) DisplayName() string {
	if g.Name == nil {
		return ""
	}
	return *g.Name
}
