package services

import (
	"time"
)

// CreateGraphInput is a validated request to build a new graph.
// Strategy and Threshold are required; callers resolve defaults beforehand.
type CreateGraphInput struct {
	Name      *string
	Topics    []string
	Strategy  string
	Threshold float64
}

// AddTopicsInput is a validated request to grow an existing graph
type AddTopicsInput struct {
	Topics    []string
	Strategy  string
	Threshold float64
}

// GraphResult summarizes a graph write
type GraphResult struct {
	GraphID       string  `json:"graphId"`
	TopicsCreated int     `json:"topicsCreated"`
	EdgesCreated  int     `json:"edgesCreated"`
	Strategy      string  `json:"strategy"`
	Threshold     float64 `json:"threshold"`
}

// RelatedTopic is the far end of an edge touching the queried topic
type RelatedTopic struct {
	TopicID string  `json:"topicId"`
	Label   string  `json:"label"`
	Score   float64 `json:"score"`
}

// RelatedTopicsResult is the ordered neighborhood of one topic
type RelatedTopicsResult struct {
	GraphID string         `json:"graphId"`
	TopicID string         `json:"topicId"`
	Label   string         `json:"label"`
	Limit   int            `json:"limit"`
	Related []RelatedTopic `json:"related"`
}

// GraphNode is a topic as rendered in a graph view
type GraphNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// GraphEdge is an edge as rendered in a graph view
type GraphEdge struct {
	ID       string  `json:"id"`
	Source   string  `json:"source"`
	Target   string  `json:"target"`
	Score    float64 `json:"score"`
	Strategy string  `json:"strategy"`
}

// GraphDetail is a full graph with its nodes and edges
type GraphDetail struct {
	ID        string      `json:"id"`
	Name      *string     `json:"name,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
	Nodes     []GraphNode `json:"nodes"`
	Edges     []GraphEdge `json:"edges"`
}
