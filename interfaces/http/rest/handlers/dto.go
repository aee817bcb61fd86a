package handlers

import (
	"time"

	appservices "github.com/jorge6242/graph-builder-api/application/services"
)

// CreateGraphRequest is the body of POST /v1/graphs
// @Description Labels to build a new graph from
type CreateGraphRequest struct {
	// Optional graph name
	Name *string `json:"name,omitempty" validate:"omitempty,max=255" example:"PR Topics Graph" maxLength:"255"`

	// Topic labels; duplicates by case and surrounding space are dropped
	Topics []string `json:"topics" validate:"required,min=2,dive,notblank,max=80" example:"AI,Press Release,SEO,Digital PR" minItems:"2"`

	// Similarity strategy, defaults to keyword_jaccard
	Strategy *string `json:"strategy,omitempty" example:"keyword_jaccard"`

	// Minimum score for an edge, defaults to 0.1
	Threshold *float64 `json:"threshold,omitempty" validate:"omitempty,gte=0,lte=1" example:"0.1" minimum:"0" maximum:"1"`
}

// AddTopicsRequest is the body of POST /v1/graphs/{graphID}/topics
// @Description Labels to add to an existing graph
type AddTopicsRequest struct {
	// Topic labels; labels already in the graph are skipped
	Topics []string `json:"topics" validate:"required,min=1,dive,notblank,max=80" example:"Media Outreach,Backlinks" minItems:"1"`

	// Similarity strategy, defaults to keyword_jaccard
	Strategy *string `json:"strategy,omitempty" example:"keyword_jaccard"`

	// Minimum score for an edge, defaults to 0.1
	Threshold *float64 `json:"threshold,omitempty" validate:"omitempty,gte=0,lte=1" example:"0.1" minimum:"0" maximum:"1"`
}

// GraphStats counts what a write created
type GraphStats struct {
	TopicsCreated int     `json:"topicsCreated" example:"4"`
	EdgesCreated  int     `json:"edgesCreated" example:"2"`
	Strategy      string  `json:"strategy" example:"keyword_jaccard"`
	Threshold     float64 `json:"threshold" example:"0.1"`
}

// GraphResponse is returned by graph writes
type GraphResponse struct {
	GraphID string     `json:"graphId" example:"550e8400-e29b-41d4-a716-446655440000"`
	Stats   GraphStats `json:"stats"`
}

func newGraphResponse(result *appservices.GraphResult) GraphResponse {
	return GraphResponse{
		GraphID: result.GraphID,
		Stats: GraphStats{
			TopicsCreated: result.TopicsCreated,
			EdgesCreated:  result.EdgesCreated,
			Strategy:      result.Strategy,
			Threshold:     result.Threshold,
		},
	}
}

// NodeResponse is a topic
type NodeResponse struct {
	ID    string `json:"id" example:"660e8400-e29b-41d4-a716-446655440001"`
	Label string `json:"label" example:"Digital PR"`
}

// EdgeResponse is an undirected relationship between two topics
type EdgeResponse struct {
	ID       string  `json:"id"`
	Source   string  `json:"source"`
	Target   string  `json:"target"`
	Score    float64 `json:"score" example:"0.3333"`
	Strategy string  `json:"strategy" example:"keyword_jaccard"`
}

// GraphDetailResponse is a graph with all nodes and edges
type GraphDetailResponse struct {
	GraphID   string         `json:"graphId"`
	Name      *string        `json:"name,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	Nodes     []NodeResponse `json:"nodes"`
	Edges     []EdgeResponse `json:"edges"`
}

func newGraphDetailResponse(detail *appservices.GraphDetail) GraphDetailResponse {
	resp := GraphDetailResponse{
		GraphID:   detail.ID,
		Name:      detail.Name,
		CreatedAt: detail.CreatedAt,
		Nodes:     make([]NodeResponse, len(detail.Nodes)),
		Edges:     make([]EdgeResponse, len(detail.Edges)),
	}
	for i, node := range detail.Nodes {
		resp.Nodes[i] = NodeResponse{ID: node.ID, Label: node.Label}
	}
	for i, edge := range detail.Edges {
		resp.Edges[i] = EdgeResponse{
			ID:       edge.ID,
			Source:   edge.Source,
			Target:   edge.Target,
			Score:    edge.Score,
			Strategy: edge.Strategy,
		}
	}
	return resp
}

// RelatedTopicItem is one neighbor of the queried topic
type RelatedTopicItem struct {
	TopicID string  `json:"topicId"`
	Label   string  `json:"label" example:"Media Outreach"`
	Score   float64 `json:"score" example:"0.75"`
}

// RelatedTopicsResponse is the queried topic and its neighbors, best first
type RelatedTopicsResponse struct {
	Topic   NodeResponse       `json:"topic"`
	Related []RelatedTopicItem `json:"related"`
}

func newRelatedTopicsResponse(result *appservices.RelatedTopicsResult) RelatedTopicsResponse {
	resp := RelatedTopicsResponse{
		Topic:   NodeResponse{ID: result.TopicID, Label: result.Label},
		Related: make([]RelatedTopicItem, len(result.Related)),
	}
	for i, related := range result.Related {
		resp.Related[i] = RelatedTopicItem{
			TopicID: related.TopicID,
			Label:   related.Label,
			Score:   related.Score,
		}
	}
	return resp
}
