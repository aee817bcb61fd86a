package events

import (
	"time"
)

// Event types published by the graph builder
const (
	TypeGraphCreated = "graph.created"
	TypeTopicsAdded  = "topics.added"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// GraphCreated is raised once a graph and its initial topics and edges are committed
type GraphCreated struct {
	BaseEvent
	GraphID       string  `json:"graph_id"`
	Name          *string `json:"name,omitempty"`
	TopicsCreated int     `json:"topics_created"`
	EdgesCreated  int     `json:"edges_created"`
	Strategy      string  `json:"strategy"`
	Threshold     float64 `json:"threshold"`
}

// NewGraphCreated creates a GraphCreated event
func NewGraphCreated(graphID string, name *string, topics, edges int, strategy string, threshold float64, timestamp time.Time) GraphCreated {
	return GraphCreated{
		BaseEvent: BaseEvent{
			AggregateID: graphID,
			EventType:   TypeGraphCreated,
			Timestamp:   timestamp,
			Version:     1,
		},
		GraphID:       graphID,
		Name:          name,
		TopicsCreated: topics,
		EdgesCreated:  edges,
		Strategy:      strategy,
		Threshold:     threshold,
	}
}

// TopicsAdded is raised when an incremental add committed at least one topic
type TopicsAdded struct {
	BaseEvent
	GraphID       string   `json:"graph_id"`
	TopicIDs      []string `json:"topic_ids"`
	TopicsCreated int      `json:"topics_created"`
	EdgesCreated  int      `json:"edges_created"`
	Strategy      string   `json:"strategy"`
	Threshold     float64  `json:"threshold"`
}

// NewTopicsAdded creates a TopicsAdded event
func NewTopicsAdded(graphID string, topicIDs []string, edges int, strategy string, threshold float64, timestamp time.Time) TopicsAdded {
	return TopicsAdded{
		BaseEvent: BaseEvent{
			AggregateID: graphID,
			EventType:   TypeTopicsAdded,
			Timestamp:   timestamp,
			Version:     1,
		},
		GraphID:       graphID,
		TopicIDs:      topicIDs,
		TopicsCreated: len(topicIDs),
		EdgesCreated:  edges,
		Strategy:      strategy,
		Threshold:     threshold,
	}
}
