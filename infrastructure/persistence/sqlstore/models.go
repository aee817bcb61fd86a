package sqlstore

import (
	"time"

	"github.com/jorge6242/graph-builder-api/domain/core/entities"
)

// GraphModel is the graphs table
type GraphModel struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Name      *string   `gorm:"size:255"`
	CreatedAt time.Time `gorm:"not null"`
}

func (GraphModel) TableName() string { return "graphs" }

// TopicModel is the topics table; a normalized label appears once per graph
type TopicModel struct {
	ID              string     `gorm:"primaryKey;size:36"`
	GraphID         string     `gorm:"size:36;not null;uniqueIndex:uq_topics_graph_label,priority:1"`
	Label           string     `gorm:"size:80;not null"`
	NormalizedLabel string     `gorm:"size:80;not null;uniqueIndex:uq_topics_graph_label,priority:2"`
	CreatedAt       time.Time  `gorm:"not null"`
	Graph           GraphModel `gorm:"foreignKey:GraphID;constraint:OnDelete:CASCADE"`
}

func (TopicModel) TableName() string { return "topics" }

// EdgeModel is the edges table. Each topic pair is stored once, oriented
// source < target, with the score at four decimal places.
type EdgeModel struct {
	ID            string     `gorm:"primaryKey;size:36"`
	GraphID       string     `gorm:"size:36;not null;uniqueIndex:uq_edges_graph_pair,priority:1"`
	SourceTopicID string     `gorm:"size:36;not null;uniqueIndex:uq_edges_graph_pair,priority:2;index;check:chk_edges_orientation,source_topic_id < target_topic_id"`
	TargetTopicID string     `gorm:"size:36;not null;uniqueIndex:uq_edges_graph_pair,priority:3;index"`
	Score         float64    `gorm:"type:decimal(6,4);not null;check:chk_edges_score,score >= 0 AND score <= 1"`
	Strategy      string     `gorm:"size:64;not null"`
	CreatedAt     time.Time  `gorm:"not null"`
	Graph         GraphModel `gorm:"foreignKey:GraphID;constraint:OnDelete:CASCADE"`
	Source        TopicModel `gorm:"foreignKey:SourceTopicID;constraint:OnDelete:CASCADE"`
	Target        TopicModel `gorm:"foreignKey:TargetTopicID;constraint:OnDelete:CASCADE"`
}

func (EdgeModel) TableName() string { return "edges" }

func graphFromEntity(g *entities.Graph) *GraphModel {
	return &GraphModel{ID: g.ID, Name: g.Name, CreatedAt: g.CreatedAt}
}

func (m *GraphModel) toEntity() *entities.Graph {
	return &entities.Graph{ID: m.ID, Name: m.Name, CreatedAt: m.CreatedAt}
}

func topicFromEntity(t *entities.Topic) *TopicModel {
	return &TopicModel{
		ID:              t.ID,
		GraphID:         t.GraphID,
		Label:           t.Label,
		NormalizedLabel: t.NormalizedLabel,
		CreatedAt:       t.CreatedAt,
	}
}

func (m *TopicModel) toEntity() *entities.Topic {
	return &entities.Topic{
		ID:              m.ID,
		GraphID:         m.GraphID,
		Label:           m.Label,
		NormalizedLabel: m.NormalizedLabel,
		CreatedAt:       m.CreatedAt,
	}
}

func edgeFromEntity(e *entities.Edge) *EdgeModel {
	return &EdgeModel{
		ID:            e.ID,
		GraphID:       e.GraphID,
		SourceTopicID: e.SourceTopicID,
		TargetTopicID: e.TargetTopicID,
		Score:         e.Score,
		Strategy:      e.Strategy,
		CreatedAt:     e.CreatedAt,
	}
}

func (m *EdgeModel) toEntity() *entities.Edge {
	return &entities.Edge{
		ID:            m.ID,
		GraphID:       m.GraphID,
		SourceTopicID: m.SourceTopicID,
		TargetTopicID: m.TargetTopicID,
		Score:         m.Score,
		Strategy:      m.Strategy,
		CreatedAt:     m.CreatedAt,
	}
}
