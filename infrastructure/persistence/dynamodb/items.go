package dynamodb

import (
	"fmt"
	"time"

	"github.com/jorge6242/graph-builder-api/domain/core/entities"
)

// Single-table layout: every record of a graph shares the partition
// GRAPH#<id>; the sort key tells record kinds apart.
const (
	graphPrefix = "GRAPH#"
	metaSK      = "META"
	topicPrefix = "TOPIC#"
	edgePrefix  = "EDGE#"
	lockPrefix  = "LOCK#"
	lockSK      = "LOCK"
)

func graphPK(graphID string) string { return graphPrefix + graphID }
func topicSK(topicID string) string { return topicPrefix + topicID }
func edgeSK(source, target string) string {
	return fmt.Sprintf("%s%s#%s", edgePrefix, source, target)
}

// graphItem is the META record. Items written by a unit of work carry the
// version it reserved; they are visible only once that version appears in
// CommittedVersions.
type graphItem struct {
	PK                string  `dynamodbav:"PK"`
	SK                string  `dynamodbav:"SK"`
	EntityType        string  `dynamodbav:"EntityType"`
	GraphID           string  `dynamodbav:"GraphID"`
	Name              *string `dynamodbav:"Name,omitempty"`
	CreatedAt         string  `dynamodbav:"CreatedAt"`
	NextVersion       int64   `dynamodbav:"NextVersion"`
	CommittedVersions []int64 `dynamodbav:"CommittedVersions"`
}

type topicItem struct {
	PK              string `dynamodbav:"PK"`
	SK              string `dynamodbav:"SK"`
	EntityType      string `dynamodbav:"EntityType"`
	TopicID         string `dynamodbav:"TopicID"`
	GraphID         string `dynamodbav:"GraphID"`
	Label           string `dynamodbav:"Label"`
	NormalizedLabel string `dynamodbav:"NormalizedLabel"`
	CreatedAt       string `dynamodbav:"CreatedAt"`
	Version         int64  `dynamodbav:"Version"`
}

type edgeItem struct {
	PK            string  `dynamodbav:"PK"`
	SK            string  `dynamodbav:"SK"`
	EntityType    string  `dynamodbav:"EntityType"`
	EdgeID        string  `dynamodbav:"EdgeID"`
	GraphID       string  `dynamodbav:"GraphID"`
	SourceTopicID string  `dynamodbav:"SourceTopicID"`
	TargetTopicID string  `dynamodbav:"TargetTopicID"`
	Score         float64 `dynamodbav:"Score"`
	Strategy      string  `dynamodbav:"Strategy"`
	CreatedAt     string  `dynamodbav:"CreatedAt"`
	Version       int64   `dynamodbav:"Version"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func newGraphItem(g *entities.Graph, version int64) graphItem {
	return graphItem{
		PK:                graphPK(g.ID),
		SK:                metaSK,
		EntityType:        "GRAPH",
		GraphID:           g.ID,
		Name:              g.Name,
		CreatedAt:         formatTime(g.CreatedAt),
		NextVersion:       version,
		CommittedVersions: []int64{version},
	}
}

func (i graphItem) toEntity() *entities.Graph {
	return &entities.Graph{ID: i.GraphID, Name: i.Name, CreatedAt: parseTime(i.CreatedAt)}
}

// committed reports whether items tagged with version are visible
func (i graphItem) committed(version int64) bool {
	for _, v := range i.CommittedVersions {
		if v == version {
			return true
		}
	}
	return false
}

func newTopicItem(t *entities.Topic, version int64) topicItem {
	return topicItem{
		PK:              graphPK(t.GraphID),
		SK:              topicSK(t.ID),
		EntityType:      "TOPIC",
		TopicID:         t.ID,
		GraphID:         t.GraphID,
		Label:           t.Label,
		NormalizedLabel: t.NormalizedLabel,
		CreatedAt:       formatTime(t.CreatedAt),
		Version:         version,
	}
}

func (i topicItem) toEntity() *entities.Topic {
	return &entities.Topic{
		ID:              i.TopicID,
		GraphID:         i.GraphID,
		Label:           i.Label,
		NormalizedLabel: i.NormalizedLabel,
		CreatedAt:       parseTime(i.CreatedAt),
	}
}

func newEdgeItem(e *entities.Edge, version int64) edgeItem {
	return edgeItem{
		PK:            graphPK(e.GraphID),
		SK:            edgeSK(e.SourceTopicID, e.TargetTopicID),
		EntityType:    "EDGE",
		EdgeID:        e.ID,
		GraphID:       e.GraphID,
		SourceTopicID: e.SourceTopicID,
		TargetTopicID: e.TargetTopicID,
		Score:         e.Score,
		Strategy:      e.Strategy,
		CreatedAt:     formatTime(e.CreatedAt),
		Version:       version,
	}
}

func (i edgeItem) toEntity() *entities.Edge {
	return &entities.Edge{
		ID:            i.EdgeID,
		GraphID:       i.GraphID,
		SourceTopicID: i.SourceTopicID,
		TargetTopicID: i.TargetTopicID,
		Score:         i.Score,
		Strategy:      i.Strategy,
		CreatedAt:     parseTime(i.CreatedAt),
	}
}
