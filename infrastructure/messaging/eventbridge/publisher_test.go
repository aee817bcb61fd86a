package eventbridge

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jorge6242/graph-builder-api/domain/events"
)

type fakeClient struct {
	calls  []*eventbridge.PutEventsInput
	failed int32
	err    error
}

func (f *fakeClient) PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	f.calls = append(f.calls, params)
	if f.err != nil {
		return nil, f.err
	}
	out := &eventbridge.PutEventsOutput{FailedEntryCount: f.failed}
	for range params.Entries {
		out.Entries = append(out.Entries, types.PutEventsResultEntry{})
	}
	if f.failed > 0 {
		out.Entries[0].ErrorCode = aws.String("InternalFailure")
	}
	return out, nil
}

func TestPublisherBatchesByTen(t *testing.T) {
	tests := []struct {
		name      string
		events    int
		wantCalls []int
	}{
		{name: "no events", events: 0, wantCalls: nil},
		{name: "one event", events: 1, wantCalls: []int{1}},
		{name: "exactly ten", events: 10, wantCalls: []int{10}},
		{name: "twenty three", events: 23, wantCalls: []int{10, 10, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{}
			publisher := NewPublisher(client, "graphs", zap.NewNop())

			batch := make([]events.DomainEvent, tt.events)
			for i := range batch {
				batch[i] = events.NewTopicsAdded("g1", []string{"t1"}, 0, "keyword_jaccard", 0.1, time.Now())
			}

			require.NoError(t, publisher.PublishBatch(context.Background(), batch))

			var sizes []int
			for _, call := range client.calls {
				sizes = append(sizes, len(call.Entries))
			}
			assert.Equal(t, tt.wantCalls, sizes)
		})
	}
}

func TestPublisherEntryShape(t *testing.T) {
	client := &fakeClient{}
	publisher := NewPublisher(client, "graphs", zap.NewNop())
	event := events.NewGraphCreated("g1", nil, 2, 1, "keyword_jaccard", 0.1, time.Now())

	require.NoError(t, publisher.Publish(context.Background(), event))
	require.Len(t, client.calls, 1)

	entry := client.calls[0].Entries[0]
	assert.Equal(t, "graphs", aws.ToString(entry.EventBusName))
	assert.Equal(t, Source, aws.ToString(entry.Source))
	assert.Equal(t, events.TypeGraphCreated, aws.ToString(entry.DetailType))

	var detail map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(entry.Detail)), &detail))
	assert.Equal(t, "g1", detail["graph_id"])
	assert.Equal(t, float64(1), detail["edges_created"])
}

func TestPublisherErrors(t *testing.T) {
	event := events.NewGraphCreated("g1", nil, 2, 1, "keyword_jaccard", 0.1, time.Now())

	failing := NewPublisher(&fakeClient{err: errors.New("throttled")}, "graphs", zap.NewNop())
	assert.Error(t, failing.Publish(context.Background(), event))

	partial := NewPublisher(&fakeClient{failed: 1}, "graphs", zap.NewNop())
	assert.Error(t, partial.Publish(context.Background(), event))
}
