package events

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	topics   []string
	messages [][]byte
	err      error
}

func (r *recordingSink) WriteMessage(topic string, msg []byte) error {
	if r.err != nil {
		return r.err
	}
	r.topics = append(r.topics, topic)
	r.messages = append(r.messages, msg)
	return nil
}

func TestPublish_StampsHeader(t *testing.T) {
	sink := &recordingSink{}
	p := NewPublisher(sink, nil)
	at := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

	require.NoError(t, p.Publish(at, TypeRestock, &RestockEvent{Item: "milk", Amount: 500, Cost: 3.5}))
	require.NoError(t, p.Publish(at, TypeRestock, &RestockEvent{Item: "cups", Amount: 50}))

	require.Equal(t, []string{TopicRestock, TopicRestock}, sink.topics)
	var first, second map[string]interface{}
	require.NoError(t, json.Unmarshal(sink.messages[0], &first))
	require.NoError(t, json.Unmarshal(sink.messages[1], &second))
	assert.Equal(t, float64(at.Unix()), first["timestamp"])
	assert.Equal(t, TypeRestock, first["eventType"])
	assert.NotEmpty(t, first["eventId"])
	assert.NotEqual(t, first["eventId"], second["eventId"])
}

func TestPublish_SinkError(t *testing.T) {
	boom := errors.New("broker down")
	p := NewPublisher(&recordingSink{err: boom}, nil)
	assert.ErrorIs(t, p.Publish(time.Now(), TypeFeedback, &FeedbackEvent{}), boom)

	var nilPublisher *Publisher
	assert.NoError(t, nilPublisher.Publish(time.Now(), TypeFeedback, &FeedbackEvent{}))
}

func TestSchemas(t *testing.T) {
	for _, topic := range Topics {
		sh, err := GetSchema(topic)
		require.NoError(t, err, topic)
		assert.NotNil(t, sh)

		proto, err := New(topic)
		require.NoError(t, err)
		ev, ok := proto.(Event)
		require.True(t, ok)
		assert.Equal(t, topic, ev.Topic())
	}
	_, err := GetSchema("unknown")
	assert.Error(t, err)
}
