// Package events defines the shop's domain events and publishes them as JSON.
package events

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/lucsky/cuid"
	"go.uber.org/zap"
)

// Sink receives serialized events. Output destinations implement it.
type Sink interface {
	WriteMessage(topic string, msg []byte) error
}

type Publisher struct {
	mu     sync.Mutex
	sink   Sink
	logger *zap.Logger
}

func NewPublisher(sink Sink, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{sink: sink, logger: logger}
}

// Publish stamps the event with its time, type and a fresh id, then hands it
// to the sink. A nil publisher drops events.
func (p *Publisher) Publish(at time.Time, eventType string, ev Event) error {
	if p == nil || p.sink == nil {
		return nil
	}
	stamp(ev, at.Unix(), eventType, cuid.New())

	msg, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", ev.Topic(), err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.sink.WriteMessage(ev.Topic(), msg); err != nil {
		p.logger.Error("failed to publish event",
			zap.String("topic", ev.Topic()),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return err
	}
	return nil
}

type stamper interface {
	stamp(ts int64, eventType, id string)
}

func stamp(ev Event, ts int64, eventType, id string) {
	if s, ok := ev.(stamper); ok {
		s.stamp(ts, eventType, id)
	}
}
