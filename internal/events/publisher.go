package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/tm-acme-shop/acme-shop-cart-calculator/internal/calculator"
	"github.com/tm-acme-shop/acme-shop-cart-calculator/internal/config"
	"github.com/tm-acme-shop/acme-shop-cart-calculator/internal/logging"
)

// EventType represents the type of pricing event.
type EventType string

const (
	EventTypeOrderPriced  EventType = "order.priced"
	EventTypeOrderCleared EventType = "order.cleared"
)

// Publisher emits pricing events for a cart session.
type Publisher interface {
	PublishOrderPriced(ctx context.Context, sessionID string, order *PricedOrder) error
	PublishOrderCleared(ctx context.Context, sessionID string) error
	Close() error
}

// PricedOrder is the payload of an order.priced event.
type PricedOrder struct {
	Items     []calculator.LineItem `json:"items"`
	Breakdown calculator.Breakdown  `json:"breakdown"`
}

// PricingEvent is the envelope written to the topic.
type PricingEvent struct {
	ID        string            `json:"id"`
	Type      EventType         `json:"type"`
	SessionID string            `json:"session_id"`
	Data      json.RawMessage   `json:"data,omitempty"`
	Metadata  map[string]string `json:"metadata"`
	Timestamp time.Time         `json:"timestamp"`
}

// messageWriter is the part of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

var _ Publisher = (*KafkaPublisher)(nil)

// KafkaPublisher publishes pricing events to Kafka.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	logger *logging.LoggerV2
}

// NewKafkaPublisher creates a new Kafka-based event publisher.
func NewKafkaPublisher(cfg config.KafkaConfig, logger *logging.LoggerV2) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.PricingTopic,
		Balancer:     &kafka.LeastBytes{},
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
	}
	return newKafkaPublisher(writer, cfg.PricingTopic, logger)
}

func newKafkaPublisher(w messageWriter, topic string, logger *logging.LoggerV2) *KafkaPublisher {
	if logger == nil {
		logger = logging.NewLoggerV2("event-publisher")
	}
	return &KafkaPublisher{
		writer: w,
		topic:  topic,
		logger: logger,
	}
}

// PublishOrderPriced publishes the breakdown of a completed calculation.
func (p *KafkaPublisher) PublishOrderPriced(ctx context.Context, sessionID string, order *PricedOrder) error {
	p.logger.Debug("Publishing order priced event", logging.Fields{
		"session_id": sessionID,
		"total":      order.Breakdown.Total,
	})

	data, err := json.Marshal(order)
	if err != nil {
		return err
	}

	return p.publish(ctx, newEvent(EventTypeOrderPriced, sessionID, data))
}

// PublishOrderCleared publishes a cart reset.
func (p *KafkaPublisher) PublishOrderCleared(ctx context.Context, sessionID string) error {
	p.logger.Debug("Publishing order cleared event", logging.Fields{"session_id": sessionID})
	return p.publish(ctx, newEvent(EventTypeOrderCleared, sessionID, nil))
}

func newEvent(eventType EventType, sessionID string, data []byte) *PricingEvent {
	return &PricingEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		SessionID: sessionID,
		Data:      data,
		Metadata:  make(map[string]string),
		Timestamp: time.Now().UTC(),
	}
}

func (p *KafkaPublisher) publish(ctx context.Context, event *PricingEvent) error {
	eventData, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(event.SessionID),
		Value: eventData,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "event_id", Value: []byte(event.ID)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish event", logging.Fields{
			"event_id":   event.ID,
			"event_type": event.Type,
			"session_id": event.SessionID,
			"error":      err.Error(),
		})
		return err
	}

	p.logger.Info("Event published", logging.Fields{
		"event_id":   event.ID,
		"event_type": event.Type,
		"topic":      p.topic,
	})
	return nil
}

// Close closes the Kafka writer.
func (p *KafkaPublisher) Close() error {
	p.logger.Info("Closing Kafka publisher")
	return p.writer.Close()
}

// NoopPublisher drops every event. Used when order events are disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishOrderPriced(context.Context, string, *PricedOrder) error { return nil }
func (NoopPublisher) PublishOrderCleared(context.Context, string) error              { return nil }
func (NoopPublisher) Close() error                                                   { return nil }

// MockEventPublisher records events in memory for tests.
type MockEventPublisher struct {
	mu     sync.Mutex
	Events []*PricingEvent
	Err    error
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{
		Events: make([]*PricingEvent, 0),
	}
}

func (m *MockEventPublisher) PublishOrderPriced(ctx context.Context, sessionID string, order *PricedOrder) error {
	data, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return m.record(newEvent(EventTypeOrderPriced, sessionID, data))
}

func (m *MockEventPublisher) PublishOrderCleared(ctx context.Context, sessionID string) error {
	return m.record(newEvent(EventTypeOrderCleared, sessionID, nil))
}

func (m *MockEventPublisher) Close() error { return nil }

// Recorded returns a snapshot of the recorded events.
func (m *MockEventPublisher) Recorded() []*PricingEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*PricingEvent, len(m.Events))
	copy(out, m.Events)
	return out
}

func (m *MockEventPublisher) record(event *PricingEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Events = append(m.Events, event)
	return nil
}
