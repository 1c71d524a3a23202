package events

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"time"

	"miny/internal/logger"
	"miny/internal/metrics"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const (
	TypeSlotClaimed  = "slot.claimed"
	TypeSlotReleased = "slot.released"

	DefaultTopic = "slot-events"
)

var ErrPublisherClosed = errors.New("publisher is closed")

// SlotEvent is emitted whenever slot capacity is taken or given back.
type SlotEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	SlotID     int       `json:"slot_id"`
	OwnerID    int       `json:"owner_id"`
	Claimant   string    `json:"claimant,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewSlotEvent(eventType string, slotID, ownerID int, claimant string) SlotEvent {
	return SlotEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		SlotID:     slotID,
		OwnerID:    ownerID,
		Claimant:   claimant,
		OccurredAt: time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, event SlotEvent) error
	Close() error
}

// New returns a Kafka publisher, or a no-op one when no brokers are configured.
func New(brokers []string, topic string) Publisher {
	if len(brokers) == 0 {
		logger.Info("no kafka brokers configured, slot events are discarded")
		return NopPublisher{}
	}
	return NewKafkaPublisher(brokers, topic)
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
	topic  string
	mu     sync.RWMutex
	closed bool
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	if topic == "" {
		topic = DefaultTopic
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  3,
		BatchTimeout: 50 * time.Millisecond,
		Async:        true,
		Completion:   recordCompletion,
		Logger:       kafka.LoggerFunc(func(msg string, args ...any) {}),
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...any) {
			logger.Errorf("kafka: "+msg, args...)
		}),
	}

	return newKafkaPublisher(writer, topic)
}

func newKafkaPublisher(writer messageWriter, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, topic: topic}
}

// Publish hands the event to the writer keyed by slot id, so events of one slot stay ordered.
func (p *KafkaPublisher) Publish(ctx context.Context, event SlotEvent) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}

	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(strconv.Itoa(event.SlotID)),
		Value: value,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "event_id", Value: []byte(event.ID)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		metrics.RecordEvent(event.Type, "failed")
		return err
	}

	return nil
}

func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.writer.Close()
}

// recordCompletion runs for every async batch once the broker answered.
func recordCompletion(messages []kafka.Message, err error) {
	status := "success"
	if err != nil {
		status = "failed"
		logger.WithError(err).Error("slot events not delivered", "count", len(messages))
	}
	for _, m := range messages {
		metrics.RecordEvent(headerValue(m, "event_type"), status)
	}
}

func headerValue(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, event SlotEvent) error {
	metrics.RecordEvent(event.Type, "discarded")
	return nil
}

func (NopPublisher) Close() error { return nil }
