// Package events publishes domain events for external collaborators. The
// notification service consumes waitlist events to tell parties when a range
// frees up; nothing in this service reads them back.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Header keys carried on every event.
const (
	HeaderEventID   = "event-id"
	HeaderEventType = "event-type"
	HeaderSource    = "source"

	// TypeWaitlistJoined is emitted after a waitlist entry is stored.
	TypeWaitlistJoined = "waitlist.joined"

	source = "go-stay-holds"
)

// ErrNoBrokers is returned by NewKafkaPublisher without brokers.
var ErrNoBrokers = errors.New("at least one broker is required")

// WaitlistJoined is the payload of TypeWaitlistJoined.
type WaitlistJoined struct {
	EntryID    string    `json:"entry_id"`
	TenantID   string    `json:"tenant_id"`
	ResourceID string    `json:"resource_id"`
	HolderID   string    `json:"holder_id"`
	Contact    string    `json:"contact"`
	RangeStart string    `json:"range_start"`
	RangeEnd   string    `json:"range_end"`
	CreatedAt  time.Time `json:"created_at"`
}

// Publisher delivers waitlist events.
type Publisher interface {
	PublishWaitlistJoined(ctx context.Context, ev WaitlistJoined) error
	Close() error
}

// messageWriter is the subset of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events to a single topic, keyed by resource so
// events for one resource stay ordered within a partition.
type KafkaPublisher struct {
	w messageWriter
}

// NewKafkaPublisher returns a publisher writing to topic on brokers.
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, ErrNoBrokers
	}
	if topic == "" {
		return nil, fmt.Errorf("topic cannot be empty")
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  3,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &KafkaPublisher{w: w}, nil
}

// PublishWaitlistJoined encodes ev and writes it synchronously.
func (p *KafkaPublisher) PublishWaitlistJoined(ctx context.Context, ev WaitlistJoined) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(ev.ResourceID),
		Value: value,
		Time:  ev.CreatedAt,
		Headers: []kafka.Header{
			{Key: HeaderEventID, Value: []byte(uuid.NewString())},
			{Key: HeaderEventType, Value: []byte(TypeWaitlistJoined)},
			{Key: HeaderSource, Value: []byte(source)},
		},
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error { return p.w.Close() }

// Nop discards events. Used when no brokers are configured.
type Nop struct{}

// PublishWaitlistJoined implements Publisher.
func (Nop) PublishWaitlistJoined(context.Context, WaitlistJoined) error { return nil }

// Close implements Publisher.
func (Nop) Close() error { return nil }
