package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func header(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestKafkaPublisher_WritesKeyedEvent(t *testing.T) {
	fw := &fakeWriter{}
	p := &KafkaPublisher{w: fw}
	ev := WaitlistJoined{
		EntryID: "e1", ResourceID: "room-7", HolderID: "u1", Contact: "u1@example.com",
		RangeStart: "2025-07-01", RangeEnd: "2025-07-03",
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	if err := p.PublishWaitlistJoined(context.Background(), ev); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(fw.msgs) != 1 {
		t.Fatalf("messages = %d; want 1", len(fw.msgs))
	}
	m := fw.msgs[0]
	if string(m.Key) != "room-7" {
		t.Fatalf("key = %q; want room-7", m.Key)
	}
	if header(m, HeaderEventType) != TypeWaitlistJoined || header(m, HeaderEventID) == "" {
		t.Fatalf("headers = %+v", m.Headers)
	}
	var got WaitlistJoined
	if err := json.Unmarshal(m.Value, &got); err != nil || got.EntryID != "e1" || got.Contact != ev.Contact {
		t.Fatalf("payload = %+v (%v)", got, err)
	}

	if err := p.Close(); err != nil || !fw.closed {
		t.Fatalf("Close: %v closed=%v", err, fw.closed)
	}
}

func TestKafkaPublisher_WrapsWriteError(t *testing.T) {
	boom := errors.New("broker unreachable")
	p := &KafkaPublisher{w: &fakeWriter{err: boom}}
	err := p.PublishWaitlistJoined(context.Background(), WaitlistJoined{ResourceID: "r"})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v; want wrapped broker error", err)
	}
}

func TestNewKafkaPublisher_Validation(t *testing.T) {
	if _, err := NewKafkaPublisher(nil, "t"); !errors.Is(err, ErrNoBrokers) {
		t.Fatalf("err = %v; want ErrNoBrokers", err)
	}
	if _, err := NewKafkaPublisher([]string{"localhost:9092"}, ""); err == nil {
		t.Fatalf("expected error for empty topic")
	}
	p, err := NewKafkaPublisher([]string{"localhost:9092"}, "waitlist.joined")
	if err != nil {
		t.Fatalf("NewKafkaPublisher: %v", err)
	}
	_ = p.Close()
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	if err := p.PublishWaitlistJoined(context.Background(), WaitlistJoined{}); err != nil {
		t.Fatalf("Nop publish: %v", err)
	}
}
