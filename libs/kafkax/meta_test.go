package kafkax

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
)

func TestExtractEventMetaPrefersHeader(t *testing.T) {
	msg := kafka.Message{
		Topic:   "babs.registrar.schedule_changed.v1",
		Key:     []byte("reg-1"),
		Headers: []kafka.Header{{Key: HeaderEventID, Value: []byte("evt-9")}},
	}
	meta := ExtractEventMeta(msg)
	if meta.EventID != "evt-9" {
		t.Fatalf("expected header event id, got %q", meta.EventID)
	}
	if meta.EventType != msg.Topic {
		t.Fatalf("expected topic as event type, got %q", meta.EventType)
	}
	if meta.Subject != "reg-1" {
		t.Fatalf("expected key as subject, got %q", meta.Subject)
	}
}

func TestExtractEventMetaNeverUsesKeyAsID(t *testing.T) {
	first := kafka.Message{Topic: "t", Partition: 2, Offset: 10, Key: []byte("b1")}
	second := kafka.Message{Topic: "t", Partition: 2, Offset: 11, Key: []byte("b1")}

	a, b := ExtractEventMeta(first), ExtractEventMeta(second)
	if a.EventID == b.EventID {
		t.Fatalf("two events about the same subject share id %q", a.EventID)
	}
	if a.EventID != "t/2/10" {
		t.Fatalf("expected position id, got %q", a.EventID)
	}
}

func TestHeaderValueTakesLast(t *testing.T) {
	headers := []kafka.Header{
		{Key: HeaderEventType, Value: []byte("a")},
		{Key: HeaderEventType, Value: []byte(" b ")},
	}
	if got := HeaderValue(headers, HeaderEventType); got != "b" {
		t.Fatalf("expected b, got %q", got)
	}
}

func TestParseBrokers(t *testing.T) {
	got := ParseBrokers(" kafka-1:9092, ,kafka-2:9092")
	if len(got) != 2 || got[0] != "kafka-1:9092" || got[1] != "kafka-2:9092" {
		t.Fatalf("unexpected brokers %v", got)
	}
}

func TestMissingTopics(t *testing.T) {
	parts := []kafka.Partition{{Topic: "a"}, {Topic: "a", ID: 1}}
	if err := missingTopics([]string{"a"}, parts); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := missingTopics([]string{"a", "b"}, parts); err == nil {
		t.Fatal("expected error for topic without partitions")
	}
}

func TestReadyCheckWithoutBrokers(t *testing.T) {
	if err := ReadyCheck(nil)(context.Background()); err == nil {
		t.Fatal("expected error without brokers")
	}
}
