package kafkax

import (
	"strconv"
	"strings"

	"github.com/segmentio/kafka-go"
)

const (
	HeaderEventID   = "event_id"
	HeaderEventType = "event_type"
)

// EventMeta describes one consumed invalidation event.
type EventMeta struct {
	// EventID identifies the event for inbox dedupe.
	EventID   string
	EventType string
	// Subject is the message key: the registrar or ceremony type the event is about.
	Subject string
}

// ExtractEventMeta reads the producer's event_id header. Without it the event is
// identified by its log position (topic/partition/offset). The key names the
// subject and is shared by every event about it, so it never serves as an id.
func ExtractEventMeta(msg kafka.Message) EventMeta {
	meta := EventMeta{
		EventID:   HeaderValue(msg.Headers, HeaderEventID),
		EventType: HeaderValue(msg.Headers, HeaderEventType),
		Subject:   strings.TrimSpace(string(msg.Key)),
	}
	if meta.EventID == "" {
		meta.EventID = Position(msg)
	}
	if meta.EventType == "" {
		meta.EventType = msg.Topic
	}
	return meta
}

// Position formats the log coordinates of msg as "topic/partition/offset".
func Position(msg kafka.Message) string {
	return msg.Topic + "/" + strconv.Itoa(msg.Partition) + "/" + strconv.FormatInt(msg.Offset, 10)
}

// HeaderValue returns the last value of key; producers that retry may append.
func HeaderValue(headers []kafka.Header, key string) string {
	v := ""
	for _, h := range headers {
		if h.Key == key {
			v = strings.TrimSpace(string(h.Value))
		}
	}
	return v
}

// ParseBrokers splits a KAFKA_BROKERS value into host:port entries.
func ParseBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
