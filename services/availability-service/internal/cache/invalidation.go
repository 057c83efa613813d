package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/segmentio/kafka-go"
)

const (
	TopicScheduleChanged     = "babs.registrar.schedule_changed.v1"
	TopicCeremonyTypeChanged = "babs.ceremony_type.changed.v1"
)

type scheduleChanged struct {
	RegistrarID string `json:"registrar_id"`
}

type ceremonyTypeChanged struct {
	CeremonyTypeID string `json:"ceremony_type_id"`
}

// Invalidator drops cache entries named by change events.
type Invalidator struct {
	rdb    Client
	logger *slog.Logger
}

func NewInvalidator(rdb Client, logger *slog.Logger) *Invalidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Invalidator{rdb: rdb, logger: logger}
}

// Handle evicts the entry an event refers to. The id is read from the JSON payload
// and falls back to the message key.
func (i *Invalidator) Handle(ctx context.Context, msg kafka.Message) error {
	var key string
	switch msg.Topic {
	case TopicScheduleChanged:
		var evt scheduleChanged
		_ = json.Unmarshal(msg.Value, &evt)
		id := firstNonEmpty(evt.RegistrarID, string(msg.Key))
		if id == "" {
			return fmt.Errorf("schedule change without registrar id")
		}
		key = RulesKey(id)
	case TopicCeremonyTypeChanged:
		var evt ceremonyTypeChanged
		_ = json.Unmarshal(msg.Value, &evt)
		id := firstNonEmpty(evt.CeremonyTypeID, string(msg.Key))
		if id == "" {
			return fmt.Errorf("ceremony type change without ceremony type id")
		}
		key = CeremonyTypeKey(id)
	default:
		return fmt.Errorf("unexpected topic %q", msg.Topic)
	}

	if err := i.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("evict %s: %w", key, err)
	}
	i.logger.InfoContext(ctx, "cache entry evicted", "key", key, "topic", msg.Topic)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
