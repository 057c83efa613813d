package kafkax

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// ReadyCheck succeeds once some broker answers and every topic has partitions.
// Brokers are tried in order; the last dial error is reported if none answers.
func ReadyCheck(brokers []string, topics ...string) func(context.Context) error {
	return func(ctx context.Context) error {
		if len(brokers) == 0 {
			return errors.New("kafka brokers not configured")
		}
		dialer := kafka.Dialer{Timeout: 2 * time.Second}
		var lastErr error
		for _, addr := range brokers {
			conn, err := dialer.DialContext(ctx, "tcp", addr)
			if err != nil {
				lastErr = err
				continue
			}
			err = checkTopics(conn, topics)
			_ = conn.Close()
			return err
		}
		return fmt.Errorf("no kafka broker reachable: %w", lastErr)
	}
}

func checkTopics(conn *kafka.Conn, topics []string) error {
	if len(topics) == 0 {
		return nil
	}
	parts, err := conn.ReadPartitions(topics...)
	if err != nil {
		return err
	}
	return missingTopics(topics, parts)
}

func missingTopics(topics []string, parts []kafka.Partition) error {
	have := make(map[string]bool, len(parts))
	for _, p := range parts {
		have[p.Topic] = true
	}
	for _, t := range topics {
		if !have[t] {
			return fmt.Errorf("kafka topic %s has no partitions", t)
		}
	}
	return nil
}
