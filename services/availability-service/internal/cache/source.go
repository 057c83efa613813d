package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/babsplanner/services/availability-service/internal/availability"
	"github.com/md-rashed-zaman/babsplanner/services/availability-service/internal/metrics"
	"github.com/redis/go-redis/v9"
)

const (
	rulesPrefix        = "babs:rules:"
	ceremonyTypePrefix = "babs:ceremony_type_languages:"
)

// Client is the subset of redis used by the cache. *redis.Client satisfies it.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Source caches the slowly changing parts of a snapshot (availability rules and
// ceremony-type languages) in front of another Source. Redis errors never fail a
// read: the lookup falls through to the wrapped Source.
type Source struct {
	next    availability.Source
	rdb     Client
	ttl     time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewSource(next availability.Source, rdb Client, ttl time.Duration, logger *slog.Logger, m *metrics.Metrics) *Source {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{next: next, rdb: rdb, ttl: ttl, logger: logger, metrics: m}
}

var _ availability.Source = (*Source)(nil)

func (s *Source) ListCandidateRegistrars(ctx context.Context, municipalityID string) ([]availability.Registrar, error) {
	return s.next.ListCandidateRegistrars(ctx, municipalityID)
}

func (s *Source) ListBlocksFor(ctx context.Context, registrarID string, date time.Time) ([]availability.BlockRecord, error) {
	return s.next.ListBlocksFor(ctx, registrarID, date)
}

func (s *Source) ListBookingsFor(ctx context.Context, registrarID string, date time.Time) ([]availability.BookingRecord, error) {
	return s.next.ListBookingsFor(ctx, registrarID, date)
}

func (s *Source) ListRulesFor(ctx context.Context, registrarID string) ([]availability.RuleRecord, error) {
	var out []availability.RuleRecord
	if s.lookup(ctx, "rules", RulesKey(registrarID), &out) {
		return out, nil
	}
	out, err := s.next.ListRulesFor(ctx, registrarID)
	if err != nil {
		return nil, err
	}
	s.store(ctx, RulesKey(registrarID), out)
	return out, nil
}

func (s *Source) CeremonyTypeLanguages(ctx context.Context, ceremonyTypeID string) ([]string, error) {
	var out []string
	if s.lookup(ctx, "ceremony_type", CeremonyTypeKey(ceremonyTypeID), &out) {
		return out, nil
	}
	out, err := s.next.CeremonyTypeLanguages(ctx, ceremonyTypeID)
	if err != nil {
		return nil, err
	}
	s.store(ctx, CeremonyTypeKey(ceremonyTypeID), out)
	return out, nil
}

func RulesKey(registrarID string) string {
	return rulesPrefix + registrarID
}

func CeremonyTypeKey(ceremonyTypeID string) string {
	return ceremonyTypePrefix + ceremonyTypeID
}

func (s *Source) lookup(ctx context.Context, kind, key string, dst any) bool {
	raw, err := s.rdb.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		s.metrics.IncCacheLookup(kind, "miss")
		return false
	case err != nil:
		s.metrics.IncCacheLookup(kind, "error")
		s.logger.WarnContext(ctx, "cache read failed", "key", key, "err", err)
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		s.metrics.IncCacheLookup(kind, "error")
		s.logger.WarnContext(ctx, "cache entry unreadable", "key", key, "err", err)
		return false
	}
	s.metrics.IncCacheLookup(kind, "hit")
	return true
}

func (s *Source) store(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		s.logger.WarnContext(ctx, "cache write failed", "key", key, "err", err)
	}
}
