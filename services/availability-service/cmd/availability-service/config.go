package main

import (
	"time"

	"github.com/md-rashed-zaman/babsplanner/libs/config"
)

type serviceConfig struct {
	AppEnv   string
	LogLevel string
	Port     string
	GRPCPort string

	DatabaseURL        string
	DBMaxConns         int32
	DBStatementTimeout time.Duration

	RedisAddr string
	RedisDB   int
	CacheTTL  time.Duration

	KafkaBrokers string
	KafkaGroupID string

	ResolverWorkers  int
	FetchConcurrency int

	RateLimitPerMinute int
	CORSAllowedOrigins []string
	RequestTimeout     time.Duration
	BodyLimitBytes     int64

	// Location decides what "today" is when listing open start times.
	Location *time.Location
}

func (c serviceConfig) AllowDiagnostics() bool {
	return c.AppEnv != "production"
}

func loadConfig() (serviceConfig, error) {
	cfg := serviceConfig{
		AppEnv:             config.String("APP_ENV", "development"),
		LogLevel:           config.String("LOG_LEVEL", "info"),
		RedisAddr:          config.String("REDIS_ADDR", ""),
		KafkaBrokers:       config.String("KAFKA_BROKERS", ""),
		KafkaGroupID:       config.String("KAFKA_GROUP_ID", "availability-service"),
		CORSAllowedOrigins: config.List("CORS_ALLOWED_ORIGINS"),
	}
	var err error

	if cfg.Port, err = config.Port("PORT", "8090"); err != nil {
		return cfg, err
	}
	if cfg.GRPCPort, err = config.Port("GRPC_PORT", "9090"); err != nil {
		return cfg, err
	}
	if cfg.DatabaseURL, err = config.RequiredString("DATABASE_URL"); err != nil {
		return cfg, err
	}

	maxConns, err := config.Int("DB_MAX_CONNS", 10)
	if err != nil {
		return cfg, err
	}
	cfg.DBMaxConns = int32(maxConns)
	if cfg.DBStatementTimeout, err = config.Duration("DB_STATEMENT_TIMEOUT", 5*time.Second); err != nil {
		return cfg, err
	}

	if cfg.RedisDB, err = redisDB(); err != nil {
		return cfg, err
	}
	if cfg.CacheTTL, err = config.Duration("CACHE_TTL", 5*time.Minute); err != nil {
		return cfg, err
	}

	if cfg.ResolverWorkers, err = config.Int("RESOLVER_WORKERS", 4); err != nil {
		return cfg, err
	}
	if cfg.FetchConcurrency, err = config.Int("SNAPSHOT_FETCH_CONCURRENCY", 8); err != nil {
		return cfg, err
	}

	if cfg.RateLimitPerMinute, err = config.Int("RATE_LIMIT_PER_MINUTE", 120); err != nil {
		return cfg, err
	}
	if cfg.RequestTimeout, err = config.Duration("REQUEST_TIMEOUT", 10*time.Second); err != nil {
		return cfg, err
	}
	bodyLimit, err := config.Int("REQUEST_BODY_LIMIT_BYTES", 64<<10)
	if err != nil {
		return cfg, err
	}
	cfg.BodyLimitBytes = int64(bodyLimit)

	if cfg.Location, err = config.Location("TIMEZONE", "Europe/Amsterdam"); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// redisDB allows 0, which config.Int rejects.
func redisDB() (int, error) {
	if config.String("REDIS_DB", "") == "" {
		return 0, nil
	}
	return config.Int("REDIS_DB", 0)
}
