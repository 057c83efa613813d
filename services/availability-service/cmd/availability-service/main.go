package main

import (
	"context"
	"net"
	"net/http"
	"time"
	_ "time/tzdata"

	"github.com/md-rashed-zaman/babsplanner/libs/config"
	"github.com/md-rashed-zaman/babsplanner/libs/db"
	"github.com/md-rashed-zaman/babsplanner/libs/grpcx"
	"github.com/md-rashed-zaman/babsplanner/libs/httpx"
	"github.com/md-rashed-zaman/babsplanner/libs/kafkax"
	otelx "github.com/md-rashed-zaman/babsplanner/libs/otel"
	"github.com/md-rashed-zaman/babsplanner/libs/runtime"
	"github.com/md-rashed-zaman/babsplanner/services/availability-service/internal/availability"
	"github.com/md-rashed-zaman/babsplanner/services/availability-service/internal/cache"
	"github.com/md-rashed-zaman/babsplanner/services/availability-service/internal/consumer"
	"github.com/md-rashed-zaman/babsplanner/services/availability-service/internal/handlers"
	"github.com/md-rashed-zaman/babsplanner/services/availability-service/internal/inbox"
	"github.com/md-rashed-zaman/babsplanner/services/availability-service/internal/metrics"
	"github.com/md-rashed-zaman/babsplanner/services/availability-service/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "availability-service")
	cfg, err := loadConfig()
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service, cfg.LogLevel)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelCfg, err := otelx.LoadConfig(service)
	if err != nil {
		panic(err)
	}
	otelShutdown, err := otelx.Setup(ctx, otelCfg)
	if err != nil {
		logger.Error("otel setup failed", "err", err)
		otelShutdown = nil
	}

	pool, err := db.Open(ctx, cfg.DatabaseURL, db.Options{
		ApplicationName:  service,
		MaxConns:         cfg.DBMaxConns,
		StatementTimeout: cfg.DBStatementTimeout,
	})
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	var source availability.Source = storage.NewRepository(pool)
	readyChecks := []runtime.ReadyCheck{{Name: "postgres", Check: db.ReadyCheck(pool)}}

	var rateLimitMW httpx.Middleware
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: config.String("REDIS_PASSWORD", ""),
			DB:       cfg.RedisDB,
		})
		defer func() { _ = rdb.Close() }()

		source = cache.NewSource(source, rdb, cfg.CacheTTL, logger, m)
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})

		rl := httpx.NewRedisRateLimiter(rdb, cfg.RateLimitPerMinute, time.Minute, "babs:rl:availability")
		rateLimitMW = rl.Middleware(logger, true)
		logger.Info("snapshot cache and rate limiting enabled (redis)", "redis_addr", cfg.RedisAddr, "cache_ttl", cfg.CacheTTL.String())
	} else {
		rateLimitMW = httpx.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute).Middleware()
		logger.Info("rate limiting enabled (in-memory); snapshot cache disabled")
	}

	if brokers := kafkax.ParseBrokers(cfg.KafkaBrokers); len(brokers) > 0 && rdb != nil {
		inboxRepo := inbox.NewRepository(pool)
		invalidator := cache.NewInvalidator(rdb, logger)
		topics := []string{cache.TopicScheduleChanged, cache.TopicCeremonyTypeChanged}
		for _, topic := range topics {
			c := consumer.New(logger, inboxRepo, consumer.Config{
				Brokers: brokers,
				GroupID: cfg.KafkaGroupID,
				Topic:   topic,
			}, invalidator.Handle)
			go c.Run(ctx)
		}
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers, topics...)})
		logger.Info("cache invalidation consumers started", "group_id", cfg.KafkaGroupID)
	}

	svc := availability.NewService(source, logger, availability.Options{
		Workers:          cfg.ResolverWorkers,
		FetchConcurrency: cfg.FetchConcurrency,
		AllowDiagnostics: cfg.AllowDiagnostics(),
		Metrics:          m,
	})
	h := handlers.NewAvailabilityHandler(svc, logger, cfg.Location)

	mux := runtime.NewBaseMuxWithReady(readyChecks...)
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	api := http.NewServeMux()
	api.HandleFunc("/api/v1/availability/query", h.Query)
	api.HandleFunc("/api/v1/availability/times", h.Times)
	mux.Handle("/api/", httpx.Chain(api,
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			MaxAge:         10 * time.Minute,
		}),
		httpx.WithBodyLimit(cfg.BodyLimitBytes),
		httpx.WithTimeout(cfg.RequestTimeout),
		rateLimitMW,
	))

	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithRecover(logger),
	)
	handler = otelhttp.NewHandler(handler, "availability")
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcSrv := grpcx.NewServer(logger)
	grpcSrv.SetServing(true)
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		logger.Error("grpc listen failed", "err", err)
		panic(err)
	}

	go func() {
		logger.Info("grpc server starting", "addr", lis.Addr().String())
		if err := grpcSrv.Serve(lis); err != nil {
			logger.Error("grpc server error", "err", err)
		}
	}()

	go func() {
		logger.Info("http server starting", "addr", srv.Addr, "app_env", cfg.AppEnv, "diagnostics", cfg.AllowDiagnostics())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	err = runtime.Shutdown(10*time.Second,
		grpcSrv.Shutdown,
		srv.Shutdown,
		otelShutdown,
	)
	if err != nil {
		logger.Error("shutdown error", "err", err)
	}
	logger.Info("availability service stopped")
}
