package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"certguard/internal/duplicate/blocking"
	"certguard/internal/duplicate/engine"
	"certguard/internal/duplicate/handler"
	"certguard/internal/duplicate/lock"
	dupmetrics "certguard/internal/duplicate/metrics"
	"certguard/internal/duplicate/service"
	certstore "certguard/internal/duplicate/store/certificate"
	overridestore "certguard/internal/duplicate/store/override"
	"certguard/internal/platform/config"
	"certguard/internal/platform/httpserver"
	"certguard/internal/platform/jwttoken"
	"certguard/internal/platform/kafka"
	"certguard/internal/platform/middleware"
	"certguard/internal/platform/postgres"
	"certguard/internal/platform/redis"
	audit "certguard/pkg/platform/audit"
	"certguard/pkg/platform/audit/publisher"
	auditmemory "certguard/pkg/platform/audit/store/memory"
)

const (
	auditBufferSize  = 1024
	ruleParallelism  = 4
	topicPartitions  = 3
	topicReplication = 1
)

type app struct {
	router  http.Handler
	closers []func()
	checks  map[string]httpserver.Check
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func build(ctx context.Context, cfg config.Server, log *slog.Logger) (*app, error) {
	a := &app{checks: map[string]httpserver.Check{}}
	fail := func(err error) (*app, error) {
		a.close()
		return nil, err
	}

	rules, err := config.LoadDetectionConfig(cfg.RulesFile)
	if err != nil {
		return fail(fmt.Errorf("load rules: %w", err))
	}

	certs, overrides, err := buildStores(ctx, cfg, log, a)
	if err != nil {
		return fail(err)
	}
	locker, err := buildLocker(ctx, cfg, log, a)
	if err != nil {
		return fail(err)
	}
	events, err := buildAuditStore(ctx, cfg, log, a)
	if err != nil {
		return fail(err)
	}

	auditor := publisher.NewPublisher(events, publisher.WithAsyncBuffer(auditBufferSize), publisher.WithLogger(log))
	a.closers = append(a.closers, auditor.Close)

	svc := service.New(certs, overrides,
		service.WithLogger(log),
		service.WithConfig(rules),
		service.WithEngine(engine.New(certs, engineOptions(cfg, log)...)),
		service.WithLocker(locker, cfg.LockTTL),
		service.WithAuditPublisher(auditor),
		service.WithMetrics(dupmetrics.New()),
	)

	tokens := jwttoken.NewJWTService(cfg.JWTSigningKey, jwttoken.DefaultIssuer, jwttoken.DefaultAudience)

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.AccessLog(log))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/readyz", httpserver.Readiness(a.checks))
	r.Handle("/metrics", promhttp.Handler())
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(tokens, log))
		handler.New(svc, log).Register(r)
	})
	a.router = r

	log.Info("duplicate detection configured",
		"rules", len(rules.Rules),
		"enabled", rules.Enabled,
		"blocking", cfg.BlockingEnabled,
		"rules_file", cfg.RulesFile,
	)
	return a, nil
}

// engineOptions adds the blocking pruner only when DUPLICATE_BLOCKING_ENABLED
// is set; by default every non-revoked record in the window is scored.
func engineOptions(cfg config.Server, log *slog.Logger) []engine.Option {
	opts := []engine.Option{
		engine.WithLogger(log),
		engine.WithParallelism(ruleParallelism),
	}
	if cfg.BlockingEnabled {
		opts = append(opts, engine.WithPruner(blocking.NewPruner()))
	}
	return opts
}

func buildStores(ctx context.Context, cfg config.Server, log *slog.Logger, a *app) (service.CertificateStore, service.OverrideStore, error) {
	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	if db == nil {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		return certstore.NewInMemoryStore(), overridestore.NewInMemoryStore(), nil
	}
	a.closers = append(a.closers, func() { closeDB(db, log) })
	a.checks["postgres"] = db.PingContext
	if err := postgres.Migrate(ctx, db); err != nil {
		return nil, nil, fmt.Errorf("migrate postgres: %w", err)
	}
	return certstore.NewPostgres(db), overridestore.NewPostgres(db), nil
}

func closeDB(db *sql.DB, log *slog.Logger) {
	if err := db.Close(); err != nil {
		log.Error("failed to close postgres", "error", err)
	}
}

func buildLocker(ctx context.Context, cfg config.Server, log *slog.Logger, a *app) (lock.Locker, error) {
	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	if client == nil {
		log.Warn("REDIS_URL not set, issuance lock is process-local")
		return lock.NewMemoryLocker(), nil
	}
	a.closers = append(a.closers, func() { _ = client.Close() })
	a.checks["redis"] = client.Health
	return lock.NewRedisLocker(client.Client), nil
}

func buildAuditStore(ctx context.Context, cfg config.Server, log *slog.Logger, a *app) (audit.Store, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		log.Warn("KAFKA_BROKERS not set, audit events kept in memory")
		return auditmemory.NewInMemoryStore(), nil
	}
	if err := kafka.EnsureTopic(ctx, cfg.Kafka, topicPartitions, topicReplication); err != nil {
		return nil, err
	}
	producer, err := kafka.NewProducer(cfg.Kafka, log)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, producer.Close)
	return producer, nil
}
