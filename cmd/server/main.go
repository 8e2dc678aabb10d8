// Command server boots the claimcheck API: the review session endpoints,
// the audit pipeline with its outbox relay and Kafka materializer, and the
// operational surface (health, metrics).
//
// Postgres, Redis, and Kafka are optional at startup. Absent backends
// degrade to in-memory equivalents so a single binary runs locally against
// nothing but the expense backend.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"claimcheck/internal/jwtauth"
	"claimcheck/internal/platform/config"
	"claimcheck/internal/platform/httpserver"
	kafkaconsumer "claimcheck/internal/platform/kafka/consumer"
	kafkaproducer "claimcheck/internal/platform/kafka/producer"
	"claimcheck/internal/platform/logger"
	"claimcheck/internal/platform/postgres"
	platformredis "claimcheck/internal/platform/redis"
	"claimcheck/internal/review"
	"claimcheck/internal/review/adapters/remote"
	reviewmetrics "claimcheck/internal/review/metrics"
	"claimcheck/internal/review/ports"
	"claimcheck/internal/review/service"
	"claimcheck/internal/review/store"
	"claimcheck/internal/review/store/submission"
	"claimcheck/pkg/platform/audit"
	auditconsumer "claimcheck/pkg/platform/audit/consumer"
	"claimcheck/pkg/platform/audit/outbox"
	"claimcheck/pkg/platform/audit/publisher"
	auditmem "claimcheck/pkg/platform/audit/store/memory"
	auditpg "claimcheck/pkg/platform/audit/store/postgres"
	authmw "claimcheck/pkg/platform/middleware/auth"
	"claimcheck/pkg/platform/middleware/metadata"
	"claimcheck/pkg/platform/middleware/request"
	"claimcheck/pkg/platform/middleware/requesttime"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Server.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	if db != nil {
		defer db.Close()
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Audit pipeline. With postgres the publisher writes to the outbox and
	// the relay/consumer pair materializes events through Kafka; without it
	// events stay in process memory.
	var (
		auditStore audit.Store
		pgAudit    *auditpg.Store
	)
	if db != nil {
		pgAudit = auditpg.New(db)
		auditStore = pgAudit
	} else {
		auditStore = auditmem.NewInMemoryStore()
		log.Warn("audit events held in memory; set DATABASE_URL for durability")
	}

	pubOpts := []publisher.Option{
		publisher.WithLogger(log),
		publisher.WithMetrics(publisher.New()),
	}
	if cfg.Audit.BufferSize > 0 {
		pubOpts = append(pubOpts, publisher.WithAsyncBuffer(cfg.Audit.BufferSize))
	}
	auditPublisher := publisher.NewPublisher(auditStore, pubOpts...)
	defer auditPublisher.Close()

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Kafka.Enabled() && pgAudit != nil {
		producer, err := kafkaproducer.New(cfg.Kafka.Brokers, "claimcheck-audit-relay")
		if err != nil {
			return fmt.Errorf("kafka producer: %w", err)
		}
		defer producer.Close()
		if err := producer.EnsureTopic(ctx, cfg.Kafka.AuditTopic, 3, 1); err != nil {
			return fmt.Errorf("ensure audit topic: %w", err)
		}

		relay := outbox.NewRelay(db, producer, cfg.Kafka.AuditTopic,
			outbox.WithInterval(cfg.Kafka.RelayInterval),
			outbox.WithBatchSize(cfg.Kafka.RelayBatchSize),
			outbox.WithLogger(log),
		)
		g.Go(func() error { return relay.Run(gctx) })

		materializer, err := kafkaconsumer.New(
			cfg.Kafka.Brokers,
			cfg.Kafka.ConsumerGroup,
			[]string{cfg.Kafka.AuditTopic},
			auditconsumer.NewMaterializeHandler(pgAudit, log),
			log,
		)
		if err != nil {
			return fmt.Errorf("kafka consumer: %w", err)
		}
		defer materializer.Close()
		g.Go(func() error { return materializer.Run(gctx) })

		log.Info("audit pipeline enabled", "topic", cfg.Kafka.AuditTopic, "brokers", cfg.Kafka.Brokers)
	} else if cfg.Kafka.Enabled() {
		log.Warn("KAFKA_BROKERS set without DATABASE_URL; audit relay disabled")
	}

	// Session state: Redis when configured, process memory otherwise.
	var sessions store.SessionStore
	if redisClient != nil {
		var redisOpts []store.RedisOption
		if cfg.Redis.SessionTTL > 0 {
			redisOpts = append(redisOpts, store.WithTTL(cfg.Redis.SessionTTL))
		}
		sessions = store.NewRedis(redisClient.Client, redisOpts...)
	} else {
		sessions = store.NewMemory()
		log.Warn("sessions held in memory; set REDIS_URL for durability")
	}

	// Expense backend adapters. Extraction gets a longer timeout because it
	// carries the image payload.
	extractor := remote.NewExtractor(remote.NewClient(cfg.Upstream.ExtractorURL,
		remote.WithTimeout(cfg.Upstream.ExtractTimeout)))
	evaluator := remote.NewEvaluator(remote.NewClient(cfg.Upstream.PolicyURL,
		remote.WithTimeout(cfg.Upstream.Timeout)))
	explainer := remote.NewExplainer(remote.NewClient(cfg.Upstream.ExplainerURL,
		remote.WithTimeout(cfg.Upstream.Timeout)))

	var submissions ports.SubmissionStore
	switch cfg.Review.SubmissionBackend {
	case config.SubmissionBackendPostgres:
		if db == nil {
			return errors.New("SUBMISSION_BACKEND=postgres requires DATABASE_URL")
		}
		var subOpts []submission.PostgresOption
		if pgAudit != nil {
			subOpts = append(subOpts, submission.WithAuditStore(pgAudit))
		}
		submissions = submission.NewPostgres(db, subOpts...)
	case config.SubmissionBackendRemote:
		submissions = remote.NewSubmissionStore(remote.NewClient(cfg.Upstream.SubmissionURL,
			remote.WithTimeout(cfg.Upstream.Timeout)))
	default:
		return fmt.Errorf("unknown submission backend %q", cfg.Review.SubmissionBackend)
	}

	svc := review.NewService(sessions, extractor, evaluator, explainer, submissions,
		service.WithLogger(log),
		service.WithAuditPublisher(auditPublisher),
		service.WithMetrics(reviewmetrics.New()),
		service.WithDefaultPaymentMethod(cfg.Review.DefaultPaymentMethod),
	)

	jwtService := jwtauth.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)
	validator := jwtauth.NewJWTServiceAdapter(jwtService)
	reviewHandler := review.NewHandler(svc, log)

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(request.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)

	health := &healthChecker{db: db, redis: redisClient}
	r.Get("/healthz", health.handle)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Use(authmw.RequireAuth(validator, log))
		reviewHandler.Register(api)
	})

	srv := httpserver.New(cfg.Server.Addr, r)
	g.Go(func() error {
		log.Info("claimcheck listening",
			"addr", cfg.Server.Addr,
			"submission_backend", cfg.Review.SubmissionBackend,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout)
		return httpserver.Shutdown(srv, cfg.Server.ShutdownTimeout)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
