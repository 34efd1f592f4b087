package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"famhelpdesk/internal/audit/relay"
	"famhelpdesk/internal/consistency"
	httpapi "famhelpdesk/internal/http"
	jwttoken "famhelpdesk/internal/jwt_token"
	membershipHandler "famhelpdesk/internal/membership/handler"
	membershipMetrics "famhelpdesk/internal/membership/metrics"
	membershipService "famhelpdesk/internal/membership/service"
	familystore "famhelpdesk/internal/membership/store/family"
	groupstore "famhelpdesk/internal/membership/store/group"
	notificationHandler "famhelpdesk/internal/notification/handler"
	notificationMetrics "famhelpdesk/internal/notification/metrics"
	notificationService "famhelpdesk/internal/notification/service"
	notificationStore "famhelpdesk/internal/notification/store"
	profileHandler "famhelpdesk/internal/profile/handler"
	profileService "famhelpdesk/internal/profile/service"
	profilestore "famhelpdesk/internal/profile/store"
	"famhelpdesk/internal/platform/config"
	"famhelpdesk/internal/platform/httpserver"
	"famhelpdesk/internal/platform/kafka"
	"famhelpdesk/internal/platform/logger"
	"famhelpdesk/internal/platform/metrics"
	"famhelpdesk/internal/platform/postgres"
	"famhelpdesk/internal/platform/redis"
	"famhelpdesk/internal/storage"
	audit "famhelpdesk/pkg/platform/audit"
	"famhelpdesk/pkg/platform/audit/publisher"
	auditmemory "famhelpdesk/pkg/platform/audit/store/memory"
	auditpostgres "famhelpdesk/pkg/platform/audit/store/postgres"
	"famhelpdesk/pkg/platform/circuit"
)

// backend is the set of stores sharing one unit-of-work runner.
type backend struct {
	tx            storage.TxRunner
	families      membershipService.FamilyStore
	groups        membershipService.GroupStore
	notifications notificationService.Store
	profiles      profileService.Store
	audit         interface {
		audit.Store
		audit.Outbox
	}
	db *sql.DB
}

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	store, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	if store.db != nil {
		defer store.db.Close()
	}

	healthChecks := map[string]httpapi.HealthCheck{}
	if store.db != nil {
		healthChecks["postgres"] = store.db.PingContext
	}

	versions, closeVersions, err := openVersions(ctx, cfg, log, healthChecks)
	if err != nil {
		return err
	}
	defer closeVersions()

	layer := consistency.New(versions,
		consistency.WithLogger(log),
		consistency.WithMetrics(consistency.NewMetrics()),
		consistency.WithCache(cfg.ReadCache.Enabled),
	)

	notifications := notificationService.New(store.notifications,
		notificationService.WithLogger(log),
		notificationService.WithMetrics(notificationMetrics.New()),
		notificationService.WithConsistency(layer),
	)
	auditPublisher := publisher.New(store.audit,
		publisher.WithLogger(log),
		publisher.WithMetrics(publisher.NewMetrics()),
	)
	membership := membershipService.New(store.families, store.groups, store.tx, notifications,
		membershipService.WithLogger(log),
		membershipService.WithAuditPublisher(auditPublisher),
		membershipService.WithMetrics(membershipMetrics.New()),
		membershipService.WithConsistency(layer),
	)

	profiles := profileHandler.New(profileService.New(store.profiles, store.tx, notifications,
		profileService.WithLogger(log),
		profileService.WithAuditPublisher(auditPublisher),
		profileService.WithConsistency(layer),
	), log)

	jwtService := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)
	router := httpapi.NewRouter(httpapi.Config{
		Logger:          log,
		Validator:       jwttoken.NewJWTServiceAdapter(jwtService),
		Metrics:         metrics.New(),
		RequestTimeout:  cfg.RequestTimeout,
		HealthChecks:    healthChecks,
		AuthMiddlewares: []func(http.Handler) http.Handler{profiles.EnsureProfile},
	},
		membershipHandler.New(membership, log),
		notificationHandler.New(notifications, log),
		profiles,
	)
	srv := httpserver.New(cfg, router)

	g, gctx := errgroup.WithContext(ctx)

	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafka.NewProducer(cfg.Kafka, log)
		if err != nil {
			return err
		}
		defer producer.Close()
		healthChecks["kafka"] = producer.Health

		r := relay.New(store.audit, store.tx, producer,
			relay.WithLogger(log),
			relay.WithMetrics(relay.NewMetrics()),
			relay.WithInterval(cfg.Outbox.PollInterval),
			relay.WithBatchSize(cfg.Outbox.BatchSize),
			relay.WithBreaker(circuit.New("kafka", circuit.WithFailureThreshold(5))),
		)
		g.Go(func() error {
			if err := producer.EnsureTopic(gctx, 3, 1); err != nil {
				log.WarnContext(gctx, "kafka topic check failed, relay will retry on publish", "error", err)
			}
			return r.Run(gctx)
		})
	} else {
		log.InfoContext(ctx, "kafka not configured, audit outbox will accumulate")
	}

	g.Go(func() error {
		log.InfoContext(gctx, "starting famhelpdesk", "addr", cfg.Addr, "postgres", store.db != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.ShutdownTimeout)
		defer cancel()
		log.InfoContext(shutdownCtx, "shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// openBackend selects Postgres when DATABASE_URL is set and the in-memory
// stores otherwise.
func openBackend(ctx context.Context, cfg config.Server, log *slog.Logger) (*backend, error) {
	if cfg.Database.URL == "" {
		log.InfoContext(ctx, "DATABASE_URL not set, using in-memory stores")
		db := storage.NewMemoryDB()
		return &backend{
			tx:            db,
			families:      familystore.NewInMemoryStore(db),
			groups:        groupstore.NewInMemoryStore(db),
			notifications: notificationStore.NewInMemoryStore(db),
			profiles:      profilestore.NewInMemoryStore(db),
			audit:         auditmemory.NewInMemoryStore(db),
		}, nil
	}

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	return &backend{
		tx:            storage.NewPostgresTx(db, cfg.Database.TxTimeout),
		families:      familystore.NewPostgres(db),
		groups:        groupstore.NewPostgres(db),
		notifications: notificationStore.NewPostgres(db),
		profiles:      profilestore.NewPostgres(db),
		audit:         auditpostgres.New(db),
		db:            db,
	}, nil
}

// openVersions uses Redis for version counters when REDIS_URL is set so
// every replica observes the same stamps.
func openVersions(ctx context.Context, cfg config.Server, log *slog.Logger, checks map[string]httpapi.HealthCheck) (consistency.VersionStore, func(), error) {
	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		log.InfoContext(ctx, "REDIS_URL not set, read versions are process local")
		return consistency.NewMemoryVersions(), func() {}, nil
	}
	versions, err := consistency.NewRedisVersions(ctx, client.Client)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	checks["redis"] = client.Health
	return versions, func() { _ = client.Close() }, nil
}
