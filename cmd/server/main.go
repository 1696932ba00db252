// Command server runs the confidential participant registry: admission of
// pre-encrypted records, privileged reconciliation, and the query surface.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"sealedreg/internal/audit"
	"sealedreg/internal/auth"
	"sealedreg/internal/auth/revocation"
	"sealedreg/internal/enclave"
	"sealedreg/internal/platform/config"
	"sealedreg/internal/platform/httpserver"
	"sealedreg/internal/platform/logger"
	"sealedreg/internal/platform/middleware"
	platformredis "sealedreg/internal/platform/redis"
	"sealedreg/internal/registry/handler"
	"sealedreg/internal/registry/metrics"
	"sealedreg/internal/registry/service"
	"sealedreg/internal/registry/stats"
	"sealedreg/internal/registry/store"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Record store: postgres when configured, in-memory otherwise.
	var recordStore service.Store
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("open postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		pg := store.NewPostgres(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Error("ensure schema", "error", err)
			os.Exit(1)
		}
		recordStore = pg
		log.Info("using postgres record store")
	} else {
		recordStore = store.NewInMemory()
		log.Info("using in-memory record store")
	}

	// Audit pipeline: kafka sink when brokers are configured, memory otherwise,
	// always drained through the background worker.
	var sink audit.Sink
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Error("connect kafka audit sink", "error", err)
			os.Exit(1)
		}
		defer kafkaSink.Close()
		sink = kafkaSink
		log.Info("audit events to kafka", "topic", cfg.Kafka.Topic)
	} else {
		sink = audit.NewMemorySink()
	}
	worker := audit.NewWorker(sink, 256, log)
	publisher := audit.NewPublisher(worker)

	// Coordinator auth: JWT tokens, revocation list in redis when configured.
	jwtService := auth.NewJWTService(cfg.JWTSigningKey, "sealedreg")
	var revocations auth.RevocationChecker
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("connect redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		revocations = revocation.NewRedisList(redisClient.Client)
	} else {
		revocations = revocation.NewMemoryList()
	}

	registryService := service.New(
		recordStore,
		enclave.NewStaticVerifier(cfg.EnclaveSecret),
		stats.New(),
		service.WithLogger(log),
		service.WithMetrics(metrics.New()),
		service.WithAuditPublisher(publisher),
	)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestTime)
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logger(log))

	coordinatorOnly := auth.RequireCoordinator(jwtService, revocations, log)
	handler.New(registryService, log, coordinatorOnly).Register(router)
	auth.NewHandler(jwtService, log, cfg.CoordinatorID, cfg.CoordinatorSecretHash).Register(router)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting sealedreg", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		err := worker.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}
