package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	slhttp "github.com/sensorlog/sensorlog/internal/adapter/http"
	slnats "github.com/sensorlog/sensorlog/internal/adapter/nats"
	slotel "github.com/sensorlog/sensorlog/internal/adapter/otel"
	"github.com/sensorlog/sensorlog/internal/adapter/postgres"
	"github.com/sensorlog/sensorlog/internal/adapter/ws"
	"github.com/sensorlog/sensorlog/internal/config"
	"github.com/sensorlog/sensorlog/internal/keycode"
	"github.com/sensorlog/sensorlog/internal/logger"
	"github.com/sensorlog/sensorlog/internal/middleware"
	"github.com/sensorlog/sensorlog/internal/service"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "admin" {
		if err := runAdmin(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log := logger.New(cfg.Logging)
	slog.SetDefault(log)

	log.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"pg_max_conns", cfg.Postgres.MaxConns,
		"nats_enabled", cfg.NATS.Enabled,
	)

	ctx := context.Background()

	// --- Telemetry ---
	if cfg.Telemetry.Enabled {
		shutdown, err := slotel.Setup(ctx, cfg.Logging.Service, cfg.Telemetry.Endpoint)
		if err != nil {
			return fmt.Errorf("telemetry: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				log.Error("telemetry shutdown failed", "error", err)
			}
		}()
	}

	// --- Infrastructure ---
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	log.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	log.Info("migrations applied")

	sensorKeys, err := keycode.New(cfg.Keys.SensorSalt, cfg.Keys.MinLength)
	if err != nil {
		return fmt.Errorf("sensor key codec: %w", err)
	}
	groupKeys, err := keycode.New(cfg.Keys.GroupSalt, cfg.Keys.MinLength)
	if err != nil {
		return fmt.Errorf("group key codec: %w", err)
	}
	store := postgres.NewStore(pool, sensorKeys, groupKeys)

	// --- Services ---
	var (
		queryMetrics  service.QueryMetrics
		ingestMetrics service.IngestMetrics
	)
	if cfg.Telemetry.Enabled {
		metrics, err := slotel.NewMetrics()
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		queryMetrics = metrics
		ingestMetrics = metrics
	}

	guard := service.NewGuard(store, log)
	authSvc := service.NewAuthService(store, &cfg.Auth)
	querySvc := service.NewQueryService(store, log, queryMetrics)
	ingestSvc := service.NewIngestService(store, log, ingestMetrics)
	catalogSvc := service.NewCatalogService(store, log)

	// Live subscribers get every persisted reading.
	hub := ws.NewHub(guard, log)
	ingestSvc.AddSink(hub)

	// NATS publishing is optional; the service runs without a broker.
	if cfg.NATS.Enabled {
		queue, err := slnats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() {
			if err := queue.Drain(); err != nil {
				log.Error("nats drain failed", "error", err)
			}
		}()
		ingestSvc.AddSink(slnats.NewReadingPublisher(queue, log))
	}

	// --- HTTP ---
	limiter := middleware.NewRateLimiter(cfg.Rate.RequestsPerSecond, cfg.Rate.Burst)
	stopCleanup := limiter.StartCleanup(cfg.Rate.CleanupInterval, cfg.Rate.MaxIdleTime)
	defer stopCleanup()

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(slhttp.Logger(log))
	r.Use(slhttp.SecurityHeaders)
	r.Use(slhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(limiter.Handler)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	if cfg.Telemetry.Enabled {
		r.Use(slotel.HTTPMiddleware(cfg.Logging.Service))
	}

	r.Get("/ws", hub.ServeSensor)

	slhttp.MountRoutes(r,
		slhttp.NewDataHandler(guard, querySvc, ingestSvc, catalogSvc, log),
		slhttp.NewAuthHandler(authSvc, log),
		slhttp.NewCatalogHandler(catalogSvc, log),
		authSvc,
	)

	addr := ":" + cfg.Server.Port

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "error", err)
		}
	}()

	<-done
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
