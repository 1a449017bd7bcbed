package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"delivery-tracking-service/internal/adapters/cache"
	"delivery-tracking-service/internal/adapters/repositories"
	"delivery-tracking-service/internal/api"
	"delivery-tracking-service/internal/metrics"
	"delivery-tracking-service/internal/platform/config"
	"delivery-tracking-service/internal/platform/db"
	"delivery-tracking-service/internal/platform/obs"
	"delivery-tracking-service/internal/realtime"
	"delivery-tracking-service/internal/services"
)

// main is the application composition root.
// It wires concrete adapters (Postgres, Redis) behind ports and starts the
// HTTP server with the websocket endpoint mounted alongside the REST API.
func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logger config is unknown at this point; stderr is all we have.
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	logger := obs.NewLogger(cfg.LogLevel, cfg.LogFormat)

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("open database")
	}
	defer database.Close()

	// Initialize schema and seed demo data on startup for local runs.
	if err := repositories.InitSchema(database); err != nil {
		logger.Fatal().Err(err).Msg("init schema")
	}
	if seedPath := config.Get("SEED_PATH", ""); seedPath != "" {
		if err := repositories.SeedFromJSON(database, seedPath); err != nil {
			logger.Fatal().Err(err).Str("path", seedPath).Msg("seed deliveries")
		}
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	trackingCache := cache.NewRedisTrackingCache(redisClient)
	trackingCache.LocationTTL = cfg.CurrentLocationTTL
	trackingCache.InfoTTL = cfg.DeliveryInfoTTL
	trackingCache.DriverConnTTL = cfg.DriverConnTTL

	locations := repositories.NewPostgresLocationRepository(database)
	deliveries := repositories.NewPostgresDeliveryRepository(database)

	registry := prometheus.NewRegistry()
	sink := metrics.NewPrometheusSink(registry)

	hub := realtime.NewHub(sink, logger)
	ingestor := services.NewIngestor(trackingCache, locations, deliveries, hub, sink, logger)
	statuses := services.NewStatusService(deliveries, hub, sink, logger)
	session := realtime.NewSession(hub, trackingCache, ingestor, statuses, sink, logger)
	wsHandler := realtime.NewHandler(hub, session, sink, logger)

	router := api.NewRouter(api.RouterDeps{
		Cache:           trackingCache,
		History:         locations,
		Deliveries:      deliveries,
		Metrics:         sink,
		Realtime:        wsHandler,
		MetricsHandler:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		HistoryLimitMax: cfg.HistoryLimitMax,
		Logger:          logger,
	})

	// No WriteTimeout: websocket connections are long-lived and manage
	// their own per-message deadlines.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	hub.Shutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown incomplete")
	}
}
