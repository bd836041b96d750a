package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"carpool/internal/config"
	"carpool/internal/handlers"
	"carpool/internal/middleware"
	"carpool/internal/repositories/api"
	"carpool/internal/repositories/interfaces"
	"carpool/internal/repositories/mongodb"
	"carpool/internal/services"
	"carpool/pkg/cache"
	"carpool/pkg/database"
	"carpool/pkg/events"
	"carpool/pkg/logger"
	"carpool/pkg/metrics"
	"carpool/pkg/websocket"
	"carpool/routes"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(&logger.Config{
		Level:   logger.LogLevel(cfg.App.LogLevel),
		Format:  cfg.App.LogFormat,
		Output:  cfg.App.LogOutput,
		AppName: cfg.App.Name,
		Version: cfg.App.Version,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector := metrics.NewCollector()
	checks := map[string]handlers.Pinger{}

	// Reservation source
	var (
		reservationSource interfaces.ReservationSource
		tripSource        interfaces.TripSource
	)
	switch cfg.Upstream.Source {
	case config.SourceMongoDB:
		db, err := database.NewMongoDB(ctx, &database.DatabaseConfig{
			URI:            cfg.Database.URI,
			Database:       cfg.Database.Database,
			MaxPoolSize:    cfg.Database.MaxPoolSize,
			MinPoolSize:    cfg.Database.MinPoolSize,
			ConnectTimeout: cfg.Database.ConnectTimeout,
			SocketTimeout:  cfg.Database.SocketTimeout,
		})
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to connect to MongoDB")
		}
		defer db.Close()

		if cfg.Database.RunMigrations {
			if err := database.NewMigrator(db.Database, appLogger).Up(ctx); err != nil {
				appLogger.WithError(err).Fatal("Failed to run migrations")
			}
		}

		reservationSource = mongodb.NewReservationRepository(db.Database)
		tripSource = mongodb.NewTripRepository(db.Database)
		checks["mongodb"] = db
	default:
		client, err := api.NewClient(api.Config{
			BaseURL:   cfg.Upstream.BaseURL,
			Timeout:   cfg.Upstream.Timeout,
			UserAgent: cfg.Upstream.UserAgent,
		}, &http.Client{}, appLogger, collector)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to create upstream client")
		}
		reservationSource = client
		tripSource = client
	}

	// Cache is optional; the service reads through to the source without it
	var reservationCache services.CacheService
	if cfg.Cache.Enabled {
		redisCache, err := cache.NewRedisCache(&cache.RedisConfig{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
			KeyPrefix:    cfg.Cache.KeyPrefix,
		})
		if err != nil {
			appLogger.WithError(err).Warn("Redis unavailable, caching disabled")
		} else {
			defer redisCache.Close()
			reservationCache = redisCache
			checks["redis"] = redisCache
		}
	}

	// Events
	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.NATS.URL != "" {
		natsPublisher, err := events.NewNATSPublisher(events.Config{
			URL:           cfg.NATS.URL,
			SubjectPrefix: cfg.NATS.SubjectPrefix,
			ClientName:    cfg.NATS.ClientName,
		}, appLogger, collector)
		if err != nil {
			appLogger.WithError(err).Warn("NATS unavailable, events disabled")
		} else {
			publisher = natsPublisher
		}
	}
	defer publisher.Close()

	hub := websocket.NewHub(appLogger, collector)
	go hub.Run(ctx)

	reservationService := services.NewReservationService(services.ReservationServiceConfig{
		Source:    reservationSource,
		Trips:     tripSource,
		Cache:     reservationCache,
		CacheTTL:  cfg.Cache.ReservationsTTL,
		Publisher: publisher,
		Notifier:  hub,
		Metrics:   collector,
		Clock:     services.ClockIn(cfg.App.Location()),
	}, appLogger)

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
		appLogger.WithError(err).Fatal("Invalid TRUSTED_PROXIES")
	}

	// Global middleware
	router.Use(gin.RecoveryWithWriter(appLogger.Writer()))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.Security.CORSAllowedOrigins))
	router.Use(middleware.LoggingMiddleware(appLogger))

	routes.SetupRoutes(router, routes.Handlers{
		Reservations: handlers.NewReservationHandler(reservationService, appLogger),
		Trips:        handlers.NewTripHandler(reservationService, appLogger),
		Health:       handlers.NewHealthHandler(checks),
		WebSocket:    websocket.NewHandler(hub, cfg.Security.CORSAllowedOrigins),
		Metrics:      collector.Handler(),
	}, middleware.AuthRequired(cfg.Security.JWTSecret, appLogger))

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.WithFields(map[string]interface{}{
			"addr":   server.Addr,
			"source": cfg.Upstream.Source,
		}).Info("Starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.WithError(err).Fatal("Server failed")
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("Graceful shutdown failed")
	}
}
