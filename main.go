package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eventix-gateway/internal/admin"
	"eventix-gateway/internal/admin/admin_api"
	"eventix-gateway/internal/analytics"
	"eventix-gateway/internal/analytics/analytics_api"
	"eventix-gateway/internal/auth"
	"eventix-gateway/internal/auth/auth_api"
	"eventix-gateway/internal/backend"
	"eventix-gateway/internal/catalog"
	"eventix-gateway/internal/catalog/catalog_api"
	"eventix-gateway/internal/checkout"
	"eventix-gateway/internal/checkout/checkout_api"
	"eventix-gateway/internal/checkout/db"
	rediswrap "eventix-gateway/internal/checkout/redis"
	"eventix-gateway/internal/config"
	"eventix-gateway/internal/database"
	"eventix-gateway/internal/kafka"
	"eventix-gateway/internal/logger"
	"eventix-gateway/internal/monitoring"
	"eventix-gateway/internal/reservation"
	"eventix-gateway/internal/reservation/reservation_api"
	"eventix-gateway/internal/sse"
	"eventix-gateway/internal/tickets"
	"eventix-gateway/internal/tickets/ticket_api"
	"eventix-gateway/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

const metricsInterval = 15 * time.Second

func healthHandler(bunDB *bun.DB, redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := map[string]string{"redis": "ok", "database": "ok"}
		healthy := true
		if err := redisClient.Ping(ctx).Err(); err != nil {
			status["redis"] = err.Error()
			healthy = false
		}
		if err := bunDB.PingContext(ctx); err != nil {
			status["database"] = err.Error()
			healthy = false
		}

		if !healthy {
			utils.WriteJSON(w, http.StatusServiceUnavailable, utils.APIResponse{
				Success: false, Message: "Degraded", Data: status, Timestamp: time.Now(),
			})
			return
		}
		utils.WriteSuccess(w, http.StatusOK, "OK", status)
	}
}

func main() {
	envErr := godotenv.Load()
	cfg := config.Load()

	logger := logger.NewLogger(cfg.LogDir)
	defer logger.Close()

	logger.Info("APP", "Starting eventix gateway initialization")
	if envErr != nil {
		logger.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		logger.Info("CONFIG", "Loaded environment variables from .env file")
	}

	// Prices leave the gateway as JSON numbers, the way the backend sends them.
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	redisClient, err := auth.InitializeRedis(cfg.Redis, logger)
	if err != nil {
		logger.Fatal("REDIS", fmt.Sprintf("Redis connection error: %v", err))
	}
	defer redisClient.Close()

	bunDB, err := database.Open(ctx, cfg.Database.DSN, logger)
	if err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Failed to open checkout journal: %v", err))
	}
	defer bunDB.Close()
	if err := database.Migrate(ctx, bunDB, logger); err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Failed to migrate checkout journal: %v", err))
	}

	topics := kafka.NewCheckoutTopics(cfg.Kafka.TopicPrefix)
	var publisher checkout.Publisher = kafka.NopProducer{}
	if cfg.Kafka.Enabled {
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, topics.All(), logger); err != nil {
			logger.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		}
		producer := kafka.NewProducer(cfg.Kafka.Brokers, logger)
		defer producer.Close()
		publisher = producer
		logger.Info("KAFKA", fmt.Sprintf("Kafka producer initialized for %v", cfg.Kafka.Brokers))
	} else {
		logger.Info("KAFKA", "Kafka disabled, checkout events are not published")
	}

	monitor := monitoring.NewMonitor(redisClient, logger)

	api := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout, logger)
	api.Observe = monitor.ObserveBackend
	logger.Info("BACKEND", fmt.Sprintf("Ticketing API at %s (timeout %s)", cfg.Backend.BaseURL, cfg.Backend.Timeout))

	sessions := auth.NewSessionStore(redisClient, cfg.Auth.SessionTTL)
	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)
	guard := &auth.Middleware{Tokens: tokens, Sessions: sessions, CookieName: cfg.Auth.CookieName, Logger: logger}

	latch := rediswrap.NewLatch(redisClient, cfg.Checkout.LatchTTL, cfg.Checkout.ViewTTL)
	journal := &db.DB{Bun: bunDB}

	authService := auth.NewService(api, sessions, tokens, logger)
	catalogService := catalog.NewService(api, logger)
	checkoutService := checkout.NewService(api, latch, journal, sessions, publisher, topics, monitor, logger)
	checkoutFeed := sse.NewCheckoutEventEmitter()
	checkoutService.Feed = checkoutFeed
	reservationService := reservation.NewService(api, checkoutService, logger)
	ticketService := tickets.NewService(api, logger)
	analyticsService := analytics.NewService(api, journal, logger)
	adminService := admin.NewService(api, logger)

	authHandler := auth_api.NewHandler(authService, cfg.Auth.CookieName, logger)
	catalogHandler := catalog_api.NewHandler(catalogService, logger)
	reservationHandler := reservation_api.NewHandler(reservationService, logger)
	checkoutHandler := checkout_api.NewHandler(checkoutService, logger)
	checkoutHandler.Feed = checkoutFeed
	ticketHandler := ticket_api.NewHandler(ticketService, logger)
	analyticsHandler := analytics_api.NewHandler(analyticsService, logger)
	adminHandler := admin_api.NewHandler(adminService, logger)

	logger.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(monitor.Middleware)

	r.Get("/healthz", healthHandler(bunDB, redisClient))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		// --- Public Routes ---
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout)
		catalogHandler.RegisterRoutes(r)
		logger.Info("ROUTER", "Public auth and catalog routes registered under /api")

		// --- Signed-in Routes ---
		r.Group(func(r chi.Router) {
			r.Use(guard.RequireUser)

			r.Get("/me", authHandler.Me)
			r.Get("/events/{eventId}/quote", reservationHandler.Quote)
			r.Post("/reservations", reservationHandler.Reserve)
			checkoutHandler.RegisterRoutes(r)
			ticketHandler.RegisterRoutes(r)
		})
		logger.Info("ROUTER", "Reservation, checkout and ticket routes registered behind RequireUser")

		// --- Admin Routes ---
		r.Route("/admin", func(r chi.Router) {
			r.Use(guard.RequireAdmin)

			adminHandler.RegisterRoutes(r)
			analyticsHandler.RegisterRoutes(r)
			r.Get("/checkouts", checkoutHandler.ListCheckouts)
			r.Get("/checkouts/stream", checkoutHandler.StreamCheckouts)
		})
		logger.Info("ROUTER", "Admin routes registered under /api/admin")
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	watcher := checkout.NewExpiryWatcher(redisClient, checkoutService, logger)
	watcher.EnableNotifications(ctx)
	go func() {
		if err := watcher.Run(ctx); err != nil {
			logger.Error("REDIS", fmt.Sprintf("Expiry watcher stopped: %v", err))
		}
	}()
	go monitor.Run(ctx, metricsInterval)

	go func() {
		logger.Info("HTTP", fmt.Sprintf("Eventix gateway running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	logger.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	logger.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		logger.Info("HTTP", "Eventix gateway shutdown complete")
	}
	stopBackground()
}
