// Package main is the entry point for the HoraPlan API server.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/horaplan/backend/internal/config"
	"github.com/horaplan/backend/internal/database"
	"github.com/horaplan/backend/internal/genai"
	"github.com/horaplan/backend/internal/handler"
	"github.com/horaplan/backend/internal/middleware"
	"github.com/horaplan/backend/internal/repository"
	"github.com/horaplan/backend/internal/service"
	"github.com/horaplan/backend/internal/token"
)

func main() {
	// Setup structured logger
	logLevel := slog.LevelInfo
	if os.Getenv("DEBUG") == "true" {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Auth.JWTSecret == "" {
		log.Fatal("HORAPLAN_AUTH_JWT_SECRET must be set")
	}

	logger.Info("Starting HoraPlan API",
		slog.String("environment", cfg.Server.Environment),
		slog.Int("port", cfg.Server.Port),
	)

	// Connect to PostgreSQL
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL")

	// Run migrations
	if err := db.RunMigrations(cfg.Database); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Database migrations completed")

	// Connect to Redis
	redis, err := database.NewRedis(cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redis.Close()
	logger.Info("Connected to Redis")

	// Repositories
	userRepo := repository.NewUserRepository(db.Pool())
	tokenRepo := repository.NewTokenRepository(db.Pool())
	activityRepo := repository.NewActivityRepository(db.Pool())
	scheduleRepo := repository.NewScheduleRepository(db.Pool())

	// Services
	jwtManager := token.NewManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry)
	authService := service.NewAuthService(userRepo, tokenRepo, jwtManager, cfg.Auth.BcryptCost, cfg.Auth.TokenExpiry)
	activityService := service.NewActivityService(activityRepo)
	scheduleService := service.NewScheduleService(scheduleRepo, redis)
	plannerService := service.NewPlannerService(activityRepo, genai.NewClient(cfg.AI))

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	activityHandler := handler.NewActivityHandler(activityService)
	scheduleHandler := handler.NewScheduleHandler(scheduleService)
	plannerHandler := handler.NewPlannerHandler(plannerService)

	// Setup router
	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.Server.CORSOrigins))
	r.Use(middleware.Metrics())
	r.Use(chimiddleware.Timeout(90 * time.Second))

	// Health check endpoints (no auth required)
	r.Get("/health", healthHandler())
	r.Get("/ready", readyHandler(db, redis))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(redis, middleware.DefaultRateLimitConfig()))

		// Public endpoints (no auth)
		r.Post("/register", authHandler.Register)
		r.Post("/token", authHandler.Token)

		// Protected endpoints
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(authService.VerifyCredential))

			r.Post("/logout", authHandler.Logout)
			r.Mount("/users/me", authHandler.UserRoutes())
			r.Mount("/auth/tokens", authHandler.TokenRoutes())
			r.Mount("/activities", activityHandler.Routes())
			r.Mount("/schedules", scheduleHandler.Routes())
			r.Post("/generate-schedule", plannerHandler.Generate)
			r.Post("/analyze-schedule", plannerHandler.Analyze)
		})
	})

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  time.Minute,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("Shutting down server", slog.String("signal", sig.String()))

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}

	logger.Info("Server stopped gracefully")
}

// healthHandler returns a simple health check that always succeeds if the server is running.
func healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}
}

// readyHandler returns a readiness check that verifies database and Redis connections.
func readyHandler(db *database.Postgres, redis *database.Redis) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"error","component":"database"}`))
			return
		}

		if err := redis.Ping(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"error","component":"redis"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","database":"connected","redis":"connected"}`))
	}
}
