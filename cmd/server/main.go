// Package main is the entry point for the grievance tracking server.
// It provides a REST API for citizen grievance submission, triage
// classification, department resolution, and SLA tracking.
//
// Architecture:
//   - Citizens file grievances against a category tree; "Other" routes to triage
//   - Triage staff assign leaf categories, which route to departments
//   - Every grievance carries an optional SLA due date; a scheduled job
//     escalates overdue work (In Review -> Pending Approval,
//     In Progress -> Policy Decision)
//   - Top authorities may grant fixed 14-day SLA extensions
//   - Every status/category/due-date mutation appends an immutable audit event
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/civicdesk/grievance-server/internal/config"
	"github.com/civicdesk/grievance-server/internal/database"
	"github.com/civicdesk/grievance-server/internal/handlers"
	"github.com/civicdesk/grievance-server/internal/middleware"
	"github.com/civicdesk/grievance-server/internal/models"
	"github.com/civicdesk/grievance-server/internal/services"
	"github.com/civicdesk/grievance-server/internal/sla"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// Initialize structured logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()
	sugar := logger.Sugar()

	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		sugar.Fatalf("Failed to load config: %v", err)
	}

	sugar.Infow("Starting Grievance Server",
		"port", cfg.Port,
		"env", cfg.Environment,
	)

	// Initialize database connection pool
	db, err := database.NewPool(cfg.DatabaseURL)
	if err != nil {
		sugar.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Redis is optional: the category cache degrades to DB reads without it.
	var cache *redis.Client
	if opts, err := redis.ParseURL(cfg.RedisURL); err == nil {
		cache = redis.NewClient(opts)
		if err := cache.Ping(context.Background()).Err(); err != nil {
			sugar.Warnw("Redis unavailable, running without cache", "error", err)
			cache = nil
		}
	}

	clock := sla.SystemClock{}

	// Initialize services
	eventSvc := services.NewEventService(db, sugar)
	grievanceSvc := services.NewGrievanceService(db, eventSvc, clock, sugar)
	categorySvc := services.NewCategoryService(db, cache, time.Duration(cfg.CacheTTLMin)*time.Minute, sugar)
	statsSvc := services.NewStatsService(grievanceSvc, clock)
	authSvc := services.NewAuthService(db, cfg.JWTSecret, sugar)

	// Scheduled SLA escalation
	escalation := services.NewEscalationWorker(grievanceSvc, eventSvc, clock, sugar)
	if err := escalation.Start(context.Background(), cfg.EscalationSchedule); err != nil {
		sugar.Fatalf("Failed to start escalation worker: %v", err)
	}
	defer escalation.Stop()

	// Initialize handlers
	grievanceHandler := handlers.NewGrievanceHandler(grievanceSvc, eventSvc, clock, sugar)
	triageHandler := handlers.NewTriageHandler(grievanceSvc, clock, sugar)
	adminHandler := handlers.NewAdminHandler(grievanceSvc, statsSvc, sugar)
	categoryHandler := handlers.NewCategoryHandler(categorySvc, sugar)
	authHandler := handlers.NewAuthHandler(authSvc, sugar)
	healthHandler := handlers.NewHealthHandler(db, cache, sugar)

	// Build router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.SecurityHeaders())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Rate limiting
	r.Use(middleware.RateLimit(cfg.RateLimitRPM))

	// API Routes
	r.Route("/api", func(r chi.Router) {
		// Health check
		r.Get("/health", healthHandler.Check)
		r.Get("/health/ready", healthHandler.Ready)

		// Auth (public)
		r.Post("/auth/login/", authHandler.Login)
		r.Post("/auth/register/", authHandler.Register)

		// Category tree (public read for dropdowns)
		r.Get("/categories/", categoryHandler.Tree)
		r.Get("/categories/leaves/", categoryHandler.Leaves)

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(cfg.JWTSecret))

			r.Get("/me/", authHandler.Me)

			r.Route("/grievances", func(r chi.Router) {
				r.Get("/", grievanceHandler.List)
				r.Post("/", grievanceHandler.Submit)
				r.Get("/counts", grievanceHandler.Counts)
				r.Get("/{id}/", grievanceHandler.Get)
				r.Patch("/{id}/", grievanceHandler.Patch)
				r.Post("/{id}/reopen/", grievanceHandler.Reopen)
				r.Get("/{id}/events/", grievanceHandler.Events)
				r.Post("/{id}/upload_image/", grievanceHandler.UploadImage)
			})

			r.Route("/triage-grievances", func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleTriageUser, models.RoleTopAuthority))
				r.Get("/", triageHandler.List)
				r.Post("/{id}/assign/", triageHandler.Assign)
			})

			r.Route("/admin-grievances", func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleTopAuthority))
				r.Get("/", adminHandler.List)
				r.Post("/{id}/grant_extension/", adminHandler.GrantExtension)
			})

			r.With(middleware.RequireRole(models.RoleTopAuthority, models.RoleDepartmentAdmin)).
				Get("/admin-stats/", adminHandler.Stats)
		})
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sugar.Infof("Server listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	sugar.Info("Shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		sugar.Fatalf("Forced shutdown: %v", err)
	}

	sugar.Info("Server stopped")
}
