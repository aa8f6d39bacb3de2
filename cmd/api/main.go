package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/BritishAmericqn/trespasser-backend/internal/cache"
	"github.com/BritishAmericqn/trespasser-backend/internal/config"
	"github.com/BritishAmericqn/trespasser-backend/internal/db/postgres"
	"github.com/BritishAmericqn/trespasser-backend/internal/db/redis"
	"github.com/BritishAmericqn/trespasser-backend/internal/handlers"
	appMiddleware "github.com/BritishAmericqn/trespasser-backend/internal/middleware"
	"github.com/BritishAmericqn/trespasser-backend/internal/repositories"
	"github.com/BritishAmericqn/trespasser-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: .env file not found, using environment variables\n")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Logger.Info().Msg("Starting Trespasser API Server")

	// Connect to PostgreSQL
	logger.Logger.Info().Msg("Connecting to PostgreSQL...")
	pgDB, err := postgres.Connect(cfg.Database.Postgres)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pgDB.Close()
	logger.Logger.Info().Msg("Connected to PostgreSQL")

	// Connect to Redis
	logger.Logger.Info().Msg("Connecting to Redis...")
	redisDB, err := redis.Connect(cfg.Database.Redis)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisDB.Close()
	logger.Logger.Info().Msg("Connected to Redis")

	// Wire repositories and handlers
	userRepo := repositories.NewUserRepository(pgDB, redisDB)
	matchRepo := repositories.NewMatchRepository(pgDB)
	leaderboardRepo := repositories.NewLeaderboardRepository(pgDB)
	sessionManager := cache.NewSessionManager(redisDB.Client)
	authHandler := handlers.NewAuthHandler(userRepo, sessionManager)

	// Initialize router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(appMiddleware.Metrics) // Add metrics middleware

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		
		// Check database health
		pgHealth := pgDB.Health() == nil
		redisHealth := redisDB.Health() == nil
		
		status := "healthy"
		httpStatus := http.StatusOK
		
		if !pgHealth || !redisHealth {
			status = "unhealthy"
			httpStatus = http.StatusServiceUnavailable
		}
		
		w.WriteHeader(httpStatus)
		fmt.Fprintf(w, `{
			"status": "%s",
			"timestamp": "%s",
			"services": {
				"postgres": %t,
				"redis": %t
			}
		}`, status, time.Now().Format(time.RFC3339), pgHealth, redisHealth)
	})

	// Prometheus metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Version info
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{
				"name": "Trespasser API",
				"version": "1.0.0",
				"language": "Go"
			}`)
		})

		// Test database query endpoint for metrics demonstration
		r.Get("/test/db", func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			
			// Test PostgreSQL query
			var count int
			pgErr := pgDB.Pool.QueryRow(r.Context(), "SELECT COUNT(*) FROM users").Scan(&count)
			pgDB.RecordQuery("test_count_users", time.Since(start))
			
			// Test Redis operation
			redisStart := time.Now()
			redisErr := redisDB.Client.Set(r.Context(), "test:ping", "pong", 10*time.Second).Err()
			redisDB.RecordQuery("test_set", time.Since(redisStart))
			
			w.Header().Set("Content-Type", "application/json")
			if pgErr != nil || redisErr != nil {
				w.WriteHeader(http.StatusInternalServerError)
				fmt.Fprintf(w, `{"error": "Database error", "postgres": "%v", "redis": "%v"}`, pgErr, redisErr)
				return
			}
			
			w.WriteHeader(http.StatusOK)
			fmt.Fprintf(w, `{"status": "ok", "postgres_users": %d, "redis": "ok"}`, count)
		})

		// Auth routes
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/guest", authHandler.Guest)

			r.Group(func(r chi.Router) {
				r.Use(appMiddleware.AuthMiddleware)
				r.Get("/me", authHandler.Me)
			})
		})

		// Leaderboard routes
		r.Get("/leaderboard", func(w http.ResponseWriter, r *http.Request) {
			limit, offset := paginationParams(r)
			sortBy := r.URL.Query().Get("sort")

			var (
				entries []*repositories.LeaderboardEntry
				err     error
			)
			if sortBy == "mmr" {
				entries, err = leaderboardRepo.GetTopByMMR(r.Context(), limit, offset)
			} else {
				entries, err = leaderboardRepo.GetTopByWins(r.Context(), limit, offset)
			}
			if err != nil {
				logger.Logger.Error().Err(err).Msg("Failed to load leaderboard")
				http.Error(w, `{"error":"Failed to load leaderboard"}`, http.StatusInternalServerError)
				return
			}

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]interface{}{"entries": entries})
		})

		// Player stats routes
		r.Get("/stats/{playerID}", func(w http.ResponseWriter, r *http.Request) {
			playerID := chi.URLParam(r, "playerID")

			stats, err := userRepo.GetStats(r.Context(), playerID)
			if err != nil {
				http.Error(w, `{"error":"Player not found"}`, http.StatusNotFound)
				return
			}

			ranks, err := leaderboardRepo.GetPlayerRanks(r.Context(), playerID)
			if err != nil {
				logger.Logger.Warn().Err(err).Str("playerId", playerID).Msg("Failed to load player ranks")
			}

			matches, err := matchRepo.GetPlayerResults(r.Context(), playerID, 10)
			if err != nil {
				logger.Logger.Warn().Err(err).Str("playerId", playerID).Msg("Failed to load recent matches")
			}

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]interface{}{
				"stats":         stats,
				"ranks":         ranks,
				"recentMatches": matches,
			})
		})
	})

	// Create HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.APIPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Setup graceful shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Start server in a goroutine
	go func() {
		logger.Logger.Info().
			Str("address", addr).
			Msg("API server listening")
		
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Start metrics updater in a goroutine
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		
		for {
			select {
			case <-ticker.C:
				pgDB.UpdatePoolMetrics()
				redisDB.UpdatePoolMetrics()
			case <-quit:
				return
			}
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	<-quit

	logger.Logger.Info().Msg("Shutting down server...")

	// Graceful shutdown with 5 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Logger.Info().Msg("Server exited")
}

// paginationParams reads limit/offset query params with sane defaults and bounds.
func paginationParams(r *http.Request) (limit, offset int) {
	limit = 50
	offset = 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
