package server

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"winecellar/internal/config"
	custommiddleware "winecellar/internal/middleware"
	"winecellar/internal/repository"
	"winecellar/internal/service"
	"winecellar/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config      *config.Config
	logger      *zap.Logger
	db          *sql.DB
	redisClient *redis.Client
}

func NewServer(cfg *config.Config, logger *zap.Logger, db *sql.DB) *Server {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(nil, cfg.Server.Env != "production"))

	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	router.Use(custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
		RequestsPerWindow: 120,
		Window:            time.Minute,
		KeyPrefix:         "winecellar_rate",
	}, logger))

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Repositories
	userRepo := repository.NewUserRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)
	cellarRepo := repository.NewCellarRepository(db)
	shelfRepo := repository.NewShelfRepository(db)
	bottleRepo := repository.NewBottleRepository(db)
	archiveRepo := repository.NewArchiveRepository(db)
	stockRepo := repository.NewStockRepository(db, archiveRepo)
	reviewRepo := repository.NewReviewRepository(db)
	statsRepo := repository.NewStatsRepository(db)

	// Services
	gate := service.NewOwnershipGate(cellarRepo, shelfRepo)
	userService := service.NewUserService(userRepo, refreshTokenRepo, cellarRepo, shelfRepo, cfg.JWT.Secret)
	shelfService := service.NewShelfService(shelfRepo, gate)
	stockService := service.NewStockService(stockRepo, archiveRepo, bottleRepo, gate)
	bottleService := service.NewBottleService(bottleRepo, reviewRepo, stockService, gate)
	reviewService := service.NewReviewService(reviewRepo, bottleRepo)
	statsService := service.NewStatsService(statsRepo)

	// Handlers
	userHandler := transport.NewUserHandler(userService, logger)
	cellarHandler := transport.NewCellarHandler(shelfService, stockService, logger)
	bottleHandler := transport.NewBottleHandler(bottleService, reviewService, logger)
	statsHandler := transport.NewStatsHandler(statsService, logger)

	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)

	userHandler.RegisterRoutes(router, authMiddleware)
	cellarHandler.RegisterRoutes(router, authMiddleware)
	bottleHandler.RegisterRoutes(router, authMiddleware)
	statsHandler.RegisterRoutes(router, authMiddleware)

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config:      cfg,
		logger:      logger,
		db:          db,
		redisClient: redisClient,
	}

	return server
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
