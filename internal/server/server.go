package server

import (
	"context"
	"log"
	"net/http"

	"leetlab/configs"
	"leetlab/internal/dbs"
	"leetlab/internal/events"
	"leetlab/internal/handlers"
	"leetlab/internal/judge"
	"leetlab/internal/logger"
	"leetlab/internal/middlewares"
	"leetlab/internal/repositories"
	"leetlab/internal/services"

	"github.com/gin-gonic/gin"
)

func StartGinServer() {
	logger.InitLogger()
	defer logger.SyncLogger()

	config := configs.LoadConfig()

	db, err := dbs.Init(config)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	rdb, err := dbs.InitRedis(ctx, config.RedisAddr)
	if err != nil {
		log.Fatalf("Failed to initialize Redis: %v", err)
	}
	defer rdb.Close()

	cache := services.NewRedisCache(rdb)
	tokenService := services.NewTokenService(config.JWTSecret)

	problemRepo := repositories.NewProblemRepository(db, cache)
	submissionRepo := repositories.NewSubmissionRepository(db)
	solvedRepo := repositories.NewSolvedSetRepository(db)
	userRepo := repositories.NewUserRepository(db, cache)

	engineClient := judge.NewEngineClient(config.EngineBaseURL, config.EngineAPIKey, config.EngineAPIHost, nil)
	poller := judge.NewPoller(engineClient, config.PollInterval, config.MaxWait)
	publisher := events.NewPublisher(rdb, events.Stream)
	orchestrator := judge.NewOrchestrator(engineClient, poller, submissionRepo, solvedRepo, publisher)

	statsPool := events.NewStatsWorkerPool(config.NumEventWorkers, rdb, events.Stream, events.Group, cache)
	if err := statsPool.Start(ctx); err != nil {
		log.Fatalf("Failed to start stats worker pool: %v", err)
	}
	defer statsPool.Stop()

	router := gin.New()
	router.Use(middlewares.ErrorHandlerMiddleware())

	auth := middlewares.AuthMiddleware(tokenService)
	optionalAuth := middlewares.OptionalAuthMiddleware(tokenService)
	admin := middlewares.AdminMiddleware()

	handlers.NewAuthHandler(userRepo, tokenService).RegisterRoutes(router)
	handlers.NewProblemHandler(problemRepo, solvedRepo, orchestrator).RegisterRoutes(router, optionalAuth, auth, admin)
	handlers.NewSubmissionHandler(orchestrator, problemRepo, submissionRepo).RegisterRoutes(router, auth)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	port := ":" + config.ServerPort
	log.Printf("Starting server on port %s", port)
	if err := router.Run(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
