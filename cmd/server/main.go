package main

import (
	"context"
	"examforge/internal/cache"
	"examforge/internal/config"
	"examforge/internal/logger"
	"examforge/internal/model"
	"examforge/internal/repository"
	"examforge/internal/service"
	"examforge/internal/transport/rest"
	"examforge/internal/transport/rest/middleware"
	"examforge/internal/transport/ws"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	cfg := config.Load()
	logCloser := logger.Init(cfg.LogLevel, cfg.LogFile)
	defer logCloser.Close()
	logger.Info("started")

	ctx := context.Background()

	var (
		sessionRepo  repository.SessionRepo
		templateRepo repository.TemplateRepo
		jobQueue     cache.JobQueue
	)

	switch cfg.StorageBackend {
	case config.StorageMemory:
		logger.Warn("STORAGE_BACKEND=memory: sessions and jobs are lost on restart")
		sessionRepo = repository.NewMemorySessionRepo()
		templateRepo = repository.NewMemoryTemplateRepo()
		jobQueue = cache.NewMemoryJobQueue()

	default:
		// MongoDB connection
		mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			logger.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		defer mongoClient.Disconnect(context.Background())

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = mongoClient.Ping(pingCtx, nil)
		cancel()
		if err != nil {
			logger.Fatalf("Failed to ping MongoDB: %v", err)
		}
		logger.Info("Connected to MongoDB (%s)", cfg.MongoDB)

		db := mongoClient.Database(cfg.MongoDB)
		sessionRepo = repository.NewSessionRepo(db)
		templateRepo = repository.NewTemplateRepo(db)

		// Redis connection
		rdb := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
		})
		defer rdb.Close()

		if _, err := rdb.Ping(ctx).Result(); err != nil {
			logger.Fatalf("Failed to ping Redis: %v", err)
		}
		logger.Info("Connected to Redis")
		jobQueue = cache.NewJobQueue(rdb)
	}

	// Initialize WebSocket hub
	wsHub := ws.NewHub()
	defer wsHub.Close()

	// Initialize services
	authSvc := service.NewAuthService(cfg.AuthorUsername, cfg.AuthorPassword, cfg.JWTSecret)
	questionSvc := service.NewQuestionService(templateRepo, cfg.GenerationSalt)
	sessionSvc := service.NewSessionService(sessionRepo, templateRepo, questionSvc, jobQueue)

	// wsHub implements service.Notifier
	sessionSvc.SetNotifier(wsHub)

	scheduler := service.NewSchedulerService(jobQueue, cfg.SchedulerPoll, cfg.SchedulerBatch)
	scheduler.Register(model.JobEndQuizSession, sessionSvc.HandleDeadline)
	scheduler.Register(model.JobEndExamSession, sessionSvc.HandleDeadline)
	scheduler.Start(ctx)

	router := rest.NewRouter(&rest.Container{
		AuthService:     authSvc,
		QuestionService: questionSvc,
		SessionService:  sessionSvc,
		WSHub:           wsHub,
		AnswerLimiter:   middleware.NewRateLimiter(cfg.AnswerRatePerSec, cfg.AnswerBurst),
		AllowedOrigins:  cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting on :%s", cfg.Port)
		logger.Info("Author login: username=%s", cfg.AuthorUsername)
		logger.Info("Endpoints:")
		logger.Info("  POST /v1/auth/login | /v1/auth/taker")
		logger.Info("  POST/GET /v1/templates, POST /v1/templates/preview")
		logger.Info("  POST /v1/sessions, GET /v1/sessions/{id}")
		logger.Info("  PUT  /v1/sessions/{id}/questions/{index}")
		logger.Info("  POST /v1/sessions/{id}/submit")
		logger.Info("  WS   /v1/ws?token=")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("ListenAndServe: %v", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	scheduler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}
