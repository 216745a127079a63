package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"quizbank/internal/config"
	"quizbank/internal/database/mongo"
	"quizbank/internal/database/redis"
	"quizbank/internal/discovery"
	"quizbank/internal/event"
	"quizbank/internal/handlers"
	"quizbank/internal/middleware"
	"quizbank/internal/repository"
	"quizbank/internal/service"

	"github.com/gin-gonic/gin"
)

// setupLogging sends the standard logger to a daily file when dir is set.
func setupLogging(dir string) (*os.File, error) {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %v", err)
	}

	logFile := filepath.Join(dir, fmt.Sprintf("log_%s.log", time.Now().Format("2006-01-02")))
	file, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %v", err)
	}
	log.SetOutput(file)
	return file, nil
}

func main() {
	cfg := config.Load()

	logFile, err := setupLogging(cfg.Log.Dir)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}

	if err := mongo.InitMongoDB(&cfg.MongoDB); err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer mongo.CloseDB()

	indexCtx, cancel := context.WithTimeout(context.Background(), cfg.MongoDB.Timeout)
	if err := mongo.CreateIndexes(indexCtx, mongo.Database); err != nil {
		log.Printf("Warning: %v", err)
	}
	cancel()

	var cache service.StatisticsCache
	if rc := redis.InitRedis(&cfg.Redis); rc != nil {
		cache = repository.NewCacheRepository(rc, cfg.Redis.StatsTTL)
		defer redis.CloseRedis()
	}

	var publisher event.Publisher
	eventPublisher, err := event.NewEventPublisher(cfg.RabbitMQ.URI, cfg.RabbitMQ.Exchange)
	if err != nil {
		log.Printf("Warning: Failed to initialize event publisher: %v", err)
	} else {
		publisher = eventPublisher
		defer eventPublisher.Close()
	}

	questionRepo := repository.NewQuestionRepository(mongo.Database)
	resultRepo := repository.NewResultRepository(mongo.Database)

	questionService := service.NewQuestionService(questionRepo, cache, publisher)
	resultService := service.NewResultService(resultRepo, questionRepo, cache, publisher)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(), middleware.Metrics(), middleware.CORS(cfg.Server.AllowOrigins))
	r.MaxMultipartMemory = cfg.Server.MaxUploadBytes
	r.GET("/metrics", middleware.MetricsHandler())

	var admin gin.HandlerFunc
	if cfg.Auth.AdminJWTSecret != "" {
		admin = middleware.AdminAuth(cfg.Auth.AdminJWTSecret)
	} else {
		log.Println("Warning: ADMIN_JWT_SECRET is empty, question writes are unauthenticated")
	}
	handlers.RegisterRoutes(r, handlers.Handlers{
		Questions: handlers.NewQuestionHandler(questionService),
		Results:   handlers.NewResultHandler(resultService),
		PDF:       handlers.NewPDFHandler(questionService, cfg.Server.MaxUploadBytes),
		Health:    handlers.NewHealthHandler(mongo.Ping),
	}, admin)

	var registry *discovery.ServiceRegistry
	if cfg.Consul.ConsulAddress != "" {
		registry, err = discovery.NewServiceRegistry(cfg.Consul, cfg.Server)
		if err != nil {
			log.Printf("Warning: %v", err)
		} else if err := registry.Register(); err != nil {
			log.Printf("Warning: Failed to register with Consul: %v", err)
			registry = nil
		}
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Error starting server: %v", err)
		}
	}()

	<-shutdownChan
	log.Println("Shutting down server...")

	ctx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Error shutting down HTTP server: %v", err)
	}

	if registry != nil {
		if err := registry.Deregister(); err != nil {
			log.Printf("Error deregistering from service discovery: %v", err)
		}
	}
	log.Println("Server gracefully stopped")
}
