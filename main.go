package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/asinfra/adconsole/audit"
	"github.com/asinfra/adconsole/auth"
	"github.com/asinfra/adconsole/config"
	"github.com/asinfra/adconsole/controller"
	"github.com/asinfra/adconsole/db"
	logger "github.com/asinfra/adconsole/logging"
	"github.com/asinfra/adconsole/router"
	"github.com/asinfra/adconsole/service"
	"github.com/asinfra/adconsole/storage"
	"github.com/asinfra/adconsole/storage/directory"
	"github.com/asinfra/adconsole/storage/memory"
	"github.com/asinfra/adconsole/util"
)

func main() {
	// Initialize configuration
	if err := config.InitConfig(); err != nil {
		log.Fatalf("Failed to initialize config: %v", err)
	}

	// Initialize logger
	logger.InitLogger("logging")
	defer logger.Sync()

	backendMode := config.GetString("backend.mode")

	// Initialize Redis. The in-memory backend keeps sessions and caches in
	// process, so Redis is optional there.
	if err := db.InitRedis(); err != nil {
		if backendMode == "memory" {
			logger.Warn("Redis unavailable, running without caching", zap.Error(err))
		} else {
			logger.Fatal("Failed to initialize Redis", zap.Error(err))
		}
	}
	defer db.CloseRedis()

	// Initialize the storage backend
	var store storage.Store
	switch backendMode {
	case "memory":
		store = memory.New()
	case "directory":
		dirCfg, err := config.Directory("")
		if err != nil {
			logger.Fatal("Invalid directory configuration", zap.Error(err))
		}
		store, err = directory.New(dirCfg)
		if err != nil {
			logger.Fatal("Failed to connect to directory", zap.Error(err))
		}
	default:
		logger.Fatal("Unknown backend mode", zap.String("mode", backendMode))
	}
	backend := storage.NewActive(store)
	defer func() {
		if err := backend.Store().Close(); err != nil {
			logger.Error("Failed to close backend", zap.Error(err))
		}
	}()

	// Initialize EventBus
	eventBus := util.NewEventBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	eventBus.Start(ctx)

	// Initialize services and utilities
	validationUtil := util.NewValidationUtil()
	cacheService := util.NewCacheService()
	notificationService := util.NewNotificationService()
	auditRepository, err := audit.NewElasticsearchRepository(config.GetString("elasticsearch.url"))
	if err != nil {
		logger.Fatal("Failed to initialize audit repository", zap.Error(err))
	}
	auditService := audit.NewService(auditRepository)

	// Initialize services
	services, err := service.InitializeServices(
		backend,
		auditService,
		validationUtil,
		cacheService,
		notificationService,
		eventBus,
	)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}

	// Initialize the session layer
	var sessions auth.SessionStore
	if backendMode == "memory" {
		sessions = auth.NewMemorySessionStore()
	} else {
		sessions = auth.NewRedisSessionStore()
	}
	authService, err := auth.NewService(
		sessions,
		backend,
		config.GetDuration("auth.sessionTTL"),
		config.GetString("auth.jwtSecret"),
	)
	if err != nil {
		logger.Fatal("Failed to initialize auth service", zap.Error(err))
	}

	// Initialize controllers
	controllers := controller.InitializeControllers(services, authService)

	// Set up Gin
	gin.SetMode(gin.ReleaseMode)
	engine := router.SetupRouter(controllers, authService, 100, time.Minute) // 100 requests per minute

	// Set up the server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", config.GetString("server.port")),
		Handler: engine,
	}

	// Start the server in a goroutine
	go func() {
		logger.Info("Starting server",
			zap.String("port", config.GetString("server.port")),
			zap.String("backend", backendMode))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}
