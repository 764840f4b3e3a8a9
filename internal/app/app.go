package app

import (
	"fmt"
	"time"

	"tutorlink_backend/internal/config"
	"tutorlink_backend/internal/handlers"
	"tutorlink_backend/internal/logger"
	"tutorlink_backend/internal/middleware"
	"tutorlink_backend/internal/repositories"
	"tutorlink_backend/internal/routes"
	"tutorlink_backend/internal/services"
	"tutorlink_backend/ws"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	gormDB, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal("Failed to get *sql.DB from GORM", "error", err)
	}
	if err = sqlDB.Ping(); err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	logger.Info("Database connected")

	ginRouter := SetupRouter(cfg, gormDB)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Server starting", "address", address)
	if err := ginRouter.Run(address); err != nil {
		logger.Fatal("Server startup error", "error", err)
	}
}

// SetupRouter wires repositories, services, the websocket layer and the
// HTTP routes. The presence registry is constructed here, once per
// process, and passed down; nothing holds it as a package-level
// singleton.
func SetupRouter(cfg *config.Config, gormDB *gorm.DB) *gin.Engine {
	notificationRepo := repositories.NewNotificationRepository(gormDB)
	userRepo := repositories.NewUserRepository(gormDB)

	registry := ws.NewPresenceRegistry()
	router := ws.NewRouter(registry)

	notificationService := services.NewNotificationService(notificationRepo, userRepo, router)
	authService := services.NewAuthService(userRepo, cfg.JWT.Secret, time.Duration(cfg.JWT.TTL)*time.Minute)

	wsHandler := ws.NewHandler(registry, notificationService, cfg.JWT.Secret)

	baseHandler := handlers.NewBaseHandler()
	authHandler := handlers.NewAuthHandler(baseHandler, authService)
	notificationHandler := handlers.NewNotificationHandler(baseHandler, notificationService)

	ginRouter := initializeGinRouter(cfg)
	routes.RegisterRoutes(ginRouter, authHandler, notificationHandler, wsHandler)

	return ginRouter
}

func initializeGinRouter(cfg *config.Config) *gin.Engine {
	if cfg.Server.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggingMiddleware())
	r.Use(gin.Recovery())
	return r
}
