package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"account_service/internal/config"
	"account_service/internal/handler"
	"account_service/internal/logger"
	"account_service/internal/middleware"
	"account_service/internal/model"
	"account_service/internal/repository"
	"account_service/internal/service"
	"account_service/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading, relying on environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	// --- Database ---
	dbPool, err := config.ConnectDB(cfg, zlog)
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}
	defer dbPool.Close()

	if err := config.AutoMigrate(dbPool); err != nil {
		zlog.Fatal("failed to auto-migrate database", zap.Error(err))
	}
	if err := config.Seed(context.Background(), dbPool, cfg, zlog); err != nil {
		zlog.Fatal("failed to seed database", zap.Error(err))
	}

	// --- Validation ---
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return model.ValidPhone(fl.Field().String())
		}); err != nil {
			zlog.Fatal("failed to register phone validator", zap.Error(err))
		}
	}

	// --- Wiring ---
	tokenSvc := utils.NewTokenService(cfg.SecretKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	store := repository.NewStore(dbPool, zlog)

	authService := service.NewAuthService(store, tokenSvc, zlog)
	adminService := service.NewAdminService(store, zlog)

	cookieCfg := handler.CookieConfig{
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
		Secure:     cfg.CookieSecure,
	}
	authHandler := handler.NewAuthHandler(authService, cookieCfg)
	adminHandler := handler.NewAdminHandler(adminService)

	// --- Router ---
	router := gin.Default()

	// Simple CORS middleware with credentials (cookies cross the boundary)
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "http://localhost:3000")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	authMW := middleware.Authenticated(tokenSvc, store)
	adminMW := middleware.AdminOnly()
	refreshMW := middleware.RefreshAuthenticated(tokenSvc, store)

	apiGroup := router.Group("/api/v1")
	authHandler.RegisterAuthRoutes(apiGroup, authMW, refreshMW)
	adminHandler.RegisterAdminRoutes(apiGroup, authMW, adminMW)

	router.GET("/health", func(c *gin.Context) {
		if err := dbPool.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "db": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "healthy"})
	})

	// --- Start server ---
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		zlog.Info("server starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("listen failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Fatal("server forced to shutdown", zap.Error(err))
	}

	zlog.Info("server exiting")
}
