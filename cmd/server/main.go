package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "stellar/docs" // swagger docs

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"stellar/internal/auth"
	"stellar/internal/cache"
	"stellar/internal/config"
	"stellar/internal/db"
	"stellar/internal/handler"
	"stellar/internal/jobs"
	"stellar/internal/logging"
	"stellar/internal/middleware"
	"stellar/internal/model"
	"stellar/internal/repository"
	"stellar/internal/router"
	"stellar/internal/service"
)

// @title Stellar API
// @version 1.0
// @description Multi-tenant content and commerce API with JWT authentication, 2FA and API keys.
// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	logrus.SetFormatter(&logrus.JSONFormatter{})
	if cfg.IsDevelopment() {
		logrus.SetLevel(logrus.DebugLevel)
	}

	gormDB, err := db.Open(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("database init")
	}

	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.ApiKey{},
		&model.Category{},
		&model.Post{},
		&model.Comment{},
		&model.Product{},
		&model.Order{},
		&model.OrderItem{},
		&model.SecurityLog{},
		&model.LoginHistory{},
	); err != nil {
		logrus.WithError(err).Fatal("auto-migrate")
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	// Repositories.
	userRepo := repository.NewUserRepository(gormDB)
	refreshRepo := repository.NewRefreshTokenRepository(gormDB)
	apiKeyRepo := repository.NewApiKeyRepository(gormDB)
	auditRepo := repository.NewAuditRepository(gormDB)
	postRepo := repository.NewPostRepository(gormDB)
	commentRepo := repository.NewCommentRepository(gormDB)
	categoryRepo := repository.NewCategoryRepository(gormDB)
	productRepo := repository.NewProductRepository(gormDB)
	orderRepo := repository.NewOrderRepository(gormDB)

	// Auth components.
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.AccessTokenTTL)
	tokenStore := auth.NewTokenStore(cacheClient)
	secLog := logging.NewSecurityLogger(auditRepo)

	// Services.
	authService := service.NewAuthService(userRepo, refreshRepo, auditRepo, jwtService, tokenStore, cacheClient, secLog, cfg)
	userService := service.NewUserService(userRepo, refreshRepo, cacheClient, secLog)
	twoFactorService := service.NewTwoFactorService(userRepo, secLog)
	apiKeyService := service.NewApiKeyService(apiKeyRepo, userRepo, secLog)
	postService := service.NewPostService(postRepo, categoryRepo)
	commentService := service.NewCommentService(commentRepo, postRepo)
	categoryService := service.NewCategoryService(categoryRepo, postRepo, productRepo)
	productService := service.NewProductService(productRepo, categoryRepo)
	orderService := service.NewOrderService(orderRepo)

	// Scheduled maintenance.
	cleanup := jobs.NewCleanup(refreshRepo, apiKeyRepo, auditRepo)
	if err := cleanup.Start(); err != nil {
		logrus.WithError(err).Fatal("start cleanup jobs")
	}
	defer cleanup.Stop()

	e := echo.New()
	router.Register(
		e,
		cfg,
		jwtService,
		tokenStore,
		apiKeyService,
		middleware.NewDDoSGuard(cacheClient, cfg, secLog),
		middleware.RateLimit(cacheClient, cfg),
		router.Handlers{
			Auth:      handler.NewAuthHandler(authService, cfg),
			User:      handler.NewUserHandler(userService),
			TwoFactor: handler.NewTwoFactorHandler(twoFactorService),
			ApiKey:    handler.NewApiKeyHandler(apiKeyService),
			Post:      handler.NewPostHandler(postService),
			Comment:   handler.NewCommentHandler(commentService),
			Category:  handler.NewCategoryHandler(categoryService),
			Product:   handler.NewProductHandler(productService),
			Order:     handler.NewOrderHandler(orderService),
		},
	)

	go func() {
		addr := ":" + cfg.ServerPort
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("server start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logrus.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("shutdown")
	}
}
