package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"anypay-go/config"
	httpHandler "anypay-go/internal/adapter/http/handler"
	"anypay-go/internal/adapter/http/middleware"
	pgStorage "anypay-go/internal/adapter/storage/postgres"
	redisStorage "anypay-go/internal/adapter/storage/redis"
	"anypay-go/internal/core/ports"
	"anypay-go/internal/service"
	"anypay-go/pkg/anypay"
	"anypay-go/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load(os.Getenv("ANYPAY_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)
	gin.SetMode(cfg.Server.Mode)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting AnyPay gateway")

	ctx := context.Background()

	// AnyPay client; checks the credentials unless no_check is set.
	client, err := anypay.New(ctx, cfg.AnyPay.Client(), anypay.WithLogger(log))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize AnyPay client")
	}
	log.Info().Int64("project_id", client.ProjectID()).Msg("AnyPay client ready")

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	if err := pgStorage.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate audit schema")
	}
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Services
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	paymentSvc := service.NewPaymentService(client, log)
	auditSvc := service.NewAuditService(pgStorage.NewAuditRepo(pool), log)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		PaymentSvc:     paymentSvc,
		TokenSvc:       tokenSvc,
		AuditSvc:       auditSvc,
		RateLimitStore: redisStorage.NewRateLimitStore(rdb, cfg.Redis.KeyPrefix),
		RateLimitRules: middleware.DefaultRateLimitRules(cfg.RateLimit.Limit, cfg.RateLimit.Window),
		HealthCheckers: []ports.HealthChecker{
			pgStorage.NewHealthCheck(pool),
			redisStorage.NewHealthCheck(rdb),
			service.NewAnyPayHealthCheck(client, cfg.AnyPay.HealthCacheTTL),
		},
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		Logger:       log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Flush in-flight audit writes before the pool closes.
	auditSvc.Wait()

	log.Info().Msg("Server exited")
}
