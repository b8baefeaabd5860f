package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"zaanjob-backend/config"
	_ "zaanjob-backend/docs" // Important for Swagger
	"zaanjob-backend/internal/delivery/http/middleware"
	v1 "zaanjob-backend/internal/delivery/http/v1"
	"zaanjob-backend/internal/domain"
	"zaanjob-backend/internal/repository/postgres"
	"zaanjob-backend/internal/schema"
	"zaanjob-backend/internal/storage"
	"zaanjob-backend/internal/supabase"
	"zaanjob-backend/internal/usecase"
	"zaanjob-backend/pkg/auth"
	"zaanjob-backend/pkg/database"
	"zaanjob-backend/pkg/logger"
	"zaanjob-backend/pkg/redis"
	"zaanjob-backend/pkg/security"
	"zaanjob-backend/pkg/security/antivirus"
	"zaanjob-backend/pkg/validation"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
)

// @title           ZAANjob API
// @version         1.0
// @description     Public resume directory for beauty professionals.
// @host            localhost:8080
// @BasePath        /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Setup Logger
	logger.Init()
	logger.Log.Info("Starting zaanjob backend", "port", cfg.Port, "env", cfg.AppEnv)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	secLog := security.NewSecurityLogger("zaanjob-backend", cfg.AppEnv)
	defer secLog.Sync()

	// 3. Error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			logger.Log.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	// 4. Setup Database
	dbPool, err := database.NewPostgresConnection(rootCtx, cfg.DBUrl, logger.Log)
	if err != nil {
		logger.Log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	// 5. Key/value store: Redis when reachable, memory otherwise
	memStore := redis.NewMemoryStore()
	memStore.StartSweeper(rootCtx, 5*time.Minute)

	var redisClient *goredis.Client
	redisClient, err = redis.NewClient(rootCtx, redis.Config{URL: cfg.UpstashRedisURL, Password: cfg.UpstashRedisPassword})
	switch {
	case errors.Is(err, redis.ErrNotConfigured):
		redisClient = nil
	case err != nil:
		logger.Log.Warn("Redis unavailable, using in-memory store", "error", err)
		redisClient = nil
	default:
		logger.Log.Info("Redis connected")
		defer redisClient.Close()
	}
	kvStore := redis.NewStore(redisClient, memStore, logger.Log)

	// 6. Supabase platform
	sbClient := supabase.NewClient(supabase.Options{
		URL:            cfg.SupabaseUrl,
		AnonKey:        cfg.SupabaseAnonKey,
		ServiceRoleKey: cfg.SupabaseServiceRoleKey,
		SQLEndpoint:    cfg.SupabaseSQLEndpoint,
	})
	sqlExecutor := supabase.NewSQLExecutor(sbClient, logger.Log)

	var objectStore domain.ObjectStore = supabase.NewStorageStore(sbClient)
	if cfg.S3Configured() {
		s3Client, err := storage.NewS3Client(rootCtx, storage.S3Config{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
		if err != nil {
			logger.Log.Warn("S3 client init failed, using storage REST API", "error", err)
		} else {
			objectStore = storage.NewS3Store(s3Client, cfg.SupabaseUrl)
			logger.Log.Info("Using S3 protocol for object storage", "endpoint", cfg.S3Endpoint)
		}
	}

	// 7. Setup Repositories
	resumeRepo := postgres.NewResumeRepository(dbPool)
	accountRepo := postgres.NewAccountRepository(dbPool)
	schemaRepo := postgres.NewSchemaRepository(dbPool)

	// 8. Setup UseCases
	validate := validation.New()
	schemaUC := usecase.NewSchemaUsecase(sqlExecutor, schemaRepo, kvStore, schema.Tables(), cfg.SchemaFlagTTL, logger.Log)
	resumeUC := usecase.NewResumeUsecase(resumeRepo, schemaUC, validate, secLog, logger.Log)
	accountUC := usecase.NewAccountUsecase(accountRepo, secLog, logger.Log)
	uploadLimiter := security.NewUploadLimiter(redisClient, cfg.UploadMaxPerMinute, cfg.UploadMaxPerDay)
	var scanner antivirus.Scanner
	if cfg.ClamAVAddr != "" {
		clam := antivirus.NewClamAVScanner(cfg.ClamAVAddr, cfg.ClamAVTimeout)
		if !clam.Available(rootCtx) {
			logger.Log.Warn("clamd not reachable yet, uploads will fail closed until it is", "addr", cfg.ClamAVAddr)
		}
		scanner = clam
	}
	storageUC := usecase.NewStorageUsecase(objectStore, uploadLimiter, scanner, secLog, logger.Log)

	healthChecks := map[string]usecase.HealthCheck{
		"database": func(ctx context.Context) error { return dbPool.Ping(ctx) },
	}
	if redisClient != nil {
		healthChecks["redis"] = func(ctx context.Context) error { return redis.HealthCheck(ctx, redisClient) }
	}
	healthUC := usecase.NewHealthUsecase(healthChecks)

	// 9. Setup Auth Provider (JWKS)
	var jwksProvider *auth.Provider
	if cfg.SupabaseUrl != "" {
		jwksProvider = auth.NewProvider(auth.JWKSURL(cfg.SupabaseUrl), nil)
	}
	authenticator := middleware.NewAuthenticator(jwksProvider, cfg, accountUC, secLog, logger.Log)

	// Provision in the background so the first request does not pay for it
	go schemaUC.Ensure(rootCtx)

	// 10. Setup Router
	router := v1.NewRouter(v1.RouterDeps{
		ResumeUC:      resumeUC,
		SchemaUC:      schemaUC,
		StorageUC:     storageUC,
		AccountUC:     accountUC,
		HealthUC:      healthUC,
		Authenticator: authenticator,
		Store:         kvStore,
		SecLog:        secLog,
		Log:           logger.Log,
		Config:        cfg,
	})

	// 11. Start Server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Error("Listen failed", "error", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", "error", err)
	}
	stop()

	logger.Log.Info("Server exiting")
}
