package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/hr-onboarding-api/internal/extract"
	"github.com/noah-isme/hr-onboarding-api/internal/handler"
	"github.com/noah-isme/hr-onboarding-api/internal/llm"
	"github.com/noah-isme/hr-onboarding-api/internal/repository"
	"github.com/noah-isme/hr-onboarding-api/internal/service"
	"github.com/noah-isme/hr-onboarding-api/pkg/cache"
	"github.com/noah-isme/hr-onboarding-api/pkg/config"
	"github.com/noah-isme/hr-onboarding-api/pkg/database"
	"github.com/noah-isme/hr-onboarding-api/pkg/jobs"
	"github.com/noah-isme/hr-onboarding-api/pkg/logger"
	"github.com/noah-isme/hr-onboarding-api/pkg/storage"
)

// @title HR Onboarding API
// @version 1.0.0
// @description Onboarding document intake with AI extraction, PII masking and HR review.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, shared cache disabled", zap.Error(err))
		redisClient = nil
	}

	files, err := newFileStore(ctx, cfg.Documents)
	if err != nil {
		return err
	}

	metrics := service.NewMetricsService()
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.AI.SharedCacheTTL, logr, redisClient != nil && cfg.AI.SharedCache)

	gateway, err := newGateway(ctx, cfg.AI, cacheSvc, metrics, logr)
	if err != nil {
		return err
	}

	documentRepo := repository.NewDocumentRepository(db)
	userRepo := repository.NewUserRepository(db)
	onboardingRepo := repository.NewOnboardingRepository(db)

	extractor := extract.New(files, extract.NewTesseractOCR(cfg.OCR.Binary, cfg.OCR.Language, cfg.OCR.Timeout), logr)
	pipeline := service.NewDocumentPipeline(extractor, gateway, documentRepo, metrics, logr)
	signer := storage.NewSignedURLSigner(cfg.Documents.SignedURLSecret, cfg.Documents.SignedURLTTL)
	documentSvc := service.NewDocumentService(documentRepo, files, pipeline, signer, service.DocumentServiceConfig{
		APIPrefix:         cfg.APIPrefix,
		MaxFileSizeBytes:  cfg.Documents.MaxFileSizeBytes,
		AllowedExtensions: cfg.Documents.AllowedExtensions,
	}, logr)

	if cfg.Documents.AsyncProcessing {
		queue := jobs.NewQueue[string]("document-pipeline", documentSvc.ProcessJob, jobs.QueueConfig{
			Workers:    cfg.Jobs.Workers,
			BufferSize: cfg.Jobs.BufferSize,
			MaxRetries: cfg.Jobs.MaxRetries,
			RetryDelay: cfg.Jobs.RetryDelay,
			Logger:     logr,
		})
		queue.Start(ctx)
		defer queue.Stop()
		documentSvc.UseQueue(queue, metrics)
	}

	profileSvc := service.NewProfileService(userRepo, documentRepo, logr)
	authSvc := service.NewAuthService(logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})

	validate := handler.NewValidator()
	handlers := routeHandlers{
		documents: handler.NewDocumentHandler(documentSvc, validate),
		employees: handler.NewEmployeeHandler(profileSvc, service.NewExportService(profileSvc, logr)),
		assistants: handler.NewAssistantHandler(
			service.NewHRAssistantService(gateway, userRepo, documentRepo, onboardingRepo, logr),
			service.NewEmployeeAssistantService(gateway, userRepo, onboardingRepo, documentRepo, logr),
			service.NewOnboardingService(gateway, userRepo, onboardingRepo, documentRepo, logr),
			validate,
		),
		metrics: handler.NewMetricsHandler(metrics, gateway.Mode(), map[string]handler.Pinger{
			"database": db,
			"redis":    cacheRepo,
		}),
	}
	router := newRouter(cfg, logr, authSvc, metrics, handlers)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting",
			zap.String("addr", server.Addr),
			zap.String("env", cfg.Env),
			zap.String("ai_mode", gateway.Mode()),
			zap.String("storage", cfg.Documents.StorageDriver),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newFileStore(ctx context.Context, cfg config.DocumentsConfig) (storage.FileStore, error) {
	if cfg.StorageDriver == config.StorageDriverS3 {
		return storage.NewS3Storage(ctx, cfg.S3Region, cfg.S3Bucket, cfg.S3Prefix)
	}
	return storage.NewLocalStorage(cfg.StorageDir)
}

func newGateway(ctx context.Context, cfg config.AIConfig, shared llm.SharedCache, metrics *service.MetricsService, logr *zap.Logger) (*llm.Gateway, error) {
	llmCfg := llm.Config{
		Mode:            cfg.Mode,
		Provider:        cfg.Provider,
		Model:           cfg.Model,
		APIKey:          cfg.APIKey,
		BaseURL:         cfg.BaseURL,
		Temperature:     cfg.Temperature,
		MaxOutputTokens: cfg.MaxOutputTokens,
		CacheSize:       cfg.CacheSize,
		CacheTTL:        cfg.CacheTTL,
		SharedCacheTTL:  cfg.SharedCacheTTL,
	}

	var model llm.ChatModel
	if cfg.Mode == config.AIModeLive {
		chat, err := llm.NewChatModel(ctx, llmCfg)
		if err != nil {
			logr.Warn("live model unavailable, calls will fall back to mock responses", zap.Error(err))
		} else {
			model = chat
		}
	}

	return llm.NewGateway(llmCfg, model,
		llm.WithSharedCache(shared),
		llm.WithMetrics(metrics),
		llm.WithLogger(logr.Named("llm")),
	), nil
}
