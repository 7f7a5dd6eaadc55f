package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"storyfairy-server/internal/auth"
	"storyfairy-server/internal/config"
	"storyfairy-server/internal/handler"
	"storyfairy-server/internal/platform"
	"storyfairy-server/internal/provider"
	"storyfairy-server/internal/repository"
	"storyfairy-server/internal/safety"
	"storyfairy-server/internal/service"
	"storyfairy-server/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := platform.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	logger.Info("Logger initialized", zap.String("logLevel", cfg.LogLevel))

	ctx := context.Background()

	// Infrastructure clients.
	pgPool, err := platform.NewPostgresPool(ctx, cfg.GetDSN(), logger)
	if err != nil {
		logger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pgPool.Close()

	mongoDB, mongoCleanup, err := repository.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer mongoCleanup()
	logger.Info("Connected to MongoDB", zap.String("database", cfg.MongoDatabase))

	redisClient, err := platform.NewRedisClient(ctx, platform.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		LockTTL:  cfg.LockTTL,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	blobs, err := storage.NewS3Store(ctx, storage.S3Config{
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		Bucket:          cfg.S3Bucket,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create blob store", zap.Error(err))
	}

	// Model registry.
	registry, err := buildRegistry(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to build provider registry", zap.Error(err))
	}

	// Safety gate.
	classifier, err := safety.NewHTTPClassifier(safety.ClassifierConfig{
		Endpoint: cfg.SafetyEndpoint,
		APIKey:   cfg.SafetyAPIKey,
		Timeout:  cfg.SafetyTimeout,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create safety classifier", zap.Error(err))
	}
	gate := safety.NewGate(classifier, cfg.SafetyThreshold, logger)

	// Pipeline stages and the orchestrator.
	synthesizer := service.NewSynthesizer(registry, cfg.TextMaxTokens, logger)
	renderer := service.NewImageRenderer(registry, blobs, cfg.SignedURLTTL, cfg.ImageConcurrency, logger)
	docs := repository.NewMongoStore(mongoDB, logger)
	ledger := repository.NewPgLedger(pgPool, logger)
	lock := platform.NewRedisLock(redisClient, cfg.LockTTL, logger)

	storySvc := service.NewStoryService(
		registry, gate, synthesizer, renderer,
		blobs, docs, ledger, lock,
		cfg.ImageFallbacks, cfg.SignedURLTTL, logger,
	)

	// HTTP surface.
	verifier, err := auth.NewJWTVerifier(cfg.JWTSecret, logger)
	if err != nil {
		logger.Fatal("Failed to create JWT verifier", zap.Error(err))
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authMiddleware := auth.Middleware(verifier.VerifyToken, logger)
	storyHandler := handler.NewStoryHandler(storySvc, logger)
	storyHandler.RegisterRoutes(router, authMiddleware)

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.RequestDeadline,
	}

	go func() {
		logger.Info("Server listening", zap.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exited")
}

// buildRegistry constructs every configured model adapter. The three text
// backends share one client implementation parameterized by base URL; the
// image backends share the HTTP JSON client.
func buildRegistry(cfg *config.Config, logger *zap.Logger) (*provider.Registry, error) {
	registry := provider.NewRegistry()

	textBackends := []struct {
		key     string
		baseURL string
		apiKey  string
		model   string
	}{
		{"openai", "", cfg.OpenAIAPIKey, cfg.OpenAIModel},
		{"gemini", cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiModel},
		{"grok", cfg.GrokBaseURL, cfg.GrokAPIKey, cfg.GrokModel},
	}
	for _, b := range textBackends {
		p, err := provider.NewOpenAIText(provider.TextConfig{
			APIKey:     b.apiKey,
			BaseURL:    b.baseURL,
			Model:      b.model,
			Timeout:    cfg.TextTimeout,
			MaxRetries: cfg.TextMaxRetries,
		}, logger)
		if err != nil {
			return nil, err
		}
		registry.RegisterText(b.key, p)
	}

	type imageBackend struct {
		key     string
		baseURL string
		model   string
	}
	imageBackends := []imageBackend{
		{"flux_schnell", cfg.ImageAPIBaseURL, "flux-schnell"},
		{"flux_pro", cfg.ImageAPIBaseURL, "flux-pro"},
		{"stable_diffusion_3", cfg.ImageAPIBaseURL, "stable-diffusion-3"},
	}
	if cfg.ImagenBaseURL != "" {
		imageBackends = append(imageBackends, imageBackend{"imagen_3", cfg.ImagenBaseURL, "imagen-3"})
	}
	for _, b := range imageBackends {
		p, err := provider.NewHTTPImage(provider.ImageConfig{
			BaseURL:    b.baseURL,
			Token:      cfg.ImageAPIToken,
			Model:      b.model,
			Timeout:    cfg.ImageTimeout,
			MaxRetries: cfg.ImageMaxRetries,
		}, logger)
		if err != nil {
			return nil, err
		}
		registry.RegisterImage(b.key, p)
	}

	return registry, nil
}
