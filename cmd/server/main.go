// Package main runs the video platform HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vidshare/backend/config"
	"github.com/vidshare/backend/internal/auth"
	"github.com/vidshare/backend/internal/dashboard"
	"github.com/vidshare/backend/internal/history"
	"github.com/vidshare/backend/internal/middleware"
	"github.com/vidshare/backend/internal/subscriptions"
	"github.com/vidshare/backend/internal/videos"
	"github.com/vidshare/backend/internal/worker"
	"github.com/vidshare/backend/pkg/database"
	"github.com/vidshare/backend/pkg/queue"
	"github.com/vidshare/backend/pkg/redis"
	"github.com/vidshare/backend/pkg/response"
	"github.com/vidshare/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var media videos.MediaStore
	s3Client, err := storage.NewS3(ctx, storage.S3Config{
		Region:          cfg.AWS.Region,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
		MediaBucket:     cfg.AWS.MediaBucket,
	}, storage.FFprobe{Path: cfg.Media.FFprobePath}, logger)
	if err != nil {
		logger.Warn("s3 disabled, uploads will fail", zap.Error(err))
	} else {
		media = s3Client
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Watch history
	tracker := history.NewTracker(history.NewRepository(pool), logger)
	historyHandler := history.NewHandler(tracker)

	// Videos
	videoService := videos.NewService(videos.NewRepository(pool), media, tracker, jobQueue, logger)
	videoService.SetMaxPageSize(cfg.Catalog.MaxPageSize)
	videoHandler := videos.NewHandler(videoService, videos.HandlerConfig{
		DefaultPageSize: cfg.Catalog.DefaultPageSize,
		UploadDir:       cfg.Media.UploadDir,
		MaxUploadBytes:  int64(cfg.Server.MaxUploadMB) << 20,
	}, logger)

	// Subscriptions
	subscriptionHandler := subscriptions.NewHandler(subscriptions.NewService(subscriptions.NewRepository(pool), logger))

	// Dashboard
	var statsCache dashboard.StatsCache
	if cfg.Catalog.StatsCacheTTL > 0 {
		statsCache = dashboard.NewRedisStatsCache(rdb.Client, cfg.Catalog.StatsCacheTTL)
	}
	dashboardHandler := dashboard.NewHandler(dashboard.NewService(dashboard.NewRepository(pool), statsCache, logger))

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))
	router.MaxMultipartMemory = 32 << 20

	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}, "") })

	v1 := router.Group("/api/v1")

	// Auth (public)
	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
	}

	// Protected API (JWT required)
	api := v1.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		api.GET("/users/me", authHandler.Me)
		api.GET("/users/me/history", historyHandler.Mine)

		api.GET("/videos", videoHandler.List)
		api.POST("/videos", videoHandler.Publish)
		api.GET("/videos/:videoId", videoHandler.Get)
		api.PATCH("/videos/:videoId", videoHandler.Update)
		api.DELETE("/videos/:videoId", videoHandler.Delete)
		api.PATCH("/videos/toggle/publish/:videoId", videoHandler.TogglePublish)

		api.POST("/subscriptions/c/:channelId", subscriptionHandler.Toggle)
		api.GET("/subscriptions/c/:channelId", subscriptionHandler.Subscribers)
		api.GET("/subscriptions/u/:subscriberId", subscriptionHandler.Subscriptions)

		api.GET("/dashboard/stats", dashboardHandler.Stats)
		api.GET("/dashboard/videos", dashboardHandler.Videos)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// In-process media cleanup worker; run cmd/worker instead when disabled.
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	if cfg.Worker.Enabled && s3Client != nil {
		go worker.NewMediaCleanupProcessor(s3Client, jobQueue, logger).Run(workerCtx)
		logger.Info("media cleanup worker started")
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
