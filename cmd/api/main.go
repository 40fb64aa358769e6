package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/book_api/internal/cache"
	"github.com/GTDGit/book_api/internal/config"
	"github.com/GTDGit/book_api/internal/database"
	"github.com/GTDGit/book_api/internal/handler"
	"github.com/GTDGit/book_api/internal/middleware"
	"github.com/GTDGit/book_api/internal/repository"
	"github.com/GTDGit/book_api/internal/service"
	"github.com/GTDGit/book_api/internal/sse"
	"github.com/GTDGit/book_api/internal/utils"
	"github.com/GTDGit/book_api/internal/worker"
	"github.com/GTDGit/book_api/pkg/bookfeed"
	"github.com/GTDGit/book_api/pkg/tiktok"
	"github.com/GTDGit/book_api/pkg/xapi"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting book api")

	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db, "file://migrations"); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Error().Err(err).Msg("redis connection failed")
		fmt.Fprintf(os.Stderr, "redis connection failed: %v\n", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected successfully")

	utils.InitJWT(cfg.JWTSecret, cfg.JWTTTL)

	// Repositories
	bookRepo := repository.NewBookRepository(db)
	adminRepo := repository.NewAdminUserRepository(db)
	syncRunRepo := repository.NewSyncRunRepository(db)
	tiktokTokenRepo := repository.NewTikTokTokenRepository(db)

	// External clients
	feedClient := bookfeed.NewClient(cfg.Feed.URL, cfg.Feed.Timeout)

	var poster service.PostPublisher
	if xClient := xapi.NewClient(xapi.Config(cfg.X)); xClient.Configured() {
		poster = xClient
	} else {
		log.Warn().Msg("X_ACCESS_TOKEN not set - publishing to X will be disabled")
	}

	var tiktokAPI service.TikTokAPI
	if ttClient := tiktok.NewClient(tiktok.Config(cfg.TikTok)); ttClient.Configured() {
		tiktokAPI = ttClient
	} else {
		log.Warn().Msg("TikTok credentials not set - TikTok publishing will be disabled")
	}

	var objectStore service.ObjectPutter
	if s3Client, err := service.NewS3Client(context.Background(), &cfg.S3); err != nil {
		log.Warn().Err(err).Msg("S3 client initialization failed - image migration will be disabled")
	} else {
		objectStore = s3Client
	}

	// Services
	hub := sse.NewHub()
	notifier := sse.NewHubNotifier(hub)

	syncSvc := service.NewSyncService(feedClient, bookRepo, cache.NewSyncLock(redisClient, cfg.Worker.SyncLockTTL), syncRunRepo)
	syncSvc.SetNotifier(notifier)

	publishSvc := service.NewPublishService(bookRepo, poster, cfg.PublicBaseURL)
	publishSvc.SetNotifier(notifier)

	bookSvc := service.NewBookService(bookRepo)
	imageSvc := service.NewImageService(bookRepo, objectStore, cfg.S3.Bucket)
	tiktokSvc := service.NewTikTokService(tiktokAPI, tiktokTokenRepo)
	adminAuthSvc := service.NewAdminAuthService(adminRepo)

	loginLimiter := middleware.NewInvalidAuthRateLimiter()

	handlers := &Handlers{
		Health:  handler.NewHealthHandler(db, handler.PingFunc(redisClient.Ping)),
		Auth:    handler.NewAuthHandler(adminAuthSvc, loginLimiter),
		Book:    handler.NewBookHandler(bookSvc),
		Publish: handler.NewPublishHandler(publishSvc),
		Sync:    handler.NewSyncHandler(syncSvc, syncRunRepo),
		Image:   handler.NewImageHandler(imageSvc),
		TikTok:  handler.NewTikTokHandler(tiktokSvc),
		SSE:     handler.NewSSEHandler(hub),
	}

	jwtMw := middleware.NewJWTMiddleware()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.CORSHosts))
	router.Use(middleware.LoggingMiddleware())
	setupRoutes(router, handlers, jwtMw)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go loginLimiter.Cleanup(ctx.Done())
	go worker.NewSyncWorker(syncSvc, cfg.Worker.SyncInterval).Start(ctx)
	go worker.NewAutoPublishWorker(publishSvc, cfg.Worker.AutoPublishInterval).Start(ctx)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Stop workers first so no new sync or publish batch starts.
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Health  *handler.HealthHandler
	Auth    *handler.AuthHandler
	Book    *handler.BookHandler
	Publish *handler.PublishHandler
	Sync    *handler.SyncHandler
	Image   *handler.ImageHandler
	TikTok  *handler.TikTokHandler
	SSE     *handler.SSEHandler
}

func setupRoutes(router *gin.Engine, handlers *Handlers, jwtMiddleware *middleware.JWTMiddleware) {
	router.GET("/v1/health", handlers.Health.GetHealth)

	// Short links embedded in published posts
	router.GET("/r/:code", handlers.Book.Redirect)

	admin := router.Group("/v1/admin")
	admin.POST("/auth/login", handlers.Auth.Login)
	admin.GET("/activity/stream", jwtMiddleware.HandleWithQueryToken(), handlers.SSE.Stream)
	admin.Use(jwtMiddleware.Handle())
	{
		admin.GET("/books", handlers.Book.ListBooks)
		admin.PUT("/books/:id/schedule", handlers.Book.UpdateSchedule)
		admin.POST("/books/publish", handlers.Publish.Publish)
		admin.POST("/books/auto-publish", handlers.Publish.AutoPublish)

		admin.POST("/sync", handlers.Sync.Sync)
		admin.GET("/sync/runs", handlers.Sync.ListRuns)

		admin.POST("/images/migrate", handlers.Image.Migrate)

		admin.POST("/tiktok/oauth/callback", handlers.TikTok.OAuthCallback)
		admin.POST("/tiktok/publish", handlers.TikTok.Publish)
	}
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
