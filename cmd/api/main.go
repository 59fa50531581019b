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
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/greentrace/greentrace-api/api/swagger"
	"github.com/greentrace/greentrace-api/internal/handler"
	"github.com/greentrace/greentrace-api/internal/middleware"
	"github.com/greentrace/greentrace-api/internal/repository"
	"github.com/greentrace/greentrace-api/internal/service"
	"github.com/greentrace/greentrace-api/pkg/cache"
	"github.com/greentrace/greentrace-api/pkg/config"
	"github.com/greentrace/greentrace-api/pkg/database"
	"github.com/greentrace/greentrace-api/pkg/jobs"
	"github.com/greentrace/greentrace-api/pkg/logger"
	corsmiddleware "github.com/greentrace/greentrace-api/pkg/middleware/cors"
	reqidmiddleware "github.com/greentrace/greentrace-api/pkg/middleware/requestid"
	"github.com/greentrace/greentrace-api/pkg/storage"
)

// @title GreenTrace API
// @version 1.0.0
// @description Carbon footprint tracking and green points backend
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	cacheEnabled := false
	if cfg.Leaderboard.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, leaderboard cache disabled", "error", err)
		} else {
			repo := repository.NewCacheRepository(redisClient, logr)
			defer repo.Close() //nolint:errcheck
			cacheRepo = repo
			cacheEnabled = true
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Leaderboard.CacheTTL, logr, cacheEnabled)

	userRepo := repository.NewUserRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	footprintRepo := repository.NewFootprintRepository(db)
	pointsRepo := repository.NewPointsRepository(db)

	authSvc := service.NewAuthService(userRepo, companyRepo, validate, logr, service.AuthConfig{
		Secret: cfg.JWT.Secret,
		Expiry: cfg.JWT.Expiration,
		Issuer: cfg.JWT.Issuer,
	})
	companySvc := service.NewCompanyService(companyRepo, validate, logr)
	pointsSvc := service.NewPointsService(pointsRepo, companyRepo, service.DefaultBenchmarks(), logr)
	leaderboardSvc := service.NewLeaderboardService(companyRepo, cacheSvc, cfg.Leaderboard.MaxLimit, logr)
	carbonSvc := service.NewCarbonService(companyRepo, footprintRepo, pointsSvc, service.DefaultFactors(), validate, logr)
	carbonSvc.SetLeaderboardInvalidator(leaderboardSvc)
	carbonSvc.SetMetrics(metricsSvc)

	var reportSvc *service.ReportService
	var queue *jobs.Queue
	if cfg.Reports.Enabled {
		localStorage, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init report storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		exportSvc := service.NewExportService(footprintRepo, localStorage, signer, service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Reports.SignedURLTTL,
		}, logr, nil, nil)

		reportRepo := repository.NewReportRepository(db)
		reportSvc = service.NewReportService(reportRepo, exportSvc, logr)
		reportSvc.SetMetrics(metricsSvc)

		queue = jobs.NewQueue("reports", reportSvc.Process, jobs.QueueConfig{
			Workers:    cfg.Reports.WorkerConcurrency,
			MaxRetries: cfg.Reports.WorkerRetries,
			Logger:     logr,
		})
		reportSvc.SetQueue(queue)
		queue.Start(ctx)
		if err := reportSvc.RecoverPendingJobs(ctx); err != nil {
			logr.Sugar().Warnw("failed to recover pending report jobs", "error", err)
		}
		reportSvc.StartCleanup(ctx, cfg.Reports.CleanupInterval)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authHandler := handler.NewAuthHandler(authSvc)
	companyHandler := handler.NewCompanyHandler(companySvc)
	carbonHandler := handler.NewCarbonHandler(carbonSvc)
	pointsHandler := handler.NewPointsHandler(pointsSvc)
	leaderboardHandler := handler.NewLeaderboardHandler(leaderboardSvc)

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	protected.GET("/companies/me", companyHandler.Me)
	protected.PUT("/companies/me", companyHandler.UpdateMe)

	carbon := protected.Group("/carbon-footprint")
	carbon.POST("/calculate", carbonHandler.Calculate)
	carbon.GET("/history", carbonHandler.History)
	carbon.GET("/history/all", carbonHandler.AllHistory)
	carbon.GET("/:id", carbonHandler.GetByID)

	points := protected.Group("/green-points")
	points.GET("/balance", pointsHandler.Balance)
	points.GET("/history", pointsHandler.History)
	points.GET("/transactions", pointsHandler.Transactions)

	leaderboard := protected.Group("/leaderboard")
	leaderboard.GET("/top", leaderboardHandler.Top)
	leaderboard.GET("/industry/:industry", leaderboardHandler.TopByIndustry)
	leaderboard.GET("/rankings", leaderboardHandler.Rankings)
	leaderboard.GET("/my-ranking", leaderboardHandler.MyRanking)

	api.GET("/leaderboard/public/top", leaderboardHandler.PublicTop)

	if reportSvc != nil {
		reportHandler := handler.NewReportHandler(reportSvc)
		protected.POST("/reports", reportHandler.Create)
		protected.GET("/reports/:id", reportHandler.Status)
		api.GET("/export/:token", reportHandler.Download)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("forced shutdown", "error", err)
	}
	if queue != nil {
		queue.Stop()
	}
}
