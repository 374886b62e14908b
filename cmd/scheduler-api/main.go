package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/veldi/sportsched-api/internal/handler"
	"github.com/veldi/sportsched-api/internal/middleware"
	"github.com/veldi/sportsched-api/internal/repository"
	"github.com/veldi/sportsched-api/internal/service"
	"github.com/veldi/sportsched-api/pkg/cache"
	"github.com/veldi/sportsched-api/pkg/config"
	"github.com/veldi/sportsched-api/pkg/database"
	"github.com/veldi/sportsched-api/pkg/export"
	"github.com/veldi/sportsched-api/pkg/logger"
	corsmiddleware "github.com/veldi/sportsched-api/pkg/middleware/cors"
	reqidmiddleware "github.com/veldi/sportsched-api/pkg/middleware/requestid"
)

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
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	solutionRepo := repository.NewSolutionRepository(db)
	if err := solutionRepo.EnsureSchema(ctx); err != nil {
		logr.Sugar().Fatalw("failed to ensure schema", "error", err)
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Solutions.CacheTTL, logr, redisClient != nil)
	solveSvc := service.NewSolveService(solutionRepo, cacheSvc, metricsSvc, validator.New(), cfg.Solver, logr)
	solutionSvc := service.NewSolutionService(solutionRepo, cacheSvc, cfg.Solutions.CacheTTL, logr,
		export.NewCSVExporter(), export.NewPDFExporter())

	solveSvc.Start(ctx)
	defer solveSvc.Stop()

	solveHandler := handler.NewSolveHandler(solveSvc)
	solutionHandler := handler.NewSolutionHandler(solutionSvc)

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
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	api := r.Group(cfg.APIPrefix)
	api.POST("/solve", solveHandler.Submit)
	api.GET("/solve/:id", solveHandler.Run)
	api.POST("/solve/:id/cancel", solveHandler.Cancel)
	api.GET("/solutions", solutionHandler.List)
	api.GET("/solutions/:id", solutionHandler.Get)
	api.DELETE("/solutions/:id", solutionHandler.Delete)
	api.GET("/solutions/:id/export", solutionHandler.Export)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown failed", "error", err)
	}
}
