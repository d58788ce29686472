package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clinicon-stellenplan/internal/config"
	"clinicon-stellenplan/internal/database"
	httpapi "clinicon-stellenplan/internal/http"
	"clinicon-stellenplan/internal/logger"
	"clinicon-stellenplan/internal/repository"
	"clinicon-stellenplan/internal/service"
	"clinicon-stellenplan/internal/store"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "stellenplan-data")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	var kv store.KV
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		kv = store.NewRedisKV(redisClient)
		log.Info("Redis cache enabled", zap.String("addr", cfg.Redis.Addr))
	} else {
		kv = store.NewMemoryKV()
		log.Info("Redis disabled, using in-memory cache")
	}

	tenantsRepo := repository.NewPostgresTenantsRepository(db)
	departmentsRepo := repository.NewPostgresDepartmentsRepository(db)
	qualificationsRepo := repository.NewPostgresQualificationsRepository(db)
	planRepo := repository.NewPostgresPlanRepository(db)
	planWriter := repository.NewPostgresPlanWriter(db)
	insightsRepo := repository.NewPostgresInsightsRepository(db)

	scopes := service.NewScopeService(tenantsRepo, tenantsRepo, departmentsRepo, log)
	qualifications := service.NewQualificationService(qualificationsRepo, log)
	plans := service.NewPlanService(planRepo, planWriter, qualifications, kv, log)
	insights := service.NewInsightsService(insightsRepo, planRepo, qualifications, log)

	var ppugSync *service.PPUGSyncService
	if cfg.PPUG.BaseURL != "" {
		ppugClient := service.NewPPUGClient(cfg.PPUG.BaseURL, cfg.PPUG.APIKey, log)
		ppugSync = service.NewPPUGSyncService(ppugClient, insightsRepo, log)
		log.Info("PPUG sync enabled", zap.String("base_url", cfg.PPUG.BaseURL))
	}

	router := httpapi.NewRouter(log)
	router.RegisterPlanRoutes(httpapi.NewPlanHandler(scopes, plans, log))
	router.RegisterInsightsRoutes(httpapi.NewInsightsHandler(scopes, insights, ppugSync, log))
	router.RegisterTenantRoutes(httpapi.NewTenantsHandler(scopes, log))
	router.RegisterFallback()

	srv := service.NewServer(cfg.HTTP.Addr, httpapi.WithMiddleware(router, log), log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		cancel()
	case <-errCh:
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	if redisClient != nil {
		_ = redisClient.Close()
	}
}
