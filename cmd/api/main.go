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

	"go.uber.org/zap"

	"meal-recommender/internal/api"
	"meal-recommender/internal/app"
	"meal-recommender/internal/core/cache"
	"meal-recommender/internal/core/meal"
	"meal-recommender/internal/core/queue"
	"meal-recommender/internal/core/vision"
	"meal-recommender/internal/infrastructure/config"
	"meal-recommender/internal/pkg/common"
)

func main() {
	// 載入設定（含 .env）
	cfg, err := config.LoadConfig(os.Getenv("APP_CONFIG_FILE"))
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel, cfg.LogFile); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.String("model_name", cfg.Model.Name),
		zap.String("model_store", cfg.Model.Store),
		zap.String("database_driver", cfg.Database.Driver),
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
		zap.Bool("vision_enabled", cfg.Vision.Enabled),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(cfg)
	if err != nil {
		common.LogFatal("Failed to initialize storage", zap.Error(err))
	}
	defer application.Close()

	if err := application.Bootstrap(ctx); err != nil {
		common.LogFatal("Failed to bootstrap model", zap.Error(err))
	}

	// 初始化快取；停用時為 nil
	cacheManager := cache.NewManager(cfg.Cache)
	defer cacheManager.Close()

	// 訓練隊列
	trainQueue := queue.NewManager(cfg.Queue)
	trainQueue.Start(ctx, application.Trainer.Handle)
	defer trainQueue.Close()

	deps := api.Dependencies{
		Service:  meal.NewService(application.Holder, cacheManager, nil, cfg.Model.Alternatives),
		Queue:    trainQueue,
		Images:   vision.NewImageProcessor(cfg.Image.MaxSizeBytes),
		Database: application.Recipes,
		Recipes:  application.Recipes,
	}
	if client := vision.NewClient(cfg.Vision); client != nil {
		deps.Extractor = client
	}

	router := api.SetupRouter(cfg, deps)

	// 設置 HTTP 服務器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// 啟動服務器
	serverErr := make(chan error, 1)
	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Int("port", cfg.Server.Port),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// 等待中斷信號
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		common.LogError("Failed to start server", zap.Error(err))
		return
	}

	common.LogInfo("Shutting down server...")

	// 設置關閉超時
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
		return
	}

	common.LogInfo("Server exited")
}
