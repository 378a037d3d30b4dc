package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"meal-recommender/internal/api/handlers/admin"
	"meal-recommender/internal/api/handlers/health"
	mealHandler "meal-recommender/internal/api/handlers/meal"
	"meal-recommender/internal/api/handlers/recipes"
	"meal-recommender/internal/api/middleware"
	"meal-recommender/internal/core/meal"
	"meal-recommender/internal/core/queue"
	"meal-recommender/internal/core/vision"
	"meal-recommender/internal/infrastructure/config"
	"meal-recommender/internal/pkg/common"
)

// Dependencies 路由所需的服務
type Dependencies struct {
	Service   *meal.Service
	Queue     *queue.Manager
	Images    *vision.ImageProcessor
	Extractor vision.Extractor // nil 表示停用圖片推論
	Database  health.Pinger
	Recipes   recipes.Store // nil 表示不提供語料查詢
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, deps Dependencies) *gin.Engine {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 註冊基礎中間件
	router.Use(requestid.New()) // 自動生成請求 ID
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.RequestContext())

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// 請求體大小限制
	router.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))
	router.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	healthHandler := health.NewHandler(cfg.App.Version, deps.Service, deps.Queue, deps.Database)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API 路由組
	api := router.Group("/api/v1")
	if cfg.RateLimit.Enabled {
		api.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	{
		h := mealHandler.NewHandler(deps.Service, deps.Images, deps.Extractor)

		mealGroup := api.Group("/meal")
		{
			mealGroup.POST("/predict", h.Predict)
			mealGroup.POST("/suggest", h.Suggest)
			mealGroup.POST("/predict-image", h.PredictImage)
		}
		api.GET("/model", h.ModelInfo)

		adminGroup := api.Group("/admin")

		if deps.Recipes != nil {
			recipeHandler := recipes.NewHandler(deps.Recipes, deps.Service)

			recipeGroup := api.Group("/recipes")
			{
				recipeGroup.GET("", recipeHandler.List)
				recipeGroup.GET("/search", recipeHandler.Search)
				recipeGroup.GET("/:id", recipeHandler.Get)
			}
			adminGroup.GET("/stats", recipeHandler.Stats)
		}

		if deps.Queue != nil {
			trainHandler := admin.NewTrainHandler(deps.Queue, cfg.Model.Name, cfg.Model.TrainConfig())

			adminGroup.POST("/train", middleware.Deduplication(cfg.DedupWindow), trainHandler.Train)
			adminGroup.GET("/train/:id", trainHandler.Job)
			adminGroup.GET("/queue", trainHandler.Status)
		}
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("rate_limit", cfg.RateLimit.Enabled),
		zap.Bool("vision_enabled", deps.Extractor != nil),
		zap.Bool("admin_enabled", deps.Queue != nil),
		zap.Bool("recipes_enabled", deps.Recipes != nil),
		zap.Duration("timeout", cfg.Server.RequestTimeout),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
	)

	return router
}
