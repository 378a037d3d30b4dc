package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"meal-recommender/internal/core/cache"
	"meal-recommender/internal/core/meal"
	"meal-recommender/internal/core/queue"
	"meal-recommender/internal/pkg/common"
)

// Pinger 可檢查連線的依賴（例如資料庫）
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime"`
	Model     *ModelStatus           `json:"model"`
	Queue     *queue.Status          `json:"queue,omitempty"`
	Cache     *cache.Stats           `json:"cache,omitempty"`
	Database  string                 `json:"database,omitempty"`
}

// ModelStatus 目前載入的模型
type ModelStatus struct {
	Loaded   bool      `json:"loaded"`
	Version  string    `json:"version,omitempty"`
	LoadedAt time.Time `json:"loaded_at,omitempty"`
	Labels   int       `json:"labels,omitempty"`
}

// Handler 健康檢查處理器
type Handler struct {
	version  string
	service  *meal.Service
	queue    *queue.Manager
	database Pinger
}

// NewHandler 創建健康檢查處理器；queue 與 database 可為 nil
func NewHandler(version string, service *meal.Service, q *queue.Manager, database Pinger) *Handler {
	return &Handler{version: version, service: service, queue: q, database: database}
}

// HealthCheck 健康檢查處理器
func (h *Handler) HealthCheck(c *gin.Context) {
	// 獲取運行時信息
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
		Model: h.modelStatus(),
	}

	if !response.Model.Loaded {
		response.Status = "degraded"
	}
	if h.queue != nil {
		response.Queue = h.queue.GetQueueStatus()
	}
	if stats := h.service.CacheStats(); stats.MaxSize > 0 {
		response.Cache = &stats
	}
	if h.database != nil {
		response.Database = "ok"
		if err := h.database.Ping(c.Request.Context()); err != nil {
			common.LogWarn("資料庫連線檢查失敗", zap.Error(err))
			response.Database = "unreachable"
			response.Status = "degraded"
		}
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("status", response.Status),
	)

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 尚未載入模型時回傳 503
func (h *Handler) ReadinessCheck(c *gin.Context) {
	status := h.modelStatus()
	if !status.Loaded {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"model":  status,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"model":  status,
	})
}

// LivenessCheck 存活檢查處理器
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}

func (h *Handler) modelStatus() *ModelStatus {
	snap := h.service.Snapshot()
	if snap == nil {
		return &ModelStatus{}
	}
	return &ModelStatus{
		Loaded:   true,
		Version:  snap.Version(),
		LoadedAt: snap.LoadedAt,
		Labels:   snap.Bundle.Labels.Size(),
	}
}
