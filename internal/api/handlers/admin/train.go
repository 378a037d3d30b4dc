// Package admin 模型訓練管理 API。
package admin

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"meal-recommender/internal/core/meal/classifier"
	"meal-recommender/internal/core/queue"
	"meal-recommender/internal/pkg/common"
)

// TrainHandler 訓練任務處理器
type TrainHandler struct {
	queue    *queue.Manager
	name     string
	defaults classifier.TrainConfig
}

// NewTrainHandler 創建處理器；name 與 defaults 為未指定時使用的 bundle 名稱與訓練設定
func NewTrainHandler(q *queue.Manager, name string, defaults classifier.TrainConfig) *TrainHandler {
	return &TrainHandler{queue: q, name: name, defaults: defaults}
}

// TrainRequest 訓練參數覆寫，未提供的欄位沿用預設
type TrainRequest struct {
	Name               string   `json:"name,omitempty"`
	Epochs             *int     `json:"epochs,omitempty"`
	BatchSize          *int     `json:"batch_size,omitempty"`
	LearningRate       *float64 `json:"learning_rate,omitempty"`
	ValidationFraction *float64 `json:"validation_fraction,omitempty"`
	HiddenLayers       []int    `json:"hidden_layers,omitempty"`
	Seed               *int64   `json:"seed,omitempty"`
	MaxSamples         *int     `json:"max_samples,omitempty"`
}

// Apply 將覆寫套用到 base
func (r TrainRequest) Apply(base classifier.TrainConfig) classifier.TrainConfig {
	cfg := base
	cfg.HiddenLayers = append([]int(nil), base.HiddenLayers...)
	if r.Epochs != nil {
		cfg.Epochs = *r.Epochs
	}
	if r.BatchSize != nil {
		cfg.BatchSize = *r.BatchSize
	}
	if r.LearningRate != nil {
		cfg.LearningRate = *r.LearningRate
	}
	if r.ValidationFraction != nil {
		cfg.ValidationFraction = *r.ValidationFraction
	}
	if r.HiddenLayers != nil {
		cfg.HiddenLayers = append([]int(nil), r.HiddenLayers...)
	}
	if r.Seed != nil {
		cfg.Seed = *r.Seed
	}
	if r.MaxSamples != nil {
		cfg.MaxSamples = *r.MaxSamples
	}
	return cfg
}

// Train POST /api/v1/admin/train，回傳 202 與任務
func (h *TrainHandler) Train(c *gin.Context) {
	var req TrainRequest
	// 空的請求體代表全部使用預設值；拼錯的欄位名稱直接拒絕
	if err := common.DecodeJSONStrict(c.Request.Body, &req); err != nil && !errors.Is(err, io.EOF) {
		respond(c, common.ErrInvalidRequest.Wrap(err).WithDetails(err.Error()))
		return
	}

	cfg := req.Apply(h.defaults)
	if err := cfg.Validate(); err != nil {
		respond(c, common.ErrInvalidRequest.Wrap(err).WithDetails(err.Error()))
		return
	}

	name := req.Name
	if name == "" {
		name = h.name
	}

	job, err := h.queue.Enqueue(name, cfg)
	if err != nil {
		if errors.Is(err, queue.ErrClosed) {
			err = common.ErrServiceUnavailable.Wrap(err)
		}
		respond(c, err)
		return
	}

	common.LogInfo("訓練任務已排入隊列",
		zap.String("request_id", requestid.Get(c)),
		zap.String("job_id", job.ID),
		zap.String("name", job.Name),
	)
	c.JSON(http.StatusAccepted, job)
}

// Job GET /api/v1/admin/train/:id
func (h *TrainHandler) Job(c *gin.Context) {
	job, ok := h.queue.Get(c.Param("id"))
	if !ok {
		respond(c, common.ErrNotFound.WithDetails("training job not found"))
		return
	}
	c.JSON(http.StatusOK, job)
}

// Status GET /api/v1/admin/queue
func (h *TrainHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.queue.GetQueueStatus())
}

func respond(c *gin.Context, err error) {
	ce := common.AsCustomError(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(ce.Status, ce.Response())
}
