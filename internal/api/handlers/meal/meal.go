// Package meal 餐點推論 API。
package meal

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	mealcore "meal-recommender/internal/core/meal"
	"meal-recommender/internal/core/meal/bundle"
	"meal-recommender/internal/core/meal/resolver"
	"meal-recommender/internal/core/vision"
	"meal-recommender/internal/pkg/common"
)

// Handler 餐點推論處理器
type Handler struct {
	service   *mealcore.Service
	images    *vision.ImageProcessor
	extractor vision.Extractor
}

// NewHandler 創建處理器；extractor 為 nil 時圖片推論回傳 503
func NewHandler(service *mealcore.Service, images *vision.ImageProcessor, extractor vision.Extractor) *Handler {
	return &Handler{service: service, images: images, extractor: extractor}
}

// PredictRequest 以食材推論餐點
type PredictRequest struct {
	Ingredients []string `json:"ingredients"`
}

// PredictionInfo 推論細節
type PredictionInfo struct {
	Label        string                 `json:"label"`
	Confidence   float64                `json:"confidence"`
	ModelVersion string                 `json:"model_version"`
	Alternatives []mealcore.Alternative `json:"alternatives"`
	Unknown      []string               `json:"unknown_ingredients"`
}

// PredictResponse 推論結果
type PredictResponse struct {
	Recipe     common.RecipeRecord `json:"recipe"`
	Prediction PredictionInfo      `json:"prediction"`
}

// ImagePredictRequest 以圖片推論餐點
type ImagePredictRequest struct {
	Image string `json:"image" binding:"required"` // data URI 或圖片 URL
}

// ImagePredictResponse 圖片推論結果
type ImagePredictResponse struct {
	PredictResponse
	Detected []string `json:"detected_ingredients"`
}

// SuggestResponse 關鍵字比對結果
type SuggestResponse struct {
	Meal    string `json:"meal"`
	Matched bool   `json:"matched"`
}

// ModelResponse 目前模型資訊
type ModelResponse struct {
	bundle.Summary
	LoadedAt   time.Time            `json:"loaded_at"`
	Recipes    int                  `json:"recipes"`
	Duplicates []resolver.Duplicate `json:"duplicate_names"`
}

func newPredictResponse(p *mealcore.Prediction) PredictResponse {
	return PredictResponse{
		Recipe: p.Recipe,
		Prediction: PredictionInfo{
			Label:        p.Label,
			Confidence:   p.Confidence,
			ModelVersion: p.ModelVersion,
			Alternatives: p.Alternatives,
			Unknown:      p.Unknown,
		},
	}
}

// Predict POST /api/v1/meal/predict
func (h *Handler) Predict(c *gin.Context) {
	var req PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, common.ErrInvalidRequest.Wrap(err).WithDetails(err.Error()))
		return
	}

	pred, err := h.service.Predict(c.Request.Context(), req.Ingredients)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPredictResponse(pred))
}

// Suggest POST /api/v1/meal/suggest
func (h *Handler) Suggest(c *gin.Context) {
	var req PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, common.ErrInvalidRequest.Wrap(err).WithDetails(err.Error()))
		return
	}

	meal, matched := h.service.Suggest(req.Ingredients)
	c.JSON(http.StatusOK, SuggestResponse{Meal: meal, Matched: matched})
}

// PredictImage POST /api/v1/meal/predict-image
func (h *Handler) PredictImage(c *gin.Context) {
	requestID := requestid.Get(c)

	var req ImagePredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, common.ErrInvalidRequest.Wrap(err).WithDetails(err.Error()))
		return
	}
	if h.extractor == nil {
		respondError(c, common.ErrVisionUnavailable)
		return
	}

	jpegData, err := h.images.Process(c.Request.Context(), req.Image)
	if err != nil {
		common.LogImageProcessing("warn", "圖片驗證失敗",
			zap.String("request_id", requestID),
			zap.String("image_type", imageType(req.Image)),
			zap.Int("image_length", len(req.Image)),
			zap.Error(err),
		)
		respondError(c, err)
		return
	}

	detected, err := h.extractor.ExtractIngredients(c.Request.Context(), jpegData)
	if err != nil {
		common.LogError("食材辨識失敗",
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		respondError(c, err)
		return
	}

	pred, err := h.service.Predict(c.Request.Context(), detected)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ImagePredictResponse{
		PredictResponse: newPredictResponse(pred),
		Detected:        detected,
	})
}

// ModelInfo GET /api/v1/model
func (h *Handler) ModelInfo(c *gin.Context) {
	snap := h.service.Snapshot()
	if snap == nil {
		respondError(c, common.ErrModelUnavailable)
		return
	}

	c.JSON(http.StatusOK, ModelResponse{
		Summary:    snap.Bundle.Summary(),
		LoadedAt:   snap.LoadedAt,
		Recipes:    snap.Resolver.Size(),
		Duplicates: snap.Resolver.Duplicates(),
	})
}

// respondError 依錯誤種類回傳對應狀態碼
func respondError(c *gin.Context, err error) {
	status, resp := mealcore.ErrorResponse(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, resp)
}

// imageType 圖片輸入類型（用於日誌記錄）
func imageType(image string) string {
	switch {
	case strings.HasPrefix(image, "http://"), strings.HasPrefix(image, "https://"):
		return "url"
	case strings.HasPrefix(image, "data:image/"):
		if head, _, ok := strings.Cut(image, ";base64,"); ok {
			return "base64_data_uri_" + strings.TrimPrefix(head, "data:image/")
		}
		return "invalid_data_uri"
	default:
		return "unknown_format"
	}
}
