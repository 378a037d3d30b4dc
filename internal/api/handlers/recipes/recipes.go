// Package recipes 食譜語料的唯讀 API。
package recipes

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"meal-recommender/internal/core/meal"
	"meal-recommender/internal/infrastructure/storage/recipestore"
	"meal-recommender/internal/pkg/common"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// Store 語料查詢
type Store interface {
	List(ctx context.Context, query string, offset, limit int) ([]recipestore.Recipe, int64, error)
	Get(ctx context.Context, id uint) (recipestore.Recipe, error)
	Count(ctx context.Context) (int64, error)
}

// Handler 食譜處理器
type Handler struct {
	store   Store
	service *meal.Service
}

// NewHandler 創建處理器；service 為 nil 時統計不含模型資訊
func NewHandler(store Store, service *meal.Service) *Handler {
	return &Handler{store: store, service: service}
}

// PageResponse 分頁結果，page 從 0 開始
type PageResponse struct {
	Recipes    []recipestore.Recipe `json:"recipes"`
	Page       int                  `json:"page"`
	Size       int                  `json:"size"`
	Total      int64                `json:"total"`
	TotalPages int64                `json:"total_pages"`
}

// StatsResponse 語料統計
type StatsResponse struct {
	TotalRecipes int64  `json:"total_recipes"`
	ModelVersion string `json:"model_version,omitempty"`
	ModelLabels  int    `json:"model_labels"`
}

// List GET /api/v1/recipes?page=&size=
func (h *Handler) List(c *gin.Context) {
	h.list(c, "")
}

// Search GET /api/v1/recipes/search?query=&page=&size=
func (h *Handler) Search(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		respond(c, common.ErrInvalidRequest.WithDetails("query is required"))
		return
	}
	h.list(c, query)
}

func (h *Handler) list(c *gin.Context, query string) {
	page, size, err := pagination(c)
	if err != nil {
		respond(c, err)
		return
	}

	recipes, total, err := h.store.List(c.Request.Context(), query, page*size, size)
	if err != nil {
		respond(c, err)
		return
	}

	c.JSON(http.StatusOK, PageResponse{
		Recipes:    recipes,
		Page:       page,
		Size:       size,
		Total:      total,
		TotalPages: (total + int64(size) - 1) / int64(size),
	})
}

// Get GET /api/v1/recipes/:id
func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respond(c, common.ErrInvalidRequest.WithDetails("id must be a positive integer"))
		return
	}

	recipe, err := h.store.Get(c.Request.Context(), uint(id))
	if errors.Is(err, recipestore.ErrNotFound) {
		respond(c, common.ErrNotFound.WithDetails("recipe not found"))
		return
	}
	if err != nil {
		respond(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

// Stats GET /api/v1/admin/stats
func (h *Handler) Stats(c *gin.Context) {
	total, err := h.store.Count(c.Request.Context())
	if err != nil {
		respond(c, err)
		return
	}

	resp := StatsResponse{TotalRecipes: total}
	if h.service != nil {
		if snap := h.service.Snapshot(); snap != nil {
			resp.ModelVersion = snap.Version()
			resp.ModelLabels = snap.Bundle.Labels.Size()
		}
	}
	c.JSON(http.StatusOK, resp)
}

// pagination 解析 page 與 size；size 上限為 maxPageSize
func pagination(c *gin.Context) (int, int, error) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil || page < 0 {
		return 0, 0, common.ErrInvalidRequest.WithDetails("page must be a non-negative integer")
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(defaultPageSize)))
	if err != nil || size <= 0 {
		return 0, 0, common.ErrInvalidRequest.WithDetails("size must be a positive integer")
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size, nil
}

func respond(c *gin.Context, err error) {
	ce := common.AsCustomError(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(ce.Status, ce.Response())
}
