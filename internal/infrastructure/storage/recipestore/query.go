package recipestore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"meal-recommender/internal/pkg/common"
)

// ErrNotFound 找不到指定 ID 的食譜
var ErrNotFound = errors.New("recipe not found")

// Recipe 帶有資料庫 ID 的食譜
type Recipe struct {
	ID uint `json:"id"`
	common.RecipeRecord
}

func (r RecipeRow) recipe() Recipe {
	return Recipe{ID: r.ID, RecipeRecord: r.record()}
}

// List 依語料順序分頁列出食譜；query 不為空時以名稱做不分大小寫的部分比對。
// 回傳該頁食譜與符合條件的總數
func (s *Store) List(ctx context.Context, query string, offset, limit int) ([]Recipe, int64, error) {
	filtered := func() *gorm.DB {
		tx := s.db.WithContext(ctx).Model(&RecipeRow{})
		if query = strings.TrimSpace(query); query != "" {
			tx = tx.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(query)+"%")
		}
		return tx
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count recipes: %w", err)
	}

	var rows []RecipeRow
	if err := filtered().Order("position asc").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list recipes: %w", err)
	}

	recipes := make([]Recipe, len(rows))
	for i, row := range rows {
		recipes[i] = row.recipe()
	}
	return recipes, total, nil
}

// Get 依 ID 取得食譜
func (s *Store) Get(ctx context.Context, id uint) (Recipe, error) {
	var row RecipeRow
	err := s.db.WithContext(ctx).First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Recipe{}, ErrNotFound
	}
	if err != nil {
		return Recipe{}, fmt.Errorf("failed to get recipe %d: %w", id, err)
	}
	return row.recipe(), nil
}
