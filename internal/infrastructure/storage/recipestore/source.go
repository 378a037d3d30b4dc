package recipestore

import (
	"fmt"
	"os"
	"strings"

	"meal-recommender/internal/pkg/common"
)

// LoadJSONFile 讀取 recipes.json（[{name, ingredients, steps}, ...]）
func LoadJSONFile(path string) ([]common.RecipeRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open recipe file: %w", err)
	}
	defer f.Close()

	var records []common.RecipeRecord
	if err := common.DecodeJSON(f, &records); err != nil {
		return nil, fmt.Errorf("failed to decode recipe file %s: %w", path, err)
	}
	return records, nil
}

// FilterRecords 整理原始食譜：名稱與步驟去除空白、食材正規化，
// 並丟棄少於兩種食材或沒有步驟的食譜
func FilterRecords(records []common.RecipeRecord) []common.RecipeRecord {
	out := make([]common.RecipeRecord, 0, len(records))
	for _, r := range records {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			continue
		}

		ingredients := make([]string, 0, len(r.Ingredients))
		for _, ing := range r.Ingredients {
			if token := common.NormalizeIngredient(ing); token != "" {
				ingredients = append(ingredients, token)
			}
		}

		steps := make([]string, 0, len(r.Steps))
		for _, s := range r.Steps {
			if s = strings.TrimSpace(s); s != "" {
				steps = append(steps, s)
			}
		}

		if len(ingredients) < 2 || len(steps) == 0 {
			continue
		}
		out = append(out, common.RecipeRecord{Name: name, Ingredients: ingredients, Steps: steps})
	}
	return out
}
