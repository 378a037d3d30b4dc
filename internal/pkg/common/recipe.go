package common

import (
	"sort"
	"strings"
)

// RecipeRecord 食譜紀錄（名稱、食材、步驟）
type RecipeRecord struct {
	Name        string   `json:"name"`
	Ingredients []string `json:"ingredients"`
	Steps       []string `json:"steps"`
}

// Clone 深拷貝食譜，避免共享切片被修改
func (r RecipeRecord) Clone() RecipeRecord {
	return RecipeRecord{
		Name:        r.Name,
		Ingredients: append([]string(nil), r.Ingredients...),
		Steps:       append([]string(nil), r.Steps...),
	}
}

// NormalizeIngredient 正規化食材名稱（去除前後空白、轉小寫）
func NormalizeIngredient(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeIngredients 正規化並去重食材，保留首次出現的順序，空字串會被丟棄
func NormalizeIngredients(ingredients []string) []string {
	seen := make(map[string]struct{}, len(ingredients))
	out := make([]string, 0, len(ingredients))
	for _, ing := range ingredients {
		token := NormalizeIngredient(ing)
		if token == "" {
			continue
		}
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	return out
}

// CanonicalIngredients 正規化、去重並排序，作為集合的穩定表示
func CanonicalIngredients(ingredients []string) []string {
	out := NormalizeIngredients(ingredients)
	sort.Strings(out)
	return out
}
