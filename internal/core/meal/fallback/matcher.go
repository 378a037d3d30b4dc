// Package fallback 不依賴模型的關鍵字比對，在沒有可用模型時提供建議。
package fallback

import (
	"strings"

	"meal-recommender/internal/pkg/common"
)

// NoMatch 沒有任何規則相符時的預設訊息
const NoMatch = "No matching meal found. Try something else!"

// Entry 關鍵字片語 → 餐點
type Entry struct {
	Phrase string `json:"phrase"`
	Meal   string `json:"meal"`
}

// DefaultEntries 內建規則表
func DefaultEntries() []Entry {
	return []Entry{
		{Phrase: "chicken rice broccoli", Meal: "Grilled Chicken Bowl"},
		{Phrase: "banana oats egg", Meal: "Protein Banana Pancakes"},
		{Phrase: "tuna lettuce avocado", Meal: "Tuna Avocado Salad"},
	}
}

// Matcher 依表格順序比對，第一個相符的規則勝出
type Matcher struct {
	entries []entry
}

type entry struct {
	keywords []string
	meal     string
}

// NewMatcher 建立比對器；片語中的每個空白分隔關鍵字都必須出現
func NewMatcher(entries []Entry) *Matcher {
	m := &Matcher{entries: make([]entry, 0, len(entries))}
	for _, e := range entries {
		keywords := strings.Fields(strings.ToLower(e.Phrase))
		if len(keywords) == 0 {
			continue
		}
		m.entries = append(m.entries, entry{keywords: keywords, meal: e.Meal})
	}
	return m
}

// Match 將輸入正規化、排序並以空白串接，規則的每個關鍵字皆為其子字串時即相符
func (m *Matcher) Match(ingredients []string) (string, bool) {
	joined := strings.Join(common.CanonicalIngredients(ingredients), " ")
	if joined == "" {
		return "", false
	}

	for _, e := range m.entries {
		if containsAll(joined, e.keywords) {
			return e.meal, true
		}
	}
	return "", false
}

// Suggest 回傳相符的餐點，或預設訊息
func (m *Matcher) Suggest(ingredients []string) string {
	if meal, ok := m.Match(ingredients); ok {
		return meal
	}
	return NoMatch
}

func containsAll(s string, keywords []string) bool {
	for _, k := range keywords {
		if !strings.Contains(s, k) {
			return false
		}
	}
	return true
}
