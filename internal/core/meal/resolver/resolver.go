// Package resolver 將預測出的餐點標籤對應回完整食譜。
package resolver

import (
	"strings"

	"meal-recommender/internal/pkg/common"
)

// Duplicate 大小寫折疊後重複的食譜名稱
type Duplicate struct {
	Name      string `json:"name"`
	Positions []int  `json:"positions"`
}

// Resolver 以不分大小寫的名稱查找食譜
//
// 同名（忽略大小寫）的食譜只取語料中第一筆，其餘記錄在 Duplicates。
type Resolver struct {
	recipes    []common.RecipeRecord
	byName     map[string]int
	duplicates []Duplicate
}

// New 複製語料並建立索引
func New(recipes []common.RecipeRecord) *Resolver {
	r := &Resolver{
		recipes: make([]common.RecipeRecord, len(recipes)),
		byName:  make(map[string]int, len(recipes)),
	}

	dupIndex := make(map[string]int)
	for i, rec := range recipes {
		r.recipes[i] = rec.Clone()

		key := strings.ToLower(rec.Name)
		first, ok := r.byName[key]
		if !ok {
			r.byName[key] = i
			continue
		}

		d, seen := dupIndex[key]
		if !seen {
			d = len(r.duplicates)
			dupIndex[key] = d
			r.duplicates = append(r.duplicates, Duplicate{Name: recipes[first].Name, Positions: []int{first}})
		}
		r.duplicates[d].Positions = append(r.duplicates[d].Positions, i)
	}
	return r
}

// Resolve 回傳第一筆名稱相符的食譜；找不到時回傳 false
func (r *Resolver) Resolve(label string) (common.RecipeRecord, bool) {
	i, ok := r.byName[strings.ToLower(label)]
	if !ok {
		return common.RecipeRecord{}, false
	}
	return r.recipes[i].Clone(), true
}

// Size 食譜數量
func (r *Resolver) Size() int {
	return len(r.recipes)
}

// Duplicates 大小寫折疊後重複的名稱，依首次出現順序排列
func (r *Resolver) Duplicates() []Duplicate {
	out := make([]Duplicate, len(r.duplicates))
	for i, d := range r.duplicates {
		out[i] = Duplicate{Name: d.Name, Positions: append([]int(nil), d.Positions...)}
	}
	return out
}
