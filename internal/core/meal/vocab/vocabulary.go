// Package vocab 將食材集合編碼為固定長度的 multi-hot 特徵向量。
//
// 詞表在訓練時建立後即不可變；推論時必須使用同一份詞表（相同 token、相同順序），
// 詞表外的食材會被忽略，不產生任何訊號。
package vocab

import (
	"encoding/json"
	"fmt"
	"sort"

	"meal-recommender/internal/pkg/common"
)

// Vocabulary 有序、去重的食材詞表
type Vocabulary struct {
	tokens []string
	index  map[string]int
}

// Fit 從訓練語料建立詞表，token 依字典序排列
func Fit(corpus [][]string) *Vocabulary {
	seen := make(map[string]struct{})
	for _, ingredients := range corpus {
		for _, ing := range ingredients {
			token := common.NormalizeIngredient(ing)
			if token == "" {
				continue
			}
			seen[token] = struct{}{}
		}
	}

	tokens := make([]string, 0, len(seen))
	for token := range seen {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)

	return build(tokens)
}

// New 從持久化的 token 序列重建詞表，順序保持不變
func New(tokens []string) (*Vocabulary, error) {
	seen := make(map[string]struct{}, len(tokens))
	for i, token := range tokens {
		if token == "" {
			return nil, fmt.Errorf("vocabulary token %d is empty", i)
		}
		if common.NormalizeIngredient(token) != token {
			return nil, fmt.Errorf("vocabulary token %d (%q) is not normalized", i, token)
		}
		if _, ok := seen[token]; ok {
			return nil, fmt.Errorf("duplicate vocabulary token %q", token)
		}
		seen[token] = struct{}{}
	}
	return build(append([]string(nil), tokens...)), nil
}

func build(tokens []string) *Vocabulary {
	index := make(map[string]int, len(tokens))
	for i, token := range tokens {
		index[token] = i
	}
	return &Vocabulary{tokens: tokens, index: index}
}

// Size 詞表大小，即特徵向量維度
func (v *Vocabulary) Size() int {
	return len(v.tokens)
}

// Tokens 回傳詞表副本
func (v *Vocabulary) Tokens() []string {
	return append([]string(nil), v.tokens...)
}

// Index 查詢 token 在詞表中的位置
func (v *Vocabulary) Index(ingredient string) (int, bool) {
	i, ok := v.index[common.NormalizeIngredient(ingredient)]
	return i, ok
}

// Encode 將食材集合編碼為 multi-hot 向量；輸入順序與重複項不影響結果
func (v *Vocabulary) Encode(ingredients []string) []float64 {
	vec := make([]float64, len(v.tokens))
	for _, ing := range ingredients {
		if i, ok := v.Index(ing); ok {
			vec[i] = 1
		}
	}
	return vec
}

// Known 將輸入拆成詞表內與詞表外兩組（皆已正規化、去重）
func (v *Vocabulary) Known(ingredients []string) (known, unknown []string) {
	for _, token := range common.NormalizeIngredients(ingredients) {
		if _, ok := v.index[token]; ok {
			known = append(known, token)
		} else {
			unknown = append(unknown, token)
		}
	}
	return known, unknown
}

// MarshalJSON 以 token 陣列序列化
func (v *Vocabulary) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.tokens)
}

// UnmarshalJSON 從 token 陣列還原並驗證
func (v *Vocabulary) UnmarshalJSON(data []byte) error {
	var tokens []string
	if err := json.Unmarshal(data, &tokens); err != nil {
		return err
	}
	restored, err := New(tokens)
	if err != nil {
		return err
	}
	*v = *restored
	return nil
}
