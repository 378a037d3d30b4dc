// Package meal 推論服務：食材集合 → 編碼 → 分類 → 食譜。
//
// PredictMeal 是純函式，只讀取傳入的快照；Service 在其外加上快取、指標與日誌，
// Trainer 負責重新訓練並原子替換快照。
package meal

import (
	"meal-recommender/internal/core/meal/classifier"
	"meal-recommender/internal/pkg/common"
)

// DefaultAlternatives PredictMeal 回傳的候選數量
const DefaultAlternatives = 3

// Alternative 候選餐點
type Alternative struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Prediction 推論成功的結果
type Prediction struct {
	Recipe       common.RecipeRecord `json:"recipe"`
	Label        string              `json:"label"`
	Confidence   float64             `json:"confidence"`
	Alternatives []Alternative       `json:"alternatives"`
	ModelVersion string              `json:"model_version"`
	Unknown      []string            `json:"unknown_ingredients"`
}

// classified 分類階段的輸出
type classified struct {
	label        string
	confidence   float64
	alternatives []Alternative
}

// PredictMeal 依序執行 驗證 → 編碼 → 分類 → 解析
func PredictMeal(snap *Snapshot, ingredients []string) (*Prediction, error) {
	tokens, err := validate(ingredients)
	if err != nil {
		return nil, err
	}
	c, err := snap.classify(tokens, DefaultAlternatives)
	if err != nil {
		return nil, err
	}
	return snap.resolve(c, tokens)
}

// validate 正規化輸入；沒有任何非空食材時為 InvalidInput
func validate(ingredients []string) ([]string, error) {
	if len(ingredients) == 0 {
		return nil, invalidInput("no ingredients provided")
	}
	tokens := common.CanonicalIngredients(ingredients)
	if len(tokens) == 0 {
		return nil, invalidInput("all ingredients are blank")
	}
	return tokens, nil
}

// classify 編碼並分類；編碼本身不會失敗，詞表外食材直接忽略
func (s *Snapshot) classify(tokens []string, k int) (classified, error) {
	if s == nil || s.Bundle == nil || s.Bundle.Network == nil || s.Bundle.Vocabulary == nil || s.Bundle.Labels == nil {
		return classified{}, classificationFailure("no model loaded", nil)
	}
	b := s.Bundle

	dist, err := b.Network.Predict(b.Vocabulary.Encode(tokens))
	if err != nil {
		return classified{}, classificationFailure("model prediction failed", err)
	}

	idx, confidence := classifier.ArgMax(dist)
	if idx < 0 {
		return classified{}, classificationFailure("model returned an empty distribution", nil)
	}
	label, ok := b.Labels.Label(idx)
	if !ok {
		return classified{}, classificationFailure("predicted index is outside the label space", nil)
	}

	c := classified{label: label, confidence: confidence}
	for _, r := range classifier.TopK(dist, k) {
		l, ok := b.Labels.Label(r.Index)
		if !ok {
			return classified{}, classificationFailure("predicted index is outside the label space", nil)
		}
		c.alternatives = append(c.alternatives, Alternative{Label: l, Confidence: r.Probability})
	}
	return c, nil
}

// resolve 查詢食譜；找不到時回傳 RecipeNotFound 並附上預測標籤
func (s *Snapshot) resolve(c classified, tokens []string) (*Prediction, error) {
	if s.Resolver == nil {
		return nil, &Error{Kind: RecipeNotFound, Stage: StageResolved, Label: c.label, Message: "no recipe corpus loaded"}
	}
	rec, ok := s.Resolver.Resolve(c.label)
	if !ok {
		return nil, &Error{Kind: RecipeNotFound, Stage: StageResolved, Label: c.label, Message: "no recipe matches the predicted label"}
	}

	_, unknown := s.Bundle.Vocabulary.Known(tokens)
	if unknown == nil {
		unknown = []string{}
	}

	return &Prediction{
		Recipe:       rec,
		Label:        c.label,
		Confidence:   c.confidence,
		Alternatives: append([]Alternative{}, c.alternatives...),
		ModelVersion: s.Version(),
		Unknown:      unknown,
	}, nil
}
