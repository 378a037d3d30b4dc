package meal

import (
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"meal-recommender/internal/core/meal/bundle"
	"meal-recommender/internal/core/meal/resolver"
	"meal-recommender/internal/metrics"
	"meal-recommender/internal/pkg/common"
)

// Snapshot 推論所需的全部狀態：模型 bundle 與食譜語料
//
// 建立後不可修改；重新訓練時整個替換。
type Snapshot struct {
	Bundle   *bundle.Bundle
	Resolver *resolver.Resolver
	LoadedAt time.Time
}

// NewSnapshot 驗證 bundle 並以語料建立 resolver
func NewSnapshot(b *bundle.Bundle, recipes []common.RecipeRecord) (*Snapshot, error) {
	if b == nil {
		return nil, fmt.Errorf("%w: nil bundle", bundle.ErrInconsistent)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}

	r := resolver.New(recipes)
	for _, d := range r.Duplicates() {
		common.LogWarn("食譜名稱重複（忽略大小寫），推論時取語料中第一筆",
			zap.String("name", d.Name),
			zap.Ints("positions", d.Positions),
		)
	}

	return &Snapshot{Bundle: b, Resolver: r, LoadedAt: time.Now()}, nil
}

// Version 模型版本
func (s *Snapshot) Version() string {
	if s == nil || s.Bundle == nil {
		return ""
	}
	return s.Bundle.Version
}

// Holder 以原子操作替換的目前快照
type Holder struct {
	current atomic.Pointer[Snapshot]
}

// Load 取得目前快照，尚未載入時為 nil
func (h *Holder) Load() *Snapshot {
	return h.current.Load()
}

// Swap 替換快照並回傳舊的
func (h *Holder) Swap(s *Snapshot) *Snapshot {
	old := h.current.Swap(s)
	if s != nil {
		metrics.SetBundle(s.Bundle.Vocabulary.Size(), s.Bundle.Labels.Size())
		common.LogInfo("模型已載入",
			zap.String("version", s.Version()),
			zap.String("fingerprint", s.Bundle.Fingerprint),
			zap.Int("vocabulary_size", s.Bundle.Vocabulary.Size()),
			zap.Int("labels", s.Bundle.Labels.Size()),
			zap.Int("recipes", s.Resolver.Size()),
		)
	}
	return old
}
