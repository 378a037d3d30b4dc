package meal

import (
	"context"
	"time"

	"go.uber.org/zap"

	"meal-recommender/internal/core/cache"
	"meal-recommender/internal/core/meal/fallback"
	"meal-recommender/internal/metrics"
	"meal-recommender/internal/pkg/common"
)

// Service 推論服務：在 PredictMeal 外加上快照管理、快取、指標與日誌
type Service struct {
	holder       *Holder
	cache        *cache.CacheManager
	fallback     *fallback.Matcher
	alternatives int
}

// NewService 創建推論服務；cache 為 nil 時不使用快取
func NewService(holder *Holder, cm *cache.CacheManager, matcher *fallback.Matcher, alternatives int) *Service {
	if matcher == nil {
		matcher = fallback.NewMatcher(fallback.DefaultEntries())
	}
	return &Service{
		holder:       holder,
		cache:        cm,
		fallback:     matcher,
		alternatives: alternatives,
	}
}

// Snapshot 目前的快照
func (s *Service) Snapshot() *Snapshot {
	return s.holder.Load()
}

// Predict 推論餐點；尚未載入模型時回傳 common.ErrModelUnavailable
func (s *Service) Predict(ctx context.Context, ingredients []string) (*Prediction, error) {
	start := time.Now()
	requestID := common.RequestID(ctx)

	tokens, err := validate(ingredients)
	if err != nil {
		metrics.RecordPrediction(metrics.OutcomeInvalidInput, time.Since(start), 0)
		common.LogInfo("餐點推論未成功", zap.String("request_id", requestID), zap.Error(err))
		return nil, err
	}

	snap := s.holder.Load()
	if snap == nil {
		metrics.RecordPrediction(metrics.OutcomeModelUnavailable, time.Since(start), 0)
		return nil, common.ErrModelUnavailable
	}

	pred, err := s.predict(snap, tokens)
	duration := time.Since(start)
	if err != nil {
		metrics.RecordPrediction(outcomeOf(err), duration, 0)
		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("model_version", snap.Version()),
			zap.Error(err),
		}
		if IsKind(err, ClassificationFailure) {
			common.LogError("餐點推論失敗", fields...)
		} else {
			common.LogInfo("餐點推論未成功", fields...)
		}
		return nil, err
	}

	metrics.RecordPrediction(metrics.OutcomeSuccess, duration, len(pred.Unknown))
	if len(pred.Unknown) > 0 {
		common.LogDebug("忽略詞表外的食材",
			zap.String("request_id", requestID),
			zap.Strings("unknown", pred.Unknown),
		)
	}
	common.LogInfo("餐點推論完成",
		zap.String("request_id", requestID),
		zap.String("label", pred.Label),
		zap.Float64("confidence", pred.Confidence),
		zap.String("model_version", pred.ModelVersion),
		zap.Duration("duration", duration),
	)
	return pred, nil
}

// predict 與 PredictMeal 驗證之後的流程相同，分類結果經過快取
func (s *Service) predict(snap *Snapshot, tokens []string) (*Prediction, error) {
	known, _ := snap.Bundle.Vocabulary.Known(tokens)
	key := cache.Key(snap.Version(), known)

	c, hit := s.lookup(key)
	metrics.RecordCacheLookup(hit)
	if !hit {
		var err error
		c, err = snap.classify(tokens, s.alternatives)
		if err != nil {
			return nil, err
		}
		s.store(key, c)
	}

	return snap.resolve(c, tokens)
}

func (s *Service) lookup(key string) (classified, bool) {
	o, ok := s.cache.Get(key)
	if !ok {
		return classified{}, false
	}
	c := classified{label: o.Label, confidence: o.Confidence}
	for _, a := range o.Alternatives {
		c.alternatives = append(c.alternatives, Alternative{Label: a.Label, Confidence: a.Confidence})
	}
	return c, true
}

func (s *Service) store(key string, c classified) {
	o := cache.Outcome{Label: c.label, Confidence: c.confidence}
	for _, a := range c.alternatives {
		o.Alternatives = append(o.Alternatives, cache.Alternative{Label: a.Label, Confidence: a.Confidence})
	}
	if err := s.cache.Set(key, o); err != nil {
		common.LogWarn("預測結果快取失敗", zap.Error(err))
	}
}

// Suggest 備援關鍵字比對，不需要模型
func (s *Service) Suggest(ingredients []string) (string, bool) {
	meal, ok := s.fallback.Match(ingredients)
	metrics.RecordFallback(ok)
	if !ok {
		return fallback.NoMatch, false
	}
	return meal, true
}

// CacheStats 快取統計
func (s *Service) CacheStats() cache.Stats {
	return s.cache.GetStats()
}

func outcomeOf(err error) string {
	switch {
	case IsKind(err, InvalidInput):
		return metrics.OutcomeInvalidInput
	case IsKind(err, RecipeNotFound):
		return metrics.OutcomeRecipeNotFound
	default:
		return metrics.OutcomeClassificationFailure
	}
}
