package meal

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"meal-recommender/internal/core/meal/bundle"
	"meal-recommender/internal/core/meal/classifier"
	"meal-recommender/internal/core/queue"
	"meal-recommender/internal/metrics"
	"meal-recommender/internal/pkg/common"
)

// CorpusSource 食譜語料來源，依語料順序回傳
type CorpusSource interface {
	All(ctx context.Context) ([]common.RecipeRecord, error)
}

// BundleStore 以名稱存取模型 bundle
type BundleStore interface {
	Save(ctx context.Context, name string, b *bundle.Bundle) error
	Load(ctx context.Context, name string) (*bundle.Bundle, error)
}

// Trainer 訓練並發布新快照
type Trainer struct {
	corpus  CorpusSource
	store   BundleStore
	holder  *Holder
	serving string
	timeout time.Duration
}

// NewTrainer 創建訓練器；serving 為服務中的 bundle 名稱，只有同名的 bundle 會發布到 holder。
// timeout 為 0 表示不限時
func NewTrainer(corpus CorpusSource, store BundleStore, holder *Holder, serving string, timeout time.Duration) *Trainer {
	return &Trainer{corpus: corpus, store: store, holder: holder, serving: serving, timeout: timeout}
}

// Serving 服務中的 bundle 名稱
func (t *Trainer) Serving() string {
	return t.serving
}

// publish 名稱與服務中的 bundle 相同時替換快照，回傳是否已替換
func (t *Trainer) publish(name string, snap *Snapshot) bool {
	if t.holder == nil || name != t.serving {
		return false
	}
	t.holder.Swap(snap)
	return true
}

// Examples 每筆食譜產生一個訓練樣本：食材 → 食譜名稱
func Examples(recipes []common.RecipeRecord) []bundle.Example {
	examples := make([]bundle.Example, 0, len(recipes))
	for _, r := range recipes {
		examples = append(examples, bundle.Example{Ingredients: r.Ingredients, Label: r.Name})
	}
	return examples
}

// Run 讀取語料、訓練並儲存；name 為服務中的 bundle 時替換目前快照
func (t *Trainer) Run(ctx context.Context, name string, cfg classifier.TrainConfig) (b *bundle.Bundle, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordTraining(time.Since(start), err)
	}()

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	recipes, err := t.corpus.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load recipe corpus: %w", err)
	}

	common.LogInfo("開始訓練模型",
		zap.String("name", name),
		zap.Int("recipes", len(recipes)),
		zap.Int("epochs", cfg.Epochs),
		zap.Int("batch_size", cfg.BatchSize),
		zap.Float64("learning_rate", cfg.LearningRate),
		zap.Ints("hidden_layers", cfg.HiddenLayers),
	)

	b, err = bundle.Train(ctx, Examples(recipes), cfg)
	if err != nil {
		return nil, err
	}

	if final, ok := b.History.Final(); ok {
		common.LogInfo("模型訓練完成",
			zap.String("version", b.Version),
			zap.Int("train_samples", b.History.TrainSamples),
			zap.Int("validation_samples", b.History.ValidationSamples),
			zap.Float64("loss", final.Loss),
			zap.Float64("accuracy", final.Accuracy),
			zap.Float64("val_loss", final.ValidationLoss),
			zap.Float64("val_accuracy", final.ValidationAccuracy),
			zap.Duration("duration", time.Since(start)),
		)
	}

	if err := t.store.Save(ctx, name, b); err != nil {
		return nil, fmt.Errorf("save bundle %q: %w", name, err)
	}

	snap, err := NewSnapshot(b, recipes)
	if err != nil {
		return nil, err
	}
	if !t.publish(name, snap) {
		common.LogInfo("模型已儲存，未替換服務中的模型",
			zap.String("name", name),
			zap.String("serving", t.serving),
			zap.String("version", b.Version),
		)
	}
	return b, nil
}

// Load 從儲存載入 bundle 並搭配目前語料建立快照；name 為服務中的 bundle 時才發布
func (t *Trainer) Load(ctx context.Context, name string) (*Snapshot, error) {
	b, err := t.store.Load(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load bundle %q: %w", name, err)
	}
	recipes, err := t.corpus.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load recipe corpus: %w", err)
	}

	snap, err := NewSnapshot(b, recipes)
	if err != nil {
		return nil, err
	}
	t.publish(name, snap)
	return snap, nil
}

// Handle 作為訓練隊列的 handler，回傳新模型版本
func (t *Trainer) Handle(ctx context.Context, job *queue.Job) (string, error) {
	b, err := t.Run(ctx, job.Name, job.Config)
	if err != nil {
		return "", err
	}
	return b.Version, nil
}
