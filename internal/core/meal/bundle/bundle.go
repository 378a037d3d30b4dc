// Package bundle 將詞表、標籤空間與分類器參數包裝成單一、可驗證的模型檔。
//
// 三者必須來自同一次訓練：載入時會重新計算 fingerprint 並檢查維度，
// 混用不同訓練產物的 bundle 一律拒絕載入。
package bundle

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"hash"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"meal-recommender/internal/core/meal/classifier"
	"meal-recommender/internal/core/meal/labels"
	"meal-recommender/internal/core/meal/vocab"
	"meal-recommender/internal/pkg/common"
)

// Format 持久化格式版本
const Format = "meal-bundle/v1"

var (
	// ErrEmptyCorpus 沒有任何訓練樣本
	ErrEmptyCorpus = errors.New("empty training corpus")
	// ErrInconsistent bundle 內容互相矛盾（維度不符、fingerprint 不符或缺少元件）。
	// fingerprint 只涵蓋詞表、標籤與網路形狀，同形狀下被替換的權重不會被偵測
	ErrInconsistent = errors.New("inconsistent model bundle")
)

// Example 一筆訓練樣本：食材集合 → 餐點名稱
type Example struct {
	Ingredients []string `json:"ingredients"`
	Label       string   `json:"label"`
}

// Bundle 同一次訓練產生的模型產物
type Bundle struct {
	Format      string                 `json:"format"`
	Version     string                 `json:"version"`
	CreatedAt   time.Time              `json:"created_at"`
	Fingerprint string                 `json:"fingerprint"`
	Vocabulary  *vocab.Vocabulary      `json:"vocabulary"`
	Labels      *labels.Space          `json:"labels"`
	Network     *classifier.Network    `json:"network"`
	Config      classifier.TrainConfig `json:"config"`
	History     *classifier.History    `json:"history,omitempty"`
}

// Summary 模型摘要（不含權重）
type Summary struct {
	Version        string                   `json:"version"`
	CreatedAt      time.Time                `json:"created_at"`
	Fingerprint    string                   `json:"fingerprint"`
	VocabularySize int                      `json:"vocabulary_size"`
	LabelCount     int                      `json:"label_count"`
	Shape          []int                    `json:"shape"`
	Config         classifier.TrainConfig   `json:"config"`
	TrainSamples   int                      `json:"train_samples"`
	Final          *classifier.EpochMetrics `json:"final_metrics,omitempty"`
}

// Train 從樣本建立詞表與標籤空間並訓練分類器
//
// 樣本超過 cfg.MaxSamples 時只取前綴；空語料回傳 ErrEmptyCorpus。
func Train(ctx context.Context, examples []Example, cfg classifier.TrainConfig) (*Bundle, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.MaxSamples > 0 && len(examples) > cfg.MaxSamples {
		common.LogInfo("訓練樣本超過上限，只取前綴",
			zap.Int("total", len(examples)),
			zap.Int("max_samples", cfg.MaxSamples),
		)
		examples = examples[:cfg.MaxSamples]
	}
	if len(examples) == 0 {
		return nil, ErrEmptyCorpus
	}

	corpus := make([][]string, len(examples))
	names := make([]string, len(examples))
	for i, ex := range examples {
		corpus[i] = ex.Ingredients
		names[i] = ex.Label
	}

	vocabulary := vocab.Fit(corpus)
	space := labels.Fit(names)
	if space.Size() == 1 {
		common.LogWarn("訓練資料只有一個標籤，預測結果將固定為該標籤", zap.String("label", names[0]))
	}

	features := make([][]float64, len(examples))
	for i, ingredients := range corpus {
		features[i] = vocabulary.Encode(ingredients)
	}
	ys, err := space.Encode(names)
	if err != nil {
		return nil, err
	}

	net, history, err := classifier.Fit(ctx, features, ys, space.Size(), cfg)
	if err != nil {
		return nil, fmt.Errorf("fit classifier: %w", err)
	}

	b := &Bundle{
		Format:     Format,
		Version:    uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
		Vocabulary: vocabulary,
		Labels:     space,
		Network:    net,
		Config:     cfg,
		History:    history,
	}
	b.Fingerprint = Fingerprint(vocabulary, space, net)
	return b, nil
}

// Fingerprint 以 token、標籤與網路形狀計算 sha256。
// 權重不在計算範圍內：它確認詞表、標籤與網路屬於同一次訓練的結構，不是權重的完整性校驗
func Fingerprint(v *vocab.Vocabulary, s *labels.Space, n *classifier.Network) string {
	h := sha256.New()
	writeStrings(h, "vocabulary", v.Tokens())
	writeStrings(h, "labels", s.Labels())

	h.Write([]byte("shape\x00"))
	var buf [8]byte
	for _, size := range n.Shape() {
		binary.BigEndian.PutUint64(buf[:], uint64(size))
		h.Write(buf[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeStrings(h hash.Hash, section string, values []string) {
	h.Write([]byte(section))
	h.Write([]byte{0})
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(len(values)))
	h.Write(buf[:])
	for _, v := range values {
		h.Write([]byte(v))
		h.Write([]byte{0})
	}
}

// Validate 檢查 bundle 的結構一致性
func (b *Bundle) Validate() error {
	if b.Vocabulary == nil || b.Labels == nil || b.Network == nil {
		return fmt.Errorf("%w: missing vocabulary, labels or network", ErrInconsistent)
	}
	if err := b.Network.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInconsistent, err)
	}
	if got, want := b.Network.InputSize(), b.Vocabulary.Size(); got != want {
		return fmt.Errorf("%w: network expects %d features, vocabulary has %d tokens", ErrInconsistent, got, want)
	}
	if got, want := b.Network.OutputSize(), b.Labels.Size(); got != want {
		return fmt.Errorf("%w: network has %d outputs, label space has %d labels", ErrInconsistent, got, want)
	}
	if fp := Fingerprint(b.Vocabulary, b.Labels, b.Network); fp != b.Fingerprint {
		return fmt.Errorf("%w: fingerprint mismatch (stored %s, computed %s)", ErrInconsistent, b.Fingerprint, fp)
	}
	return nil
}

// Encode 序列化為 JSON
func Encode(b *Bundle) ([]byte, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(b)
}

// Decode 反序列化並驗證
func Decode(data []byte) (*Bundle, error) {
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInconsistent, err)
	}
	if b.Format != Format {
		return nil, fmt.Errorf("%w: unsupported format %q", ErrInconsistent, b.Format)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// Summary 模型摘要
func (b *Bundle) Summary() Summary {
	s := Summary{
		Version:        b.Version,
		CreatedAt:      b.CreatedAt,
		Fingerprint:    b.Fingerprint,
		VocabularySize: b.Vocabulary.Size(),
		LabelCount:     b.Labels.Size(),
		Shape:          b.Network.Shape(),
		Config:         b.Config,
	}
	if b.History != nil {
		s.TrainSamples = b.History.TrainSamples
		if final, ok := b.History.Final(); ok {
			s.Final = &final
		}
	}
	return s
}
