package classifier

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"go.uber.org/zap"

	"meal-recommender/internal/pkg/common"
)

const (
	adamBeta1   = 0.9
	adamBeta2   = 0.999
	adamEpsilon = 1e-7

	// 避免 log(0)
	minProbability = 1e-12
)

// EpochMetrics 單一 epoch 的訓練指標
type EpochMetrics struct {
	Epoch              int     `json:"epoch"`
	Loss               float64 `json:"loss"`
	Accuracy           float64 `json:"accuracy"`
	ValidationLoss     float64 `json:"val_loss,omitempty"`
	ValidationAccuracy float64 `json:"val_accuracy,omitempty"`
}

// History 訓練紀錄
type History struct {
	TrainSamples      int            `json:"train_samples"`
	ValidationSamples int            `json:"validation_samples"`
	Epochs            []EpochMetrics `json:"epochs"`
}

// Final 最後一個 epoch 的指標
func (h *History) Final() (EpochMetrics, bool) {
	if h == nil || len(h.Epochs) == 0 {
		return EpochMetrics{}, false
	}
	return h.Epochs[len(h.Epochs)-1], true
}

// Fit 訓練分類器
//
// 驗證集取最後 floor(n*ValidationFraction) 筆；切分後若訓練集為空則不切分。
// 每個 batch 之間檢查 ctx，取消時回傳 ctx.Err()。
// 同樣的輸入與 Seed 會產生相同的權重。
func Fit(ctx context.Context, features [][]float64, labels []int, numClasses int, cfg TrainConfig) (*Network, *History, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	if len(features) != len(labels) {
		return nil, nil, fmt.Errorf("%d feature rows but %d labels", len(features), len(labels))
	}
	if numClasses < 0 {
		return nil, nil, fmt.Errorf("numClasses must be >= 0, got %d", numClasses)
	}

	inputSize := 0
	if len(features) > 0 {
		inputSize = len(features[0])
	}
	for i, row := range features {
		if len(row) != inputSize {
			return nil, nil, fmt.Errorf("%w: row %d has %d features, want %d", ErrDimensionMismatch, i, len(row), inputSize)
		}
	}
	for i, y := range labels {
		if y < 0 || y >= numClasses {
			return nil, nil, fmt.Errorf("label %d at row %d is outside [0,%d)", y, i, numClasses)
		}
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	sizes := append([]int{inputSize}, cfg.HiddenLayers...)
	sizes = append(sizes, numClasses)
	net := NewNetwork(sizes, rng)

	history := &History{}
	if len(features) == 0 || numClasses == 0 {
		return net, history, nil
	}

	split := len(features) - int(float64(len(features))*cfg.ValidationFraction)
	if split < 1 {
		split = len(features)
	}
	trainIdx := make([]int, split)
	for i := range trainIdx {
		trainIdx[i] = i
	}
	valIdx := make([]int, 0, len(features)-split)
	for i := split; i < len(features); i++ {
		valIdx = append(valIdx, i)
	}
	history.TrainSamples = len(trainIdx)
	history.ValidationSamples = len(valIdx)

	opt := newAdam(net, cfg.LearningRate)
	grads := newGradients(net)

	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		rng.Shuffle(len(trainIdx), func(i, j int) {
			trainIdx[i], trainIdx[j] = trainIdx[j], trainIdx[i]
		})

		var lossSum float64
		correct := 0
		for start := 0; start < len(trainIdx); start += cfg.BatchSize {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
			end := start + cfg.BatchSize
			if end > len(trainIdx) {
				end = len(trainIdx)
			}

			grads.zero()
			for _, i := range trainIdx[start:end] {
				loss, hit := net.backward(features[i], labels[i], grads)
				lossSum += loss
				if hit {
					correct++
				}
			}
			opt.step(net, grads, end-start)
		}

		m := EpochMetrics{
			Epoch:    epoch,
			Loss:     lossSum / float64(len(trainIdx)),
			Accuracy: float64(correct) / float64(len(trainIdx)),
		}
		if len(valIdx) > 0 {
			m.ValidationLoss, m.ValidationAccuracy = net.evaluate(features, labels, valIdx)
		}
		history.Epochs = append(history.Epochs, m)

		common.LogDebug("訓練 epoch 完成",
			zap.Int("epoch", epoch),
			zap.Float64("loss", m.Loss),
			zap.Float64("accuracy", m.Accuracy),
			zap.Float64("val_loss", m.ValidationLoss),
			zap.Float64("val_accuracy", m.ValidationAccuracy),
		)
	}

	return net, history, nil
}

// evaluate 在指定列上計算平均 loss 與準確率
func (n *Network) evaluate(features [][]float64, labels []int, rows []int) (float64, float64) {
	var lossSum float64
	correct := 0
	for _, i := range rows {
		out := n.forward(features[i])[len(n.Layers)]
		lossSum += -math.Log(math.Max(out[labels[i]], minProbability))
		if idx, _ := ArgMax(out); idx == labels[i] {
			correct++
		}
	}
	return lossSum / float64(len(rows)), float64(correct) / float64(len(rows))
}

// backward 單一樣本的前向 + 反向傳播，梯度累加到 grads
func (n *Network) backward(x []float64, y int, grads *gradients) (float64, bool) {
	acts := n.forward(x)
	out := acts[len(n.Layers)]

	loss := -math.Log(math.Max(out[y], minProbability))
	idx, _ := ArgMax(out)

	// softmax + cross-entropy 的輸出梯度為 p - onehot(y)
	delta := make([]float64, len(out))
	copy(delta, out)
	delta[y] -= 1

	for l := len(n.Layers) - 1; l >= 0; l-- {
		layer := &n.Layers[l]
		g := &grads.layers[l]
		outputs := layer.Outputs

		for j, d := range delta {
			g.biases[j] += d
		}

		var prevDelta []float64
		if l > 0 {
			prevDelta = make([]float64, layer.Inputs)
		}
		for k, a := range acts[l] {
			// 輸入為 0 時權重梯度為 0；隱藏層 ReLU 輸出為 0 時導數也為 0
			if a == 0 {
				continue
			}
			row := layer.Weights[k*outputs : (k+1)*outputs]
			gRow := g.weights[k*outputs : (k+1)*outputs]
			var s float64
			for j, d := range delta {
				gRow[j] += a * d
				s += row[j] * d
			}
			if prevDelta != nil {
				prevDelta[k] = s
			}
		}
		delta = prevDelta
	}

	return loss, idx == y
}

type layerParams struct {
	weights []float64
	biases  []float64
}

type gradients struct {
	layers []layerParams
}

func newGradients(n *Network) *gradients {
	g := &gradients{layers: make([]layerParams, len(n.Layers))}
	for i, l := range n.Layers {
		g.layers[i] = layerParams{
			weights: make([]float64, len(l.Weights)),
			biases:  make([]float64, len(l.Biases)),
		}
	}
	return g
}

func (g *gradients) zero() {
	for i := range g.layers {
		clear(g.layers[i].weights)
		clear(g.layers[i].biases)
	}
}

// adam Adam 最佳化器（Keras 預設參數）
type adam struct {
	lr float64
	t  int
	m  *gradients
	v  *gradients
}

func newAdam(n *Network, lr float64) *adam {
	return &adam{lr: lr, m: newGradients(n), v: newGradients(n)}
}

// step 以 batch 平均梯度更新參數
func (a *adam) step(n *Network, g *gradients, batchSize int) {
	a.t++
	scale := 1 / float64(batchSize)
	lrT := a.lr * math.Sqrt(1-math.Pow(adamBeta2, float64(a.t))) / (1 - math.Pow(adamBeta1, float64(a.t)))

	for l := range n.Layers {
		update(n.Layers[l].Weights, g.layers[l].weights, a.m.layers[l].weights, a.v.layers[l].weights, scale, lrT)
		update(n.Layers[l].Biases, g.layers[l].biases, a.m.layers[l].biases, a.v.layers[l].biases, scale, lrT)
	}
}

func update(params, grad, m, v []float64, scale, lrT float64) {
	for i := range params {
		g := grad[i] * scale
		m[i] = adamBeta1*m[i] + (1-adamBeta1)*g
		v[i] = adamBeta2*v[i] + (1-adamBeta2)*g*g
		params[i] -= lrT * m[i] / (math.Sqrt(v[i]) + adamEpsilon)
	}
}
