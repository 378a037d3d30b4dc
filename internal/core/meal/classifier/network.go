// Package classifier 前饋神經網路分類器：multi-hot 特徵向量 → 餐點標籤的機率分布。
//
// 網路結構為 ReLU 隱藏層 + softmax 輸出層，以 sparse categorical cross-entropy
// 搭配 mini-batch Adam 訓練。訓練完成後的 Network 在推論期間唯讀。
package classifier

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

var (
	// ErrDimensionMismatch 特徵維度與模型輸入不符（通常是詞表與模型來自不同訓練）
	ErrDimensionMismatch = errors.New("feature dimension mismatch")
	// ErrNumerical 輸出含有 NaN 或 Inf
	ErrNumerical = errors.New("numerical failure")
	// ErrMalformedNetwork 網路參數形狀不一致
	ErrMalformedNetwork = errors.New("malformed network")
)

// Layer 全連接層
//
// Weights 以輸入為主序排列：weights[k*Outputs+j] 為輸入 k 到輸出 j 的權重，
// 稀疏輸入時只需掃過非零輸入對應的連續區段。
type Layer struct {
	Inputs  int       `json:"inputs"`
	Outputs int       `json:"outputs"`
	Weights []float64 `json:"weights"`
	Biases  []float64 `json:"biases"`
}

// Network 多層感知器
type Network struct {
	Layers []Layer `json:"layers"`
}

// NewNetwork 依層大小建立網路，例如 [輸入, 256, 128, 類別數]；權重使用 He 初始化
func NewNetwork(sizes []int, rng *rand.Rand) *Network {
	n := &Network{}
	for i := 1; i < len(sizes); i++ {
		in, out := sizes[i-1], sizes[i]
		layer := Layer{
			Inputs:  in,
			Outputs: out,
			Weights: make([]float64, in*out),
			Biases:  make([]float64, out),
		}
		if in > 0 {
			scale := math.Sqrt(2.0 / float64(in))
			for w := range layer.Weights {
				layer.Weights[w] = rng.NormFloat64() * scale
			}
		}
		n.Layers = append(n.Layers, layer)
	}
	return n
}

// InputSize 輸入維度
func (n *Network) InputSize() int {
	if len(n.Layers) == 0 {
		return 0
	}
	return n.Layers[0].Inputs
}

// OutputSize 輸出維度（類別數）
func (n *Network) OutputSize() int {
	if len(n.Layers) == 0 {
		return 0
	}
	return n.Layers[len(n.Layers)-1].Outputs
}

// Shape 各層大小，[輸入, 隱藏..., 輸出]
func (n *Network) Shape() []int {
	if len(n.Layers) == 0 {
		return nil
	}
	shape := []int{n.Layers[0].Inputs}
	for _, l := range n.Layers {
		shape = append(shape, l.Outputs)
	}
	return shape
}

// Validate 檢查參數形狀與層間維度
func (n *Network) Validate() error {
	if len(n.Layers) == 0 {
		return fmt.Errorf("%w: no layers", ErrMalformedNetwork)
	}
	for i, l := range n.Layers {
		if l.Inputs < 0 || l.Outputs < 0 {
			return fmt.Errorf("%w: layer %d has negative size", ErrMalformedNetwork, i)
		}
		if len(l.Weights) != l.Inputs*l.Outputs {
			return fmt.Errorf("%w: layer %d has %d weights, want %d", ErrMalformedNetwork, i, len(l.Weights), l.Inputs*l.Outputs)
		}
		if len(l.Biases) != l.Outputs {
			return fmt.Errorf("%w: layer %d has %d biases, want %d", ErrMalformedNetwork, i, len(l.Biases), l.Outputs)
		}
		if i > 0 && n.Layers[i-1].Outputs != l.Inputs {
			return fmt.Errorf("%w: layer %d expects %d inputs, previous layer has %d outputs", ErrMalformedNetwork, i, l.Inputs, n.Layers[i-1].Outputs)
		}
	}
	return nil
}

// Predict 回傳所有類別的機率分布（非負且總和為 1）
func (n *Network) Predict(x []float64) ([]float64, error) {
	if len(n.Layers) == 0 {
		return nil, fmt.Errorf("%w: no layers", ErrMalformedNetwork)
	}
	if len(x) != n.InputSize() {
		return nil, fmt.Errorf("%w: got %d features, model expects %d", ErrDimensionMismatch, len(x), n.InputSize())
	}

	acts := n.forward(x)
	out := acts[len(acts)-1]
	for i, p := range out {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return nil, fmt.Errorf("%w: output %d is %v", ErrNumerical, i, p)
		}
	}
	return out, nil
}

// forward 前向傳播，回傳每層的啟動值；acts[0] 為輸入，最後一層為 softmax 機率
func (n *Network) forward(x []float64) [][]float64 {
	acts := make([][]float64, len(n.Layers)+1)
	acts[0] = x
	last := len(n.Layers) - 1

	for l := range n.Layers {
		layer := &n.Layers[l]
		out := make([]float64, layer.Outputs)
		copy(out, layer.Biases)

		for k, xk := range acts[l] {
			if xk == 0 {
				continue
			}
			row := layer.Weights[k*layer.Outputs : (k+1)*layer.Outputs]
			for j, w := range row {
				out[j] += w * xk
			}
		}

		if l == last {
			softmax(out)
		} else {
			for j := range out {
				out[j] = relu(out[j])
			}
		}
		acts[l+1] = out
	}
	return acts
}

// relu ReLU 激活函數
func relu(x float64) float64 {
	if x > 0 {
		return x
	}
	return 0
}

// softmax 原地計算，先減去最大值避免溢位
func softmax(z []float64) {
	if len(z) == 0 {
		return
	}
	max := z[0]
	for _, v := range z[1:] {
		if v > max {
			max = v
		}
	}
	var sum float64
	for i, v := range z {
		z[i] = math.Exp(v - max)
		sum += z[i]
	}
	for i := range z {
		z[i] /= sum
	}
}
