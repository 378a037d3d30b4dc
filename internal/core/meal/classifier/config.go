package classifier

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig 訓練設定不合法
var ErrInvalidConfig = errors.New("invalid training config")

// TrainConfig 訓練設定
type TrainConfig struct {
	Epochs             int     `json:"epochs"`
	BatchSize          int     `json:"batch_size"`
	LearningRate       float64 `json:"learning_rate"`
	ValidationFraction float64 `json:"validation_fraction"`
	HiddenLayers       []int   `json:"hidden_layers"`
	Seed               int64   `json:"seed"`
	// MaxSamples 訓練樣本上限（取語料前綴），0 表示不限制
	MaxSamples int `json:"max_samples"`
}

// DefaultTrainConfig 預設訓練設定
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		Epochs:             10,
		BatchSize:          64,
		LearningRate:       0.001,
		ValidationFraction: 0.1,
		HiddenLayers:       []int{256, 128},
		Seed:               42,
		MaxSamples:         50000,
	}
}

// Validate 在開始訓練前檢查每個欄位的範圍
func (c TrainConfig) Validate() error {
	if c.Epochs <= 0 {
		return fmt.Errorf("%w: epochs must be > 0, got %d", ErrInvalidConfig, c.Epochs)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: batch_size must be > 0, got %d", ErrInvalidConfig, c.BatchSize)
	}
	if !(c.LearningRate > 0) {
		return fmt.Errorf("%w: learning_rate must be > 0, got %v", ErrInvalidConfig, c.LearningRate)
	}
	if !(c.ValidationFraction >= 0 && c.ValidationFraction < 1) {
		return fmt.Errorf("%w: validation_fraction must be in [0,1), got %v", ErrInvalidConfig, c.ValidationFraction)
	}
	for i, size := range c.HiddenLayers {
		if size <= 0 {
			return fmt.Errorf("%w: hidden layer %d must have > 0 units, got %d", ErrInvalidConfig, i, size)
		}
	}
	if c.MaxSamples < 0 {
		return fmt.Errorf("%w: max_samples must be >= 0, got %d", ErrInvalidConfig, c.MaxSamples)
	}
	return nil
}
