// Package metrics 定義 Prometheus 指標：推論、快取、備援比對、訓練與 HTTP 請求。
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 推論結果標籤
const (
	OutcomeSuccess               = "success"
	OutcomeInvalidInput          = "invalid_input"
	OutcomeClassificationFailure = "classification_failure"
	OutcomeRecipeNotFound        = "recipe_not_found"
	OutcomeModelUnavailable      = "model_unavailable"
)

var (
	// 推論
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meal_predictions_total",
			Help: "Total number of meal predictions by outcome",
		},
		[]string{"outcome"},
	)

	PredictionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "meal_prediction_duration_seconds",
			Help:    "Duration of meal predictions in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	PredictionCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meal_prediction_cache_total",
			Help: "Prediction cache lookups by result",
		},
		[]string{"result"}, // "hit", "miss"
	)

	UnknownIngredients = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "meal_unknown_ingredients_total",
			Help: "Ingredients dropped because they are not in the model vocabulary",
		},
	)

	// 備援比對
	FallbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meal_fallback_total",
			Help: "Fallback keyword suggestions by match result",
		},
		[]string{"matched"},
	)

	// 訓練
	TrainingRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meal_training_runs_total",
			Help: "Training runs by final status",
		},
		[]string{"status"}, // "succeeded", "failed"
	)

	TrainingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "meal_training_duration_seconds",
			Help:    "Duration of training runs in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 4, 10),
		},
	)

	// 目前載入的模型
	BundleVocabularySize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "meal_bundle_vocabulary_size",
			Help: "Vocabulary size of the active model bundle",
		},
	)

	BundleLabels = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "meal_bundle_labels",
			Help: "Number of meal labels in the active model bundle",
		},
	)

	// HTTP
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meal_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "meal_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
)

// RecordPrediction 記錄一次推論
func RecordPrediction(outcome string, duration time.Duration, unknown int) {
	PredictionsTotal.WithLabelValues(outcome).Inc()
	PredictionDuration.Observe(duration.Seconds())
	if unknown > 0 {
		UnknownIngredients.Add(float64(unknown))
	}
}

// RecordCacheLookup 記錄快取查詢
func RecordCacheLookup(hit bool) {
	if hit {
		PredictionCache.WithLabelValues("hit").Inc()
		return
	}
	PredictionCache.WithLabelValues("miss").Inc()
}

// RecordFallback 記錄備援比對
func RecordFallback(matched bool) {
	FallbackTotal.WithLabelValues(strconv.FormatBool(matched)).Inc()
}

// RecordTraining 記錄一次訓練
func RecordTraining(duration time.Duration, err error) {
	TrainingDuration.Observe(duration.Seconds())
	if err != nil {
		TrainingRuns.WithLabelValues("failed").Inc()
		return
	}
	TrainingRuns.WithLabelValues("succeeded").Inc()
}

// SetBundle 更新目前模型的大小
func SetBundle(vocabularySize, labels int) {
	BundleVocabularySize.Set(float64(vocabularySize))
	BundleLabels.Set(float64(labels))
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
