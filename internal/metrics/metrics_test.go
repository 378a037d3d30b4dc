package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordPrediction(t *testing.T) {
	before := testutil.ToFloat64(PredictionsTotal.WithLabelValues(OutcomeRecipeNotFound))
	unknownBefore := testutil.ToFloat64(UnknownIngredients)

	RecordPrediction(OutcomeRecipeNotFound, time.Millisecond, 2)
	RecordPrediction(OutcomeRecipeNotFound, time.Millisecond, 0)

	assert.Equal(t, before+2, testutil.ToFloat64(PredictionsTotal.WithLabelValues(OutcomeRecipeNotFound)))
	assert.Equal(t, unknownBefore+2, testutil.ToFloat64(UnknownIngredients))
}

func TestRecordCacheLookup(t *testing.T) {
	hits := testutil.ToFloat64(PredictionCache.WithLabelValues("hit"))
	misses := testutil.ToFloat64(PredictionCache.WithLabelValues("miss"))

	RecordCacheLookup(true)
	RecordCacheLookup(false)
	RecordCacheLookup(false)

	assert.Equal(t, hits+1, testutil.ToFloat64(PredictionCache.WithLabelValues("hit")))
	assert.Equal(t, misses+2, testutil.ToFloat64(PredictionCache.WithLabelValues("miss")))
}

func TestRecordFallback(t *testing.T) {
	before := testutil.ToFloat64(FallbackTotal.WithLabelValues("false"))
	RecordFallback(false)
	assert.Equal(t, before+1, testutil.ToFloat64(FallbackTotal.WithLabelValues("false")))
}

func TestRecordTraining(t *testing.T) {
	ok := testutil.ToFloat64(TrainingRuns.WithLabelValues("succeeded"))
	failed := testutil.ToFloat64(TrainingRuns.WithLabelValues("failed"))

	RecordTraining(time.Second, nil)
	RecordTraining(time.Second, errors.New("empty corpus"))

	assert.Equal(t, ok+1, testutil.ToFloat64(TrainingRuns.WithLabelValues("succeeded")))
	assert.Equal(t, failed+1, testutil.ToFloat64(TrainingRuns.WithLabelValues("failed")))
}

func TestSetBundle(t *testing.T) {
	SetBundle(120, 7)
	assert.Equal(t, 120.0, testutil.ToFloat64(BundleVocabularySize))
	assert.Equal(t, 7.0, testutil.ToFloat64(BundleLabels))
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/api/v1/meal/predict", "404"))
	RecordAPIRequest("POST", "/api/v1/meal/predict", 404, 3*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/api/v1/meal/predict", "404")))
}
