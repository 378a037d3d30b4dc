package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meal-recommender/internal/core/meal/classifier"
	"meal-recommender/internal/core/queue"
	"meal-recommender/internal/infrastructure/config"
	"meal-recommender/internal/pkg/common"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setup(t *testing.T, maxSize int) (*gin.Engine, *queue.Manager) {
	t.Helper()
	q := queue.NewManager(config.QueueConfig{Workers: 1, MaxSize: maxSize})
	t.Cleanup(q.Close)

	h := NewTrainHandler(q, "meal", classifier.DefaultTrainConfig())
	r := gin.New()
	r.POST("/train", h.Train)
	r.GET("/train/:id", h.Job)
	r.GET("/queue", h.Status)
	return r, q
}

func perform(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTrainRequest_Apply(t *testing.T) {
	epochs, lr := 3, 0.01
	base := classifier.DefaultTrainConfig()

	cfg := TrainRequest{Epochs: &epochs, LearningRate: &lr, HiddenLayers: []int{8}}.Apply(base)
	assert.Equal(t, 3, cfg.Epochs)
	assert.Equal(t, 0.01, cfg.LearningRate)
	assert.Equal(t, []int{8}, cfg.HiddenLayers)
	assert.Equal(t, base.BatchSize, cfg.BatchSize)

	// base 不可被修改
	assert.Equal(t, []int{256, 128}, base.HiddenLayers)
}

func TestTrain_EnqueuesJob(t *testing.T) {
	r, q := setup(t, 5)

	w := perform(r, http.MethodPost, "/train", `{"epochs":2,"name":"nightly"}`)
	require.Equal(t, http.StatusAccepted, w.Code)

	var job queue.Job
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &job))
	assert.Equal(t, "nightly", job.Name)
	assert.Equal(t, 2, job.Config.Epochs)
	assert.Equal(t, queue.StatusPending, job.Status)

	got, ok := q.Get(job.ID)
	require.True(t, ok)
	assert.Equal(t, job.ID, got.ID)

	w = perform(r, http.MethodGet, "/train/"+job.ID, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = perform(r, http.MethodGet, "/queue", "")
	var status queue.Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, 1, status.QueueLength)
}

func TestTrain_EmptyBodyUsesDefaults(t *testing.T) {
	r, _ := setup(t, 5)

	w := perform(r, http.MethodPost, "/train", "")
	require.Equal(t, http.StatusAccepted, w.Code)

	var job queue.Job
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &job))
	assert.Equal(t, "meal", job.Name)
	assert.Equal(t, classifier.DefaultTrainConfig(), job.Config)
}

func TestTrain_RejectsUnknownFields(t *testing.T) {
	r, q := setup(t, 5)

	for _, body := range []string{`{"epoch":2}`, `{"learningRate":0.1}`, `{"epochs":2} {"epochs":3}`} {
		w := perform(r, http.MethodPost, "/train", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Contains(t, w.Body.String(), common.ErrCodeInvalidRequest, body)
	}
	assert.Equal(t, 0, q.GetQueueStatus().QueueLength)
}

func TestTrain_Errors(t *testing.T) {
	r, _ := setup(t, 1)

	w := perform(r, http.MethodPost, "/train", `{"epochs":0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = perform(r, http.MethodPost, "/train", `{"epochs":"many"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	require.Equal(t, http.StatusAccepted, perform(r, http.MethodPost, "/train", `{}`).Code)
	w = perform(r, http.MethodPost, "/train", `{}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), common.ErrQueueFull.Code)

	w = perform(r, http.MethodGet, "/train/unknown", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
