package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meal-recommender/internal/core/meal"
	"meal-recommender/internal/core/meal/bundle"
	"meal-recommender/internal/core/meal/classifier"
	"meal-recommender/internal/core/queue"
	"meal-recommender/internal/infrastructure/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func newService(t *testing.T, loaded bool) *meal.Service {
	t.Helper()
	holder := &meal.Holder{}
	if loaded {
		cfg := classifier.DefaultTrainConfig()
		cfg.Epochs = 1
		cfg.HiddenLayers = nil
		b, err := bundle.Train(context.Background(), []bundle.Example{
			{Ingredients: []string{"egg", "salt"}, Label: "Boiled Egg"},
		}, cfg)
		require.NoError(t, err)
		snap, err := meal.NewSnapshot(b, nil)
		require.NoError(t, err)
		holder.Swap(snap)
	}
	return meal.NewService(holder, nil, nil, 3)
}

func setupRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.GET("/health", h.HealthCheck)
	r.GET("/ready", h.ReadinessCheck)
	r.GET("/live", h.LivenessCheck)
	return r
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestReadiness(t *testing.T) {
	r := setupRouter(NewHandler("test", newService(t, false), nil, nil))
	assert.Equal(t, http.StatusServiceUnavailable, get(r, "/ready").Code)
	assert.Equal(t, http.StatusOK, get(r, "/live").Code)

	r = setupRouter(NewHandler("test", newService(t, true), nil, nil))
	assert.Equal(t, http.StatusOK, get(r, "/ready").Code)
}

func TestHealthCheck(t *testing.T) {
	q := queue.NewManager(config.QueueConfig{Workers: 2, MaxSize: 4})
	defer q.Close()

	h := NewHandler("1.2.3", newService(t, true), q, pingerFunc(func(context.Context) error { return nil }))
	w := get(setupRouter(h), "/health")
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
	require.NotNil(t, resp.Model)
	assert.True(t, resp.Model.Loaded)
	assert.Equal(t, 1, resp.Model.Labels)
	require.NotNil(t, resp.Queue)
	assert.Equal(t, 2, resp.Queue.Workers)
	assert.Nil(t, resp.Cache)
	assert.Equal(t, "ok", resp.Database)
}

func TestHealthCheck_Degraded(t *testing.T) {
	down := pingerFunc(func(context.Context) error { return errors.New("connection refused") })

	w := get(setupRouter(NewHandler("v", newService(t, true), nil, down)), "/health")
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "unreachable", resp.Database)

	w = get(setupRouter(NewHandler("v", newService(t, false), nil, nil)), "/health")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.False(t, resp.Model.Loaded)
}
