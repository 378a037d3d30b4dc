package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 切換到空目錄，避免讀到開發環境的 .env
func inEmptyDir(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadConfig_Defaults(t *testing.T) {
	inEmptyDir(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "file", cfg.Model.Store)
	assert.Equal(t, "default", cfg.Model.Name)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, time.Second, cfg.DedupWindow)

	train := cfg.Model.TrainConfig()
	assert.Equal(t, 10, train.Epochs)
	assert.Equal(t, 64, train.BatchSize)
	assert.Equal(t, 0.001, train.LearningRate)
	assert.Equal(t, 0.1, train.ValidationFraction)
	assert.Equal(t, []int{256, 128}, train.HiddenLayers)
	assert.Equal(t, int64(42), train.Seed)
	assert.Equal(t, 50000, train.MaxSamples)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	inEmptyDir(t)
	t.Setenv("PORT", "9090")
	t.Setenv("APP_MODEL_EPOCHS", "3")
	t.Setenv("APP_MODEL_HIDDEN_LAYERS", "64,32")
	t.Setenv("MODEL_STORE", "redis")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("APP_CACHE_TTL", "5m")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Model.Epochs)
	assert.Equal(t, []int{64, 32}, cfg.Model.HiddenLayers)
	assert.Equal(t, "redis", cfg.Model.Store)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	inEmptyDir(t)
	require.NoError(t, os.WriteFile(".env", []byte("DATABASE_DSN=from-dotenv.db\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("DATABASE_DSN") })

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv.db", cfg.Database.DSN)
}

func TestLoadConfig_File(t *testing.T) {
	inEmptyDir(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
model:
  name: nightly
  batch_size: 16
vision:
  enabled: true
  base_url: http://vision:5001
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "nightly", cfg.Model.Name)
	assert.Equal(t, 16, cfg.Model.BatchSize)
	assert.True(t, cfg.Vision.Enabled)
	assert.Equal(t, "http://vision:5001", cfg.Vision.BaseURL)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "zero epochs", env: map[string]string{"APP_MODEL_EPOCHS": "0"}},
		{name: "validation fraction 1", env: map[string]string{"APP_MODEL_VALIDATION_FRACTION": "1"}},
		{name: "negative learning rate", env: map[string]string{"APP_MODEL_LEARNING_RATE": "-0.1"}},
		{name: "unknown store", env: map[string]string{"MODEL_STORE": "s3"}},
		{name: "unknown driver", env: map[string]string{"DATABASE_DRIVER": "mysql"}},
		{name: "zero workers", env: map[string]string{"APP_QUEUE_WORKERS": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inEmptyDir(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig("")
			assert.Error(t, err)
		})
	}
}
