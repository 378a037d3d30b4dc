package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"meal-recommender/internal/core/meal/classifier"
)

// Config 應用配置
type Config struct {
	App         AppConfig       `mapstructure:"app"`
	Server      ServerConfig    `mapstructure:"server"`
	Model       ModelConfig     `mapstructure:"model"`
	Redis       RedisConfig     `mapstructure:"redis"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Recipes     RecipesConfig   `mapstructure:"recipes"`
	Cache       CacheConfig     `mapstructure:"cache"`
	Queue       QueueConfig     `mapstructure:"queue"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
	Image       ImageConfig     `mapstructure:"image"`
	Vision      VisionConfig    `mapstructure:"vision"`
	DedupWindow time.Duration   `mapstructure:"dedup_window"`
	LogLevel    string          `mapstructure:"log_level"`
	LogFile     string          `mapstructure:"log_file"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
}

// ModelConfig 模型與訓練設定
type ModelConfig struct {
	Name         string        `mapstructure:"name"`           // bundle 名稱
	Store        string        `mapstructure:"store"`          // file 或 redis
	Dir          string        `mapstructure:"dir"`            // file store 目錄
	RedisPrefix  string        `mapstructure:"redis_prefix"`   // redis store 鍵前綴
	TrainOnStart bool          `mapstructure:"train_on_start"` // 找不到 bundle 時是否在啟動時訓練
	TrainTimeout time.Duration `mapstructure:"train_timeout"`
	Alternatives int           `mapstructure:"alternatives"` // 回應中附帶的候選數量

	Epochs             int     `mapstructure:"epochs"`
	BatchSize          int     `mapstructure:"batch_size"`
	LearningRate       float64 `mapstructure:"learning_rate"`
	ValidationFraction float64 `mapstructure:"validation_fraction"`
	HiddenLayers       []int   `mapstructure:"hidden_layers"`
	Seed               int64   `mapstructure:"seed"`
	MaxSamples         int     `mapstructure:"max_samples"`
}

// TrainConfig 轉為分類器訓練設定
func (m ModelConfig) TrainConfig() classifier.TrainConfig {
	return classifier.TrainConfig{
		Epochs:             m.Epochs,
		BatchSize:          m.BatchSize,
		LearningRate:       m.LearningRate,
		ValidationFraction: m.ValidationFraction,
		HiddenLayers:       append([]int(nil), m.HiddenLayers...),
		Seed:               m.Seed,
		MaxSamples:         m.MaxSamples,
	}
}

// RedisConfig Redis 連線設定
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// DatabaseConfig 食譜資料庫設定
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // sqlite 或 postgres
	DSN    string `mapstructure:"dsn"`
}

// RecipesConfig 食譜語料來源
type RecipesConfig struct {
	File          string `mapstructure:"file"`            // recipes.json 路徑
	ImportOnStart bool   `mapstructure:"import_on_start"` // 資料庫為空時自動匯入
}

// CacheConfig 緩存配置
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// QueueConfig 訓練隊列設定
type QueueConfig struct {
	Workers int `mapstructure:"workers"`
	MaxSize int `mapstructure:"max_size"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// ImageConfig 圖片配置
type ImageConfig struct {
	MaxSizeBytes int64 `mapstructure:"max_size_bytes"`
}

// VisionConfig 外部食材辨識服務
type VisionConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	RetryCount int           `mapstructure:"retry_count"`
}

// LoadConfig 載入設定
//
// configFile 為空時只讀取 .env 與環境變數；.env 不存在不是錯誤。
func LoadConfig(configFile string) (*Config, error) {
	// 加載 .env 文件
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()

	// 設定預設值
	setDefaults(v)

	// 設定環境變數前綴
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 綁定環境變量
	bindings := map[string]string{
		"server.port":         "PORT",
		"model.name":          "MODEL_NAME",
		"model.store":         "MODEL_STORE",
		"model.dir":           "MODEL_DIR",
		"redis.addr":          "REDIS_ADDR",
		"redis.password":      "REDIS_PASSWORD",
		"database.driver":     "DATABASE_DRIVER",
		"database.dsn":        "DATABASE_DSN",
		"recipes.file":        "RECIPES_FILE",
		"vision.enabled":      "VISION_ENABLED",
		"vision.base_url":     "VISION_BASE_URL",
		"cache.enabled":       "CACHE_ENABLED",
		"rate_limit.enabled":  "RATE_LIMIT_ENABLED",
		"rate_limit.requests": "RATE_LIMIT_REQUESTS",
		"rate_limit.window":   "RATE_LIMIT_WINDOW",
		"dedup_window":        "DEDUP_WINDOW",
		"log_level":           "LOG_LEVEL",
		"log_file":            "LOG_FILE",
	}
	for key, env := range bindings {
		// 保留 APP_ 前綴的綁定，再加上慣用的環境變數名稱
		if err := v.BindEnv(key, "APP_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("failed to bind env %s: %w", env, err)
		}
	}

	// 讀取設定檔
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// 解析設定
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 驗證必要設定
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "meal-recommender")

	// 伺服器設定
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "15s")
	v.SetDefault("server.max_body_bytes", 12*1024*1024)

	// 模型設定（訓練參數沿用原始訓練腳本）
	v.SetDefault("model.name", "default")
	v.SetDefault("model.store", "file")
	v.SetDefault("model.dir", "models")
	v.SetDefault("model.redis_prefix", "meal:bundle:")
	v.SetDefault("model.train_on_start", false)
	v.SetDefault("model.train_timeout", "30m")
	v.SetDefault("model.alternatives", 3)
	defaults := classifier.DefaultTrainConfig()
	v.SetDefault("model.epochs", defaults.Epochs)
	v.SetDefault("model.batch_size", defaults.BatchSize)
	v.SetDefault("model.learning_rate", defaults.LearningRate)
	v.SetDefault("model.validation_fraction", defaults.ValidationFraction)
	v.SetDefault("model.hidden_layers", defaults.HiddenLayers)
	v.SetDefault("model.seed", defaults.Seed)
	v.SetDefault("model.max_samples", defaults.MaxSamples)

	// Redis 設定
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	// 資料庫設定
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "data/recipes.db")

	// 食譜來源
	v.SetDefault("recipes.file", "")
	v.SetDefault("recipes.import_on_start", true)

	// 快取設定
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.max_size", 1000)
	v.SetDefault("cache.ttl", "1h")
	v.SetDefault("cache.cleanup_interval", "10m")

	// 隊列設定
	v.SetDefault("queue.workers", 1)
	v.SetDefault("queue.max_size", 10)

	// 限流設定
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", "1m")

	// 圖片設定
	v.SetDefault("image.max_size_bytes", 10*1024*1024) // 10MB

	// 食材辨識服務
	v.SetDefault("vision.enabled", false)
	v.SetDefault("vision.base_url", "http://localhost:5001")
	v.SetDefault("vision.timeout", "30s")
	v.SetDefault("vision.retry_count", 2)

	v.SetDefault("dedup_window", "1s")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "logs/app.log")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	// 驗證伺服器設定
	if config.Server.Port <= 0 {
		return fmt.Errorf("server port is required")
	}

	// 驗證模型設定
	if config.Model.Name == "" {
		return fmt.Errorf("model name is required")
	}
	switch config.Model.Store {
	case "file":
		if config.Model.Dir == "" {
			return fmt.Errorf("model dir is required for file store")
		}
	case "redis":
		if config.Redis.Addr == "" {
			return fmt.Errorf("redis addr is required for redis store")
		}
	default:
		return fmt.Errorf("unknown model store %q", config.Model.Store)
	}
	if config.Model.Alternatives < 0 {
		return fmt.Errorf("invalid model alternatives")
	}
	if err := config.Model.TrainConfig().Validate(); err != nil {
		return err
	}

	// 驗證資料庫設定
	switch config.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown database driver %q", config.Database.Driver)
	}
	if config.Database.DSN == "" {
		return fmt.Errorf("database dsn is required")
	}

	// 驗證快取設定
	if config.Cache.Enabled {
		if config.Cache.MaxSize <= 0 {
			return fmt.Errorf("invalid cache max size")
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
		if config.Cache.CleanupInterval <= 0 {
			return fmt.Errorf("invalid cache cleanup interval")
		}
	}

	// 驗證隊列設定
	if config.Queue.Workers <= 0 {
		return fmt.Errorf("invalid queue workers")
	}
	if config.Queue.MaxSize <= 0 {
		return fmt.Errorf("invalid queue max size")
	}

	if config.Vision.Enabled && config.Vision.BaseURL == "" {
		return fmt.Errorf("vision base url is required when vision is enabled")
	}

	return nil
}
