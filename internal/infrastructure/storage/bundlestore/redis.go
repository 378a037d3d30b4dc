package bundlestore

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"meal-recommender/internal/core/meal/bundle"
	"meal-recommender/internal/infrastructure/config"
	"meal-recommender/internal/pkg/common"
)

// RedisStore 以 <prefix><name> 為鍵儲存 bundle
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore 創建 Redis 儲存並測試連線
func NewRedisStore(cfg config.RedisConfig, prefix string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 測試連接
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client, prefix: prefix}, nil
}

// Save 寫入 bundle（不設過期）
func (s *RedisStore) Save(ctx context.Context, name string, b *bundle.Bundle) error {
	if err := checkName(name); err != nil {
		return err
	}

	data, err := bundle.Encode(b)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, s.key(name), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save bundle: %w", err)
	}

	common.LogInfo("模型已儲存",
		zap.String("key", s.key(name)),
		zap.String("version", b.Version),
		zap.Int("bytes", len(data)),
	)
	return nil
}

// Load 讀取並驗證 bundle
func (s *RedisStore) Load(ctx context.Context, name string) (*bundle.Bundle, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}

	data, err := s.client.Get(ctx, s.key(name)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, s.key(name))
		}
		return nil, fmt.Errorf("failed to load bundle: %w", err)
	}
	return bundle.Decode(data)
}

// Close 關閉連線
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) key(name string) string {
	return s.prefix + name
}
