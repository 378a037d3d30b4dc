// Package bundlestore 模型 bundle 的持久化（本機檔案或 Redis）。
package bundlestore

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"meal-recommender/internal/core/meal/bundle"
	"meal-recommender/internal/infrastructure/config"
)

// ErrNotFound 指定名稱的 bundle 不存在
var ErrNotFound = errors.New("model bundle not found")

var validName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Store bundle 儲存介面
type Store interface {
	Save(ctx context.Context, name string, b *bundle.Bundle) error
	Load(ctx context.Context, name string) (*bundle.Bundle, error)
	Close() error
}

// New 依設定建立對應的 Store
func New(cfg *config.Config) (Store, error) {
	switch cfg.Model.Store {
	case "file":
		return NewFileStore(cfg.Model.Dir)
	case "redis":
		return NewRedisStore(cfg.Redis, cfg.Model.RedisPrefix)
	default:
		return nil, fmt.Errorf("unknown model store %q", cfg.Model.Store)
	}
}

func checkName(name string) error {
	if !validName.MatchString(name) {
		return fmt.Errorf("invalid bundle name %q", name)
	}
	return nil
}
