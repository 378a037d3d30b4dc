// Package recipestore 以 gorm 儲存食譜語料（sqlite 或 postgres）。
package recipestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"meal-recommender/internal/infrastructure/config"
	"meal-recommender/internal/pkg/common"
)

const insertBatchSize = 500

// Store 食譜語料儲存
type Store struct {
	db *gorm.DB
}

// Open 依設定開啟資料庫連線
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		if dir := filepath.Dir(cfg.DSN); !strings.HasPrefix(cfg.DSN, "file:") && cfg.DSN != ":memory:" && dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		dialector = sqlite.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// New 建立 Store 並遷移資料表
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&RecipeRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate recipes table: %w", err)
	}
	return &Store{db: db}, nil
}

// ReplaceAll 以單一交易替換整份語料
func (s *Store) ReplaceAll(ctx context.Context, recipes []common.RecipeRecord) error {
	rows := make([]RecipeRow, len(recipes))
	for i, r := range recipes {
		rows[i] = RecipeRow{
			Position:    i,
			Name:        r.Name,
			Ingredients: StringArray(r.Ingredients),
			Steps:       StringArray(r.Steps),
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&RecipeRow{}).Error; err != nil {
			return fmt.Errorf("failed to clear recipes: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(rows, insertBatchSize).Error; err != nil {
			return fmt.Errorf("failed to insert recipes: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	common.LogInfo("食譜語料已更新", zap.Int("recipes", len(recipes)))
	return nil
}

// All 依語料順序回傳全部食譜
func (s *Store) All(ctx context.Context) ([]common.RecipeRecord, error) {
	var rows []RecipeRow
	if err := s.db.WithContext(ctx).Order("position asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load recipes: %w", err)
	}

	recipes := make([]common.RecipeRecord, len(rows))
	for i, row := range rows {
		recipes[i] = row.record()
	}
	return recipes, nil
}

// Count 食譜數量
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&RecipeRow{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count recipes: %w", err)
	}
	return n, nil
}

// Ping 檢查資料庫連線
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close 關閉資料庫連線
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
