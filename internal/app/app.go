// Package app 組裝 API 服務與命令列工具共用的元件。
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"meal-recommender/internal/core/meal"
	"meal-recommender/internal/infrastructure/config"
	"meal-recommender/internal/infrastructure/storage/bundlestore"
	"meal-recommender/internal/infrastructure/storage/recipestore"
	"meal-recommender/internal/pkg/common"
)

// App 語料、模型儲存、快照與訓練器
type App struct {
	Config  *config.Config
	Recipes *recipestore.Store
	Bundles bundlestore.Store
	Holder  *meal.Holder
	Trainer *meal.Trainer
}

// New 開啟資料庫與模型儲存
func New(cfg *config.Config) (*App, error) {
	db, err := recipestore.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	recipes, err := recipestore.New(db)
	if err != nil {
		return nil, err
	}

	bundles, err := bundlestore.New(cfg)
	if err != nil {
		recipes.Close()
		return nil, err
	}

	holder := &meal.Holder{}
	return &App{
		Config:  cfg,
		Recipes: recipes,
		Bundles: bundles,
		Holder:  holder,
		Trainer: meal.NewTrainer(recipes, bundles, holder, cfg.Model.Name, cfg.Model.TrainTimeout),
	}, nil
}

// ImportFile 讀取 recipes.json、過濾後替換資料庫中的語料，回傳匯入筆數
func (a *App) ImportFile(ctx context.Context, path string) (int, error) {
	raw, err := recipestore.LoadJSONFile(path)
	if err != nil {
		return 0, err
	}
	records := recipestore.FilterRecords(raw)
	if err := a.Recipes.ReplaceAll(ctx, records); err != nil {
		return 0, err
	}

	common.LogInfo("食譜匯入完成",
		zap.String("file", path),
		zap.Int("read", len(raw)),
		zap.Int("kept", len(records)),
	)
	return len(records), nil
}

// Bootstrap 啟動時的準備工作：
// 資料庫為空且設定了 recipes.file 時匯入語料；
// 載入已儲存的 bundle，找不到且 train_on_start 時立即訓練。
// 沒有可用模型不是錯誤，服務會以 503 回應推論請求。
func (a *App) Bootstrap(ctx context.Context) error {
	if a.Config.Recipes.ImportOnStart && a.Config.Recipes.File != "" {
		n, err := a.Recipes.Count(ctx)
		if err != nil {
			return err
		}
		if n == 0 {
			if _, err := a.ImportFile(ctx, a.Config.Recipes.File); err != nil {
				return fmt.Errorf("import recipes: %w", err)
			}
		}
	}

	_, err := a.Trainer.Load(ctx, a.Config.Model.Name)
	switch {
	case err == nil:
		return nil
	case !errors.Is(err, bundlestore.ErrNotFound):
		return err
	case !a.Config.Model.TrainOnStart:
		common.LogWarn("尚未有可用模型，推論請求將回應 503",
			zap.String("name", a.Config.Model.Name),
		)
		return nil
	}

	common.LogInfo("找不到模型，開始訓練", zap.String("name", a.Config.Model.Name))
	if _, err := a.Trainer.Run(ctx, a.Config.Model.Name, a.Config.Model.TrainConfig()); err != nil {
		return fmt.Errorf("train on start: %w", err)
	}
	return nil
}

// Close 釋放資源
func (a *App) Close() error {
	return errors.Join(a.Bundles.Close(), a.Recipes.Close())
}
