package bundlestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"meal-recommender/internal/core/meal/bundle"
	"meal-recommender/internal/pkg/common"
)

// FileStore 以 <dir>/<name>.bundle.json 儲存
type FileStore struct {
	dir string
}

// NewFileStore 創建檔案儲存，目錄不存在時自動建立
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create model dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Path bundle 檔案路徑
func (s *FileStore) Path(name string) string {
	return filepath.Join(s.dir, name+".bundle.json")
}

// Save 先寫入暫存檔再 rename，讀取端不會看到寫到一半的檔案
func (s *FileStore) Save(ctx context.Context, name string, b *bundle.Bundle) error {
	if err := checkName(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := bundle.Encode(b)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write bundle: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write bundle: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path(name)); err != nil {
		return fmt.Errorf("failed to publish bundle: %w", err)
	}

	common.LogInfo("模型已儲存",
		zap.String("path", s.Path(name)),
		zap.String("version", b.Version),
		zap.Int("bytes", len(data)),
	)
	return nil
}

// Load 讀取並驗證 bundle
func (s *FileStore) Load(ctx context.Context, name string) (*bundle.Bundle, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, s.Path(name))
		}
		return nil, fmt.Errorf("failed to read bundle: %w", err)
	}
	return bundle.Decode(data)
}

// Close 無需釋放資源
func (s *FileStore) Close() error {
	return nil
}
