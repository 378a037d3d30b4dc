package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"meal-recommender/internal/infrastructure/config"
	"meal-recommender/internal/pkg/common"
)

// Extractor 從圖片辨識食材
type Extractor interface {
	// ExtractIngredients 傳入 JPEG 圖片，回傳辨識出的食材
	ExtractIngredients(ctx context.Context, jpegData []byte) ([]string, error)
}

// Client 外部食材辨識服務（POST {base_url}/upload-image）
type Client struct {
	client *resty.Client
}

// NewClient 創建辨識服務客戶端；未啟用時回傳 nil
func NewClient(cfg config.VisionConfig) *Client {
	if !cfg.Enabled {
		return nil
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryResetReaders(true).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})

	return &Client{client: client}
}

type uploadResponse struct {
	Ingredients []string `json:"ingredients"`
	Error       string   `json:"error,omitempty"`
}

// ExtractIngredients 以 multipart 欄位 image 上傳圖片
func (c *Client) ExtractIngredients(ctx context.Context, jpegData []byte) ([]string, error) {
	if c == nil {
		return nil, common.ErrVisionUnavailable
	}

	start := time.Now()
	resp, err := c.client.R().
		SetContext(ctx).
		SetFileReader("image", "upload.jpg", bytes.NewReader(jpegData)).
		Post("/upload-image")
	if err != nil {
		return nil, common.ErrVisionUnavailable.Wrap(fmt.Errorf("failed to send request to vision service: %w", err))
	}

	var result uploadResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil && resp.StatusCode() == http.StatusOK {
		return nil, common.ErrVisionUnavailable.Wrap(fmt.Errorf("failed to parse vision response: %w", err))
	}

	if resp.StatusCode() != http.StatusOK {
		detail := result.Error
		if detail == "" {
			detail = resp.String()
		}
		if resp.StatusCode() < http.StatusInternalServerError {
			return nil, common.ErrInvalidImageFormat.WithDetails(detail)
		}
		return nil, common.ErrVisionUnavailable.WithDetails(fmt.Sprintf("vision service returned %d: %s", resp.StatusCode(), detail))
	}

	common.LogDebug("食材辨識完成",
		zap.Strings("ingredients", result.Ingredients),
		zap.Duration("duration", time.Since(start)),
	)
	return result.Ingredients, nil
}
