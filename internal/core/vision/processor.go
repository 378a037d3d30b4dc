// Package vision 圖片前處理與外部食材辨識服務的客戶端。
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"strings"
	"time"

	_ "image/gif" // 支援 GIF
	_ "image/png" // 支援 PNG

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp" // 支援 WebP

	"meal-recommender/internal/pkg/common"
)

const jpegQuality = 85

// ImageProcessor 驗證上傳圖片並統一轉為 JPEG
type ImageProcessor struct {
	maxSizeBytes int64
	client       *resty.Client
}

// NewImageProcessor 創建圖片處理器
func NewImageProcessor(maxSizeBytes int64) *ImageProcessor {
	return &ImageProcessor{
		maxSizeBytes: maxSizeBytes,
		client:       resty.New().SetTimeout(30 * time.Second),
	}
}

// Process 接受 data:image/...;base64, URI 或 http(s) URL，回傳 JPEG 位元組
func (p *ImageProcessor) Process(ctx context.Context, imageData string) ([]byte, error) {
	raw, err := p.read(ctx, strings.TrimSpace(imageData))
	if err != nil {
		return nil, err
	}

	// 檢查文件大小
	if p.maxSizeBytes > 0 && int64(len(raw)) > p.maxSizeBytes {
		return nil, common.ErrInvalidImageSize.WithDetails(
			fmt.Sprintf("image size %d exceeds maximum limit of %d bytes", len(raw), p.maxSizeBytes))
	}

	// 解碼圖片
	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, common.ErrInvalidImageFormat.Wrap(fmt.Errorf("failed to decode image: %w", err))
	}
	if !isSupportedFormat(format) {
		return nil, common.ErrInvalidImageType.WithDetails("unsupported image format: " + format)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode image as JPEG: %w", err)
	}

	common.LogImageProcessing("debug", "圖片已轉為 JPEG",
		zap.String("format", format),
		zap.Int("input_bytes", len(raw)),
		zap.Int("output_bytes", buf.Len()),
	)
	return buf.Bytes(), nil
}

// read 取得原始圖片位元組
func (p *ImageProcessor) read(ctx context.Context, imageData string) ([]byte, error) {
	if strings.HasPrefix(imageData, "http://") || strings.HasPrefix(imageData, "https://") {
		resp, err := p.client.R().SetContext(ctx).Get(imageData)
		if err != nil {
			return nil, common.ErrInvalidImageFormat.Wrap(fmt.Errorf("failed to download image: %w", err))
		}
		if resp.StatusCode() != http.StatusOK {
			return nil, common.ErrInvalidImageFormat.WithDetails(
				fmt.Sprintf("failed to download image: status code %d", resp.StatusCode()))
		}
		return resp.Body(), nil
	}

	if !strings.HasPrefix(imageData, "data:image/") {
		return nil, common.ErrInvalidImageFormat.WithDetails("invalid image data format")
	}

	// 解析 base64 數據
	parts := strings.SplitN(imageData, ",", 2)
	if len(parts) != 2 || !strings.HasSuffix(parts[0], ";base64") {
		return nil, common.ErrInvalidImageFormat.WithDetails("invalid base64 data format")
	}

	decoded, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, common.ErrInvalidImageFormat.Wrap(fmt.Errorf("failed to decode base64 data: %w", err))
	}
	return decoded, nil
}

// isSupportedFormat 檢查圖片格式是否支援
func isSupportedFormat(format string) bool {
	supportedFormats := map[string]bool{
		"jpeg": true,
		"png":  true,
		"gif":  true,
		"webp": true,
	}
	return supportedFormats[format]
}
