package common

import (
	"errors"
	"net/http"
)

// ErrorResponse 定義 API 錯誤響應結構
type ErrorResponse struct {
	Code    string `json:"code"`              // 錯誤代碼
	Message string `json:"message"`           // 錯誤信息
	Details string `json:"details,omitempty"` // 詳細信息
	Stage   string `json:"stage,omitempty"`   // 失敗的推論階段
	Label   string `json:"label,omitempty"`   // 已預測出的標籤
}

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code    string // 錯誤代碼
	Message string // 錯誤信息
	Err     error  // 原始錯誤
	Status  int    // HTTP 狀態碼
	Details string // 補充說明
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap 取得原始錯誤
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewError 創建新的自定義錯誤
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// Wrap 回傳帶有原始錯誤的副本，預定義錯誤本身不會被修改
func (e *CustomError) Wrap(err error) *CustomError {
	c := *e
	c.Err = err
	return &c
}

// WithDetails 回傳帶有補充說明的副本
func (e *CustomError) WithDetails(details string) *CustomError {
	c := *e
	c.Details = details
	return &c
}

// Response 轉為 API 錯誤響應
func (e *CustomError) Response() ErrorResponse {
	return ErrorResponse{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	}
}

// AsCustomError 取出錯誤鏈中的 CustomError，沒有則視為內部錯誤
func AsCustomError(err error) *CustomError {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce
	}
	return ErrInternalError.Wrap(err)
}

// 預定義錯誤代碼
const (
	// 客戶端錯誤 (4xx)
	ErrCodeInvalidRequest  = "INVALID_REQUEST"   // 400
	ErrCodeNotFound        = "NOT_FOUND"         // 404
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS" // 429

	// 服務器錯誤 (5xx)
	ErrCodeInternalError      = "INTERNAL_ERROR"      // 500
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE" // 503
	ErrCodeGatewayTimeout     = "GATEWAY_TIMEOUT"     // 504

	// 餐點推薦
	ErrCodeNoIngredients         = "NO_INGREDIENTS"         // 400
	ErrCodeRecipeNotFound        = "RECIPE_NOT_FOUND"       // 404
	ErrCodeClassificationFailure = "CLASSIFICATION_FAILURE" // 500
	ErrCodeModelUnavailable      = "MODEL_UNAVAILABLE"      // 503
	ErrCodeVisionUnavailable     = "VISION_UNAVAILABLE"     // 503
)

// 預定義錯誤
var (
	// 客戶端錯誤
	ErrInvalidRequest  = NewError(ErrCodeInvalidRequest, "無效的請求", http.StatusBadRequest, nil)
	ErrNotFound        = NewError(ErrCodeNotFound, "資源不存在", http.StatusNotFound, nil)
	ErrTooManyRequests = NewError(ErrCodeTooManyRequests, "請求過於頻繁", http.StatusTooManyRequests, nil)

	// 服務器錯誤
	ErrInternalError      = NewError(ErrCodeInternalError, "服務器內部錯誤", http.StatusInternalServerError, nil)
	ErrServiceUnavailable = NewError(ErrCodeServiceUnavailable, "服務暫時不可用", http.StatusServiceUnavailable, nil)
	ErrGatewayTimeout     = NewError(ErrCodeGatewayTimeout, "網關超時", http.StatusGatewayTimeout, nil)

	// 業務錯誤
	ErrNoIngredients      = NewError(ErrCodeNoIngredients, "No ingredients provided", http.StatusBadRequest, nil)
	ErrRecipeNotFound     = NewError(ErrCodeRecipeNotFound, "Recipe not found for prediction", http.StatusNotFound, nil)
	ErrClassification     = NewError(ErrCodeClassificationFailure, "模型推論失敗，請重新訓練或重新載入模型", http.StatusInternalServerError, nil)
	ErrModelUnavailable   = NewError(ErrCodeModelUnavailable, "尚未載入模型", http.StatusServiceUnavailable, nil)
	ErrVisionUnavailable  = NewError(ErrCodeVisionUnavailable, "食材辨識服務不可用", http.StatusServiceUnavailable, nil)
	ErrInvalidImageFormat = NewError("INVALID_IMAGE_FORMAT", "無效的圖片格式", http.StatusBadRequest, nil)
	ErrInvalidImageSize   = NewError("INVALID_IMAGE_SIZE", "圖片大小超出限制", http.StatusBadRequest, nil)
	ErrInvalidImageType   = NewError("INVALID_IMAGE_TYPE", "不支持的圖片類型", http.StatusBadRequest, nil)
	ErrCacheFull          = NewError("CACHE_FULL", "緩存已滿", http.StatusServiceUnavailable, nil)
	ErrQueueFull          = NewError("QUEUE_FULL", "訓練隊列已滿", http.StatusServiceUnavailable, nil)
)
