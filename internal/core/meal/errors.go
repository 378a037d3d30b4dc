package meal

import (
	"errors"
	"fmt"

	"meal-recommender/internal/pkg/common"
)

// Kind 錯誤種類
type Kind string

const (
	// InvalidInput 沒有提供任何食材
	InvalidInput Kind = "invalid_input"
	// ClassificationFailure 模型內部的維度或數值錯誤，需要重新訓練或重新載入
	ClassificationFailure Kind = "classification_failure"
	// RecipeNotFound 預測出的標籤找不到對應食譜
	RecipeNotFound Kind = "recipe_not_found"
)

// Stage 推論階段
type Stage string

const (
	StageReceived   Stage = "received"
	StageValidated  Stage = "validated"
	StageEncoded    Stage = "encoded"
	StageClassified Stage = "classified"
	StageResolved   Stage = "resolved"
	StageResponded  Stage = "responded"
)

// Error 推論失敗，帶有失敗階段與（若已產生的）預測標籤
type Error struct {
	Kind    Kind
	Stage   Stage
	Label   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s at stage %s: %s", e.Kind, e.Stage, e.Message)
	if e.Label != "" {
		msg += fmt.Sprintf(" (label %q)", e.Label)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap 取得原始錯誤
func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind 判斷錯誤鏈中是否有指定種類的推論錯誤
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// AsCustomError 將推論錯誤轉為 API 錯誤，其他錯誤交給 common.AsCustomError
func AsCustomError(err error) *common.CustomError {
	var e *Error
	if !errors.As(err, &e) {
		return common.AsCustomError(err)
	}

	var base *common.CustomError
	switch e.Kind {
	case InvalidInput:
		base = common.ErrNoIngredients
	case RecipeNotFound:
		base = common.ErrRecipeNotFound
	default:
		base = common.ErrClassification
	}
	return base.Wrap(e).WithDetails(e.Message)
}

func invalidInput(msg string) *Error {
	return &Error{Kind: InvalidInput, Stage: StageValidated, Message: msg}
}

func classificationFailure(msg string, err error) *Error {
	return &Error{Kind: ClassificationFailure, Stage: StageClassified, Message: msg, Err: err}
}

// ErrorResponse 轉為 HTTP 狀態碼與錯誤響應，推論錯誤會附上失敗階段與標籤
func ErrorResponse(err error) (int, common.ErrorResponse) {
	ce := AsCustomError(err)
	resp := ce.Response()

	var e *Error
	if errors.As(err, &e) {
		resp.Stage = string(e.Stage)
		resp.Label = e.Label
	}
	return ce.Status, resp
}
