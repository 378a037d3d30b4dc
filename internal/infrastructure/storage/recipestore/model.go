package recipestore

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"meal-recommender/internal/pkg/common"
)

// StringArray 以 JSON 文字儲存的字串陣列
type StringArray []string

// Value implements the driver.Valuer interface
func (a StringArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements the sql.Scanner interface
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = StringArray{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("unsupported StringArray source %T", value)
	}

	return json.Unmarshal(bytes, a)
}

// RecipeRow 食譜資料表；Position 保留匯入時的語料順序
type RecipeRow struct {
	ID          uint        `gorm:"primaryKey"`
	Position    int         `gorm:"not null;index"`
	Name        string      `gorm:"size:512;not null;index"`
	Ingredients StringArray `gorm:"type:text;not null"`
	Steps       StringArray `gorm:"type:text;not null"`
	CreatedAt   time.Time
}

// TableName 資料表名稱
func (RecipeRow) TableName() string {
	return "recipes"
}

func (r RecipeRow) record() common.RecipeRecord {
	return common.RecipeRecord{
		Name:        r.Name,
		Ingredients: append([]string{}, r.Ingredients...),
		Steps:       append([]string{}, r.Steps...),
	}
}
