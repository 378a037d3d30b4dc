// Package labels 建立餐點標籤空間，維護 label→index 與 index→label 兩個方向的映射。
package labels

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Space 標籤空間，索引連續分布於 [0, n)
type Space struct {
	labels []string
	index  map[string]int
}

// Fit 從訓練標籤建立標籤空間；標籤去重後排序，同一語料每次產生相同索引
func Fit(labels []string) *Space {
	seen := make(map[string]struct{}, len(labels))
	unique := make([]string, 0, len(labels))
	for _, l := range labels {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		unique = append(unique, l)
	}
	sort.Strings(unique)
	return build(unique)
}

// New 依持久化順序重建標籤空間
func New(labels []string) (*Space, error) {
	seen := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		if _, ok := seen[l]; ok {
			return nil, fmt.Errorf("duplicate label %q", l)
		}
		seen[l] = struct{}{}
	}
	return build(append([]string(nil), labels...)), nil
}

func build(labels []string) *Space {
	index := make(map[string]int, len(labels))
	for i, l := range labels {
		index[l] = i
	}
	return &Space{labels: labels, index: index}
}

// Size 標籤數量
func (s *Space) Size() int {
	return len(s.labels)
}

// Index label → index
func (s *Space) Index(label string) (int, bool) {
	i, ok := s.index[label]
	return i, ok
}

// Label index → label
func (s *Space) Label(i int) (string, bool) {
	if i < 0 || i >= len(s.labels) {
		return "", false
	}
	return s.labels[i], true
}

// Labels 回傳標籤副本（依索引排列）
func (s *Space) Labels() []string {
	return append([]string(nil), s.labels...)
}

// Encode 將標籤序列轉為索引序列
func (s *Space) Encode(labels []string) ([]int, error) {
	out := make([]int, len(labels))
	for i, l := range labels {
		idx, ok := s.index[l]
		if !ok {
			return nil, fmt.Errorf("label %q is not in the label space", l)
		}
		out[i] = idx
	}
	return out, nil
}

// MarshalJSON 以索引順序的標籤陣列序列化
func (s *Space) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.labels)
}

// UnmarshalJSON 還原並檢查重複
func (s *Space) UnmarshalJSON(data []byte) error {
	var labels []string
	if err := json.Unmarshal(data, &labels); err != nil {
		return err
	}
	restored, err := New(labels)
	if err != nil {
		return err
	}
	*s = *restored
	return nil
}
