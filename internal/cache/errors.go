package cache

import (
	"errors"
	"fmt"
)

// ErrInvalidCapacity 容量不合法（必須大於 0）
var ErrInvalidCapacity = errors.New("cache capacity must be positive")

// ConfigError 建立快取時的設定錯誤。
//
// 這是快取唯一會返回的錯誤；未命中、重複 Put 等都是正常情況，不是錯誤。
type ConfigError struct {
	Name     string
	Capacity int
}

// Error 實現 error 介面
func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s cache: invalid capacity %d: %v", e.Name, e.Capacity, ErrInvalidCapacity)
}

// Unwrap 讓 errors.Is(err, ErrInvalidCapacity) 成立
func (e *ConfigError) Unwrap() error {
	return ErrInvalidCapacity
}
