package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss 未命中 (调用方据此回源)
var ErrCacheMiss = errors.New("cache miss")

// Cache 定义通用缓存接口
// 值统一按 JSON 存取，Get 将结果 Unmarshal 到 target 中
type Cache interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string, target interface{}) error
	Delete(ctx context.Context, key string) error
}
