// Package visits 統計 API 端點的造訪次數
//
// 主要後端為 Redis：
//   - visits:endpoints  Hash，field 為請求路徑，值為次數（HINCRBY）
//   - visits:total      String，總次數（INCR）
//
// 兩個指令在同一個 MULTI/EXEC 管線內送出，總數與各端點計數不會不一致。
//
// 降級策略：
//   - 未設定 Redis 時直接使用內存計數
//   - 連續 Redis 錯誤達到 FallbackThreshold 時進入降級模式，
//     背景 goroutine 定期 Ping，恢復後把內存累積的次數寫回 Redis 再切回
package visits

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis keys
const (
	EndpointsKey = "visits:endpoints"
	TotalKey     = "visits:total"
)

// Config 計數器配置
type Config struct {
	// FallbackThreshold 連續錯誤幾次後進入降級模式
	FallbackThreshold int
	// HealthInterval 降級期間 Ping Redis 的間隔
	HealthInterval time.Duration
}

// DefaultConfig 返回預設配置
func DefaultConfig() Config {
	return Config{
		FallbackThreshold: 3,
		HealthInterval:    10 * time.Second,
	}
}

// Counter 造訪計數器，可安全地併發使用
type Counter struct {
	redis  *redis.Client
	config Config
	logger *slog.Logger

	// 降級控制
	fallbackMode atomic.Bool
	redisErrors  atomic.Int32

	// 內存計數（無 Redis 或降級期間）
	mu        sync.Mutex
	endpoints map[string]int64
	total     int64

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewCounter 創建計數器；client 為 nil 時只使用內存計數
func NewCounter(client *redis.Client, config Config, logger *slog.Logger) *Counter {
	if config.FallbackThreshold <= 0 {
		config.FallbackThreshold = DefaultConfig().FallbackThreshold
	}
	if config.HealthInterval <= 0 {
		config.HealthInterval = DefaultConfig().HealthInterval
	}

	return &Counter{
		redis:     client,
		config:    config,
		logger:    logger.With("component", "visits"),
		endpoints: make(map[string]int64),
		done:      make(chan struct{}),
	}
}

// Record 記錄一次造訪
//
// Redis 寫入失敗時改記在內存，不會遺失該次造訪。
func (c *Counter) Record(ctx context.Context, endpoint string) {
	if !c.useRedis() {
		c.recordMemory(endpoint, 1)
		return
	}

	_, err := c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, EndpointsKey, endpoint, 1)
		pipe.Incr(ctx, TotalKey)
		return nil
	})
	if err != nil {
		c.handleRedisError(err)
		c.recordMemory(endpoint, 1)
		return
	}

	c.redisErrors.Store(0)
}

// Endpoint 返回單一端點的造訪次數
func (c *Counter) Endpoint(ctx context.Context, endpoint string) (int64, error) {
	if c.useRedis() {
		count, err := c.redis.HGet(ctx, EndpointsKey, endpoint).Int64()
		switch {
		case err == nil:
			return count + c.memoryEndpoint(endpoint), nil
		case errors.Is(err, redis.Nil):
			return c.memoryEndpoint(endpoint), nil
		default:
			c.handleRedisError(err)
		}
	}
	return c.memoryEndpoint(endpoint), nil
}

// Total 返回總造訪次數
func (c *Counter) Total(ctx context.Context) (int64, error) {
	if c.useRedis() {
		total, err := c.redis.Get(ctx, TotalKey).Int64()
		switch {
		case err == nil:
			return total + c.memoryTotal(), nil
		case errors.Is(err, redis.Nil):
			return c.memoryTotal(), nil
		default:
			c.handleRedisError(err)
		}
	}
	return c.memoryTotal(), nil
}

// All 返回所有端點的造訪次數
func (c *Counter) All(ctx context.Context) (map[string]int64, error) {
	result := c.memorySnapshot()
	if !c.useRedis() {
		return result, nil
	}

	values, err := c.redis.HGetAll(ctx, EndpointsKey).Result()
	if err != nil {
		c.handleRedisError(err)
		return result, nil
	}

	for endpoint, raw := range values {
		count, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse visit count for %s: %w", endpoint, err)
		}
		result[endpoint] += count
	}
	return result, nil
}

// InFallback 是否處於內存計數模式
func (c *Counter) InFallback() bool {
	return !c.useRedis()
}

// Close 停止健康檢查 goroutine
func (c *Counter) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
	c.wg.Wait()
}

func (c *Counter) useRedis() bool {
	return c.redis != nil && !c.fallbackMode.Load()
}

// handleRedisError 累計錯誤次數，超過閾值進入降級模式
func (c *Counter) handleRedisError(err error) {
	c.logger.Error("redis error", "error", err)

	errs := c.redisErrors.Add(1)
	if int(errs) < c.config.FallbackThreshold {
		return
	}

	if c.fallbackMode.CompareAndSwap(false, true) {
		c.logger.Warn("entering fallback mode due to redis errors", "errors", errs)

		c.wg.Add(1)
		go c.checkRedisHealth()
	}
}

// checkRedisHealth 定期 Ping Redis，恢復後寫回內存計數並離開降級模式
func (c *Counter) checkRedisHealth() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.HealthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := c.redis.Ping(ctx).Err()
		if err == nil {
			err = c.flushMemory(ctx)
		}
		cancel()

		if err == nil {
			c.redisErrors.Store(0)
			c.fallbackMode.Store(false)
			c.logger.Info("redis recovered, exiting fallback mode")
			return
		}
	}
}

// flushMemory 把內存累積的次數寫回 Redis
//
// 寫入失敗時把次數放回內存，下一輪再試。
func (c *Counter) flushMemory(ctx context.Context) error {
	c.mu.Lock()
	endpoints := c.endpoints
	total := c.total
	c.endpoints = make(map[string]int64)
	c.total = 0
	c.mu.Unlock()

	if total == 0 && len(endpoints) == 0 {
		return nil
	}

	_, err := c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for endpoint, count := range endpoints {
			pipe.HIncrBy(ctx, EndpointsKey, endpoint, count)
		}
		pipe.IncrBy(ctx, TotalKey, total)
		return nil
	})
	if err != nil {
		for endpoint, count := range endpoints {
			c.recordMemory(endpoint, count)
		}
		return fmt.Errorf("flush fallback counts: %w", err)
	}

	c.logger.Info("fallback counts flushed to redis", "total", total, "endpoints", len(endpoints))
	return nil
}

func (c *Counter) recordMemory(endpoint string, n int64) {
	c.mu.Lock()
	c.endpoints[endpoint] += n
	c.total += n
	c.mu.Unlock()
}

func (c *Counter) memoryEndpoint(endpoint string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.endpoints[endpoint]
}

func (c *Counter) memoryTotal() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

func (c *Counter) memorySnapshot() map[string]int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.endpoints)
}
