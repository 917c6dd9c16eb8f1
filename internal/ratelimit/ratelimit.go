package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// Limiter 判断某个 key（通常是客户端 IP）当前是否允许再写入一次埋点。
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// MemoryLimiter 为每个 key 维护一个令牌桶，适用于单实例部署。
type MemoryLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	buckets map[string]*memoryBucket
	idle    time.Duration
	now     func() time.Time
}

type memoryBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewMemoryLimiter 创建每分钟最多 perMinute 次的内存限流器。
func NewMemoryLimiter(perMinute int) *MemoryLimiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	return &MemoryLimiter{
		limit:   rate.Limit(float64(perMinute) / 60),
		burst:   perMinute,
		buckets: make(map[string]*memoryBucket),
		idle:    10 * time.Minute,
		now:     time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &memoryBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	allowed := b.limiter.AllowN(now, 1)

	if len(l.buckets) > 1024 {
		l.evictIdle(now)
	}
	return allowed, nil
}

// evictIdle 清理长时间未出现的 key，调用方需持有锁。
func (l *MemoryLimiter) evictIdle(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.idle {
			delete(l.buckets, key)
		}
	}
}

// RedisLimiter 使用固定窗口计数，多实例部署时共享额度。
type RedisLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
	prefix string
	now    func() time.Time
}

// NewRedisLimiter 创建每分钟最多 perMinute 次的 Redis 限流器。
func NewRedisLimiter(client *redis.Client, perMinute int) *RedisLimiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	return &RedisLimiter{
		client: client,
		limit:  int64(perMinute),
		window: time.Minute,
		prefix: "inkpress:track",
		now:    time.Now,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	slot := l.now().Unix() / int64(l.window/time.Second)
	redisKey := fmt.Sprintf("%s:%s:%d", l.prefix, key, slot)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit %s: %w", key, err)
	}
	return incr.Val() <= l.limit, nil
}

// New 在配置了 Redis 地址时返回 RedisLimiter，否则退回内存实现。
func New(redisAddr string, perMinute int) (Limiter, func() error) {
	if redisAddr == "" {
		return NewMemoryLimiter(perMinute), func() error { return nil }
	}
	client := redis.NewClient(&redis.Options{Addr: redisAddr})
	return NewRedisLimiter(client, perMinute), client.Close
}
