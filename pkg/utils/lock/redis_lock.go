package lock

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"market-core/pkg/safe_random"
)

// DistributedLock 定义分布式锁接口
type DistributedLock interface {
	// Acquire 尝试获取锁 (不等待)
	// 返回持有者 token，释放时需要带上
	Acquire(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)

	// Release 只有 token 匹配时才删除
	Release(ctx context.Context, key, token string) error
}

// 检查 value 属于自己再删除，防止误删其他实例在过期后重新获取的锁
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLock 基于 Redis SET NX 的实现
type RedisLock struct {
	client *redis.Client
}

func NewRedisLock(client *redis.Client) *RedisLock {
	return &RedisLock{client: client}
}

func (l *RedisLock) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token, err := safe_random.GenerateRandomHexString(16)
	if err != nil {
		return "", false, err
	}
	// SET lock:<key> <token> NX PX ttl
	ok, err := l.client.SetNX(ctx, "lock:"+key, token, ttl).Result()
	if err != nil || !ok {
		return "", false, err
	}
	return token, true, nil
}

func (l *RedisLock) Release(ctx context.Context, key, token string) error {
	return releaseScript.Run(ctx, l.client, []string{"lock:" + key}, token).Err()
}
