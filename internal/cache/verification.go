package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/21Ravan12/Real-Time-Chat-Application/internal/model"
)

// VerificationCache 验证码缓存
// 键由 purpose:email 的稳定哈希派生，同一用途的重复请求覆盖同一条目；
// TTL 只是存储层兜底，过期判定以条目内的 ExpiresAt 为准
type VerificationCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewVerificationCache 创建验证码缓存
func NewVerificationCache(rdb *redis.Client, ttl time.Duration) *VerificationCache {
	return &VerificationCache{rdb: rdb, ttl: ttl}
}

// DeriveKey 由用途和邮箱派生缓存键
func DeriveKey(purpose, email string) string {
	sum := sha256.Sum256([]byte(purpose + ":" + email))
	return hex.EncodeToString(sum[:])
}

// TTL 条目存活时长
func (c *VerificationCache) TTL() time.Duration {
	return c.ttl
}

// Set 写入验证码条目
func (c *VerificationCache) Set(ctx context.Context, key string, entry *model.VerificationEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal verification entry: %w", err)
	}
	return c.rdb.Set(ctx, key, data, c.ttl).Err()
}

// Get 读取验证码条目
// 条目不存在返回 (nil, nil)；数据损坏时删除并返回 (nil, nil)，
// 传输层错误原样返回，由调用方映射为 ServiceUnavailable
func (c *VerificationCache) Get(ctx context.Context, key string) (*model.VerificationEntry, error) {
	data, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var entry model.VerificationEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		// 损坏的条目清掉，让调用方走"不存在"分支
		c.rdb.Del(ctx, key)
		return nil, nil
	}
	return &entry, nil
}

// Delete 删除验证码条目（成功消费后调用）
func (c *VerificationCache) Delete(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}
