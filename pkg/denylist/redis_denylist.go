package denylist

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisDenylist 基于Redis的令牌吊销列表，键为 jti，过期时间与令牌一致
type RedisDenylist struct {
	client *redis.Client
	prefix string
}

// Config Redis配置
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
	Prefix   string
}

// NewRedisDenylist 创建吊销列表实例
func NewRedisDenylist(config *Config) *RedisDenylist {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", config.Host, config.Port),
		Password: config.Password,
		DB:       config.DB,
	})

	prefix := config.Prefix
	if prefix == "" {
		prefix = "quill:auth"
	}

	return &RedisDenylist{
		client: client,
		prefix: prefix,
	}
}

// Close 关闭Redis连接
func (d *RedisDenylist) Close() error {
	return d.client.Close()
}

// Ping 测试Redis连接
func (d *RedisDenylist) Ping(ctx context.Context) error {
	return d.client.Ping(ctx).Err()
}

func (d *RedisDenylist) key(jti string) string {
	return fmt.Sprintf("%s:revoked:%s", d.prefix, jti)
}

// Revoke 吊销令牌直到其自然过期；ttl<=0 时无需记录
func (d *RedisDenylist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}
	if err := d.client.Set(ctx, d.key(jti), 1, ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsRevoked 令牌是否已吊销
func (d *RedisDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	n, err := d.client.Exists(ctx, d.key(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return n > 0, nil
}
