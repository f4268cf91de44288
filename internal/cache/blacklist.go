// Package cache хранит отозванные токены в Redis, чтобы middleware
// отбрасывал их без обращения к БД.
package cache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	blacklistPrefix = "blacklist:"

	// для бессрочных токенов запись всё равно не должна жить вечно:
	// авторитетный источник: таблица user_tokens
	maxBlacklistTTL = 7 * 24 * time.Hour
)

type Blacklist struct {
	client *redis.Client
}

func NewBlacklist(client *redis.Client) *Blacklist {
	return &Blacklist{client: client}
}

// Connect разбирает REDIS_URL и проверяет соединение
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// Revoke кладёт токен в черный список до истечения срока
func (b *Blacklist) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	return b.client.Set(ctx, blacklistPrefix+token, 1, effectiveTTL(ttl)).Err()
}

func (b *Blacklist) IsRevoked(ctx context.Context, token string) (bool, error) {
	exists, err := b.client.Exists(ctx, blacklistPrefix+token).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

func effectiveTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 || ttl > maxBlacklistTTL {
		return maxBlacklistTTL
	}
	return ttl
}
