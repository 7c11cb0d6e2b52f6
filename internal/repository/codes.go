package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	codePrefix     = "sms:code:"
	cooldownPrefix = "sms:cooldown:"
	dailyPrefix    = "sms:daily:"
)

// RedisCodeStore keeps verification codes and per-phone send counters.
type RedisCodeStore struct {
	client *redis.Client
}

// NewRedisCodeStore returns a store over client.
func NewRedisCodeStore(client *redis.Client) *RedisCodeStore {
	return &RedisCodeStore{client: client}
}

// SaveCode stores code for phone, replacing any pending one.
func (s *RedisCodeStore) SaveCode(ctx context.Context, phone, code string, ttl time.Duration) error {
	return s.client.Set(ctx, codePrefix+phone, code, ttl).Err()
}

// Code returns the pending code for phone.
func (s *RedisCodeStore) Code(ctx context.Context, phone string) (string, bool, error) {
	code, err := s.client.Get(ctx, codePrefix+phone).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return code, true, nil
}

func (s *RedisCodeStore) DeleteCode(ctx context.Context, phone string) error {
	return s.client.Del(ctx, codePrefix+phone).Err()
}

// AcquireCooldown starts a cooldown of d for phone. It returns false if one
// is already running.
func (s *RedisCodeStore) AcquireCooldown(ctx context.Context, phone string, d time.Duration) (bool, error) {
	if d <= 0 {
		return true, nil
	}
	return s.client.SetNX(ctx, cooldownPrefix+phone, 1, d).Result()
}

// IncrDaily counts one send for phone. The counter expires a day after the
// first send.
func (s *RedisCodeStore) IncrDaily(ctx context.Context, phone string) (int64, error) {
	key := dailyPrefix + phone
	n, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		if err := s.client.Expire(ctx, key, 24*time.Hour).Err(); err != nil {
			return n, err
		}
	}
	return n, nil
}
