package presence

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"secondlife/internal/domain/repository"
	"secondlife/pkg/errors"
)

const keyPrefix = "presence:"

// RedisActivityStore keeps the last heartbeat per user as a unix-millis
// string. Keys expire after ttl; an expired key reads as "never active".
type RedisActivityStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisActivityStore(client *redis.Client, ttl time.Duration) repository.ActivityStore {
	return &RedisActivityStore{client: client, ttl: ttl}
}

func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func (s *RedisActivityStore) Touch(ctx context.Context, userID string, at time.Time) error {
	if err := s.client.Set(ctx, keyPrefix+userID, at.UnixMilli(), s.ttl).Err(); err != nil {
		return errors.Internal("Failed to record activity", err)
	}
	return nil
}

func (s *RedisActivityStore) LastActive(ctx context.Context, userID string) (time.Time, error) {
	v, err := s.client.Get(ctx, keyPrefix+userID).Result()
	if err == redis.Nil {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, errors.Internal("Failed to read activity", err)
	}

	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, errors.Internal("Corrupt activity value", err)
	}
	return time.UnixMilli(ms).UTC(), nil
}
