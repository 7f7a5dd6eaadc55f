package platform

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// GenerationLock serializes story generation per user. A user holds at most
// one lock at a time; the TTL guards against a crashed holder wedging the
// user forever.
type GenerationLock interface {
	Acquire(ctx context.Context, userID string) (bool, error)
	Release(ctx context.Context, userID string)
}

// RedisConfig configures the shared Redis client.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	LockTTL  time.Duration
}

// NewRedisClient dials Redis and verifies the connection.
func NewRedisClient(ctx context.Context, cfg RedisConfig, logger *zap.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	logger.Info("Connected to Redis", zap.String("addr", cfg.Addr))
	return client, nil
}

type redisLock struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisLock creates the per-user generation lock.
func NewRedisLock(client *redis.Client, ttl time.Duration, logger *zap.Logger) GenerationLock {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &redisLock{
		client: client,
		ttl:    ttl,
		logger: logger.Named("GenerationLock"),
	}
}

func lockKey(userID string) string {
	return "storyfairy:genlock:" + userID
}

// Acquire takes the user's lock. Returns false when another generation
// already holds it.
func (l *redisLock) Acquire(ctx context.Context, userID string) (bool, error) {
	ok, err := l.client.SetNX(ctx, lockKey(userID), "1", l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire generation lock: %w", err)
	}
	return ok, nil
}

// Release drops the user's lock. Release is best effort; an expired or
// already-dropped lock is not an error.
func (l *redisLock) Release(ctx context.Context, userID string) {
	if err := l.client.Del(ctx, lockKey(userID)).Err(); err != nil {
		l.logger.Warn("Failed to release generation lock",
			zap.String("user_id", userID),
			zap.Error(err))
	}
}
