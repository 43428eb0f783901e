package redis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// IRedis caches transcription results keyed by a content hash of the audio,
// so a replayed clip skips the provider round-trip entirely.
type IRedis interface {
	SetTranscript(ctx context.Context, key string, payload string, expiration time.Duration) error
	GetTranscript(ctx context.Context, key string) (string, error)
	DeleteTranscript(ctx context.Context, key string) error
}

// ErrCacheMiss is returned by GetTranscript when the key is absent.
var ErrCacheMiss = errors.New("transcript not cached")

type redisClient struct {
	client *redis.Client
}

func New() IRedis {
	db, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	redisAddr := os.Getenv("REDIS_ADDRESS")
	redisPassword := os.Getenv("REDIS_PASSWORD")

	logrus.Info(fmt.Sprintf("Connecting to Redis at %s...", redisAddr))

	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		logrus.Error(fmt.Sprintf("Failed to connect to Redis: %v", err))
	} else {
		logrus.Info("Successfully connected to Redis")
	}

	return &redisClient{client: client}
}

func (r *redisClient) SetTranscript(ctx context.Context, key string, payload string, expiration time.Duration) error {
	logrus.Debug(fmt.Sprintf("Caching transcript for key %s with expiration %v", key, expiration))
	err := r.client.Set(ctx, key, payload, expiration).Err()
	if err != nil {
		logrus.Error(fmt.Sprintf("Error caching transcript for key %s: %v", key, err))
		return err
	}
	return nil
}

func (r *redisClient) GetTranscript(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		logrus.Debug(fmt.Sprintf("Transcript cache miss for key %s", key))
		return "", ErrCacheMiss
	} else if err != nil {
		logrus.Error(fmt.Sprintf("Error getting cached transcript for key %s: %v", key, err))
		return "", err
	}
	logrus.Debug(fmt.Sprintf("Transcript cache hit for key %s", key))
	return val, nil
}

func (r *redisClient) DeleteTranscript(ctx context.Context, key string) error {
	result, err := r.client.Del(ctx, key).Result()
	if err != nil {
		logrus.Error(fmt.Sprintf("Error deleting cached transcript for key %s: %v", key, err))
		return err
	}

	if result == 0 {
		logrus.Debug(fmt.Sprintf("Transcript key %s not found for deletion", key))
	}
	return nil
}
