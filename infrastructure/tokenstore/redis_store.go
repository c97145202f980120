package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/myblog/myblog/domain/valueobject"
	"github.com/myblog/myblog/infrastructure/service/logger"
)

// RedisStore keeps the pair under a single Redis key, for clients that share
// one session across machines.
type RedisStore struct {
	client *redis.Client
	key    string
	logger logger.Logger
}

// NewRedisStore parses the URL and checks connectivity.
func NewRedisStore(ctx context.Context, redisURL, key string, log logger.Logger) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisStoreFromClient(client, key, log), nil
}

func NewRedisStoreFromClient(client *redis.Client, key string, log logger.Logger) *RedisStore {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &RedisStore{client: client, key: key, logger: log}
}

func (s *RedisStore) Save(ctx context.Context, pair valueobject.TokenPair) error {
	b, err := json.Marshal(pair)
	if err != nil {
		return fmt.Errorf("encode tokens: %w", err)
	}
	if err := s.client.Set(ctx, s.key, b, 0).Err(); err != nil {
		return fmt.Errorf("failed to store tokens: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context) (*valueobject.TokenPair, error) {
	b, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn(ctx, "Token key unreadable, treating as no session", map[string]interface{}{
				"key":   s.key,
				"error": err.Error(),
			})
		}
		return nil, nil
	}
	return decodePair(ctx, s.logger, s.key, b), nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to clear tokens: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
