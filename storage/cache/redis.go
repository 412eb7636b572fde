package cache

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/quiz"
)

const pingTimeout = 5 * time.Second

// RedisStore claims keys with SET NX, so claims hold across API instances.
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ quiz.SubmissionStore = (*RedisStore)(nil)

func NewRedisStore(conf core.RedisConfig, prefix string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Address,
		Password: conf.Password,
		DB:       conf.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "connecting to redis")
	}
	return &RedisStore{client: client, prefix: prefix}, nil
}

func (s *RedisStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.prefix+key, core.FormatTimestamp(time.Now()), ttl).Result()
	if err != nil {
		return false, errors.Wrapf(err, "claiming %s", key)
	}
	return ok, nil
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return errors.Wrapf(err, "releasing %s", key)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
