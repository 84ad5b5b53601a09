package offline

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/subir-ghosh-au26/Manthan-2025/internal/model"
	apperrors "github.com/subir-ghosh-au26/Manthan-2025/pkg/errors"
)

// RedisStore keeps the slot as a single Redis string, for kiosks sharing a
// host-local Redis.
type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultKey
	}
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Read(ctx context.Context) ([]model.Submission, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return []model.Submission{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrStorageUnavailable, err)
	}
	return decodeQueue(raw)
}

func (s *RedisStore) Write(ctx context.Context, queue []model.Submission) error {
	raw, err := encodeQueue(queue)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to write kiosk slot: %w", err)
	}
	return nil
}
