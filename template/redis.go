package template

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisSource serves templates stored as string values under Prefix+id.
type RedisSource struct {
	Client redis.Cmdable
	Prefix string
}

// NewRedisSource returns a RedisSource reading keys under prefix.
func NewRedisSource(client redis.Cmdable, prefix string) *RedisSource {
	return &RedisSource{Client: client, Prefix: prefix}
}

func (s *RedisSource) key(id string) string { return s.Prefix + id }

// Fetch reads the template stored for id.
func (s *RedisSource) Fetch(ctx context.Context, id string) (Raw, error) {
	if id == "" {
		return Raw{}, ErrNotFound
	}
	data, err := s.Client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Raw{}, ErrNotFound
	}
	if err != nil {
		return Raw{}, fmt.Errorf("template: redis get %s: %w", s.key(id), err)
	}
	return Raw{ID: id, Data: data, Format: FormatAuto, Origin: "redis:" + s.key(id)}, nil
}

// Store writes raw template bytes for id.
func (s *RedisSource) Store(ctx context.Context, id string, data []byte) error {
	if err := s.Client.Set(ctx, s.key(id), data, 0).Err(); err != nil {
		return fmt.Errorf("template: redis set %s: %w", s.key(id), err)
	}
	return nil
}
