package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bookingagent/models"
	"bookingagent/utils"

	"github.com/go-redis/redis/v8"
)

// RedisStore keeps each session as a JSON document that expires after ttl
// without activity.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Load(ctx context.Context, id string) (models.Session, error) {
	data, err := s.client.Get(ctx, utils.SessionCachePrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Session{}, NewSessionNotFoundError(id)
	}
	if err != nil {
		return models.Session{}, fmt.Errorf("failed to load session %s: %w", id, err)
	}
	var sess models.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return models.Session{}, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	sess.Normalize()
	return sess, nil
}

func (s *RedisStore) Save(ctx context.Context, sess models.Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", sess.ID, err)
	}
	return s.client.Set(ctx, utils.SessionCachePrefix+sess.ID, b, s.ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, utils.SessionCachePrefix+id).Err()
}
