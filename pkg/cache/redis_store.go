package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisStore keeps tool results in Redis so multiple gateway instances
// share one cache. Values are stored as JSON documents.
type redisStore struct {
	client     *redis.Client
	defaultTTL time.Duration
	prefix     string
}

// NewRedisStore wraps an already-connected Redis client as a Store.
func NewRedisStore(client *redis.Client, defaultTTL time.Duration) Store {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &redisStore{
		client:     client,
		defaultTTL: defaultTTL,
		prefix:     "gateway:toolcache:",
	}
}

func (s *redisStore) Get(key string) (map[string]interface{}, bool) {
	raw, err := s.client.Get(context.Background(), s.prefix+key).Bytes()
	if err != nil {
		return nil, false
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, false
	}
	return m, true
}

func (s *redisStore) Put(key string, value map[string]interface{}, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	s.client.Set(context.Background(), s.prefix+key, raw, ttl)
}

func (s *redisStore) Invalidate(key string) {
	s.client.Del(context.Background(), s.prefix+key)
}
