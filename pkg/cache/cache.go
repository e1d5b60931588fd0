package cache

import (
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// DefaultTTL is applied when a Put is issued with ttl <= 0.
const DefaultTTL = 300 * time.Second

// Store is the result cache used by the business tools. Entries are
// short-lived snapshots of backend answers keyed by canonical parameters.
type Store interface {
	Get(key string) (map[string]interface{}, bool)
	Put(key string, value map[string]interface{}, ttl time.Duration)
	Invalidate(key string)
}

// Key builds a deterministic cache key from a kind and the raw parameter.
// The parameter is canonicalized so "ord-1", " ORD-1 " and "Ord-1" share
// one entry.
func Key(kind, param string) string {
	return kind + ":" + Canonical(param)
}

// Canonical trims and upper-cases an identifier-like parameter.
func Canonical(param string) string {
	return strings.ToUpper(strings.TrimSpace(param))
}

type memoryStore struct {
	c *gocache.Cache
}

// NewMemoryStore returns an in-process Store with the given default TTL.
func NewMemoryStore(defaultTTL time.Duration) Store {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &memoryStore{
		c: gocache.New(defaultTTL, 2*defaultTTL),
	}
}

func (s *memoryStore) Get(key string) (map[string]interface{}, bool) {
	v, found := s.c.Get(key)
	if !found {
		return nil, false
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, false
	}
	return m, true
}

func (s *memoryStore) Put(key string, value map[string]interface{}, ttl time.Duration) {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	s.c.Set(key, value, ttl)
}

func (s *memoryStore) Invalidate(key string) {
	s.c.Delete(key)
}
