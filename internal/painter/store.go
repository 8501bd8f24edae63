package painter

import (
	"context"
	"errors"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
)

// Store keeps rendered PNGs by canonical query.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, png []byte) error
	Ping(ctx context.Context) error
}

// MemoryStore is a process local LRU store.
type MemoryStore struct {
	lru *lru.Cache[string, []byte]
}

func NewMemoryStore(size int) (*MemoryStore, error) {
	if size <= 0 {
		size = 4096
	}
	c, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}
	return &MemoryStore{lru: c}, nil
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	b, ok := m.lru.Get(key)
	return b, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, png []byte) error {
	m.lru.Add(key, png)
	return nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Len() int { return m.lru.Len() }

// RedisStore shares rendered PNGs between painter instances.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: "geoplot:painter:", ttl: ttl}
}

// OpenRedis returns nil when addr is empty.
func OpenRedis(addr, pass string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, png []byte) error {
	return s.client.Set(ctx, s.prefix+key, png, s.ttl).Err()
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Tiered reads Front first and fills it from Back on a hit there.
type Tiered struct {
	Front Store
	Back  Store
}

func (t Tiered) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if b, ok, err := t.Front.Get(ctx, key); err == nil && ok {
		return b, true, nil
	}
	b, ok, err := t.Back.Get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	_ = t.Front.Set(ctx, key, b)
	return b, true, nil
}

func (t Tiered) Set(ctx context.Context, key string, png []byte) error {
	_ = t.Front.Set(ctx, key, png)
	return t.Back.Set(ctx, key, png)
}

func (t Tiered) Ping(ctx context.Context) error {
	return t.Back.Ping(ctx)
}
