package marker

import (
	"sync"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// EvictionPolicy stores cache entries and decides what to drop.
type EvictionPolicy interface {
	Get(key string) (*Entry, bool)
	Put(key string, e *Entry)
	Len() int
}

type unbounded map[string]*Entry

func (u unbounded) Get(key string) (*Entry, bool) {
	e, ok := u[key]
	return e, ok
}

func (u unbounded) Put(key string, e *Entry) { u[key] = e }

func (u unbounded) Len() int { return len(u) }

// Unbounded keeps every entry for the life of the cache.
func Unbounded() EvictionPolicy { return unbounded{} }

type lruPolicy struct {
	lru *simplelru.LRU[string, *Entry]
}

func (p lruPolicy) Get(key string) (*Entry, bool) { return p.lru.Get(key) }

func (p lruPolicy) Put(key string, e *Entry) { p.lru.Add(key, e) }

func (p lruPolicy) Len() int { return p.lru.Len() }

// LRU keeps at most size entries, dropping the least recently used. onEvict
// may be nil.
func LRU(size int, onEvict func(key string)) (EvictionPolicy, error) {
	var cb simplelru.EvictCallback[string, *Entry]
	if onEvict != nil {
		cb = func(key string, _ *Entry) { onEvict(key) }
	}
	l, err := simplelru.NewLRU[string, *Entry](size, cb)
	if err != nil {
		return nil, err
	}
	return lruPolicy{lru: l}, nil
}

// Cache holds synthesized markers by request key. A hit requires the stored
// settings to equal the caller's.
type Cache struct {
	mu     sync.Mutex
	policy EvictionPolicy
}

// NewCache wraps policy; nil means Unbounded.
func NewCache(policy EvictionPolicy) *Cache {
	if policy == nil {
		policy = Unbounded()
	}
	return &Cache{policy: policy}
}

func (c *Cache) Get(key string, s Settings) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.policy.Get(key)
	if !ok || e.Settings != s {
		return nil, false
	}
	return e, true
}

func (c *Cache) Put(key string, e *Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.policy.Put(key, e)
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.policy.Len()
}
