package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	// DefaultMaxEntries caps the in-memory cache size.
	DefaultMaxEntries = 1024

	// DefaultTTL is the default entry lifetime.
	DefaultTTL = 7 * 24 * time.Hour
)

// Memory is an in-process LRU tile cache with per-entry expiry.
type Memory struct {
	lru *expirable.LRU[string, []byte]
}

// NewMemory creates an in-memory cache holding at most maxEntries
// entries, each expiring after ttl.
func NewMemory(maxEntries int, ttl time.Duration) *Memory {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{
		lru: expirable.NewLRU[string, []byte](maxEntries, nil, ttl),
	}
}

// Get retrieves a value from the cache.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	return m.lru.Get(key)
}

// Set stores a value in the cache.
func (m *Memory) Set(_ context.Context, key string, value []byte) {
	m.lru.Add(key, value)
}

// Len returns the number of cached entries.
func (m *Memory) Len() int {
	return m.lru.Len()
}

// Close is a no-op for the memory backend.
func (m *Memory) Close() error {
	return nil
}
