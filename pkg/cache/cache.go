// Package cache provides tile response caching so repeated tile
// requests do not hit the Overpass endpoint.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Cache stores marshalled tile responses keyed by tile coordinates.
// Implementations treat any stored corruption as a miss; a cache
// failure must never surface as a request error.
type Cache interface {
	// Get retrieves a value. The boolean is false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores a value.
	Set(ctx context.Context, key string, value []byte)

	// Len returns the number of cached entries, or -1 when unknown.
	Len() int

	// Close releases backend resources.
	Close() error
}

// Options configures cache construction.
type Options struct {
	// Backend is one of "memory", "disk" or "redis".
	Backend string

	// MaxEntries caps the entry count for memory and disk backends.
	MaxEntries int

	// TTL is the entry lifetime.
	TTL time.Duration

	// Dir is the storage directory for the disk backend.
	Dir string

	// RedisAddr, RedisPassword and RedisDB configure the redis backend.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// New constructs the cache backend named in the options.
func New(opts Options) (Cache, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	switch opts.Backend {
	case "", "memory":
		return NewMemory(opts.MaxEntries, opts.TTL), nil
	case "disk":
		return NewDisk(opts.Dir, opts.TTL, opts.MaxEntries, opts.Logger)
	case "redis":
		return NewRedis(opts.RedisAddr, opts.RedisPassword, opts.RedisDB, opts.TTL, opts.Logger), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
	}
}
