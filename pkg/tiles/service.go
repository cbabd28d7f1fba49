// Package tiles orchestrates tile assembly: cache lookup, Overpass
// query execution and Soundscape GeoJSON conversion.
package tiles

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/steinbro/overscape-server/pkg/cache"
	"github.com/steinbro/overscape-server/pkg/geo"
	"github.com/steinbro/overscape-server/pkg/monitoring"
	"github.com/steinbro/overscape-server/pkg/overpass"
	"github.com/steinbro/overscape-server/pkg/soundscape"
	"github.com/steinbro/overscape-server/pkg/tracing"
)

// Querier is the subset of the Overpass client the service needs.
type Querier interface {
	Query(ctx context.Context, query string) (*overpass.Response, error)
}

// Options configures a tile service.
type Options struct {
	Cache        cache.Cache
	CacheBackend string
	Client       Querier
	Tags         overpass.TagTable
	Zoom         int
	QueryTimeout int
	Logger       *slog.Logger
}

// Service serves Soundscape GeoJSON tiles, caching the marshalled
// response and collapsing concurrent requests for the same tile.
type Service struct {
	cache        cache.Cache
	cacheBackend string
	client       Querier
	tags         overpass.TagTable
	zoom         int
	queryTimeout int
	logger       *slog.Logger
	group        singleflight.Group
}

// NewService creates a tile service.
func NewService(opts Options) *Service {
	if opts.Tags == nil {
		opts.Tags = overpass.DefaultTags()
	}
	if opts.Zoom <= 0 {
		opts.Zoom = geo.DefaultZoom
	}
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = 25
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.CacheBackend == "" {
		opts.CacheBackend = "memory"
	}
	return &Service{
		cache:        opts.Cache,
		cacheBackend: opts.CacheBackend,
		client:       opts.Client,
		tags:         opts.Tags,
		zoom:         opts.Zoom,
		queryTimeout: opts.QueryTimeout,
		logger:       opts.Logger,
	}
}

// Zoom returns the zoom level tiles are served at.
func (s *Service) Zoom() int {
	return s.zoom
}

// Tile returns the marshalled Soundscape feature collection for a tile.
func (s *Service) Tile(ctx context.Context, x, y int) ([]byte, error) {
	if err := geo.ValidateTile(x, y, s.zoom); err != nil {
		return nil, err
	}

	ctx, span := tracing.StartSpan(ctx, "tiles.fetch",
		trace.WithAttributes(
			attribute.Int(tracing.AttrTileX, x),
			attribute.Int(tracing.AttrTileY, y),
			attribute.Int(tracing.AttrTileZoom, s.zoom),
		),
	)
	defer span.End()

	start := time.Now()
	key := cacheKey(x, y)

	if s.cache != nil {
		if data, ok := s.cache.Get(ctx, key); ok {
			span.SetAttributes(attribute.Bool(tracing.AttrCacheHit, true))
			monitoring.RecordCacheHit(s.cacheBackend)
			monitoring.RecordTileRequest(time.Since(start), true)
			return data, nil
		}
		span.SetAttributes(attribute.Bool(tracing.AttrCacheHit, false))
		monitoring.RecordCacheMiss(s.cacheBackend)
	}

	// Collapse concurrent fetches of the same tile into one upstream
	// query; every waiter gets the same bytes.
	v, err, _ := s.group.Do(key, func() (any, error) {
		return s.fetch(ctx, x, y, key)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		monitoring.RecordTileRequest(time.Since(start), false)
		return nil, err
	}

	monitoring.RecordTileRequest(time.Since(start), true)
	return v.([]byte), nil
}

// fetch queries Overpass, converts and caches the result.
func (s *Service) fetch(ctx context.Context, x, y int, key string) ([]byte, error) {
	query := overpass.TileQuery(x, y, s.zoom, s.tags, s.queryTimeout)

	resp, err := s.client.Query(ctx, query)
	if err != nil {
		s.logger.Warn("tile fetch failed", "x", x, "y", y, "error", err)
		return nil, fmt.Errorf("fetching tile %d/%d: %w", x, y, err)
	}

	collection := soundscape.FromOverpass(resp, s.tags)
	data, err := json.Marshal(collection)
	if err != nil {
		return nil, fmt.Errorf("marshalling tile %d/%d: %w", x, y, err)
	}

	if s.cache != nil {
		s.cache.Set(ctx, key, data)
		monitoring.UpdateCacheSize(s.cacheBackend, s.cache.Len())
	}

	s.logger.Debug("tile fetched",
		"x", x,
		"y", y,
		"elements", len(resp.Elements),
		"features", len(collection.Features),
		"bytes", len(data))

	return data, nil
}

// cacheKey matches the original tile cache naming so a populated disk
// cache survives a redeploy.
func cacheKey(x, y int) string {
	return fmt.Sprintf("%d_%d", x, y)
}
