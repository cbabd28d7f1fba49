package tracing

// Attribute keys for overscape operations
const (
	// Tile attributes
	AttrTileX    = "tile.x"
	AttrTileY    = "tile.y"
	AttrTileZoom = "tile.zoom"

	// Upstream (Overpass) attributes
	AttrUpstreamURL    = "overpass.url"
	AttrUpstreamStatus = "overpass.status"

	// Cache attributes
	AttrCacheBackend = "cache.backend"
	AttrCacheHit     = "cache.hit"
	AttrCacheKey     = "cache.key"

	// Rate limiting attributes
	AttrRateLimitWaitMs = "ratelimit.wait_ms"

	// HTTP transport attributes
	AttrHTTPMethod     = "http.method"
	AttrHTTPStatusCode = "http.status_code"
	AttrHTTPPath       = "http.path"
)
