package overpass

import (
	"sync"
	"time"
)

// MonitoringHooks defines hooks for observing upstream requests without
// coupling this package to a metrics backend.
type MonitoringHooks struct {
	// OnResponse is called after a request completes or fails.
	OnResponse func(operation string, duration time.Duration, success bool)

	// OnRateLimit is called when a request had to wait for the
	// upstream rate limiter.
	OnRateLimit func(waitTime time.Duration)

	// OnError is called when a request error occurs.
	OnError func(errorType string)
}

var (
	globalHooks *MonitoringHooks
	hooksMu     sync.RWMutex
)

// SetMonitoringHooks sets the global monitoring hooks.
func SetMonitoringHooks(hooks *MonitoringHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	globalHooks = hooks
}

func getMonitoringHooks() *MonitoringHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return globalHooks
}
