// Package version exposes build version information.
package version

import (
	"fmt"
	"runtime"
)

// Build metadata, set via -ldflags at build time.
var (
	BuildVersion = "0.1.0"
	BuildCommit  = "unknown"
	BuildDate    = "unknown"
)

// Info returns version information as a map.
func Info() map[string]string {
	return map[string]string{
		"version":    BuildVersion,
		"commit":     BuildCommit,
		"build_date": BuildDate,
		"go_version": runtime.Version(),
	}
}

// String returns a human-readable version line.
func String() string {
	return fmt.Sprintf("overscape %s (%s, built %s, %s)", BuildVersion, BuildCommit, BuildDate, runtime.Version())
}
