package overpass

import (
	"errors"
	"fmt"
)

// ErrUnavailable indicates the Overpass endpoint could not be reached.
var ErrUnavailable = errors.New("overpass unavailable")

// StatusError indicates the Overpass endpoint answered with a non-200
// status code.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("overpass returned status %d", e.Code)
}

// IsUpstreamError reports whether the error originates from the
// Overpass endpoint rather than from this service.
func IsUpstreamError(err error) bool {
	var se *StatusError
	return errors.Is(err, ErrUnavailable) || errors.As(err, &se)
}
