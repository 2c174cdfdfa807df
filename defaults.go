package cachewrapper

import "time"

const (
	defaultScanCount       = 500
	defaultConnectTimeout  = 5 * time.Second
	defaultDropConcurrency = 16
)

// coalesce returns def when v is the zero value of T - otherwise v.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
