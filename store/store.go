// Package store defines the backing key-value connection used by cachewrapper.
//
// A Client is a single shared connection. Values are opaque bytes; the
// keyspace "<partition>:<segment>:" is owned by the cache policies, and
// foreign values written there may be treated as corrupt and read as misses.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotReady is returned by in-process clients used before Connect.
var ErrNotReady = errors.New("store: client not ready")

// Client must be safe for concurrent use once ready.
type Client interface {
	// Connect (re)establishes the connection. On success IsReady reports true.
	Connect(ctx context.Context) error

	// IsReady reports whether operations can be issued right now.
	IsReady() bool

	// Get returns (value, true, nil) on hit and (nil, false, nil) on miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value. ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Del removes a key. Missing keys are not an error.
	Del(ctx context.Context, key string) error

	// Scan returns one page of keys matching the glob pattern, starting at
	// cursor, with count as a page size hint. A returned cursor of 0 means
	// the enumeration is complete. Keys may be repeated across pages.
	Scan(ctx context.Context, cursor uint64, match string, count int64) (keys []string, next uint64, err error)

	// Close releases resources.
	Close(ctx context.Context) error
}
