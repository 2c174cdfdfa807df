package cachewrapper

import (
	"context"
	"time"

	c "github.com/holidayextras/cache-wrapper/codec"
	"github.com/holidayextras/cache-wrapper/store"
)

// Cache is the public surface of Wrapper, handy for injecting fakes.
type Cache[V any] interface {
	Initialise(ctx context.Context) error
	Close(ctx context.Context) error
	State() State

	Set(ctx context.Context, req StashRequest[V]) error
	Get(ctx context.Context, req RetrieveRequest) (V, error)
	Delete(ctx context.Context, req DeleteRequest) (DeleteResult, error)
	AddCachePolicies(defs ...PolicyDef) int
}

var _ Cache[string] = (*Wrapper[string])(nil)

// Options configure a Wrapper. Partition and Client are required.
type Options[V any] struct {
	// Required
	Partition string       // top-level key prefix, e.g. "cacheWrapper"
	Client    store.Client // shared connection, owned by the Wrapper from now on

	Codec    c.Codec[V]  // nil => codec.JSON[V]
	Policies []PolicyDef // registered by New

	Logger          Logger        // if nil, NopLogger is used
	Hooks           Hooks         // if nil, NopHooks is used
	ScanCount       int64         // SCAN page size hint; 0 => 500
	ConnectTimeout  time.Duration // per connect attempt; 0 => 5s
	DropConcurrency int           // parallel drops per delete; 0 => 16

	Now   func() time.Time // nil => time.Now
	NewID func() string    // queue entry ids; nil => uuid.NewString
}

// StashRequest stores Value under Key. TTL 0 uses the segment's expiresIn.
type StashRequest[V any] struct {
	Segment string
	Key     string
	Value   V
	TTL     time.Duration
}

// RetrieveRequest reads Key from Segment.
type RetrieveRequest struct {
	Segment string
	Key     string
}

// DeleteRequest drops every key of Segment starting with Prefix.
type DeleteRequest struct {
	Segment string
	Prefix  string
}

// DropOutcome is the settled result of dropping one key.
type DropOutcome struct {
	Key string
	Err error
}

// Fulfilled reports whether the key was dropped.
func (o DropOutcome) Fulfilled() bool { return o.Err == nil }

// DeleteResult reports a prefix delete. Err is set, and Outcomes empty, when
// the keys could not be discovered; a partial delete shows up as failed
// outcomes instead.
type DeleteResult struct {
	Segment  string
	Prefix   string
	Outcomes []DropOutcome
	Err      error
}

// Failed counts outcomes that did not drop their key.
func (r DeleteResult) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if !o.Fulfilled() {
			n++
		}
	}
	return n
}

// New builds a Wrapper without connecting. Call Initialise before use.
func New[V any](opts Options[V]) (*Wrapper[V], error) {
	return newWrapper(opts)
}

// Open is New followed by Initialise.
func Open[V any](ctx context.Context, opts Options[V]) (*Wrapper[V], error) {
	w, err := newWrapper(opts)
	if err != nil {
		return nil, err
	}
	if err := w.Initialise(ctx); err != nil {
		return nil, err
	}
	return w, nil
}
