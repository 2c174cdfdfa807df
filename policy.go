package cachewrapper

import (
	"context"
	"time"

	"github.com/holidayextras/cache-wrapper/internal/keyspace"
	"github.com/holidayextras/cache-wrapper/internal/wire"
	"github.com/holidayextras/cache-wrapper/store"
)

// PolicyDef declares a segment and how long its entries live.
type PolicyDef struct {
	Segment   string
	ExpiresIn time.Duration
}

// Policy is the per-segment view of the shared client. Immutable once built.
type Policy struct {
	partition string
	segment   string
	expiresIn time.Duration
	client    store.Client
	jsonItems bool
	now       func() time.Time
}

func (p *Policy) Segment() string          { return p.segment }
func (p *Policy) ExpiresIn() time.Duration { return p.expiresIn }

func (p *Policy) storageKey(key string) string {
	return keyspace.StorageKey(p.partition, p.segment, key)
}

// Get returns the payload stored under key. Expired entries are misses;
// undecodable envelopes are reported as wire.ErrCorrupt.
func (p *Policy) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, ok, err := p.client.Get(ctx, p.storageKey(key))
	if err != nil || !ok {
		return nil, false, err
	}
	e, err := wire.Decode(raw)
	if err != nil {
		return nil, false, err
	}
	if e.Expired(p.now()) {
		return nil, false, nil
	}
	return e.Payload, true, nil
}

// Set stores payload under key for ttl, or the policy's expiresIn when ttl is 0.
func (p *Policy) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = p.expiresIn
	}
	b, err := wire.Encode(payload, p.jsonItems, p.now(), ttl)
	if err != nil {
		return err
	}
	return p.client.Set(ctx, p.storageKey(key), b, ttl)
}

// Drop removes key.
func (p *Policy) Drop(ctx context.Context, key string) error {
	return p.client.Del(ctx, p.storageKey(key))
}
