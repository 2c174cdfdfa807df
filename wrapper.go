package cachewrapper

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	c "github.com/holidayextras/cache-wrapper/codec"
	"github.com/holidayextras/cache-wrapper/store"
)

// Wrapper is the cache facade. Safe for concurrent use.
type Wrapper[V any] struct {
	partition string
	client    store.Client
	codec     c.Codec[V]
	log       Logger
	hooks     Hooks
	newID     func() string
	dropLimit int

	policies *registry
	queue    *requestQueue
	scan     *scanner

	initialised atomic.Bool
}

func newWrapper[V any](opts Options[V]) (*Wrapper[V], error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("cachewrapper: client is required")
	}
	if opts.Partition == "" {
		return nil, fmt.Errorf("cachewrapper: partition is required")
	}

	w := &Wrapper[V]{
		partition: opts.Partition,
		client:    opts.Client,
		codec:     opts.Codec,
		newID:     opts.NewID,
	}
	if w.codec == nil {
		w.codec = c.JSON[V]{}
	}
	if w.newID == nil {
		w.newID = uuid.NewString
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	// defaults
	w.log = coalesce[Logger](opts.Logger, NopLogger{})
	w.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	w.dropLimit = coalesce(opts.DropConcurrency, defaultDropConcurrency)

	w.policies = newRegistry(opts.Partition, opts.Client, c.IsJSONNative(w.codec), now)
	w.queue = &requestQueue{
		client:         opts.Client,
		policies:       w.policies,
		log:            w.log,
		hooks:          w.hooks,
		connectTimeout: coalesce(opts.ConnectTimeout, defaultConnectTimeout),
	}
	w.scan = &scanner{
		client: opts.Client,
		count:  coalesce(opts.ScanCount, int64(defaultScanCount)),
		log:    w.log,
		hooks:  w.hooks,
	}

	w.policies.add(opts.Policies...)
	return w, nil
}

// Initialise connects the client. A failure here is meant to stop startup;
// nothing retries it.
func (w *Wrapper[V]) Initialise(ctx context.Context) error {
	if w.initialised.Load() {
		return nil
	}
	if err := w.client.Connect(ctx); err != nil {
		w.log.Error("cache client failed to connect", Fields{"partition": w.partition, "err": err})
		return &OpError{Op: OpConnect, Err: ErrConnectFailed}
	}
	w.initialised.Store(true)
	w.log.Info("cache initialised", Fields{"partition": w.partition})
	return nil
}

// Close waits for an in-flight reconnect to settle its requests, then closes
// the client.
func (w *Wrapper[V]) Close(ctx context.Context) error {
	w.initialised.Store(false)
	w.queue.wait()
	return w.client.Close(ctx)
}

// State reports the connection state seen by the request queue.
func (w *Wrapper[V]) State() State { return w.queue.state() }

// AddCachePolicies registers policies for new segments and returns how many
// were added. Incomplete definitions and known segments are skipped.
func (w *Wrapper[V]) AddCachePolicies(defs ...PolicyDef) int {
	n := w.policies.add(defs...)
	if n > 0 {
		w.log.Debug("cache policies added", Fields{"added": n})
	}
	return n
}

// Set encodes req.Value and stores it, queueing behind a reconnect when the
// client is not ready.
func (w *Wrapper[V]) Set(ctx context.Context, req StashRequest[V]) error {
	if err := w.check(OpStash, req.Segment, req.Key); err != nil {
		return err
	}
	payload, err := w.codec.Encode(req.Value)
	if err != nil {
		w.log.Debug("value encode failed", Fields{"segment": req.Segment, "key": req.Key, "err": err})
		return &OpError{Op: OpStash, Segment: req.Segment, Key: req.Key, Err: ErrInvalidArguments}
	}
	_, err = w.queue.do(ctx, w.entry(ctx, OpStash, req.Segment, req.Key, payload, req.TTL))
	return err
}

// Get returns the value under req.Key. A miss is ErrOperationFailed.
func (w *Wrapper[V]) Get(ctx context.Context, req RetrieveRequest) (V, error) {
	var zero V
	if err := w.check(OpRetrieve, req.Segment, req.Key); err != nil {
		return zero, err
	}
	raw, err := w.queue.do(ctx, w.entry(ctx, OpRetrieve, req.Segment, req.Key, nil, 0))
	if err != nil {
		return zero, err
	}
	v, err := w.codec.Decode(raw)
	if err != nil {
		w.hooks.DecodeFailed(w.storageKey(req.Segment, req.Key), err)
		w.log.Warn("value decode failed", Fields{"segment": req.Segment, "key": req.Key, "err": err})
		return zero, &OpError{Op: OpRetrieve, Segment: req.Segment, Key: req.Key, Err: ErrOperationFailed}
	}
	return v, nil
}

// Delete drops every key of the segment starting with the prefix. It does
// not go through the request queue: with the client down the scan fails
// fast. A failed scan is reported in DeleteResult.Err with a nil error.
func (w *Wrapper[V]) Delete(ctx context.Context, req DeleteRequest) (DeleteResult, error) {
	res := DeleteResult{Segment: req.Segment, Prefix: req.Prefix}
	if err := w.check(OpDelete, req.Segment, req.Prefix); err != nil {
		return res, err
	}
	p, ok := w.policies.get(req.Segment)
	if !ok {
		return res, &OpError{Op: OpDelete, Segment: req.Segment, Key: req.Prefix, Err: ErrPolicyNotFound}
	}
	keys, err := w.scan.scanKeys(ctx, w.partition, req.Segment, req.Prefix)
	if err != nil {
		res.Err = err
		return res, nil
	}
	res.Outcomes = w.dropAll(ctx, p, keys)
	if n := res.Failed(); n > 0 {
		w.log.Warn("prefix delete partially failed", Fields{"segment": req.Segment, "prefix": req.Prefix, "failed": n, "total": len(keys)})
	}
	return res, nil
}

// dropAll drops every key and records one outcome per key, in key order.
func (w *Wrapper[V]) dropAll(ctx context.Context, p *Policy, keys []string) []DropOutcome {
	out := make([]DropOutcome, len(keys))
	var g errgroup.Group
	g.SetLimit(w.dropLimit)
	for i, k := range keys {
		i, k := i, k
		g.Go(func() error {
			out[i] = DropOutcome{Key: k}
			if err := p.Drop(ctx, k); err != nil {
				w.hooks.DropFailed(p.storageKey(k), err)
				w.log.Debug("drop failed", Fields{"segment": p.Segment(), "key": k, "err": err})
				out[i].Err = &OpError{Op: OpDrop, Segment: p.Segment(), Key: k, Err: ErrOperationFailed}
			}
			return nil // never cancel siblings
		})
	}
	_ = g.Wait()
	return out
}

func (w *Wrapper[V]) check(op Op, segment, key string) error {
	if !w.initialised.Load() {
		return &OpError{Op: op, Segment: segment, Key: key, Err: ErrNotInitialised}
	}
	if segment == "" || key == "" {
		return &OpError{Op: op, Segment: segment, Key: key, Err: ErrInvalidArguments}
	}
	return nil
}

func (w *Wrapper[V]) entry(ctx context.Context, op Op, segment, key string, value []byte, ttl time.Duration) *queueEntry {
	return &queueEntry{
		id:      w.newID(),
		ctx:     ctx,
		op:      op,
		segment: segment,
		key:     key,
		value:   value,
		ttl:     ttl,
		done:    make(chan queueResult, 1),
	}
}

func (w *Wrapper[V]) storageKey(segment, key string) string {
	if p, ok := w.policies.get(segment); ok {
		return p.storageKey(key)
	}
	return ""
}
