// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    QueuedEvery:   10, // sample: ~every 10th queued request
//	    DropFailEvery: 1,  // log every failed drop
//	})
//
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	w, _ := cachewrapper.Open(ctx, cachewrapper.Options[string]{
//	    Partition: "app",
//	    Client:    client,
//	    Hooks:     hooks, // or `raw` if you don't want async
//	})
package asynchook

import (
	"sync"

	cachewrapper "github.com/holidayextras/cache-wrapper"
)

// Hooks forwards events to inner on background workers. Events are dropped
// when the buffer is full so callers never block.
type Hooks struct {
	inner cachewrapper.Hooks
	q     chan func()
	wg    sync.WaitGroup
	once  sync.Once
}

var _ cachewrapper.Hooks = (*Hooks)(nil)

func New(inner cachewrapper.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains buffered events. Do not emit after Close.
func (h *Hooks) Close() {
	h.once.Do(func() {
		close(h.q)
		h.wg.Wait()
	})
}

func (h *Hooks) try(f func()) {
	select {
	case h.q <- f:
	default: // drop
	}
}

func (h *Hooks) RequestQueued(id string, op cachewrapper.Op, segment string, depth int) {
	h.try(func() { h.inner.RequestQueued(id, op, segment, depth) })
}
func (h *Hooks) ReconnectStarted() { h.try(h.inner.ReconnectStarted) }
func (h *Hooks) ReconnectFinished(n int, err error) {
	h.try(func() { h.inner.ReconnectFinished(n, err) })
}
func (h *Hooks) ScanFailed(ns string, err error)  { h.try(func() { h.inner.ScanFailed(ns, err) }) }
func (h *Hooks) DropFailed(k string, err error)   { h.try(func() { h.inner.DropFailed(k, err) }) }
func (h *Hooks) DecodeFailed(k string, err error) { h.try(func() { h.inner.DecodeFailed(k, err) }) }
