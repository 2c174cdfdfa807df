package cachewrapper

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/holidayextras/cache-wrapper/internal/wire"
	"github.com/holidayextras/cache-wrapper/store"
)

// State is the connection state seen by the request queue.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateReady
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	default:
		return "disconnected"
	}
}

type queueResult struct {
	value []byte
	err   error
}

// queueEntry is one stash or retrieve call. done has room for exactly one
// result and is written exactly once.
type queueEntry struct {
	id      string
	ctx     context.Context
	op      Op
	segment string
	key     string
	value   []byte
	ttl     time.Duration
	done    chan queueResult
}

func (e *queueEntry) settle(v []byte, err error) {
	e.done <- queueResult{value: v, err: err}
}

func (e *queueEntry) fail(kind error) *OpError {
	return &OpError{Op: e.op, Segment: e.segment, Key: e.key, Err: kind}
}

// requestQueue runs stash/retrieve immediately while the client is ready and
// buffers them behind a single reconnect attempt otherwise.
//
// pending and connecting are only touched under mu. The buffer is swapped
// out in the same critical section that clears connecting, so a new call
// either lands in the batch being settled or sees connecting == false.
type requestQueue struct {
	client         store.Client
	policies       *registry
	log            Logger
	hooks          Hooks
	connectTimeout time.Duration

	mu         sync.Mutex
	pending    []*queueEntry
	connecting bool

	inflight sync.WaitGroup
}

func (q *requestQueue) state() State {
	q.mu.Lock()
	connecting := q.connecting
	q.mu.Unlock()
	switch {
	case connecting:
		return StateConnecting
	case q.client.IsReady():
		return StateReady
	default:
		return StateDisconnected
	}
}

// do runs e now or waits for the reconnect it was buffered behind. If ctx
// ends first the caller gets an error while e is still settled later.
func (q *requestQueue) do(ctx context.Context, e *queueEntry) ([]byte, error) {
	queued, depth, start := q.enqueue(e)
	if !queued {
		return q.execute(ctx, e)
	}

	q.log.Debug("client not ready, request queued", Fields{"entry": e.id, "op": e.op, "segment": e.segment, "depth": depth})
	q.hooks.RequestQueued(e.id, e.op, e.segment, depth)
	if start {
		go q.reconnect()
	}

	select {
	case r := <-e.done:
		return r.value, r.err
	case <-ctx.Done():
		oe := e.fail(ErrOperationFailed)
		oe.ctxErr = ctx.Err()
		return nil, oe
	}
}

// enqueue buffers e unless the client is ready and no reconnect is running.
// start is true for the call that must launch the reconnect.
func (q *requestQueue) enqueue(e *queueEntry) (queued bool, depth int, start bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.connecting && q.client.IsReady() {
		return false, 0, false
	}
	q.pending = append(q.pending, e)
	if !q.connecting {
		q.connecting = true
		q.inflight.Add(1)
		start = true
	}
	return true, len(q.pending), start
}

// reconnect makes one connect attempt, then replays or rejects everything
// buffered up to the moment it finished. No retry is scheduled; the next
// call arriving while not ready starts a fresh attempt.
func (q *requestQueue) reconnect() {
	defer q.inflight.Done()
	q.hooks.ReconnectStarted()
	q.log.Info("reconnecting cache client", nil)

	ctx, cancel := context.WithTimeout(context.Background(), q.connectTimeout)
	err := q.client.Connect(ctx)
	cancel()

	q.mu.Lock()
	batch := q.pending
	q.pending = nil
	q.connecting = false
	q.mu.Unlock()

	if err != nil {
		q.log.Error("reconnect failed, rejecting queued requests", Fields{"rejected": len(batch), "err": err})
		for _, e := range batch {
			e.settle(nil, e.fail(ErrReconnectFailed))
		}
	} else {
		q.log.Info("reconnected, replaying queued requests", Fields{"replayed": len(batch)})
		for _, e := range batch {
			e.settle(q.replay(e))
		}
	}
	q.hooks.ReconnectFinished(len(batch), err)
}

func (q *requestQueue) replay(e *queueEntry) ([]byte, error) {
	if err := e.ctx.Err(); err != nil {
		// caller already gave up
		oe := e.fail(ErrOperationFailed)
		oe.ctxErr = err
		return nil, oe
	}
	return q.execute(e.ctx, e)
}

func (q *requestQueue) execute(ctx context.Context, e *queueEntry) ([]byte, error) {
	p, ok := q.policies.get(e.segment)
	if !ok {
		return nil, e.fail(ErrPolicyNotFound)
	}
	switch e.op {
	case OpStash:
		if err := p.Set(ctx, e.key, e.value, e.ttl); err != nil {
			return nil, q.storeFailed(ctx, p, e, err)
		}
		return nil, nil
	default:
		v, ok, err := p.Get(ctx, e.key)
		if err != nil {
			return nil, q.storeFailed(ctx, p, e, err)
		}
		if !ok {
			// a miss is a failed retrieve, not an empty success
			return nil, e.fail(ErrOperationFailed)
		}
		return v, nil
	}
}

func (q *requestQueue) storeFailed(ctx context.Context, p *Policy, e *queueEntry, err error) error {
	if errors.Is(err, wire.ErrCorrupt) {
		q.hooks.DecodeFailed(p.storageKey(e.key), err)
	}
	q.log.Warn("cache store call failed", Fields{"entry": e.id, "op": e.op, "segment": e.segment, "key": e.key, "err": err})
	oe := e.fail(ErrOperationFailed)
	oe.ctxErr = ctx.Err()
	return oe
}

// wait blocks until no reconnect is running.
func (q *requestQueue) wait() { q.inflight.Wait() }
