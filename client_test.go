package cachewrapper

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/holidayextras/cache-wrapper/store"
	"github.com/holidayextras/cache-wrapper/store/memory"
)

type scanFunc func(cursor uint64, match string, count int64) ([]string, uint64, error)

// fakeClient is a memory store whose readiness, connect outcome, drops and
// scans can be steered by tests.
type fakeClient struct {
	*memory.Store

	ready    atomic.Bool
	connects atomic.Int32

	mu         sync.Mutex
	connectErr error
	gate       chan struct{} // Connect blocks until closed when non-nil
	dropErrs   map[string]error
	scan       scanFunc
}

var _ store.Client = (*fakeClient)(nil)

func newFakeClient() *fakeClient {
	return &fakeClient{Store: memory.New(), dropErrs: make(map[string]error)}
}

func (f *fakeClient) Connect(ctx context.Context) error {
	f.connects.Add(1)
	f.mu.Lock()
	gate, err := f.gate, f.connectErr
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if err != nil {
		return err
	}
	if err := f.Store.Connect(ctx); err != nil {
		return err
	}
	f.ready.Store(true)
	return nil
}

func (f *fakeClient) IsReady() bool { return f.ready.Load() }

func (f *fakeClient) Del(ctx context.Context, key string) error {
	f.mu.Lock()
	err := f.dropErrs[key]
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.Store.Del(ctx, key)
}

func (f *fakeClient) Scan(ctx context.Context, cursor uint64, match string, count int64) ([]string, uint64, error) {
	f.mu.Lock()
	fn := f.scan
	f.mu.Unlock()
	if fn != nil {
		return fn(cursor, match, count)
	}
	return f.Store.Scan(ctx, cursor, match, count)
}

// disconnect makes the client report not ready until the next Connect.
func (f *fakeClient) disconnect() { f.ready.Store(false) }

// hold makes subsequent Connect calls block until the returned func runs.
func (f *fakeClient) hold() (release func()) {
	gate := make(chan struct{})
	f.mu.Lock()
	f.gate = gate
	f.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			f.gate = nil
			f.mu.Unlock()
			close(gate)
		})
	}
}

func (f *fakeClient) failConnect(err error) {
	f.mu.Lock()
	f.connectErr = err
	f.mu.Unlock()
}

func (f *fakeClient) failDrop(storageKey string, err error) {
	f.mu.Lock()
	f.dropErrs[storageKey] = err
	f.mu.Unlock()
}

func (f *fakeClient) setScan(fn scanFunc) {
	f.mu.Lock()
	f.scan = fn
	f.mu.Unlock()
}

// recordingHooks counts events.
type recordingHooks struct {
	NopHooks
	queued    atomic.Int32
	started   atomic.Int32
	finished  atomic.Int32
	dropFails atomic.Int32
	scanFails atomic.Int32
	decodes   atomic.Int32
}

func (h *recordingHooks) RequestQueued(string, Op, string, int) { h.queued.Add(1) }
func (h *recordingHooks) ReconnectStarted()                     { h.started.Add(1) }
func (h *recordingHooks) ReconnectFinished(int, error)          { h.finished.Add(1) }
func (h *recordingHooks) DropFailed(string, error)              { h.dropFails.Add(1) }
func (h *recordingHooks) ScanFailed(string, error)              { h.scanFails.Add(1) }
func (h *recordingHooks) DecodeFailed(string, error)            { h.decodes.Add(1) }

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}
