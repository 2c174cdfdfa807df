// Package memory is an in-process store.Client, handy for tests and local
// development. Scan pages walk a sorted snapshot of the keyspace.
package memory

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/holidayextras/cache-wrapper/internal/keyspace"
	"github.com/holidayextras/cache-wrapper/store"
)

type entry struct {
	v   []byte
	exp time.Time // zero => no TTL
}

type Store struct {
	mu    sync.RWMutex
	m     map[string]entry
	ready atomic.Bool
	now   func() time.Time

	cursors store.Cursors
}

var _ store.Client = (*Store)(nil)

// New returns an empty store. Call Connect before use.
func New() *Store {
	return &Store{m: make(map[string]entry), now: time.Now}
}

func (s *Store) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.ready.Store(true)
	return nil
}

func (s *Store) IsReady() bool { return s.ready.Load() }

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	if !s.IsReady() {
		return nil, false, store.ErrNotReady
	}
	s.mu.RLock()
	e, ok := s.m[key]
	s.mu.RUnlock()
	if !ok || s.expired(e) {
		return nil, false, nil
	}
	return append([]byte(nil), e.v...), true, nil
}

func (s *Store) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if !s.IsReady() {
		return store.ErrNotReady
	}
	e := entry{v: append([]byte(nil), value...)}
	if ttl > 0 {
		e.exp = s.now().Add(ttl)
	}
	s.mu.Lock()
	s.m[key] = e
	s.mu.Unlock()
	return nil
}

func (s *Store) Del(_ context.Context, key string) error {
	if !s.IsReady() {
		return store.ErrNotReady
	}
	s.mu.Lock()
	delete(s.m, key)
	s.mu.Unlock()
	return nil
}

// Scan pages a sorted snapshot of the live keys. Cursors resume after the
// last key returned, so keys present for the whole scan are seen once.
func (s *Store) Scan(_ context.Context, cursor uint64, match string, count int64) ([]string, uint64, error) {
	if !s.IsReady() {
		return nil, 0, store.ErrNotReady
	}
	s.mu.RLock()
	all := make([]string, 0, len(s.m))
	for k, e := range s.m {
		if !s.expired(e) {
			all = append(all, k)
		}
	}
	s.mu.RUnlock()
	sort.Strings(all)
	return s.cursors.Page(all, cursor, count, func(k string) bool { return keyspace.Match(match, k) })
}

// Close marks the store not ready; contents survive a later Connect.
func (s *Store) Close(context.Context) error {
	s.ready.Store(false)
	return nil
}

// Len returns the number of live keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, e := range s.m {
		if !s.expired(e) {
			n++
		}
	}
	return n
}

func (s *Store) expired(e entry) bool {
	return !e.exp.IsZero() && !s.now().Before(e.exp)
}
