package bigcache

import (
	"context"
	"errors"
	"sort"
	"sync/atomic"
	"time"

	bc "github.com/allegro/bigcache/v3"

	"github.com/holidayextras/cache-wrapper/internal/keyspace"
	"github.com/holidayextras/cache-wrapper/store"
)

// Store keeps entries in an in-process BigCache. Useful as a single-replica
// backend; nothing is shared between processes.
type Store struct {
	c     *bc.BigCache
	ready atomic.Bool

	cursors store.Cursors
}

var _ store.Client = (*Store)(nil)

type Config struct {
	LifeWindow         time.Duration // global TTL; per-entry TTLs are not supported
	CleanWindow        time.Duration
	MaxEntriesInWindow int
	MaxEntrySize       int
	HardMaxCacheSizeMB int // ~ memory limit; 0 = unlimited
}

func New(ctx context.Context, cfg Config) (*Store, error) {
	conf := bc.DefaultConfig(cfg.LifeWindow)
	if cfg.CleanWindow > 0 {
		conf.CleanWindow = cfg.CleanWindow
	}
	if cfg.MaxEntriesInWindow > 0 {
		conf.MaxEntriesInWindow = cfg.MaxEntriesInWindow
	}
	if cfg.MaxEntrySize > 0 {
		conf.MaxEntrySize = cfg.MaxEntrySize
	}
	if cfg.HardMaxCacheSizeMB > 0 {
		conf.HardMaxCacheSize = cfg.HardMaxCacheSizeMB
	}
	c, err := bc.New(ctx, conf)
	if err != nil {
		return nil, err
	}
	return &Store{c: c}, nil
}

// Connect has nothing to dial; it only flips readiness.
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
	b, err := s.c.Get(key)
	if errors.Is(err, bc.ErrEntryNotFound) {
		return nil, false, nil
	}
	return b, err == nil, err
}

// Set ignores ttl; BigCache expires by its global LifeWindow.
func (s *Store) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	if !s.IsReady() {
		return store.ErrNotReady
	}
	return s.c.Set(key, value)
}

func (s *Store) Del(_ context.Context, key string) error {
	if !s.IsReady() {
		return store.ErrNotReady
	}
	if err := s.c.Delete(key); err != nil && !errors.Is(err, bc.ErrEntryNotFound) {
		return err
	}
	return nil
}

// Scan collects the live keys from the BigCache iterator, sorts them and
// pages the snapshot. Iterator order is not stable between calls, so the
// cursor never refers to it.
func (s *Store) Scan(ctx context.Context, cursor uint64, match string, count int64) ([]string, uint64, error) {
	if !s.IsReady() {
		return nil, 0, store.ErrNotReady
	}
	var all []string
	it := s.c.Iterator()
	for it.SetNext() {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		e, err := it.Value()
		if err != nil {
			// entry evicted mid-iteration
			continue
		}
		all = append(all, e.Key())
	}
	sort.Strings(all)
	return s.cursors.Page(all, cursor, count, func(k string) bool { return keyspace.Match(match, k) })
}

func (s *Store) Close(context.Context) error {
	s.ready.Store(false)
	return s.c.Close()
}
