package cachewrapper

import (
	"context"

	"github.com/holidayextras/cache-wrapper/internal/keyspace"
	"github.com/holidayextras/cache-wrapper/store"
)

// scanner resolves a key prefix to the user keys stored under it, one
// bounded SCAN page at a time.
type scanner struct {
	client store.Client
	count  int64 // page size hint per round-trip
	log    Logger
	hooks  Hooks
}

// scanKeys returns every user key of segment starting with prefix, in the
// order the store produced them, without duplicates. Any failed round-trip
// discards what was collected so far.
func (s *scanner) scanKeys(ctx context.Context, partition, segment, prefix string) ([]string, error) {
	if partition == "" || segment == "" || prefix == "" {
		return nil, &OpError{Op: OpScan, Segment: segment, Key: prefix, Err: ErrInvalidArguments}
	}
	ns := keyspace.Namespace(partition, segment)
	match := keyspace.Pattern(partition, segment, prefix)

	var (
		cursor uint64
		keys   []string
		seen   = make(map[string]struct{})
		trips  int
	)
	for {
		page, next, err := s.client.Scan(ctx, cursor, match, s.count)
		if err != nil {
			s.log.Warn("scan round-trip failed", Fields{"match": match, "cursor": cursor, "err": err})
			s.hooks.ScanFailed(ns, err)
			return nil, &OpError{Op: OpScan, Segment: segment, Key: prefix, Err: ErrScanFailed}
		}
		trips++
		for _, raw := range page {
			k, ok, err := keyspace.UserKey(ns, raw)
			if !ok {
				continue
			}
			if err != nil {
				s.log.Warn("skipping undecodable key", Fields{"key": raw, "err": err})
				continue
			}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
		// cursor back at 0 means the store wrapped around
		if cursor = next; cursor == 0 {
			break
		}
	}
	s.log.Debug("scan complete", Fields{"match": match, "keys": len(keys), "roundTrips": trips})
	return keys, nil
}
