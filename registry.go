package cachewrapper

import (
	"sync"
	"time"

	"github.com/holidayextras/cache-wrapper/store"
)

// registry maps segment names to their policies. Additive only.
type registry struct {
	partition string
	client    store.Client
	jsonItems bool
	now       func() time.Time

	mu       sync.RWMutex
	policies map[string]*Policy
}

func newRegistry(partition string, client store.Client, jsonItems bool, now func() time.Time) *registry {
	return &registry{
		partition: partition,
		client:    client,
		jsonItems: jsonItems,
		now:       now,
		policies:  make(map[string]*Policy),
	}
}

// add creates a policy for every def naming a segment and a positive
// ExpiresIn whose segment is not registered yet. Others are skipped.
func (r *registry) add(defs ...PolicyDef) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	added := 0
	for _, d := range defs {
		if d.Segment == "" || d.ExpiresIn <= 0 {
			continue
		}
		if _, ok := r.policies[d.Segment]; ok {
			continue
		}
		r.policies[d.Segment] = &Policy{
			partition: r.partition,
			segment:   d.Segment,
			expiresIn: d.ExpiresIn,
			client:    r.client,
			jsonItems: r.jsonItems,
			now:       r.now,
		}
		added++
	}
	return added
}

func (r *registry) get(segment string) (*Policy, bool) {
	r.mu.RLock()
	p, ok := r.policies[segment]
	r.mu.RUnlock()
	return p, ok
}
