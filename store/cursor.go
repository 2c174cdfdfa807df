package store

import (
	"errors"
	"sort"
	"sync"
)

// ErrUnknownCursor is returned by in-process clients for a cursor they never
// issued or have already forgotten.
var ErrUnknownCursor = errors.New("store: unknown scan cursor")

// maxCursors bounds the cursors kept for abandoned scans.
const maxCursors = 4096

// Cursors pages a sorted key snapshot for in-process clients. A cursor
// remembers the last key handed out rather than an offset, so keys present
// for the whole scan are returned exactly once even if other keys are added
// or removed between pages.
type Cursors struct {
	mu    sync.Mutex
	last  uint64
	marks map[uint64]string
	order []uint64 // issue order, oldest first
}

// Page returns the matching keys among the next count entries of sorted
// after cursor, and the cursor to resume from (0 when done). match filters
// a page after it is cut, like Redis SCAN MATCH.
func (c *Cursors) Page(sorted []string, cursor uint64, count int64, match func(string) bool) ([]string, uint64, error) {
	if count <= 0 {
		count = 10
	}
	start := 0
	if cursor != 0 {
		mark, ok := c.take(cursor)
		if !ok {
			return nil, 0, ErrUnknownCursor
		}
		start = sort.Search(len(sorted), func(i int) bool { return sorted[i] > mark })
	}
	end := start + int(count)
	if end > len(sorted) {
		end = len(sorted)
	}

	var page []string
	for _, k := range sorted[start:end] {
		if match(k) {
			page = append(page, k)
		}
	}
	if end == len(sorted) {
		return page, 0, nil
	}
	return page, c.issue(sorted[end-1]), nil
}

func (c *Cursors) take(cursor uint64) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	mark, ok := c.marks[cursor]
	delete(c.marks, cursor)
	return mark, ok
}

func (c *Cursors) issue(mark string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.marks == nil {
		c.marks = make(map[uint64]string)
	}
	for len(c.marks) >= maxCursors && len(c.order) > 0 {
		delete(c.marks, c.order[0])
		c.order = c.order[1:]
	}
	c.last++
	if c.last == 0 {
		c.last++
	}
	c.marks[c.last] = mark
	c.order = append(c.order, c.last)
	return c.last
}
