//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package primitives

import (
	"sync"

	"github.com/markkurossi/sepia/field"
)

// PredicateCache memoizes LSB-derived predicate shares so that
// repeated LessThan comparisons against the same value do not redo
// the same randomized LSB extraction. Callers name their own cache
// keys (typically a stable identifier for the compared value); the
// empty key disables caching for that predicate.
type PredicateCache struct {
	mu      sync.Mutex
	entries map[string]field.Element
}

// NewPredicateCache creates an empty predicate cache.
func NewPredicateCache() *PredicateCache {
	return &PredicateCache{entries: make(map[string]field.Element)}
}

// Get returns the cached predicate share for key, if any.
func (c *PredicateCache) Get(key string) (field.Element, bool) {
	if key == "" {
		return 0, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

// Set stores the predicate share for key. A call with an empty key is
// a no-op.
func (c *PredicateCache) Set(key string, v field.Element) {
	if key == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = v
}
