package gateway

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// Dedup remembers recently processed message ids. The Cloud API redelivers
// webhooks on slow responses, and charging an expense twice is the one
// mistake users never forgive.
type Dedup struct {
	seen *cache.Cache
}

// NewDedup builds a dedup window. Entries expire after ttl.
func NewDedup(ttl time.Duration) *Dedup {
	return &Dedup{seen: cache.New(ttl, 15*time.Minute)}
}

// Seen marks the id as processed and reports whether it already was.
func (d *Dedup) Seen(id string) bool {
	if id == "" {
		return false
	}
	if _, ok := d.seen.Get(id); ok {
		return true
	}
	d.seen.SetDefault(id, struct{}{})
	return false
}
