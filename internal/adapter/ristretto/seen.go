// Package ristretto implements the in-process duplicate delivery observer.
// It only observes: repeated deliveries are counted and logged, never
// suppressed, so duplicate webhook deliveries still dispatch duplicate jobs.
package ristretto

import (
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// Seen tracks how often an issue key has been dispatched within a TTL window.
type Seen struct {
	c   *ristretto.Cache[string, int64]
	ttl time.Duration
}

// New creates a Seen observer holding up to maxEntries issue keys.
func New(maxEntries int64, ttl time.Duration) (*Seen, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, int64]{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Seen{c: c, ttl: ttl}, nil
}

// Observe records one delivery for the key and returns how many deliveries
// were seen before it within the TTL window. 0 means first sighting.
func (s *Seen) Observe(key string) int64 {
	prev, _ := s.c.Get(key)
	s.c.SetWithTTL(key, prev+1, 1, s.ttl)
	// Sets are buffered; wait so back-to-back deliveries are counted.
	s.c.Wait()
	return prev
}

// Close shuts down the cache and releases resources.
func (s *Seen) Close() {
	s.c.Close()
}
