package assess

import (
	"context"
	"sync"
	"time"

	"github.com/gyeh/nephtrends/internal/model"
	"github.com/gyeh/nephtrends/internal/normalize"
)

// Cache memoizes assessments per patient document and as-of instant. Callers
// bucket time with EndOfDay so repeated requests on one day share an entry.
// Cached values are shared between callers and must be treated as read-only.
type Cache struct {
	assessor *Assessor
	max      int

	mu      sync.Mutex
	entries map[cacheKey]model.Assessment
	hits    int64
	misses  int64
}

type cacheKey struct {
	patientID string
	sha       string
	asOf      string
}

// NewCache wraps a. When the cache holds max entries it is emptied before the
// next insert; max <= 0 means 1024.
func NewCache(a *Assessor, max int) *Cache {
	if max <= 0 {
		max = 1024
	}
	return &Cache{assessor: a, max: max, entries: make(map[cacheKey]model.Assessment)}
}

// Assess returns the memoized assessment for rec as of asOf, computing it on
// a miss.
func (c *Cache) Assess(ctx context.Context, rec *model.PatientRecord, asOf time.Time) model.Assessment {
	_, sha, err := normalize.DocumentHash(rec)
	if err != nil {
		return c.assessor.Assess(ctx, rec, asOf)
	}
	key := cacheKey{patientID: rec.ID, sha: sha, asOf: asOf.Format(time.RFC3339Nano)}

	c.mu.Lock()
	if a, ok := c.entries[key]; ok {
		c.hits++
		c.mu.Unlock()
		return a
	}
	c.misses++
	c.mu.Unlock()

	a := c.assessor.Assess(ctx, rec, asOf)

	c.mu.Lock()
	if len(c.entries) >= c.max {
		clear(c.entries)
	}
	c.entries[key] = a
	c.mu.Unlock()
	return a
}

// Stats returns the hit and miss counters.
func (c *Cache) Stats() (hits, misses int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
