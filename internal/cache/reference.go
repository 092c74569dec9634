// Package cache holds the process-wide reference-data cache shared by the
// stock coordinators.  Product types and brands change rarely but are read
// on almost every stock operation, so they are served from an immutable
// in-memory snapshot that expires on a fixed TTL and is rebuilt lazily on
// the first access past expiry.  The cache is never consulted for quantity
// decisions; availability always comes from the locked stock row.
package cache

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iliyamo/godown-stock-ledger/internal/model"
)

// Snapshot is one immutable view of the reference tables.  Readers get a
// pointer to a snapshot and may use it for as long as they like; a
// refresh installs a new snapshot without touching old ones.
type Snapshot struct {
	ProductTypes []string      // normalized product type names
	Brands       []model.Brand // all brands
	LoadedAt     time.Time     // when this snapshot was built
}

// LoadFunc fetches the current reference data from the database.
type LoadFunc func(ctx context.Context) ([]string, []model.Brand, error)

// ReferenceCache serves TTL-expiring snapshots of product types and
// brands.  Reads are lock-free (an atomic pointer load); only a refresh
// takes the mutex, and it swaps the pointer atomically so readers are
// never blocked on a writer.  Mutations to the underlying tables must
// call Invalidate so the next read rebuilds immediately instead of
// waiting out the TTL.
type ReferenceCache struct {
	ttl  time.Duration
	now  func() time.Time // injected clock; time.Now in production
	load LoadFunc

	cur atomic.Pointer[Snapshot]
	mu  sync.Mutex // serializes refreshes, not reads
}

// New constructs a ReferenceCache.  A nil clock defaults to time.Now.
func New(ttl time.Duration, clock func() time.Time, load LoadFunc) *ReferenceCache {
	if clock == nil {
		clock = time.Now
	}
	return &ReferenceCache{ttl: ttl, now: clock, load: load}
}

// Get returns the current snapshot, rebuilding it first when none exists
// or the TTL has elapsed.  Concurrent callers during a rebuild wait for
// the single in-flight load rather than issuing duplicate queries.
func (c *ReferenceCache) Get(ctx context.Context) (*Snapshot, error) {
	if s := c.cur.Load(); s != nil && c.now().Sub(s.LoadedAt) <= c.ttl {
		return s, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	// Re-check: another caller may have refreshed while we waited.
	if s := c.cur.Load(); s != nil && c.now().Sub(s.LoadedAt) <= c.ttl {
		return s, nil
	}
	types, brands, err := c.load(ctx)
	if err != nil {
		// Serve the stale snapshot if one exists; reference data going
		// briefly stale is preferable to failing a stock operation.
		if s := c.cur.Load(); s != nil {
			return s, nil
		}
		return nil, err
	}
	s := &Snapshot{ProductTypes: types, Brands: brands, LoadedAt: c.now()}
	c.cur.Store(s)
	return s, nil
}

// Invalidate discards the current snapshot.  The next Get rebuilds from
// the database.  Callers mutating brands or product types must invoke
// this after a successful write.  It takes the refresh mutex so that an
// in-flight rebuild cannot install its (pre-mutation) snapshot over the
// nil stored here; readers remain lock-free.
func (c *ReferenceCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur.Store(nil)
}

// HasProductType reports whether the given (normalized) product type
// exists.
func (c *ReferenceCache) HasProductType(ctx context.Context, name string) (bool, error) {
	s, err := c.Get(ctx)
	if err != nil {
		return false, err
	}
	needle := strings.ToLower(strings.TrimSpace(name))
	for _, t := range s.ProductTypes {
		if t == needle || strings.EqualFold(t, name) {
			return true, nil
		}
	}
	return false, nil
}

// BrandByName resolves a brand by case-insensitive name.  The second
// return value is false when the brand is not in the snapshot; callers
// that need the brand to exist fall through to resolve-or-create against
// the database.
func (c *ReferenceCache) BrandByName(ctx context.Context, name string) (*model.Brand, bool, error) {
	s, err := c.Get(ctx)
	if err != nil {
		return nil, false, err
	}
	for i := range s.Brands {
		if strings.EqualFold(s.Brands[i].Name, name) {
			return &s.Brands[i], true, nil
		}
	}
	return nil, false, nil
}
